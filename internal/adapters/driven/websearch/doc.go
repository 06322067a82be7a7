// Package websearch groups the adapters used for automatic knowledge
// acquisition: a search API client (serper) and a page scraper (scraper).
package websearch

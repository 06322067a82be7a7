// Package html provides a Normaliser implementation for HTML documents.
// It extracts readable text content from HTML, dropping scripts, styles
// and page chrome, and decoding entities for clean searchable content.
package html

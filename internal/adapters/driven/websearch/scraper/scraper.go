// Package scraper fetches web pages and extracts their main readable text.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

// Ensure Scraper implements the interface.
var _ driven.Scraper = (*Scraper)(nil)

// Default configuration values.
const (
	DefaultUserAgent = "Mozilla/5.0 (compatible; RAG-Bot/1.0)"
	DefaultTimeout   = 20 * time.Second

	// DefaultMaxChars caps the extracted text; longer pages are cut and
	// suffixed with "...".
	DefaultMaxChars = 10000

	// minMainText is how much text a content container needs before it
	// is preferred over the whole body.
	minMainText = 100

	maxBodyBytes = 5 << 20
)

// Config holds scraper settings.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	MaxChars  int
}

// Scraper downloads pages over HTTP.
type Scraper struct {
	client    *http.Client
	userAgent string
	maxChars  int
}

// New creates a scraper.
func New(cfg Config) *Scraper {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = DefaultMaxChars
	}
	return &Scraper{
		client:    &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
		maxChars:  cfg.MaxChars,
	}
}

// Scrape fetches url and returns its cleaned main text.
func (s *Scraper) Scrape(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", &domain.ScrapeError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &domain.ScrapeError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &domain.ScrapeError{URL: url, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", &domain.ScrapeError{URL: url, Err: fmt.Errorf("parse html: %w", err)}
	}

	text := truncate(MainText(doc), s.maxChars)
	if text == "" {
		return "", &domain.ScrapeError{URL: url, Err: errors.New("no content could be extracted")}
	}
	return text, nil
}

// removed elements are dropped before text is collected.
var removed = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Nav:      true,
	atom.Header:   true,
	atom.Footer:   true,
	atom.Aside:    true,
}

// selector matches a candidate content container.
type selector func(n *html.Node) bool

func tag(a atom.Atom) selector {
	return func(n *html.Node) bool { return n.DataAtom == a }
}

func attrEquals(key, value string) selector {
	return func(n *html.Node) bool { return attr(n, key) == value }
}

func hasClass(class string) selector {
	return func(n *html.Node) bool {
		for _, c := range strings.Fields(attr(n, "class")) {
			if c == class {
				return true
			}
		}
		return false
	}
}

// contentSelectors are tried in order; the first whose matches hold
// enough text wins.
var contentSelectors = []selector{
	tag(atom.Main),
	attrEquals("role", "main"),
	hasClass("content"),
	attrEquals("id", "content"),
	tag(atom.Article),
	hasClass("post-content"),
	hasClass("entry-content"),
}

// MainText strips page chrome from doc and returns the text of the main
// content container, falling back to <body>, with whitespace collapsed.
func MainText(doc *html.Node) string {
	prune(doc)

	for _, sel := range contentSelectors {
		var parts []string
		for _, n := range findAll(doc, sel) {
			parts = append(parts, textOf(n))
		}
		if text := collapse(strings.Join(parts, " ")); len(text) > minMainText {
			return text
		}
	}

	if body := findFirst(doc, tag(atom.Body)); body != nil {
		return collapse(textOf(body))
	}
	return collapse(textOf(doc))
}

func prune(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && removed[c.DataAtom] {
			n.RemoveChild(c)
		} else if c.Type == html.CommentNode {
			n.RemoveChild(c)
		} else {
			prune(c)
		}
		c = next
	}
}

// findAll returns outermost matches in document order.
func findAll(n *html.Node, sel selector) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && sel(n) {
			out = append(out, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func findFirst(n *html.Node, sel selector) *html.Node {
	if all := findAll(n, sel); len(all) > 0 {
		return all[0]
	}
	return nil
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts s to max characters and appends "..." when it did.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}

// Package crawler fetches the analyzed page and extracts the text used to
// seed prompt generation.
package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

const (
	defaultUserAgent = "citelens/1.0 (+https://citelens.app)"
	maxBodySize      = 5 * 1024 * 1024
	maxHeadings      = 20
)

// text extracted from a single page
type Page struct {
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Headings    []string `json:"headings"`
}

// fetches pages over HTTP
type Crawler struct {
	client    *http.Client
	userAgent string
}

func New(timeout time.Duration) *Crawler {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Crawler{
		client:    &http.Client{Timeout: timeout},
		userAgent: defaultUserAgent,
	}
}

// fetches rawURL and extracts its title, description and headings
func (c *Crawler) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	target, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", target, err)
	}

	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("failed to fetch %s: status %d", target, resp.StatusCode)
	}

	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		reader = resp.Body
	}

	page, err := Parse(io.LimitReader(reader, maxBodySize))
	if err != nil {
		return nil, err
	}

	page.URL = resp.Request.URL.String()
	return page, nil
}

// extracts page text from an HTML document
func Parse(r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	page := &Page{
		Title:    clean(doc.Find("title").First().Text()),
		Headings: []string{},
	}

	for _, sel := range []string{`meta[name="description"]`, `meta[property="og:description"]`} {
		if content, ok := doc.Find(sel).First().Attr("content"); ok && clean(content) != "" {
			page.Description = clean(content)
			break
		}
	}

	if page.Title == "" {
		if content, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
			page.Title = clean(content)
		}
	}

	seen := map[string]bool{}
	doc.Find("h1, h2, h3").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := clean(s.Text())
		if text != "" && !seen[text] {
			seen[text] = true
			page.Headings = append(page.Headings, text)
		}

		return len(page.Headings) < maxHeadings
	})

	return page, nil
}

// adds an https scheme to bare hosts and rejects anything but http(s)
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("url is required")
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}

	if u.Hostname() == "" {
		return "", fmt.Errorf("url %q has no host", raw)
	}

	return u.String(), nil
}

// collapses whitespace
func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

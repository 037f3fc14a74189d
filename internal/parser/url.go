// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package parser

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// defaultURLFetchTimeout bounds how long a URL source's indexing pass
// waits on the remote server before giving up, when NewURLProcessor is
// given a non-positive timeout.
const defaultURLFetchTimeout = 25 * time.Second

var headingTags = map[string]string{
	"h1": "# ", "h2": "## ", "h3": "### ", "h4": "#### ", "h5": "##### ", "h6": "###### ",
}

// URLProcessor fetches a web page and reshapes it into markdown-lite
// text: headings keep their level marker, paragraphs and list items
// are separated by blank lines, and script/style content is dropped.
type URLProcessor struct {
	Client *http.Client
}

// NewURLProcessor returns a URLProcessor using a client bound by
// timeout. A non-positive timeout falls back to defaultURLFetchTimeout.
func NewURLProcessor(timeout time.Duration) *URLProcessor {
	if timeout <= 0 {
		timeout = defaultURLFetchTimeout
	}
	return &URLProcessor{Client: &http.Client{Timeout: timeout}}
}

// Fetch retrieves rawURL and converts its body to markdown-lite text.
func (p *URLProcessor) Fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", "the-hive-indexer/1.0")

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("fetching %s returned status %d", rawURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML from %s: %w", rawURL, err)
	}

	doc.Find("script, style, noscript, nav, footer").Each(func(_ int, s *goquery.Selection) {
		s.Remove()
	})

	var b strings.Builder
	doc.Find("h1, h2, h3, h4, h5, h6, p, li").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		tag := goquery.NodeName(s)
		if prefix, ok := headingTags[tag]; ok {
			b.WriteString(prefix)
		} else if tag == "li" {
			b.WriteString("- ")
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	})

	result := strings.TrimSpace(b.String())
	if result == "" {
		return "", noTextExtracted("URL")
	}
	return result, nil
}

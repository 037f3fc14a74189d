// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package parser

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"
)

type htmlProcessor struct{}

// Process extracts visible text from HTML bytes, dropping script,
// style, and noscript tags before flattening the document to text.
func (htmlProcessor) Process(data []byte) (string, error) {
	if err := rejectEmpty(data, "HTML", 0); err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, noscript").Each(func(_ int, s *goquery.Selection) {
		s.Remove()
	})

	text := doc.Text()
	if text == "" {
		return "", noTextExtracted("HTML")
	}
	return text, nil
}

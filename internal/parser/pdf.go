// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package parser

import (
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
)

type pdfProcessor struct {
	maxBytes int64
}

// Process extracts text from PDF bytes using go-fitz (MuPDF),
// page-by-page, ignoring unreadable pages rather than failing outright.
func (p pdfProcessor) Process(data []byte) (string, error) {
	if err := rejectEmpty(data, "PDF", p.maxBytes); err != nil {
		return "", err
	}
	if len(data) < 4 || string(data[:4]) != "%PDF" {
		return "", fmt.Errorf("not a PDF file: missing %%PDF magic bytes")
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var textBuilder strings.Builder
	numPages := doc.NumPage()

	for i := 0; i < numPages; i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			continue
		}
		textBuilder.WriteString(pageText)
		if i < numPages-1 {
			textBuilder.WriteString("\n\n")
		}
	}

	extractedText := strings.TrimSpace(textBuilder.String())
	return extractedText, nil
}

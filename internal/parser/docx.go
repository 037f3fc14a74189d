// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package parser

import (
	"fmt"
	"os"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

type docxProcessor struct {
	maxBytes int64
}

// Process extracts text from DOCX bytes. nguyenthenguyen/docx only
// opens from a file path, so the bytes are staged to a temp file for
// the duration of the read.
func (p docxProcessor) Process(data []byte) (string, error) {
	if err := rejectEmpty(data, "DOCX", p.maxBytes); err != nil {
		return "", err
	}
	if len(data) < 2 || data[0] != 'P' || data[1] != 'K' {
		return "", fmt.Errorf("not a DOCX file: missing PK magic bytes")
	}

	tmp, err := os.CreateTemp("", "docx-*.docx")
	if err != nil {
		return "", fmt.Errorf("failed to stage DOCX temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := tmp.Write(data); err != nil {
		return "", fmt.Errorf("failed to write DOCX temp file: %w", err)
	}
	tmp.Close()

	doc, err := docx.ReadDocxFile(tmp.Name())
	if err != nil {
		return "", fmt.Errorf("failed to open DOCX file: %w", err)
	}
	defer doc.Close()

	text := strings.TrimSpace(doc.Editable().GetContent())
	if text == "" {
		return "", noTextExtracted("DOCX")
	}
	return text, nil
}

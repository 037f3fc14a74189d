// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package parser implements the Processor Factory: dispatch from a
// filename's extension to the byte-extractor that turns raw
// content into the plain text the chunker consumes.
package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/the-hive/internal/apperr"
)

// Processor extracts plain text from raw content.
type Processor interface {
	Process(data []byte) (string, error)
}

// MaxBinarySize bounds how large a single document's bytes may be
// before a processor rejects it outright, independent of the
// per-upload size caps enforced at the HTTP boundary.
const MaxBinarySize = 50 * 1024 * 1024

// Limits carries the per-type byte ceilings and content heuristics
// ForFilename's processors enforce. A zero Limits falls back to
// MaxBinarySize for every type and disables the null-ratio check.
type Limits struct {
	MaxPDFBytes        int64
	MaxDOCXBytes       int64
	MaxTXTBytes        int64
	MaxBinaryNullRatio float64
}

// ForFilename returns the Processor appropriate for filename's
// extension. The returned Processors work on in-memory bytes rather
// than reading from disk.
func ForFilename(filename string, limits Limits) (Processor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return pdfProcessor{maxBytes: limits.MaxPDFBytes}, nil
	case ".docx":
		return docxProcessor{maxBytes: limits.MaxDOCXBytes}, nil
	case ".txt", ".md":
		return textProcessor{maxBytes: limits.MaxTXTBytes, maxNullRatio: limits.MaxBinaryNullRatio}, nil
	case ".xlsx", ".xls":
		return excelProcessor{}, nil
	case ".html", ".htm":
		return htmlProcessor{}, nil
	case ".eml":
		return emailProcessor{}, nil
	default:
		return nil, apperr.Validationf("unsupported file type: %s", ext)
	}
}

// IsSupportedFilename reports whether filename's extension has a processor.
func IsSupportedFilename(filename string) bool {
	_, err := ForFilename(filename, Limits{})
	return err == nil
}

// rejectEmpty rejects empty content and content over maxBytes. A
// maxBytes of zero or less falls back to the package-wide MaxBinarySize.
func rejectEmpty(data []byte, kind string, maxBytes int64) error {
	if len(data) == 0 {
		return apperr.Validationf("%s content is empty", kind)
	}
	limit := maxBytes
	if limit <= 0 {
		limit = MaxBinarySize
	}
	if int64(len(data)) > limit {
		return apperr.Validationf("%s content exceeds maximum size of %d bytes", kind, limit)
	}
	return nil
}

func noTextExtracted(kind string) error {
	return fmt.Errorf("no text extracted from %s", kind)
}

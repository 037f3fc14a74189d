// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package parser

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/the-hive/internal/apperr"
)

// nullByteRatio reports the fraction of data that is a NUL byte, a
// cheap signal that content labeled text is actually binary.
func nullByteRatio(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var nulls int
	for _, b := range data {
		if b == 0 {
			nulls++
		}
	}
	return float64(nulls) / float64(len(data))
}

type textProcessor struct {
	maxBytes     int64
	maxNullRatio float64
}

// Process decodes plain text bytes (.txt, .md). Most uploads are
// already UTF-8; when they aren't, decoding falls back through a
// chain of legacy single-byte encodings rather than failing outright.
func (p textProcessor) Process(data []byte) (string, error) {
	if err := rejectEmpty(data, "text", p.maxBytes); err != nil {
		return "", err
	}
	if p.maxNullRatio > 0 {
		if ratio := nullByteRatio(data); ratio > p.maxNullRatio {
			return "", apperr.Validationf("text content is %.0f%% NUL bytes, exceeding the %.0f%% limit for text uploads", ratio*100, p.maxNullRatio*100)
		}
	}

	text := decodeText(data)
	if strings.TrimSpace(text) == "" {
		return "", noTextExtracted("text")
	}
	return normalizeText(text), nil
}

func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	for _, enc := range []*charmap.Charmap{charmap.Windows1252, charmap.ISO8859_1} {
		if decoded, err := enc.NewDecoder().Bytes(data); err == nil {
			return string(decoded)
		}
	}
	return string(data)
}

// normalizeText strips control characters (other than whitespace) and
// normalizes line endings to "\n".
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' || r >= 0x20 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

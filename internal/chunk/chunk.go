// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package chunk splits extracted document text into overlapping
// pieces sized for embedding, using a recursive separator cascade
// rather than a fixed character window.
package chunk

import "strings"

// defaultSeparators is tried in order: paragraph breaks first, then
// line breaks, then spaces, falling back to a hard character cut.
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter splits text into pieces of at most Size characters and packs
// them into chunks; each chunk after the first begins with the last
// Overlap characters of the chunk before it, so a chunk can exceed Size
// by up to Overlap+1 characters.
type Splitter struct {
	Size    int
	Overlap int
}

// NewSplitter returns a Splitter with the given size and overlap. A
// size of zero or less becomes 1000; an overlap that is negative or not
// smaller than size becomes 200.
func NewSplitter(size, overlap int) *Splitter {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = 200
	}
	return &Splitter{Size: size, Overlap: overlap}
}

// Split divides text into pieces no larger than Size characters,
// recursively trying each separator in defaultSeparators until pieces
// fit, then reassembling them into overlapping windows of at most
// Size+Overlap+1 characters.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	pieces := splitRecursive(text, defaultSeparators, s.Size)
	return mergeWithOverlap(pieces, s.Size, s.Overlap)
}

func splitRecursive(text string, seps []string, size int) []string {
	if len(text) <= size {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}
	if len(seps) == 0 {
		return hardSplit(text, size)
	}

	sep := seps[0]
	rest := seps[1:]

	if sep == "" {
		return hardSplit(text, size)
	}

	parts := strings.Split(text, sep)
	if len(parts) == 1 {
		return splitRecursive(text, rest, size)
	}

	var out []string
	for _, p := range parts {
		if p == "" {
			continue
		}
		if len(p) > size {
			out = append(out, splitRecursive(p, rest, size)...)
		} else if strings.TrimSpace(p) != "" {
			out = append(out, strings.TrimSpace(p))
		}
	}
	return out
}

func hardSplit(text string, size int) []string {
	var out []string
	runes := []rune(text)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			out = append(out, piece)
		}
	}
	return out
}

// mergeWithOverlap packs consecutive pieces into chunks up to size
// characters, carrying the trailing overlap characters of one chunk
// into the start of the next so retrieval has sentence-level context
// on either side of a boundary.
func mergeWithOverlap(pieces []string, size, overlap int) []string {
	if len(pieces) == 0 {
		return nil
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		chunk := strings.TrimSpace(current.String())
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		current.Reset()
	}

	for _, p := range pieces {
		if current.Len() == 0 {
			current.WriteString(p)
			continue
		}
		if current.Len()+1+len(p) <= size {
			current.WriteString(" ")
			current.WriteString(p)
			continue
		}

		prev := current.String()
		flush()

		if overlap > 0 && len(prev) > overlap {
			tail := []rune(prev)
			start := len(tail) - overlap
			current.WriteString(string(tail[start:]))
			current.WriteString(" ")
		}
		current.WriteString(p)
	}
	flush()

	return chunks
}

// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/the-hive/internal/config"
)

func TestMaxBytesForFilenameUsesPerTypeCaps(t *testing.T) {
	limits := config.LimitsConfig{
		MaxPDFBytes:      10 << 20,
		MaxDOCXBytes:     11 << 20,
		MaxTXTBytes:      12 << 20,
		MaxDocumentBytes: 20 << 20,
	}

	assert.EqualValues(t, 10<<20, maxBytesForFilename(limits, "report.PDF"))
	assert.EqualValues(t, 11<<20, maxBytesForFilename(limits, "memo.docx"))
	assert.EqualValues(t, 12<<20, maxBytesForFilename(limits, "notes.txt"))
	assert.EqualValues(t, 12<<20, maxBytesForFilename(limits, "notes.md"))
	assert.EqualValues(t, 20<<20, maxBytesForFilename(limits, "ledger.xlsx"), "extensions without a dedicated cap fall back to MaxDocumentBytes")
}

func TestIsAllowedFileType(t *testing.T) {
	allowed := []string{"pdf", "docx", "txt"}

	assert.True(t, isAllowedFileType(allowed, "report.PDF"), "extension match should be case-insensitive")
	assert.False(t, isAllowedFileType(allowed, "archive.zip"))
	assert.True(t, isAllowedFileType(nil, "archive.zip"), "an empty allow-list imposes no restriction")
}

func TestUploadBatchRejectsOverTotalCap(t *testing.T) {
	svc := &UploadService{limits: config.LimitsConfig{MaxTotalUploadBytes: 10}}

	files := map[string][]byte{
		"a.txt": make([]byte, 6),
		"b.txt": make([]byte, 6),
	}
	results := svc.UploadBatch(nil, "u1", files, map[string]string{})

	require.Len(t, results, 2)
	for _, r := range results {
		require.Error(t, r.Err)
		assert.Nil(t, r.Document)
	}
}

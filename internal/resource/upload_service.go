// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package resource

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/the-hive/internal/apperr"
	"github.com/the-hive/internal/config"
	"github.com/the-hive/internal/database"
	"github.com/the-hive/internal/eventbus"
	"github.com/the-hive/internal/objectstore"
	"github.com/the-hive/internal/parser"
)

const minDocumentBytes = 100

// UploadService implements the upload contract: insert the pending row,
// PUT the blob, commit — rolling the blob back out if the commit fails,
// deleting the row's transaction if the PUT fails.
type UploadService struct {
	db      *sql.DB
	docs    *database.DocumentStore
	blobs   *objectstore.Gateway
	bus     *eventbus.Publisher
	limiter RateLimiter
	limits  config.LimitsConfig
	bucket  string
}

// NewUploadService wires the dependencies an upload needs.
func NewUploadService(db *sql.DB, docs *database.DocumentStore, blobs *objectstore.Gateway,
	bus *eventbus.Publisher, limiter RateLimiter, limits config.LimitsConfig, bucket string) *UploadService {
	return &UploadService{db: db, docs: docs, blobs: blobs, bus: bus, limiter: limiter, limits: limits, bucket: bucket}
}

// UploadResult pairs a single file's outcome for the batch-upload path.
type UploadResult struct {
	Filename string
	Document *database.Document
	Err      error
}

// Upload runs the full per-file contract (4.D.1) in one transaction.
func (s *UploadService) Upload(ctx context.Context, ownerID, filename, mimeType string, content []byte) (*database.Document, error) {
	if len(content) < minDocumentBytes {
		return nil, apperr.Validationf("file %s is smaller than the minimum of %d bytes", filename, minDocumentBytes)
	}
	if !isAllowedFileType(s.limits.AllowedFileTypes, filename) || !parser.IsSupportedFilename(filename) {
		return nil, apperr.Validationf("unsupported file type for %s", filename)
	}
	if maxBytes := maxBytesForFilename(s.limits, filename); int64(len(content)) > maxBytes {
		return nil, apperr.Validationf("file %s exceeds the maximum of %d bytes", filename, maxBytes)
	}

	sum := sha256.Sum256(content)
	fileHash := hex.EncodeToString(sum[:])
	objectKey := objectstore.Key(ownerID, filename)

	ok, err := s.limiter.CheckProcessingLimit(ownerID)
	if err != nil {
		return nil, fmt.Errorf("checking processing limit: %w", err)
	}
	if !ok {
		return nil, apperr.RateLimitedf("owner %s has too many documents processing", ownerID)
	}

	if existing, err := s.docs.GetByObjectKey(ownerID, objectKey); err == nil && existing != nil {
		return nil, apperr.Conflictf("document already exists for %s", objectKey)
	} else if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("checking existing document: %w", err)
	}

	metadata, err := json.Marshal(map[string]string{"file_hash": fileHash})
	if err != nil {
		return nil, fmt.Errorf("marshaling metadata: %w", err)
	}

	doc := &database.Document{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Filename:  filename,
		MimeType:  mimeType,
		Size:      int64(len(content)),
		Bucket:    s.bucket,
		ObjectKey: objectKey,
		Metadata:  string(metadata),
		Status:    database.DocumentPending,
		Version:   1,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	if err := s.docs.Insert(tx, doc); err != nil {
		tx.Rollback()
		return nil, apperr.Wrap(apperr.Conflict, "failed to insert document row", err)
	}

	if err := s.blobs.Put(ctx, objectKey, content, mimeType); err != nil {
		tx.Rollback()
		return nil, apperr.Wrap(apperr.ExternalUnavailable, "failed to store document blob", err)
	}

	if err := tx.Commit(); err != nil {
		if delErr := s.blobs.Delete(ctx, objectKey); delErr != nil {
			return nil, apperr.Wrap(apperr.Internal,
				fmt.Sprintf("commit failed and blob rollback also failed (blob %s leaked)", objectKey), err)
		}
		return nil, apperr.Wrap(apperr.Internal, "failed to commit document row", err)
	}

	s.bus.Publish(ctx, eventbus.Event{
		Op:         eventbus.OpCreate,
		EntityType: "document",
		EntityID:   doc.ID,
		OwnerID:    ownerID,
	})

	return doc, nil
}

// UploadBatch processes every file independently; a failure on one
// file does not abort the others. The batch as a whole is rejected
// outright if its total size exceeds MaxTotalUploadBytes.
func (s *UploadService) UploadBatch(ctx context.Context, ownerID string, files map[string][]byte, mimeTypes map[string]string) []UploadResult {
	var total int64
	for _, content := range files {
		total += int64(len(content))
	}
	if s.limits.MaxTotalUploadBytes > 0 && total > s.limits.MaxTotalUploadBytes {
		err := apperr.Validationf("batch upload of %d bytes exceeds the maximum of %d bytes", total, s.limits.MaxTotalUploadBytes)
		results := make([]UploadResult, 0, len(files))
		for filename := range files {
			results = append(results, UploadResult{Filename: filename, Err: err})
		}
		return results
	}

	results := make([]UploadResult, 0, len(files))
	for filename, content := range files {
		doc, err := s.Upload(ctx, ownerID, filename, mimeTypes[filename], content)
		results = append(results, UploadResult{Filename: filename, Document: doc, Err: err})
	}
	return results
}

// maxBytesForFilename resolves the configured size ceiling for
// filename's extension, falling back to MaxDocumentBytes for
// extensions without a dedicated cap.
func maxBytesForFilename(limits config.LimitsConfig, filename string) int64 {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return limits.MaxPDFBytes
	case ".docx":
		return limits.MaxDOCXBytes
	case ".txt", ".md":
		return limits.MaxTXTBytes
	default:
		return limits.MaxDocumentBytes
	}
}

// isAllowedFileType reports whether filename's extension (without the
// dot) appears in allowed. An empty allowed list imposes no restriction
// beyond what parser.IsSupportedFilename already enforces.
func isAllowedFileType(allowed []string, filename string) bool {
	if len(allowed) == 0 {
		return true
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimSpace(a)) == ext {
			return true
		}
	}
	return false
}

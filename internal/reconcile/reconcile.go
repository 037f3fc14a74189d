// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package reconcile implements the superuser consistency-check and
// cleanup sweep: cross-checking the document table against the blob
// store and the vector index for drift one multi-store system
// inevitably accumulates under partial failures, grounded on the
// original Python backend's cleanup module.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/the-hive/internal/database"
	"github.com/the-hive/internal/objectstore"
	"github.com/the-hive/internal/vectordb"
)

// OrphanedBlob is a blob with no owning document row.
type OrphanedBlob struct {
	Key string `json:"key"`
}

// OrphanedRecord is a document row whose blob is missing.
type OrphanedRecord struct {
	DocumentID string `json:"document_id"`
	ObjectKey  string `json:"object_key"`
	OwnerID    string `json:"owner_id"`
}

// ConsistencyReport summarizes cross-store drift with no side effects.
type ConsistencyReport struct {
	IsConsistent    bool             `json:"is_consistent"`
	OrphanedBlobs   []OrphanedBlob   `json:"orphaned_blobs"`
	OrphanedRecords []OrphanedRecord `json:"orphaned_records"`
}

// CleanupResult reports what a cleanup pass did (or would do, for dry runs).
type CleanupResult struct {
	Message         string   `json:"message"`
	DryRun          bool     `json:"dry_run"`
	DeletedCount    int      `json:"deleted_count"`
	FailedDeletions []string `json:"failed_deletions,omitempty"`
}

// Sweeper runs the reconciliation sweep across the document store, the
// blob gateway, and the vector index.
type Sweeper struct {
	docs    *database.DocumentStore
	blobs   *objectstore.Gateway
	vectors vectordb.VectorDB
	meta    *database.SystemMetadataStore
}

// NewSweeper wires the dependencies the sweep needs.
func NewSweeper(docs *database.DocumentStore, blobs *objectstore.Gateway, vectors vectordb.VectorDB,
	meta *database.SystemMetadataStore) *Sweeper {
	return &Sweeper{docs: docs, blobs: blobs, vectors: vectors, meta: meta}
}

// LastRunAt returns when the last sweep completed, or the zero time if none has run.
func (s *Sweeper) LastRunAt() (time.Time, error) {
	return s.meta.GetLastReconcileAt()
}

// findOrphanedBlobs lists every blob under the whole bucket and flags
// those with no matching document row.
func (s *Sweeper) findOrphanedBlobs(ctx context.Context, docs []database.Document) ([]OrphanedBlob, error) {
	keys, err := s.blobs.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("listing blobs: %w", err)
	}

	known := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		known[d.ObjectKey] = struct{}{}
	}

	var orphans []OrphanedBlob
	for _, key := range keys {
		if _, ok := known[key]; !ok {
			orphans = append(orphans, OrphanedBlob{Key: key})
		}
	}
	return orphans, nil
}

// findOrphanedRecords checks every document row's blob still exists.
func (s *Sweeper) findOrphanedRecords(ctx context.Context, docs []database.Document) ([]OrphanedRecord, error) {
	var orphans []OrphanedRecord
	for _, d := range docs {
		exists, err := s.blobs.Exists(ctx, d.ObjectKey)
		if err != nil {
			return nil, fmt.Errorf("checking blob %s: %w", d.ObjectKey, err)
		}
		if !exists {
			orphans = append(orphans, OrphanedRecord{DocumentID: d.ID, ObjectKey: d.ObjectKey, OwnerID: d.OwnerID})
		}
	}
	return orphans, nil
}

// CheckConsistency reports cross-store drift without modifying anything.
func (s *Sweeper) CheckConsistency(ctx context.Context) (*ConsistencyReport, error) {
	docs, err := s.docs.ListAll()
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	orphanedBlobs, err := s.findOrphanedBlobs(ctx, docs)
	if err != nil {
		return nil, err
	}
	orphanedRecords, err := s.findOrphanedRecords(ctx, docs)
	if err != nil {
		return nil, err
	}

	return &ConsistencyReport{
		IsConsistent:    len(orphanedBlobs) == 0 && len(orphanedRecords) == 0,
		OrphanedBlobs:   orphanedBlobs,
		OrphanedRecords: orphanedRecords,
	}, nil
}

// CleanOrphanedBlobs deletes blobs with no owning document row.
func (s *Sweeper) CleanOrphanedBlobs(ctx context.Context, dryRun bool) (*CleanupResult, error) {
	docs, err := s.docs.ListAll()
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	orphans, err := s.findOrphanedBlobs(ctx, docs)
	if err != nil {
		return nil, err
	}
	if len(orphans) == 0 {
		return &CleanupResult{Message: "no orphaned blobs found", DryRun: dryRun}, nil
	}
	if dryRun {
		return &CleanupResult{Message: fmt.Sprintf("would delete %d orphaned blobs", len(orphans)), DryRun: true}, nil
	}

	var failed []string
	deleted := 0
	for _, o := range orphans {
		if err := s.blobs.Delete(ctx, o.Key); err != nil {
			failed = append(failed, o.Key)
			continue
		}
		deleted++
	}
	return &CleanupResult{
		Message:         fmt.Sprintf("deleted %d orphaned blobs", deleted),
		DeletedCount:    deleted,
		FailedDeletions: failed,
	}, nil
}

// CleanOrphanedRecords deletes document rows whose blob is missing,
// including their vector points so the index doesn't serve dangling
// references to content that no longer exists.
func (s *Sweeper) CleanOrphanedRecords(ctx context.Context, dryRun bool) (*CleanupResult, error) {
	docs, err := s.docs.ListAll()
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	orphans, err := s.findOrphanedRecords(ctx, docs)
	if err != nil {
		return nil, err
	}
	if len(orphans) == 0 {
		return &CleanupResult{Message: "no orphaned records found", DryRun: dryRun}, nil
	}
	if dryRun {
		return &CleanupResult{Message: fmt.Sprintf("would delete %d orphaned records", len(orphans)), DryRun: true}, nil
	}

	var failed []string
	deleted := 0
	for _, o := range orphans {
		if err := s.vectors.DeleteByLogicalID(ctx, o.DocumentID); err != nil {
			failed = append(failed, o.DocumentID)
			continue
		}
		if err := s.docs.DeleteByID(o.DocumentID); err != nil {
			failed = append(failed, o.DocumentID)
			continue
		}
		deleted++
	}
	return &CleanupResult{
		Message:         fmt.Sprintf("deleted %d orphaned records", deleted),
		DeletedCount:    deleted,
		FailedDeletions: failed,
	}, nil
}

// FullResult is RunFull's report: the consistency check followed by
// both cleanup passes.
type FullResult struct {
	Consistency *ConsistencyReport `json:"consistency_report"`
	Blobs       *CleanupResult     `json:"blob_cleanup"`
	Records     *CleanupResult     `json:"record_cleanup"`
	DryRun      bool               `json:"dry_run"`
}

// RunFull mirrors the original system's "full cleanup" mode: check,
// then clean both orphan classes in one pass.
func (s *Sweeper) RunFull(ctx context.Context, dryRun bool) (*FullResult, error) {
	report, err := s.CheckConsistency(ctx)
	if err != nil {
		return nil, err
	}
	blobResult, err := s.CleanOrphanedBlobs(ctx, dryRun)
	if err != nil {
		return nil, err
	}
	recordResult, err := s.CleanOrphanedRecords(ctx, dryRun)
	if err != nil {
		return nil, err
	}
	if !dryRun {
		if err := s.meta.SetLastReconcileAt(time.Now()); err != nil {
			return nil, fmt.Errorf("recording reconcile timestamp: %w", err)
		}
	}
	return &FullResult{Consistency: report, Blobs: blobResult, Records: recordResult, DryRun: dryRun}, nil
}

// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package resource

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/the-hive/internal/database"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory sqlite: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

type fakeCounter struct{ n int }

func (f *fakeCounter) CountProcessing(ownerID string) (int, error) { return f.n, nil }

func TestDBRateLimiterPermitsUnderCap(t *testing.T) {
	l := NewDBRateLimiter(&fakeCounter{n: 2}, 5)
	ok, err := l.CheckProcessingLimit("u1")
	if err != nil {
		t.Fatalf("CheckProcessingLimit: %v", err)
	}
	if !ok {
		t.Fatalf("expected upload to be permitted under the cap")
	}
}

func TestDBRateLimiterBlocksAtCap(t *testing.T) {
	l := NewDBRateLimiter(&fakeCounter{n: 5}, 5)
	ok, err := l.CheckProcessingLimit("u1")
	if err != nil {
		t.Fatalf("CheckProcessingLimit: %v", err)
	}
	if ok {
		t.Fatalf("expected upload to be rejected at the cap")
	}
}

func TestValidateMetadataShapeRequiresTypedField(t *testing.T) {
	cases := []struct {
		name       string
		sourceType database.SourceType
		metadata   string
		wantErr    bool
	}{
		{"document with id", database.SourceDocument, `{"document_id":"doc-1"}`, false},
		{"document missing id", database.SourceDocument, `{}`, true},
		{"url with value", database.SourceURL, `{"url":"https://example.com"}`, false},
		{"url empty metadata", database.SourceURL, "", true},
		{"url blank value", database.SourceURL, `{"url":""}`, true},
		{"text with content", database.SourceText, `{"content":"hello"}`, false},
		{"text missing content", database.SourceText, `{"title":"x"}`, true},
		{"video untyped", database.SourceVideo, "", false},
		{"malformed json", database.SourceURL, `{not json`, true},
	}

	for _, c := range cases {
		err := validateMetadataShape(c.sourceType, c.metadata)
		if c.wantErr && err == nil {
			t.Errorf("%s: expected an error, got none", c.name)
		}
		if !c.wantErr && err != nil {
			t.Errorf("%s: expected no error, got %v", c.name, err)
		}
	}
}

func TestNotebookSourceServiceAddIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	notebooks, _ := database.NewNotebookStore(db)
	memberships, _ := database.NewNotebookSourceStore(db)
	svc := NewNotebookSourceService(memberships)

	notebook := &database.Notebook{ID: "nb-1", OwnerID: "u1", Title: "Test"}
	if err := notebooks.Insert(notebook); err != nil {
		t.Fatalf("insert notebook: %v", err)
	}

	first, err := svc.Add(notebook.ID, "src-1", -1)
	if err != nil {
		t.Fatalf("first add: %v", err)
	}
	if first.Position != 0 {
		t.Fatalf("expected first membership at position 0, got %d", first.Position)
	}

	second, err := svc.Add(notebook.ID, "src-1", -1)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected idempotent add to return the existing row")
	}

	third, err := svc.Add(notebook.ID, "src-2", -1)
	if err != nil {
		t.Fatalf("third add: %v", err)
	}
	if third.Position != 1 {
		t.Fatalf("expected second distinct source at position 1, got %d", third.Position)
	}
}

func TestNotebookSourceServiceRemoveLeavesSource(t *testing.T) {
	db := newTestDB(t)
	notebooks, _ := database.NewNotebookStore(db)
	memberships, _ := database.NewNotebookSourceStore(db)
	svc := NewNotebookSourceService(memberships)

	notebook := &database.Notebook{ID: "nb-1", OwnerID: "u1", Title: "Test"}
	if err := notebooks.Insert(notebook); err != nil {
		t.Fatalf("insert notebook: %v", err)
	}
	if _, err := svc.Add(notebook.ID, "src-1", -1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.Remove(notebook.ID, "src-1"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	rows, err := svc.List(notebook.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected membership removed, got %d rows", len(rows))
	}
}

// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package database

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/google/uuid"
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

func TestDocumentUniqueObjectKey(t *testing.T) {
	db := newTestDB(t)
	docs, err := NewDocumentStore(db)
	if err != nil {
		t.Fatalf("NewDocumentStore: %v", err)
	}

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	d := &Document{ID: uuid.NewString(), OwnerID: "u1", Filename: "notes.txt", MimeType: "text/plain",
		Size: 12, Bucket: "docs", ObjectKey: "u1/notes.txt", Metadata: "{}", Status: DocumentPending, Version: 1}
	if err := docs.Insert(tx, d); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	tx2, _ := db.Begin()
	d2 := *d
	d2.ID = uuid.NewString()
	err = docs.Insert(tx2, &d2)
	tx2.Rollback()
	if err == nil {
		t.Fatalf("expected unique constraint violation on second insert with same (owner_id, object_key)")
	}
}

func TestNotebookSourceUniqueMembership(t *testing.T) {
	db := newTestDB(t)
	notebooks, _ := NewNotebookStore(db)
	ns, _ := NewNotebookSourceStore(db)

	nb := &Notebook{ID: uuid.NewString(), OwnerID: "u1", Title: "My Notebook"}
	if err := notebooks.Insert(nb); err != nil {
		t.Fatalf("insert notebook: %v", err)
	}

	row := &NotebookSource{ID: uuid.NewString(), NotebookID: nb.ID, SourceID: "src-1", Position: 0}
	if err := ns.Insert(row); err != nil {
		t.Fatalf("first membership insert: %v", err)
	}

	dup := &NotebookSource{ID: uuid.NewString(), NotebookID: nb.ID, SourceID: "src-1", Position: 1}
	if err := ns.Insert(dup); err == nil {
		t.Fatalf("expected unique constraint violation on duplicate (notebook_id, source_id)")
	}

	existing, err := ns.GetByPair(nb.ID, "src-1")
	if err != nil {
		t.Fatalf("GetByPair: %v", err)
	}
	if existing.ID != row.ID {
		t.Fatalf("expected existing row to be returned unchanged")
	}
}

func TestNotebookDeleteCascadesMembership(t *testing.T) {
	db := newTestDB(t)
	notebooks, _ := NewNotebookStore(db)
	ns, _ := NewNotebookSourceStore(db)

	nb := &Notebook{ID: uuid.NewString(), OwnerID: "u1", Title: "Temp"}
	if err := notebooks.Insert(nb); err != nil {
		t.Fatalf("insert notebook: %v", err)
	}
	row := &NotebookSource{ID: uuid.NewString(), NotebookID: nb.ID, SourceID: "src-1", Position: 0}
	if err := ns.Insert(row); err != nil {
		t.Fatalf("insert membership: %v", err)
	}

	if err := notebooks.Delete(nb.ID, "u1"); err != nil {
		t.Fatalf("delete notebook: %v", err)
	}

	rows, err := ns.List(nb.ID)
	if err != nil {
		t.Fatalf("list after cascade: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected cascade delete to remove membership rows, got %d", len(rows))
	}
}

func TestDeleteAlreadyDeletedDocumentReturnsNoRows(t *testing.T) {
	db := newTestDB(t)
	docs, _ := NewDocumentStore(db)

	if err := docs.Delete("does-not-exist", "u1"); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

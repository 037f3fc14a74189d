// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package indexer

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/the-hive/internal/chunk"
	"github.com/the-hive/internal/database"
	"github.com/the-hive/internal/embeddings"
	"github.com/the-hive/internal/eventbus"
	"github.com/the-hive/internal/parser"
	"github.com/the-hive/internal/vectordb"
)

type fakeBlobs struct{ data map[string][]byte }

func (f *fakeBlobs) Get(ctx context.Context, key string) ([]byte, error) {
	return f.data[key], nil
}

type fakeURLs struct {
	text  string
	calls int
}

func (f *fakeURLs) Fetch(ctx context.Context, rawURL string) (string, error) {
	f.calls++
	return f.text, nil
}

type fakeVectors struct {
	upserts []upsertCall
	deleted []string
}

type upsertCall struct {
	logicalID string
	chunks    int
	meta      vectordb.PointMeta
}

func (f *fakeVectors) Upsert(ctx context.Context, logicalID string, chunks []string, embeds [][]float32, meta vectordb.PointMeta) error {
	f.upserts = append(f.upserts, upsertCall{logicalID: logicalID, chunks: len(chunks), meta: meta})
	return nil
}
func (f *fakeVectors) Search(ctx context.Context, vector []float32, topK int, ids []string, ownerID string) ([]vectordb.Match, error) {
	return nil, nil
}
func (f *fakeVectors) DeleteByLogicalID(ctx context.Context, logicalID string) error {
	f.deleted = append(f.deleted, logicalID)
	return nil
}
func (f *fakeVectors) PurgeByOwner(ctx context.Context, ownerID string) error { return nil }
func (f *fakeVectors) PurgeCollection(ctx context.Context) error             { return nil }
func (f *fakeVectors) PointCount(ctx context.Context) (int, error)           { return 0, nil }

func newTestDispatcher(t *testing.T, blobData map[string][]byte, urlText string) (*TaskDispatcher, *sql.DB, *database.DocumentStore, *database.SourceStore, *fakeVectors) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	docs, err := database.NewDocumentStore(db)
	if err != nil {
		t.Fatalf("new document store: %v", err)
	}
	sources, err := database.NewSourceStore(db)
	if err != nil {
		t.Fatalf("new source store: %v", err)
	}

	vectors := &fakeVectors{}
	disp := NewTaskDispatcher(docs, sources, &fakeBlobs{data: blobData}, vectors,
		embeddings.NewMockEmbedder(16), chunk.NewSplitter(1000, 200), &fakeURLs{text: urlText}, parser.Limits{})
	return disp, db, docs, sources, vectors
}

func TestIndexDocumentSucceeds(t *testing.T) {
	disp, db, docs, _, vectors := newTestDispatcher(t, map[string][]byte{"u1/notes.txt": []byte("hello world, this is a note.")}, "")

	doc := &database.Document{ID: "doc-1", OwnerID: "u1", Filename: "notes.txt", MimeType: "text/plain",
		Bucket: "b", ObjectKey: "u1/notes.txt", Metadata: "{}", Status: database.DocumentPending, Version: 1}

	dbTx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	if err := docs.Insert(dbTx, doc); err != nil {
		t.Fatalf("insert document: %v", err)
	}
	if err := dbTx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if err := disp.Handle(context.Background(), eventbus.Event{Op: eventbus.OpCreate, EntityType: "document", EntityID: doc.ID, OwnerID: doc.OwnerID}); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	got, err := docs.GetByID(doc.ID, doc.OwnerID)
	if err != nil {
		t.Fatalf("reload document: %v", err)
	}
	if got.Status != database.DocumentIndexed {
		t.Fatalf("expected status indexed, got %s", got.Status)
	}
	if len(vectors.upserts) != 1 {
		t.Fatalf("expected exactly one upsert, got %d", len(vectors.upserts))
	}
	if vectors.upserts[0].logicalID != doc.ID {
		t.Fatalf("expected upsert keyed by document id, got %s", vectors.upserts[0].logicalID)
	}
	if vectors.upserts[0].meta.DocumentID != doc.ID || vectors.upserts[0].meta.Filename != "notes.txt" {
		t.Fatalf("unexpected point meta: %+v", vectors.upserts[0].meta)
	}
}

func TestIndexDocumentMarksFailedOnExtractError(t *testing.T) {
	disp, db, docs, _, _ := newTestDispatcher(t, map[string][]byte{}, "")

	doc := &database.Document{ID: "doc-2", OwnerID: "u1", Filename: "missing.txt", MimeType: "text/plain",
		Bucket: "b", ObjectKey: "u1/missing.txt", Metadata: "{}", Status: database.DocumentPending, Version: 1}
	dbTx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	if err := docs.Insert(dbTx, doc); err != nil {
		t.Fatalf("insert document: %v", err)
	}
	if err := dbTx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	err = disp.Handle(context.Background(), eventbus.Event{Op: eventbus.OpCreate, EntityType: "document", EntityID: doc.ID, OwnerID: doc.OwnerID})
	if err == nil {
		t.Fatalf("expected extraction of empty blob to fail")
	}

	got, rerr := docs.GetByID(doc.ID, doc.OwnerID)
	if rerr != nil {
		t.Fatalf("reload document: %v", rerr)
	}
	if got.Status != database.DocumentFailed {
		t.Fatalf("expected status failed, got %s", got.Status)
	}
}

func TestDeleteDocumentDeletesVectorPoints(t *testing.T) {
	disp, _, _, _, vectors := newTestDispatcher(t, nil, "")

	err := disp.Handle(context.Background(), eventbus.Event{Op: eventbus.OpDelete, EntityType: "document", EntityID: "doc-3", OwnerID: "u1"})
	if err != nil {
		t.Fatalf("Handle delete: %v", err)
	}
	if len(vectors.deleted) != 1 || vectors.deleted[0] != "doc-3" {
		t.Fatalf("expected delete of doc-3, got %v", vectors.deleted)
	}
}

func TestIndexURLSourceFetchesAndUpserts(t *testing.T) {
	disp, _, _, sources, vectors := newTestDispatcher(t, nil, "Some fetched page content worth chunking.")

	src := &database.Source{ID: "src-1", OwnerID: "u1", Title: "Example", SourceType: database.SourceURL,
		SourceMetadata: `{"url":"https://example.com"}`, Status: database.SourcePending}
	if err := sources.Insert(src); err != nil {
		t.Fatalf("insert source: %v", err)
	}

	if err := disp.Handle(context.Background(), eventbus.Event{Op: eventbus.OpCreate, EntityType: "url_source", EntityID: src.ID, OwnerID: src.OwnerID}); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	got, err := sources.GetByID(src.ID, src.OwnerID)
	if err != nil {
		t.Fatalf("reload source: %v", err)
	}
	if got.Status != database.SourceIndexed {
		t.Fatalf("expected status indexed, got %s", got.Status)
	}
	if len(vectors.upserts) != 1 || vectors.upserts[0].meta.URL != "https://example.com" {
		t.Fatalf("unexpected upserts: %+v", vectors.upserts)
	}
}

func TestIndexURLSourceTextSkipsFetch(t *testing.T) {
	disp, _, _, sources, vectors := newTestDispatcher(t, nil, "should not be used")

	src := &database.Source{ID: "src-2", OwnerID: "u1", Title: "Pasted", SourceType: database.SourceText,
		SourceMetadata: `{"content":"raw pasted text for indexing purposes."}`, Status: database.SourcePending}
	if err := sources.Insert(src); err != nil {
		t.Fatalf("insert source: %v", err)
	}

	if err := disp.Handle(context.Background(), eventbus.Event{Op: eventbus.OpCreate, EntityType: "url_source", EntityID: src.ID, OwnerID: src.OwnerID}); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(vectors.upserts) != 1 || vectors.upserts[0].meta.URL != "" {
		t.Fatalf("expected url-less upsert for text source, got %+v", vectors.upserts)
	}
	if n := disp.fetcher.(*fakeURLs).calls; n != 0 {
		t.Fatalf("expected no fetch for text source, got %d calls", n)
	}
}

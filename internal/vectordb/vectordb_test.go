// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package vectordb

import "testing"

func TestPointIDDeterministic(t *testing.T) {
	a := pointID("doc-123", 0)
	b := pointID("doc-123", 0)
	if a != b {
		t.Fatalf("expected deterministic point id, got %d and %d", a, b)
	}
}

func TestPointIDPositive63Bit(t *testing.T) {
	id := pointID("doc-123_with_some_longer_logical_id", 42)
	if id&(1<<63) != 0 {
		t.Fatalf("expected sign bit clear, got %064b", id)
	}
}

func TestPointIDDiffersByIndex(t *testing.T) {
	a := pointID("doc-123", 0)
	b := pointID("doc-123", 1)
	if a == b {
		t.Fatalf("expected different ids for different chunk indexes")
	}
}

func TestMockVectorDBSearchEmpty(t *testing.T) {
	db := NewMockVectorDB()
	matches, err := db.Search(nil, []float32{0.1}, 5, nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no matches from mock, got %d", len(matches))
	}
}

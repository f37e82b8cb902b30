package vectorstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"), "cvs")
	if err != nil {
		t.Fatalf("OpenSQLite error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestQueryBeforeIngestion(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Query(context.Background(), []float32{1, 0}, 3)
	if !errors.Is(err, ErrCollectionNotFound) {
		t.Fatalf("expected ErrCollectionNotFound, got %v", err)
	}
}

func TestUpsertAndQueryOrdering(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	err := s.Upsert(ctx, []UpsertItem{
		{ID: "far.txt", Text: "far", Vector: []float32{3, 0}, Metadata: map[string]string{"source": "far.txt"}},
		{ID: "near.txt", Text: "near", Vector: []float32{1, 0}, Metadata: map[string]string{"source": "near.txt"}},
		{ID: "mid.txt", Text: "mid", Vector: []float32{2, 0}, Metadata: map[string]string{"source": "mid.txt"}},
	})
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}

	matches, err := s.Query(ctx, []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected k=2 matches, got %d", len(matches))
	}
	if matches[0].Document.ID != "near.txt" || matches[1].Document.ID != "mid.txt" {
		t.Fatalf("matches not in ascending distance order: %+v", matches)
	}
	if matches[0].Distance != 0 || matches[1].Distance != 1 {
		t.Fatalf("unexpected distances: %v, %v", matches[0].Distance, matches[1].Distance)
	}
	if matches[0].Document.Metadata["source"] != "near.txt" {
		t.Fatalf("metadata not round-tripped: %+v", matches[0].Document.Metadata)
	}
}

func TestUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	item := UpsertItem{ID: "a.txt", Text: "v1", Vector: []float32{1, 0}, Metadata: map[string]string{"source": "a.txt"}}
	if err := s.Upsert(ctx, []UpsertItem{item}); err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	item.Text = "v2"
	if err := s.Upsert(ctx, []UpsertItem{item}); err != nil {
		t.Fatalf("Upsert error: %v", err)
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count error: %v", err)
	}
	if n != 1 {
		t.Fatalf("re-ingesting the same id must not duplicate, got %d entries", n)
	}
	matches, err := s.Query(ctx, []float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if matches[0].Document.Text != "v2" {
		t.Fatalf("upsert must replace content, got %q", matches[0].Document.Text)
	}
}

func TestQueryFiltersMismatchedDimensions(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	err := s.Upsert(ctx, []UpsertItem{
		{ID: "two.txt", Text: "two dims", Vector: []float32{1, 0}},
		{ID: "three.txt", Text: "three dims", Vector: []float32{1, 0, 0}},
	})
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	matches, err := s.Query(ctx, []float32{0, 0}, 10)
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if len(matches) != 1 || matches[0].Document.ID != "two.txt" {
		t.Fatalf("expected only matching-dimension documents: %+v", matches)
	}
}

package vectorstore

import (
	"context"
	"errors"
	"testing"
)

func TestMemStoreMirrorsSQLiteSemantics(t *testing.T) {
	ctx := context.Background()
	m := NewMem()

	if _, err := m.Query(ctx, []float32{1}, 3); !errors.Is(err, ErrCollectionNotFound) {
		t.Fatalf("expected ErrCollectionNotFound before any upsert, got %v", err)
	}

	err := m.Upsert(ctx, []UpsertItem{
		{ID: "a", Text: "a", Vector: []float32{0, 0}},
		{ID: "b", Text: "b", Vector: []float32{2, 0}},
	})
	if err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if err := m.Upsert(ctx, []UpsertItem{{ID: "a", Text: "a2", Vector: []float32{0, 0}}}); err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	if m.Len() != 2 {
		t.Fatalf("upsert must replace by id, got %d entries", m.Len())
	}

	matches, err := m.Query(ctx, []float32{0, 0}, 5)
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if len(matches) != 2 || matches[0].Document.ID != "a" || matches[0].Distance != 0 {
		t.Fatalf("unexpected matches: %+v", matches)
	}
	if matches[0].Document.Text != "a2" {
		t.Fatalf("expected replaced text, got %q", matches[0].Document.Text)
	}
}

package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"cvrag/internal/vectorstore"
)

type fakeEmb struct {
	batches []int
}

func (f *fakeEmb) Embeddings(ctx context.Context, model string, inputs []string) ([][]float32, error) {
	f.batches = append(f.batches, len(inputs))
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = []float32{1, 2, 3}
	}
	return out, nil
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestRunSkipsEmptyAndHiddenFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"alice.txt": "Alice: React developer",
		"blank.txt": "   \n\t\n",
		".DS_Store": "junk",
	})
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	emb := &fakeEmb{}
	store := vectorstore.NewMem()
	count, err := New(emb, store, "embed-model").Run(context.Background(), dir)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 ingested document, got %d", count)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 stored entry, got %d", store.Len())
	}

	matches, err := store.Query(context.Background(), []float32{1, 2, 3}, 10)
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if matches[0].Document.ID != "alice.txt" || matches[0].Document.Metadata["source"] != "alice.txt" {
		t.Fatalf("id and source metadata must be the filename: %+v", matches[0].Document)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.txt": "first CV",
		"b.txt": "second CV",
	})
	store := vectorstore.NewMem()
	p := New(&fakeEmb{}, store, "embed-model")

	for i := 0; i < 2; i++ {
		count, err := p.Run(context.Background(), dir)
		if err != nil {
			t.Fatalf("Run error: %v", err)
		}
		if count != 2 {
			t.Fatalf("expected 2 ingested documents, got %d", count)
		}
	}
	if store.Len() != 2 {
		t.Fatalf("re-ingestion must not duplicate entries, got %d", store.Len())
	}
}

func TestRunBatchesEmbeddingCalls(t *testing.T) {
	files := make(map[string]string, 10)
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		files[name+".txt"] = "CV for " + name
	}
	dir := writeFiles(t, files)

	emb := &fakeEmb{}
	count, err := New(emb, vectorstore.NewMem(), "embed-model").Run(context.Background(), dir)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if count != 10 {
		t.Fatalf("expected 10 ingested documents, got %d", count)
	}
	if len(emb.batches) != 2 || emb.batches[0] != 8 || emb.batches[1] != 2 {
		t.Fatalf("expected batches of 8 and 2, got %v", emb.batches)
	}
}

func TestRunMissingDirectory(t *testing.T) {
	_, err := New(&fakeEmb{}, vectorstore.NewMem(), "m").Run(context.Background(), "/does/not/exist")
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}

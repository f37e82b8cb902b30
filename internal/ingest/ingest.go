// Package ingest populates the vector store from a directory of CV text
// files. One file becomes one stored document; there is no chunking.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cvrag/internal/llm"
	"cvrag/internal/vectorstore"
)

const defaultBatch = 8

// Pipeline embeds documents and upserts them into the vector store. The id
// is the filename, so re-running ingestion replaces entries instead of
// duplicating them.
type Pipeline struct {
	emb   llm.Embedder
	vs    vectorstore.VectorStore
	model string
	batch int
}

func New(emb llm.Embedder, vs vectorstore.VectorStore, model string) *Pipeline {
	return &Pipeline{emb: emb, vs: vs, model: model, batch: defaultBatch}
}

// Run ingests every document under dir and returns the number of documents
// stored. Directories, hidden files and files that are empty after trimming
// are skipped silently.
func (p *Pipeline) Run(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read data dir: %w", err)
	}
	var ids, texts []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return 0, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		text := string(b)
		if strings.TrimSpace(text) == "" {
			continue
		}
		ids = append(ids, e.Name())
		texts = append(texts, text)
	}

	count := 0
	for start := 0; start < len(ids); start += p.batch {
		end := min(start+p.batch, len(ids))
		vecs, err := p.emb.Embeddings(ctx, p.model, texts[start:end])
		if err != nil {
			return count, fmt.Errorf("embed batch: %w", err)
		}
		if len(vecs) != end-start {
			return count, fmt.Errorf("embed batch: got %d vectors for %d inputs", len(vecs), end-start)
		}
		items := make([]vectorstore.UpsertItem, 0, end-start)
		for i := start; i < end; i++ {
			items = append(items, vectorstore.UpsertItem{
				ID:       ids[i],
				Text:     texts[i],
				Vector:   vecs[i-start],
				Metadata: map[string]string{"source": ids[i]},
			})
		}
		if err := p.vs.Upsert(ctx, items); err != nil {
			return count, fmt.Errorf("upsert batch: %w", err)
		}
		count += len(items)
	}
	return count, nil
}

package retriever

import (
	"context"
	"fmt"

	"cvrag/internal/llm"
	"cvrag/internal/vectorstore"
)

// DefaultK is the neighbor count for the gated answer path.
const DefaultK = 3

// Retriever embeds a question with the same model used at ingestion time and
// fetches the k nearest documents from the vector store.
type Retriever struct {
	vs         vectorstore.VectorStore
	emb        llm.Embedder
	model      string
	thresholds Thresholds
}

func New(vs vectorstore.VectorStore, emb llm.Embedder, model string, t Thresholds) *Retriever {
	if t.High == 0 && t.Medium == 0 {
		t = DefaultThresholds
	}
	return &Retriever{vs: vs, emb: emb, model: model, thresholds: t}
}

// Result carries everything the confidence gate needs to decide.
type Result struct {
	Documents  []string
	Sources    []map[string]string
	Distances  []float64
	Confidence Confidence
}

func (r *Retriever) Retrieve(ctx context.Context, question string, k int) (*Result, error) {
	if k <= 0 {
		k = DefaultK
	}
	vecs, err := r.emb.Embeddings(ctx, r.model, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	if len(vecs) == 0 {
		return nil, &llm.ServiceError{Op: "embeddings", Detail: "no vector returned"}
	}
	matches, err := r.vs.Query(ctx, vecs[0], k)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Documents: make([]string, 0, len(matches)),
		Sources:   make([]map[string]string, 0, len(matches)),
		Distances: make([]float64, 0, len(matches)),
	}
	for _, m := range matches {
		res.Documents = append(res.Documents, m.Document.Text)
		res.Sources = append(res.Sources, m.Document.Metadata)
		res.Distances = append(res.Distances, m.Distance)
	}
	res.Confidence = Classify(res.Distances, r.thresholds)
	return res, nil
}

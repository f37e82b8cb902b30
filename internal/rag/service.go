// Package rag orchestrates retrieval, the confidence gate and answer
// generation for a single question.
package rag

import (
	"context"

	"cvrag/internal/rag/retriever"
)

// RefusalAnswer is the fixed response when retrieval confidence is too low
// to answer safely.
const RefusalAnswer = "Not enough reliable information in the documents."

// PreviewK is the neighbor count for the inspection path.
const PreviewK = 10

// Retriever is the retrieval capability the service depends on.
type Retriever interface {
	Retrieve(ctx context.Context, question string, k int) (*retriever.Result, error)
}

// Generator is the answer-generation capability the service depends on.
type Generator interface {
	Generate(ctx context.Context, question string, documents []string) (string, error)
}

// Response is what callers of Ask receive.
type Response struct {
	Answer     string               `json:"answer"`
	Confidence retriever.Confidence `json:"confidence"`
	Sources    []map[string]string  `json:"sources"`
}

// Service owns the retrieval-and-gate pipeline. Stateless per request; safe
// for concurrent use.
type Service struct {
	retriever Retriever
	generator Generator
	k         int
}

func NewService(r Retriever, g Generator, k int) *Service {
	if k <= 0 {
		k = retriever.DefaultK
	}
	return &Service{retriever: r, generator: g, k: k}
}

// Ask answers a question grounded in the stored documents, or refuses when
// the best match is too far away. The generator is never invoked on the
// refusal path.
func (s *Service) Ask(ctx context.Context, question string) (*Response, error) {
	res, err := s.retriever.Retrieve(ctx, question, s.k)
	if err != nil {
		return nil, err
	}
	if res.Confidence == retriever.ConfidenceLow || len(res.Documents) == 0 {
		return &Response{
			Answer:     RefusalAnswer,
			Confidence: res.Confidence,
			Sources:    []map[string]string{},
		}, nil
	}
	ans, err := s.generator.Generate(ctx, question, res.Documents)
	if err != nil {
		return nil, err
	}
	return &Response{Answer: ans, Confidence: res.Confidence, Sources: res.Sources}, nil
}

// Preview runs retrieval only, with a larger k, for inspection. No gate, no
// generation.
func (s *Service) Preview(ctx context.Context, question string, k int) (*retriever.Result, error) {
	if k <= 0 {
		k = PreviewK
	}
	return s.retriever.Retrieve(ctx, question, k)
}

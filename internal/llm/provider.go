package llm

import (
	"context"
	"fmt"
)

type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatProvider provides chat completion APIs.
type ChatProvider interface {
	Complete(ctx context.Context, model string, messages []Message, temperature float32) (string, error)
}

// Embedder provides embedding generation APIs.
type Embedder interface {
	Embeddings(ctx context.Context, model string, inputs []string) ([][]float32, error)
}

// ServiceError reports a provider-level failure: a transport error or a
// non-2xx response from the embeddings or chat endpoint. It is not retried
// beyond the client's own backoff and bubbles up to the request boundary.
type ServiceError struct {
	Op     string // "embeddings" or "chat"
	Status int    // HTTP status, 0 on transport errors
	Detail string
	Err    error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s provider: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s provider: http %d: %s", e.Op, e.Status, e.Detail)
}

func (e *ServiceError) Unwrap() error { return e.Err }

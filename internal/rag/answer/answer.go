// Package answer builds the grounding prompt and invokes the chat model with
// deterministic decoding.
package answer

import (
	"context"
	"fmt"
	"strings"

	"cvrag/internal/llm"
)

const systemPrompt = `You are an assistant that answers questions ONLY using the provided CV excerpts.
- Do NOT use outside knowledge.
- If the information is missing or unclear, say you don't have enough information.
- Keep answers short and factual.
- Mention candidate names explicitly if possible.`

// Prompt is the typed form of the grounding prompt.
type Prompt struct {
	System   string
	Context  string
	Question string
}

// BuildPrompt assembles the prompt from retrieved documents. Pure function,
// testable without any network call.
func BuildPrompt(question string, documents []string) Prompt {
	return Prompt{
		System:   systemPrompt,
		Context:  strings.Join(documents, "\n\n"),
		Question: question,
	}
}

// User renders the user-role message: context block, verbatim question,
// grounding reminder.
func (p Prompt) User() string {
	return fmt.Sprintf("Context:\n%s\n\nQuestion:\n%s\n\nAnswer using only the context above.", p.Context, p.Question)
}

// Generator produces a grounded answer from retrieved documents.
type Generator struct {
	chat  llm.ChatProvider
	model string
}

func NewGenerator(chat llm.ChatProvider, model string) *Generator {
	return &Generator{chat: chat, model: model}
}

func (g *Generator) Generate(ctx context.Context, question string, documents []string) (string, error) {
	p := BuildPrompt(question, documents)
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: p.System},
		{Role: llm.RoleUser, Content: p.User()},
	}
	// temperature 0: deterministic decoding suppresses hallucination
	out, err := g.chat.Complete(ctx, g.model, messages, 0)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return strings.TrimSpace(out), nil
}

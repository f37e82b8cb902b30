package answer

import (
	"context"
	"strings"
	"testing"

	"cvrag/internal/llm"
)

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("Who has led teams?", []string{"CV one", "CV two"})
	if p.Context != "CV one\n\nCV two" {
		t.Fatalf("documents must be joined by a blank line: %q", p.Context)
	}
	if p.Question != "Who has led teams?" {
		t.Fatalf("question must be carried verbatim: %q", p.Question)
	}
	if !strings.Contains(p.System, "ONLY using the provided CV excerpts") {
		t.Fatalf("system instruction missing grounding constraint: %q", p.System)
	}

	user := p.User()
	if !strings.Contains(user, "Context:\nCV one\n\nCV two") {
		t.Fatalf("user message missing context block: %q", user)
	}
	if !strings.Contains(user, "Question:\nWho has led teams?") {
		t.Fatalf("user message missing question: %q", user)
	}
	if !strings.HasSuffix(user, "Answer using only the context above.") {
		t.Fatalf("user message missing grounding reminder: %q", user)
	}
}

type captureChat struct {
	model       string
	messages    []llm.Message
	temperature float32
	reply       string
	err         error
}

func (c *captureChat) Complete(ctx context.Context, model string, messages []llm.Message, temperature float32) (string, error) {
	c.model = model
	c.messages = messages
	c.temperature = temperature
	return c.reply, c.err
}

func TestGenerate(t *testing.T) {
	chat := &captureChat{reply: "  Alice leads the platform team.\n"}
	g := NewGenerator(chat, "gpt-4o-mini")

	out, err := g.Generate(context.Background(), "Who has led teams?", []string{"Alice: team lead"})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if out != "Alice leads the platform team." {
		t.Fatalf("response must be trimmed: %q", out)
	}
	if chat.temperature != 0 {
		t.Fatalf("generation must be deterministic, got temperature %v", chat.temperature)
	}
	if chat.model != "gpt-4o-mini" {
		t.Fatalf("unexpected model: %q", chat.model)
	}
	if len(chat.messages) != 2 || chat.messages[0].Role != llm.RoleSystem || chat.messages[1].Role != llm.RoleUser {
		t.Fatalf("expected system+user messages: %+v", chat.messages)
	}
	if !strings.Contains(chat.messages[1].Content, "Alice: team lead") {
		t.Fatalf("retrieved document missing from prompt: %q", chat.messages[1].Content)
	}
}

func TestGenerateErrorPropagates(t *testing.T) {
	chat := &captureChat{err: &llm.ServiceError{Op: "chat", Status: 503, Detail: "overloaded"}}
	g := NewGenerator(chat, "gpt-4o-mini")
	if _, err := g.Generate(context.Background(), "q", []string{"doc"}); err == nil {
		t.Fatal("expected error")
	}
}

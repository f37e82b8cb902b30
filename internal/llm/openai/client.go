package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"cvrag/internal/llm"
)

// Client talks to an OpenAI-compatible API. Works against api.openai.com as
// well as local servers (LM Studio, vLLM) via the base URL.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client

	mu      sync.Mutex
	minGap  time.Duration
	lastReq time.Time
}

func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	gap := time.Duration(0)
	if ms := os.Getenv("CVRAG_LLM_MIN_INTERVAL_MS"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 {
			gap = time.Duration(v) * time.Millisecond
		}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		minGap:  gap,
	}
}

// Complete implements llm.ChatProvider. Non-streaming only: this system
// returns a single answer per request.
func (c *Client) Complete(ctx context.Context, model string, messages []llm.Message, temperature float32) (string, error) {
	reqBody := map[string]any{
		"model":       model,
		"messages":    messages,
		"temperature": temperature,
	}
	b, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return "", &llm.ServiceError{Op: "chat", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.do(req)
	if err != nil {
		return "", &llm.ServiceError{Op: "chat", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		data, _ := io.ReadAll(resp.Body)
		return "", &llm.ServiceError{Op: "chat", Status: resp.StatusCode, Detail: string(data)}
	}
	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &llm.ServiceError{Op: "chat", Err: err}
	}
	if len(out.Choices) == 0 {
		return "", &llm.ServiceError{Op: "chat", Status: resp.StatusCode, Detail: "empty choices"}
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// Embeddings implements llm.Embedder. One vector per input, input order.
func (c *Client) Embeddings(ctx context.Context, model string, inputs []string) ([][]float32, error) {
	reqBody := map[string]any{
		"model": model,
		"input": inputs,
	}
	b, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(b))
	if err != nil {
		return nil, &llm.ServiceError{Op: "embeddings", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, &llm.ServiceError{Op: "embeddings", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		data, _ := io.ReadAll(resp.Body)
		return nil, &llm.ServiceError{Op: "embeddings", Status: resp.StatusCode, Detail: string(data)}
	}
	var out struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &llm.ServiceError{Op: "embeddings", Err: err}
	}
	res := make([][]float32, 0, len(out.Data))
	for _, d := range out.Data {
		res = append(res, d.Embedding)
	}
	if len(res) != len(inputs) {
		return nil, &llm.ServiceError{Op: "embeddings", Status: resp.StatusCode, Detail: "vector count does not match input count"}
	}
	return res, nil
}

// do performs the HTTP request with optional min interval and retries on 429/5xx.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	if c.minGap > 0 {
		since := time.Since(c.lastReq)
		if since < c.minGap {
			time.Sleep(c.minGap - since)
		}
	}
	c.lastReq = time.Now()
	c.mu.Unlock()

	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		req.Body.Close()
	}
	backoff := 200 * time.Millisecond
	for attempt := 0; ; attempt++ {
		if body != nil {
			req.Body = io.NopCloser(bytes.NewReader(body))
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		if attempt >= 2 || (resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode/100 != 5) {
			return resp, nil
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(backoff + time.Duration(attempt)*100*time.Millisecond):
		}
	}
}

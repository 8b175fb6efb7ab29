package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	DefaultLocalBaseURL = "http://localhost:11434"
	DefaultLocalModel   = "gemma:2b"

	localMaxNewTokens = 256
)

type OllamaConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OllamaGenerator runs completions on a locally hosted model. The model is
// pulled on first use and stays warm for the lifetime of the generator.
type OllamaGenerator struct {
	baseURL string
	model   string
	client  *http.Client

	mu    sync.Mutex
	ready bool
}

func NewOllamaGenerator(cfg OllamaConfig) *OllamaGenerator {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultLocalBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultLocalModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &OllamaGenerator{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

func (g *OllamaGenerator) Complete(ctx context.Context, messages []Message, temperature float64) (string, error) {
	if err := g.ensureModel(ctx); err != nil {
		return "", err
	}

	var parsed struct {
		Response string `json:"response"`
	}
	payload := map[string]any{
		"model":  g.model,
		"prompt": flattenPrompt(messages),
		"stream": false,
		"options": map[string]any{
			"temperature": temperature,
			"num_predict": localMaxNewTokens,
		},
	}
	if _, err := g.post(ctx, "/api/generate", payload, &parsed); err != nil {
		return "", err
	}
	response := strings.TrimSpace(parsed.Response)
	if response == "" {
		return "", fmt.Errorf("%w: empty ollama response", ErrUnavailable)
	}
	return response, nil
}

func (g *OllamaGenerator) ensureModel(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ready {
		return nil
	}

	status, err := g.post(ctx, "/api/show", map[string]any{"model": g.model}, nil)
	if err != nil && status != http.StatusNotFound {
		return err
	}
	if status == http.StatusNotFound {
		if _, err := g.post(ctx, "/api/pull", map[string]any{"model": g.model, "stream": false}, nil); err != nil {
			return err
		}
	}
	g.ready = true
	return nil
}

func (g *OllamaGenerator) post(ctx context.Context, path string, payload any, out any) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal %s payload: %w", path, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build %s request: %w", path, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("%w: request %s: %w", ErrUnavailable, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%w: read %s response: %w", ErrUnavailable, path, err)
	}
	if resp.StatusCode >= 400 {
		return resp.StatusCode, fmt.Errorf("%w: %s failed status=%d body=%s", ErrUnavailable, path, resp.StatusCode, string(raw))
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("%w: decode %s response: %w", ErrUnavailable, path, err)
		}
	}
	return resp.StatusCode, nil
}

// flattenPrompt renders a message bundle as an instruction-style prompt for
// models served without a chat template.
func flattenPrompt(messages []Message) string {
	lines := make([]string, 0, len(messages))
	for _, message := range messages {
		switch message.Role {
		case RoleSystem:
			lines = append(lines, "System: "+message.Content)
		case RoleUser:
			lines = append(lines, "User: "+message.Content)
		default:
			lines = append(lines, "Assistant: "+message.Content)
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.5-flash"

type GeminiConfig struct {
	APIKey string
	Model  string
}

type generateContentFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// GeminiGenerator calls the Gemini API. The SDK client is created on the
// first completion so a missing key only fails the questions that need it.
type GeminiGenerator struct {
	apiKey string
	model  string

	mu       sync.Mutex
	generate generateContentFunc
}

func NewGeminiGenerator(cfg GeminiConfig) *GeminiGenerator {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiGenerator{apiKey: strings.TrimSpace(cfg.APIKey), model: model}
}

func (g *GeminiGenerator) Complete(ctx context.Context, messages []Message, temperature float64) (string, error) {
	generate, err := g.client(ctx)
	if err != nil {
		return "", err
	}

	system, contents := geminiContents(messages)
	config := &genai.GenerateContentConfig{Temperature: genai.Ptr(float32(temperature))}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, "")
	}

	resp, err := generate(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("%w: generate content: %w", ErrUnavailable, err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: empty gemini response", ErrUnavailable)
	}
	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			out.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(out.String()), nil
}

func (g *GeminiGenerator) client(ctx context.Context) (generateContentFunc, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.generate != nil {
		return g.generate, nil
	}
	if g.apiKey == "" {
		return nil, fmt.Errorf("%w: gemini api key is not configured", ErrUnavailable)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create genai client: %w", ErrUnavailable, err)
	}
	g.generate = func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		return client.Models.GenerateContent(ctx, model, contents, config)
	}
	return g.generate, nil
}

// geminiContents folds system messages into one system instruction and maps
// the remaining turns onto user and model contents.
func geminiContents(messages []Message) (string, []*genai.Content) {
	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, message := range messages {
		switch message.Role {
		case RoleSystem:
			system = append(system, message.Content)
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(message.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(message.Content, genai.RoleUser))
		}
	}
	return strings.Join(system, "\n\n"), contents
}

package llm

import (
	"fmt"
	"strings"
)

const (
	BackendRemote = "remote"
	BackendLocal  = "local"
	BackendGemini = "gemini"
)

type Config struct {
	Backend string
	Remote  OpenAIConfig
	Local   OllamaConfig
	Gemini  GeminiConfig
}

// New selects the generator strategy. Callers only ever see Generator.
func New(cfg Config) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendRemote:
		return NewOpenAIGenerator(cfg.Remote), nil
	case BackendLocal:
		return NewOllamaGenerator(cfg.Local), nil
	case BackendGemini:
		return NewGeminiGenerator(cfg.Gemini), nil
	default:
		return nil, fmt.Errorf("unsupported generator backend %q", cfg.Backend)
	}
}

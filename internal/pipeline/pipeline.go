// Package pipeline turns a question into a verified statement, executes it
// with at most one repair, and composes a grounded answer.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/hrsight/hrsight/internal/llm"
	"github.com/hrsight/hrsight/internal/observability"
	"github.com/hrsight/hrsight/internal/query"
	"github.com/hrsight/hrsight/internal/schema"
	"github.com/hrsight/hrsight/internal/sqlguard"
	"github.com/hrsight/hrsight/internal/templates"
)

type Config struct {
	MemoryTurns       int
	PreviewRows       int
	DefaultLimit      int
	RowLimit          int
	AnswerTemperature float64
	// Dialect names the engine in generator instructions, e.g. "SQLite".
	Dialect string
}

func DefaultConfig() Config {
	return Config{
		MemoryTurns:       6,
		PreviewRows:       20,
		DefaultLimit:      schema.DefaultLimit,
		AnswerTemperature: 0.2,
		Dialect:           "SQLite",
	}
}

type Dependencies struct {
	Generator  llm.Generator
	Engine     query.Engine
	Templates  *templates.Matcher
	Descriptor *schema.Descriptor
	Logger     *slog.Logger
}

// Pipeline holds no per-question state and is safe for concurrent use.
type Pipeline struct {
	cfg        Config
	generator  llm.Generator
	engine     query.Engine
	templates  *templates.Matcher
	descriptor schema.Descriptor
	guard      *sqlguard.Guard
	prompts    prompts
	logger     *slog.Logger
}

type Answer struct {
	Text           string
	Statement      string
	Result         query.Result
	Source         Source
	Template       string
	GeneratorCalls int
	Repaired       bool
}

func New(cfg Config, deps Dependencies) (*Pipeline, error) {
	if deps.Generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if deps.Engine == nil {
		return nil, fmt.Errorf("query engine is required")
	}
	defaults := DefaultConfig()
	if cfg.MemoryTurns < 0 {
		cfg.MemoryTurns = 0
	}
	if cfg.PreviewRows <= 0 {
		cfg.PreviewRows = defaults.PreviewRows
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = defaults.DefaultLimit
	}
	if strings.TrimSpace(cfg.Dialect) == "" {
		cfg.Dialect = defaults.Dialect
	}

	descriptor := schema.Employees
	if deps.Descriptor != nil {
		descriptor = *deps.Descriptor
	}
	matcher := deps.Templates
	if matcher == nil {
		var err error
		if matcher, err = templates.Default(); err != nil {
			return nil, fmt.Errorf("load templates: %w", err)
		}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Pipeline{
		cfg:        cfg,
		generator:  deps.Generator,
		engine:     deps.Engine,
		templates:  matcher,
		descriptor: descriptor,
		guard:      sqlguard.New(descriptor, cfg.DefaultLimit),
		prompts:    newPrompts(descriptor, cfg.Dialect),
		logger:     logger,
	}, nil
}

func (p *Pipeline) Descriptor() schema.Descriptor {
	return p.descriptor
}

// Ask runs one question end to end. history is the caller's snapshot of the
// conversation so far and is only read.
func (p *Pipeline) Ask(ctx context.Context, question string, history []llm.Message) (Answer, error) {
	start := time.Now()
	answer, err := p.ask(ctx, question, history)
	observability.ObserveAsk(time.Since(start), err)
	return answer, err
}

func (p *Pipeline) ask(ctx context.Context, question string, history []llm.Message) (Answer, error) {
	generation, err := p.Generate(ctx, question, history)
	if err != nil {
		return Answer{}, err
	}
	answer := Answer{
		Statement:      generation.Statement,
		Source:         generation.Source,
		Template:       generation.Template,
		GeneratorCalls: generation.GeneratorCalls,
	}

	execution, err := p.execute(ctx, question, generation.Statement)
	answer.GeneratorCalls += execution.generatorCalls
	answer.Repaired = execution.repaired
	answer.Statement = execution.statement
	if err != nil {
		return answer, err
	}
	answer.Result = execution.result

	text, calls, err := p.Compose(ctx, question, execution.result, history)
	answer.GeneratorCalls += calls
	if err != nil {
		return answer, err
	}
	answer.Text = text
	return answer, nil
}

func (p *Pipeline) complete(ctx context.Context, purpose string, messages []llm.Message, temperature float64) (string, error) {
	observability.ObserveGeneratorCall(purpose)
	text, err := p.generator.Complete(ctx, messages, temperature)
	if err != nil {
		return "", fmt.Errorf("%s completion: %w", purpose, err)
	}
	return text, nil
}

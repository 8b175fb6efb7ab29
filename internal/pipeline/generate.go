package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hrsight/hrsight/internal/llm"
	"github.com/hrsight/hrsight/internal/observability"
)

type Source string

const (
	SourceTemplate  Source = "template"
	SourceCount     Source = "count"
	SourceGenerated Source = "generated"
	SourceGuarded   Source = "guarded"
	SourceRetried   Source = "retried"
)

type Generation struct {
	Statement      string
	Source         Source
	Template       string
	GeneratorCalls int
}

type state int

const (
	stateTemplateCheck state = iota
	stateCountCheck
	stateGenerate
	stateGuardCheck
	stateGenerateGuarded
	stateValidate
	stateGenerateRetry
	stateDone
)

func (s state) String() string {
	switch s {
	case stateTemplateCheck:
		return "template_check"
	case stateCountCheck:
		return "count_check"
	case stateGenerate:
		return "generate"
	case stateGuardCheck:
		return "guard_check"
	case stateGenerateGuarded:
		return "generate_guarded"
	case stateValidate:
		return "validate"
	case stateGenerateRetry:
		return "generate_retry"
	default:
		return "done"
	}
}

// Generate produces the statement for a question without executing it.
// The generator is called at most three times: first attempt, guard
// reminder, strict retry. The strict retry is returned without validation.
func (p *Pipeline) Generate(ctx context.Context, question string, history []llm.Message) (Generation, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Generation{}, ErrQuestionRequired
	}

	var gen Generation
	current := stateTemplateCheck
	for current != stateDone {
		p.logger.DebugContext(ctx, "generation_state", slog.String("state", current.String()), slog.Int("generator_calls", gen.GeneratorCalls))

		switch current {
		case stateTemplateCheck:
			current = stateCountCheck
			if template, ok := p.templates.Match(question); ok {
				gen.Statement, gen.Source, gen.Template = template.Statement, SourceTemplate, template.Name
				current = stateDone
			}

		case stateCountCheck:
			current = stateGenerate
			if statement, ok := p.templates.MatchCount(question); ok {
				gen.Statement, gen.Source = statement, SourceCount
				current = stateDone
			}

		case stateGenerate:
			statement, err := p.generateStatement(ctx, &gen, "sql", question, history, "")
			if err != nil {
				return Generation{}, err
			}
			gen.Statement, gen.Source = statement, SourceGenerated
			current = stateGuardCheck

		case stateGuardCheck:
			current = stateValidate
			if p.guard.ContainsCategoricalNumeral(gen.Statement) {
				current = stateGenerateGuarded
			}

		case stateGenerateGuarded:
			statement, err := p.generateStatement(ctx, &gen, "guard", question, history, p.prompts.reminder)
			if err != nil {
				return Generation{}, err
			}
			gen.Statement, gen.Source = statement, SourceGuarded
			current = stateValidate

		case stateValidate:
			current = stateGenerateRetry
			if p.guard.IsValid(gen.Statement) {
				current = stateDone
			}

		case stateGenerateRetry:
			statement, err := p.generateStatement(ctx, &gen, "retry", question, history, p.prompts.strictRetry)
			if err != nil {
				return Generation{}, err
			}
			gen.Statement, gen.Source = statement, SourceRetried
			current = stateDone
		}
	}

	if gen.Source != SourceTemplate && gen.Source != SourceCount {
		gen.Statement = p.guard.RewriteCategoricalNumeral(gen.Statement)
	}
	observability.ObserveStatementSource(string(gen.Source))
	p.logger.DebugContext(ctx, "statement_ready",
		slog.String("source", string(gen.Source)),
		slog.String("sql", gen.Statement),
		slog.Int("generator_calls", gen.GeneratorCalls),
	)
	return gen, nil
}

func (p *Pipeline) generateStatement(ctx context.Context, gen *Generation, purpose, question string, history []llm.Message, extra string) (string, error) {
	messages := []llm.Message{llm.System(p.prompts.system)}
	messages = append(messages, memoryMessages(history, p.cfg.MemoryTurns)...)
	if extra != "" {
		messages = append(messages, llm.User(extra))
	}
	messages = append(messages, llm.User("Question: "+question))

	gen.GeneratorCalls++
	raw, err := p.complete(ctx, purpose, messages, 0)
	if err != nil {
		return "", err
	}
	return p.guard.Clean(raw), nil
}

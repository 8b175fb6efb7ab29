package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hrsight/hrsight/internal/llm"
	"github.com/hrsight/hrsight/internal/observability"
	"github.com/hrsight/hrsight/internal/query"
)

type execution struct {
	statement      string
	result         query.Result
	repaired       bool
	generatorCalls int
}

// execute runs the statement and, on failure, makes exactly one repair
// attempt grounded in the engine's error text.
func (p *Pipeline) execute(ctx context.Context, question, statement string) (execution, error) {
	out := execution{statement: statement}
	result, err := p.engine.Execute(ctx, query.Request{SQL: statement, RowLimit: p.cfg.RowLimit})
	if err == nil {
		out.result = result
		return out, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return out, &ExecutionError{Statement: statement, Err: errors.Join(err, ctxErr)}
	}

	p.logger.WarnContext(ctx, "statement_failed",
		slog.String("sql", statement),
		slog.String("error", err.Error()),
	)
	out.generatorCalls++
	fixed, repairErr := p.Repair(ctx, question, statement, err.Error())
	if repairErr != nil {
		return out, repairErr
	}
	out.statement = fixed
	out.repaired = true

	result, err = p.engine.Execute(ctx, query.Request{SQL: fixed, RowLimit: p.cfg.RowLimit})
	if err != nil {
		observability.ObserveRepair(false)
		p.logger.WarnContext(ctx, "repair_failed",
			slog.String("sql", fixed),
			slog.String("error", err.Error()),
		)
		return out, &ExecutionError{Statement: fixed, Err: err, Repaired: true}
	}
	observability.ObserveRepair(true)
	out.result = result
	return out, nil
}

// Repair asks the generator for one corrected statement. The reply is
// cleaned and any categorical numeral comparison is rewritten to its literal.
func (p *Pipeline) Repair(ctx context.Context, question, badSQL, engineErr string) (string, error) {
	messages := []llm.Message{
		llm.System(p.prompts.system),
		llm.User(p.prompts.repairIntro()),
		llm.User("Question: " + question),
		llm.User("Bad SQL:\n" + badSQL),
		llm.User(p.prompts.repairError(engineErr)),
		llm.User(repairClosing),
	}
	raw, err := p.complete(ctx, "repair", messages, 0)
	if err != nil {
		return "", err
	}
	return p.guard.RewriteCategoricalNumeral(p.guard.Clean(raw)), nil
}

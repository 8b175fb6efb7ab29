package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hrsight/hrsight/internal/audit"
	"github.com/hrsight/hrsight/internal/llm"
	"github.com/hrsight/hrsight/internal/observability"
	"github.com/hrsight/hrsight/internal/pipeline"
)

const auditWriteTimeout = 2 * time.Second

type historyMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type askRequest struct {
	Question string           `json:"question"`
	History  []historyMessage `json:"history"`
}

type askResponse struct {
	Answer         string   `json:"answer"`
	SQL            string   `json:"sql"`
	Columns        []string `json:"columns"`
	Rows           [][]any  `json:"rows"`
	Source         string   `json:"source"`
	Template       string   `json:"template,omitempty"`
	GeneratorCalls int      `json:"generator_calls"`
	Repaired       bool     `json:"repaired"`
	DurationMS     int64    `json:"duration_ms"`
	TraceID        string   `json:"trace_id"`
}

type generateResponse struct {
	SQL            string `json:"sql"`
	Source         string `json:"source"`
	Template       string `json:"template,omitempty"`
	GeneratorCalls int    `json:"generator_calls"`
	TraceID        string `json:"trace_id"`
}

func handleAsk(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Pipeline == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "PIPELINE_NOT_CONFIGURED", "question pipeline is not configured", false, nil)
		return
	}
	question, history, ok := decodeQuestion(w, r, "ask")
	if !ok {
		return
	}

	ctx := r.Context()
	traceID := observability.TraceIDFromContext(ctx)
	start := time.Now()
	answer, err := deps.Pipeline.Ask(ctx, question, history)
	elapsed := time.Since(start)

	entry := audit.NewEntry(traceID, question)
	entry.Statement = answer.Statement
	entry.Source = string(answer.Source)
	entry.Template = answer.Template
	entry.GeneratorCalls = answer.GeneratorCalls
	entry.Repaired = answer.Repaired
	entry.Duration = elapsed

	observability.AnnotateQuestion(ctx,
		slog.String("statement_source", string(answer.Source)),
		slog.Int("generator_calls", answer.GeneratorCalls),
		slog.Bool("repaired", answer.Repaired),
	)
	if err != nil {
		failure := classifyPipelineError(err)
		entry.ErrorCode = failure.code
		entry.ErrorMessage = err.Error()
		observability.AnnotateQuestion(ctx, slog.String("error_code", failure.code))
		recordAudit(ctx, deps, entry)
		if deps.Logger != nil {
			deps.Logger.WarnContext(ctx, "question_failed",
				slog.String("error_code", failure.code),
				slog.String("error", err.Error()),
			)
		}
		writeError(ctx, w, failure.status, failure.code, failure.message, failure.retryable, failure.context)
		return
	}

	entry.RowCount = len(answer.Result.Rows)
	entry.Answer = answer.Text
	recordAudit(ctx, deps, entry)

	columns := answer.Result.Columns
	if columns == nil {
		columns = []string{}
	}
	rows := answer.Result.Rows
	if rows == nil {
		rows = [][]any{}
	}
	writeJSON(w, http.StatusOK, askResponse{
		Answer:         answer.Text,
		SQL:            answer.Statement,
		Columns:        columns,
		Rows:           rows,
		Source:         string(answer.Source),
		Template:       answer.Template,
		GeneratorCalls: answer.GeneratorCalls,
		Repaired:       answer.Repaired,
		DurationMS:     elapsed.Milliseconds(),
		TraceID:        traceID,
	})
}

func handleGenerate(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Pipeline == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "PIPELINE_NOT_CONFIGURED", "question pipeline is not configured", false, nil)
		return
	}
	question, history, ok := decodeQuestion(w, r, "generate")
	if !ok {
		return
	}

	generation, err := deps.Pipeline.Generate(r.Context(), question, history)
	observability.AnnotateQuestion(r.Context(),
		slog.String("statement_source", string(generation.Source)),
		slog.Int("generator_calls", generation.GeneratorCalls),
	)
	if err != nil {
		failure := classifyPipelineError(err)
		observability.AnnotateQuestion(r.Context(), slog.String("error_code", failure.code))
		writeError(r.Context(), w, failure.status, failure.code, failure.message, failure.retryable, failure.context)
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{
		SQL:            generation.Statement,
		Source:         string(generation.Source),
		Template:       generation.Template,
		GeneratorCalls: generation.GeneratorCalls,
		TraceID:        observability.TraceIDFromContext(r.Context()),
	})
}

func decodeQuestion(w http.ResponseWriter, r *http.Request, kind string) (string, []llm.Message, bool) {
	var req askRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", fmt.Sprintf("invalid %s request body", kind), false, map[string]any{"details": err.Error()})
		return "", nil, false
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return "", nil, false
	}

	history := make([]llm.Message, 0, len(req.History))
	for i, item := range req.History {
		role, ok := llm.ParseRole(item.Role)
		if !ok || role == llm.RoleSystem {
			writeError(r.Context(), w, http.StatusBadRequest, "INVALID_HISTORY", "history role must be user or assistant", false, map[string]any{
				"index": i,
				"role":  item.Role,
			})
			return "", nil, false
		}
		history = append(history, llm.Message{Role: role, Content: item.Content})
	}
	return req.Question, history, true
}

type pipelineFailure struct {
	status    int
	code      string
	message   string
	retryable bool
	context   map[string]any
}

func classifyPipelineError(err error) pipelineFailure {
	var execErr *pipeline.ExecutionError
	switch {
	case errors.Is(err, pipeline.ErrQuestionRequired):
		return pipelineFailure{status: http.StatusBadRequest, code: "QUESTION_REQUIRED", message: "question is required"}
	case errors.Is(err, llm.ErrUnavailable):
		return pipelineFailure{
			status:    http.StatusBadGateway,
			code:      "GENERATOR_UNAVAILABLE",
			message:   "language model is unavailable",
			retryable: true,
			context:   map[string]any{"details": err.Error()},
		}
	case errors.As(err, &execErr):
		return pipelineFailure{
			status:  http.StatusUnprocessableEntity,
			code:    "QUERY_EXECUTION_FAILED",
			message: "query execution failed",
			context: map[string]any{
				"sql":      execErr.Statement,
				"details":  execErr.Err.Error(),
				"repaired": execErr.Repaired,
			},
		}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return pipelineFailure{status: http.StatusGatewayTimeout, code: "REQUEST_TIMEOUT", message: "question timed out", retryable: true}
	default:
		return pipelineFailure{
			status:  http.StatusInternalServerError,
			code:    "INTERNAL_ERROR",
			message: "question failed",
			context: map[string]any{"details": err.Error()},
		}
	}
}

// recordAudit never fails the request; a lost audit row is only logged.
func recordAudit(ctx context.Context, deps Dependencies, entry audit.Entry) {
	if deps.Audit == nil {
		return
	}
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditWriteTimeout)
	defer cancel()
	if _, err := deps.Audit.Record(writeCtx, entry); err != nil && deps.Logger != nil {
		deps.Logger.ErrorContext(ctx, "audit_write_failed",
			slog.String("audit_id", entry.ID),
			slog.String("error", err.Error()),
		)
	}
}

package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hrsight/hrsight/internal/audit"
)

type auditEntryResponse struct {
	ID             string    `json:"id"`
	TraceID        string    `json:"trace_id"`
	Question       string    `json:"question"`
	SQL            string    `json:"sql"`
	Source         string    `json:"source"`
	Template       string    `json:"template,omitempty"`
	RowCount       int       `json:"row_count"`
	Answer         string    `json:"answer"`
	ErrorCode      string    `json:"error_code,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	GeneratorCalls int       `json:"generator_calls"`
	Repaired       bool      `json:"repaired"`
	DurationMS     int64     `json:"duration_ms"`
	CreatedAt      time.Time `json:"created_at"`
}

func handleAudit(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Audit == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "AUDIT_NOT_CONFIGURED", "audit trail is not configured", false, nil)
		return
	}

	limit := audit.DefaultRecentLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(r.Context(), w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer", false, map[string]any{"limit": raw})
			return
		}
		limit = parsed
	}

	entries, err := deps.Audit.Recent(r.Context(), limit)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "AUDIT_FETCH_FAILED", "failed to load audit entries", true, map[string]any{"details": err.Error()})
		return
	}

	out := make([]auditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, auditEntryResponse{
			ID:             entry.ID,
			TraceID:        entry.TraceID,
			Question:       entry.Question,
			SQL:            entry.Statement,
			Source:         entry.Source,
			Template:       entry.Template,
			RowCount:       entry.RowCount,
			Answer:         entry.Answer,
			ErrorCode:      entry.ErrorCode,
			ErrorMessage:   entry.ErrorMessage,
			GeneratorCalls: entry.GeneratorCalls,
			Repaired:       entry.Repaired,
			DurationMS:     entry.Duration.Milliseconds(),
			CreatedAt:      entry.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": out})
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hrsight/hrsight/internal/audit"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) HealthCheck(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping audit db: %w", err)
	}
	return nil
}

func (r *Repository) Record(ctx context.Context, entry audit.Entry) (audit.Entry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	query := `
INSERT INTO question_audit (audit_id, trace_id, question, statement, source, template, row_count, answer, error_code, error_message, generator_calls, repaired, duration_ms)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING created_at`
	if err := r.db.QueryRowContext(ctx, query,
		entry.ID,
		entry.TraceID,
		entry.Question,
		entry.Statement,
		entry.Source,
		entry.Template,
		entry.RowCount,
		entry.Answer,
		entry.ErrorCode,
		entry.ErrorMessage,
		entry.GeneratorCalls,
		entry.Repaired,
		entry.Duration.Milliseconds(),
	).Scan(&entry.CreatedAt); err != nil {
		return audit.Entry{}, fmt.Errorf("record audit entry: %w", err)
	}
	return entry, nil
}

func (r *Repository) Recent(ctx context.Context, limit int) ([]audit.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT audit_id, trace_id, question, statement, source, template, row_count, answer, error_code, error_message, generator_calls, repaired, duration_ms, created_at
FROM question_audit
ORDER BY created_at DESC
LIMIT $1`, audit.NormalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]audit.Entry, 0)
	for rows.Next() {
		var (
			entry      audit.Entry
			durationMS int64
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.TraceID,
			&entry.Question,
			&entry.Statement,
			&entry.Source,
			&entry.Template,
			&entry.RowCount,
			&entry.Answer,
			&entry.ErrorCode,
			&entry.ErrorMessage,
			&entry.GeneratorCalls,
			&entry.Repaired,
			&durationMS,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		entry.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit rows: %w", err)
	}
	return entries, nil
}

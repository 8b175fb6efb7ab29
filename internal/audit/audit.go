package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrDisabled = errors.New("audit: disabled")

const (
	DefaultRecentLimit = 20
	MaxRecentLimit     = 200
)

// Store persists one entry per answered (or failed) question. The pipeline
// never writes here; the HTTP caller does after each ask.
type Store interface {
	HealthCheck(ctx context.Context) error
	Record(ctx context.Context, entry Entry) (Entry, error)
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

type Entry struct {
	ID             string
	TraceID        string
	Question       string
	Statement      string
	Source         string
	Template       string
	RowCount       int
	Answer         string
	ErrorCode      string
	ErrorMessage   string
	GeneratorCalls int
	Repaired       bool
	Duration       time.Duration
	CreatedAt      time.Time
}

func NewEntry(traceID, question string) Entry {
	return Entry{
		ID:       uuid.NewString(),
		TraceID:  traceID,
		Question: question,
	}
}

func (e Entry) Failed() bool {
	return e.ErrorCode != ""
}

func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		return MaxRecentLimit
	}
	return limit
}

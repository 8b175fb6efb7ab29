package query

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hrsight/hrsight/internal/schema"
)

type Request struct {
	SQL      string
	RowLimit int
}

type Result struct {
	Columns  []string
	Rows     [][]any
	Duration time.Duration
}

func (r Result) Empty() bool {
	return len(r.Rows) == 0
}

// Engine executes one read-only statement per call. Implementations open the
// store for the duration of the call only.
type Engine interface {
	Execute(ctx context.Context, request Request) (Result, error)
}

var ErrUnsafeStatement = errors.New("unsafe statement")

var (
	forbiddenPattern = regexp.MustCompile(`(?i)\b(` + strings.Join(schema.ForbiddenKeywords(), "|") + `)\b`)
	selectPrefix     = regexp.MustCompile(`(?i)^select\b`)
	foreignSource    = regexp.MustCompile(`(?i)` + strings.Join(schema.ForbiddenSources(), "|"))
)

// ValidateStatement is the execution-side safety check. It runs regardless of
// any validation done upstream.
func ValidateStatement(sqlText, table string) error {
	s := StripTrailingSemicolons(sqlText)
	if s == "" {
		return fmt.Errorf("%w: statement is empty", ErrUnsafeStatement)
	}
	if !selectPrefix.MatchString(s) {
		return fmt.Errorf("%w: only SELECT statements are allowed", ErrUnsafeStatement)
	}
	if strings.Contains(s, ";") {
		return fmt.Errorf("%w: multiple statements are not allowed", ErrUnsafeStatement)
	}
	if match := forbiddenPattern.FindString(s); match != "" {
		return fmt.Errorf("%w: keyword %s is not allowed", ErrUnsafeStatement, strings.ToUpper(match))
	}
	if match := foreignSource.FindString(s); match != "" {
		return fmt.Errorf("%w: source %q is not allowed", ErrUnsafeStatement, strings.TrimSpace(match))
	}
	if table != "" && !tableRefPattern(table).MatchString(s) {
		return fmt.Errorf("%w: statement must read from %s", ErrUnsafeStatement, table)
	}
	return nil
}

func tableRefPattern(table string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b(from|join)\s+["` + "`" + `]?` + regexp.QuoteMeta(table) + `\b`)
}

func StripTrailingSemicolons(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return trimmed
}

// WrapRowLimit caps the rows a statement can return without touching its
// own LIMIT clause.
func WrapRowLimit(sqlText string, rowLimit int) string {
	sqlText = StripTrailingSemicolons(sqlText)
	if rowLimit <= 0 {
		return sqlText
	}
	return fmt.Sprintf("SELECT * FROM (%s) AS q LIMIT %d", sqlText, rowLimit)
}

// Check runs a trivial aggregate against the table to prove the store is
// reachable.
func Check(ctx context.Context, engine Engine, table string) error {
	_, err := engine.Execute(ctx, Request{SQL: fmt.Sprintf("SELECT COUNT(*) FROM %s", table)})
	return err
}

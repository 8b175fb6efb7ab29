package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hrsight/hrsight/internal/query"
	"github.com/hrsight/hrsight/internal/schema"
)

// Engine runs statements against a SQLite database file opened read-only
// for each call.
type Engine struct {
	path  string
	table string
}

func NewEngine(path, table string) (*Engine, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite database path is required")
	}
	table = strings.TrimSpace(table)
	if table == "" {
		table = schema.EmployeesTable
	}
	return &Engine{path: path, table: table}, nil
}

func (e *Engine) Execute(ctx context.Context, request query.Request) (query.Result, error) {
	if err := query.ValidateStatement(request.SQL, e.table); err != nil {
		return query.Result{}, err
	}
	// mode=ro would otherwise surface a missing file as a generic open error.
	if _, err := os.Stat(e.path); err != nil {
		return query.Result{}, fmt.Errorf("open sqlite database: %w", err)
	}

	start := time.Now()
	db, err := e.open()
	if err != nil {
		return query.Result{}, err
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, query.WrapRowLimit(request.SQL, request.RowLimit))
	if err != nil {
		return query.Result{}, fmt.Errorf("execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, resultRows, err := query.ScanRows(rows)
	if err != nil {
		return query.Result{}, err
	}
	return query.Result{
		Columns:  columns,
		Rows:     resultRows,
		Duration: time.Since(start),
	}, nil
}

// open uses a file: URI so the driver honours mode=ro, and query_only rejects
// writes on the connection as well.
func (e *Engine) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file:"+e.path+"?mode=ro&_pragma=query_only(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	return db, nil
}

package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/hrsight/hrsight/internal/query"
	"github.com/hrsight/hrsight/internal/schema"
	"github.com/hrsight/hrsight/internal/storage"
)

const (
	FormatParquet = "parquet"
	FormatCSV     = "csv"
	FormatDuckDB  = "duckdb"
)

// Source locates the dataset file. ObjectKey wins over Path when both are set.
type Source struct {
	Table     string
	Format    string
	Path      string
	ObjectKey string
}

// Engine opens a fresh in-memory DuckDB per statement with the dataset loaded
// as its only table, or opens a DuckDB file read-only. Either way external
// file access is disabled before the statement runs.
type Engine struct {
	store  storage.ObjectStore
	source Source
}

func NewEngine(store storage.ObjectStore, source Source) (*Engine, error) {
	source.Table = strings.TrimSpace(source.Table)
	if source.Table == "" {
		source.Table = schema.EmployeesTable
	}
	source.Format = strings.ToLower(strings.TrimSpace(source.Format))
	if source.Format == "" {
		source.Format = FormatParquet
	}
	switch source.Format {
	case FormatParquet, FormatCSV, FormatDuckDB:
	default:
		return nil, fmt.Errorf("unsupported dataset format %q", source.Format)
	}
	source.Path = strings.TrimSpace(source.Path)
	source.ObjectKey = strings.TrimSpace(source.ObjectKey)
	if source.Path == "" && source.ObjectKey == "" {
		return nil, fmt.Errorf("dataset path or object key is required")
	}
	if source.ObjectKey != "" && store == nil {
		return nil, fmt.Errorf("object store is required for object key %q", source.ObjectKey)
	}
	return &Engine{store: store, source: source}, nil
}

func (e *Engine) Execute(ctx context.Context, request query.Request) (query.Result, error) {
	if err := query.ValidateStatement(request.SQL, e.source.Table); err != nil {
		return query.Result{}, err
	}

	start := time.Now()
	localPath, cleanup, err := e.localFile(ctx)
	if err != nil {
		return query.Result{}, err
	}
	defer cleanup()

	db, err := e.open(ctx, localPath)
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

func (e *Engine) localFile(ctx context.Context) (string, func(), error) {
	if e.source.ObjectKey == "" {
		return e.source.Path, func() {}, nil
	}
	workDir, err := os.MkdirTemp("", "hrsight-query-")
	if err != nil {
		return "", nil, fmt.Errorf("create query temp dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(workDir) }

	localPath := filepath.Join(workDir, e.source.Table+"."+e.source.Format)
	if _, err := storage.Download(ctx, e.store, e.source.ObjectKey, localPath); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("fetch dataset: %w", err)
	}
	return localPath, cleanup, nil
}

func (e *Engine) open(ctx context.Context, localPath string) (*sql.DB, error) {
	if e.source.Format == FormatDuckDB {
		db, err := sql.Open("duckdb", localPath+"?access_mode=READ_ONLY")
		if err != nil {
			return nil, fmt.Errorf("open duckdb file: %w", err)
		}
		return lockDown(ctx, db)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	reader := fmt.Sprintf("read_parquet(%s)", quoteString(localPath))
	if e.source.Format == FormatCSV {
		reader = fmt.Sprintf("read_csv_auto(%s, header = true)", quoteString(localPath))
	}
	loadSQL := fmt.Sprintf(`CREATE TABLE %s AS SELECT * FROM %s`, quoteIdent(e.source.Table), reader)
	if _, err := db.ExecContext(ctx, loadSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load table %q: %w", e.source.Table, err)
	}
	return lockDown(ctx, db)
}

// lockDown cuts the database off from the filesystem once the dataset is
// loaded. The settings are locked so a statement cannot turn them back on.
func lockDown(ctx context.Context, db *sql.DB) (*sql.DB, error) {
	db.SetMaxOpenConns(1)
	for _, statement := range []string{
		"SET enable_external_access = false",
		"SET lock_configuration = true",
	} {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("restrict duckdb: %w", err)
		}
	}
	return db, nil
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func quoteString(value string) string {
	return `'` + strings.ReplaceAll(value, `'`, `''`) + `'`
}

package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/hrsight/hrsight/internal/schema"
)

// WriteSQLite replaces the descriptor's table in the database at path with
// rows, creating the file when needed.
func WriteSQLite(ctx context.Context, path string, descriptor schema.Descriptor, rows []Employee) error {
	if len(rows) == 0 {
		return fmt.Errorf("rows are required")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite %q: %w", path, err)
	}
	defer func() { _ = db.Close() }()

	table := quoteIdent(descriptor.Table())
	columns := descriptor.Columns()
	names := make([]string, 0, len(columns))
	definitions := make([]string, 0, len(columns))
	placeholders := make([]string, 0, len(columns))
	for _, column := range columns {
		names = append(names, column.Name)
		sqlType := "TEXT"
		if column.Kind == schema.KindNumeric {
			sqlType = "INTEGER"
		}
		definitions = append(definitions, quoteIdent(column.Name)+" "+sqlType)
		placeholders = append(placeholders, "?")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return fmt.Errorf("drop table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(definitions, ", "))); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	quoted := make([]string, 0, len(names))
	for _, name := range names {
		quoted = append(quoted, quoteIdent(name))
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(quoted, ", "), strings.Join(placeholders, ", ")))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, row := range rows {
		values, err := row.Values(names)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, values...); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

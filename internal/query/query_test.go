package query

import (
	"errors"
	"testing"
)

func TestValidateStatement(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		wantErr bool
	}{
		{name: "select", sql: "SELECT Age FROM employees LIMIT 50;"},
		{name: "lowercase", sql: "select count(*) from employees"},
		{name: "join", sql: "SELECT e.Age FROM (SELECT 1) x JOIN employees e ON 1 = 1"},
		{name: "empty", sql: " ; ", wantErr: true},
		{name: "not select", sql: "WITH x AS (SELECT 1) SELECT * FROM employees", wantErr: true},
		{name: "insert", sql: "INSERT INTO employees VALUES (1)", wantErr: true},
		{name: "stacked", sql: "SELECT * FROM employees; DROP TABLE employees", wantErr: true},
		{name: "pragma inside", sql: "SELECT * FROM employees WHERE pragma = 1", wantErr: true},
		{name: "create word", sql: "SELECT * FROM employees WHERE Department = 'x' AND create = 1", wantErr: true},
		{name: "other table", sql: "SELECT * FROM sqlite_master", wantErr: true},
		{name: "table prefix", sql: "SELECT * FROM employees_old", wantErr: true},
		{name: "file function join", sql: "SELECT s.content FROM employees JOIN read_text('/etc/passwd') AS s ON true LIMIT 1", wantErr: true},
		{name: "spaced file function", sql: "SELECT * FROM employees, read_csv_auto ('/tmp/x.csv')", wantErr: true},
		{name: "scan function", sql: "SELECT * FROM employees UNION ALL SELECT * FROM parquet_scan('/tmp/x.parquet')", wantErr: true},
		{name: "system catalog", sql: "SELECT name FROM employees, sqlite_schema", wantErr: true},
		{name: "information schema", sql: "SELECT * FROM employees JOIN information_schema.tables t ON true", wantErr: true},
		{name: "duckdb metadata", sql: "SELECT * FROM employees, duckdb_settings()", wantErr: true},
		{name: "replacement scan", sql: "SELECT * FROM employees JOIN '/etc/hosts' h ON true", wantErr: true},
		{name: "nested query function", sql: "SELECT * FROM employees WHERE Age IN (SELECT * FROM query('SELECT 1'))", wantErr: true},
		{name: "column named like source", sql: "SELECT Department, COUNT(*) AS read_count FROM employees GROUP BY Department"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStatement(tt.sql, "employees")
			if tt.wantErr {
				if !errors.Is(err, ErrUnsafeStatement) {
					t.Fatalf("ValidateStatement() error = %v, want ErrUnsafeStatement", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateStatement() error = %v", err)
			}
		})
	}
}

func TestWrapRowLimit(t *testing.T) {
	if got := WrapRowLimit("SELECT Age FROM employees LIMIT 5;;", 100); got != "SELECT * FROM (SELECT Age FROM employees LIMIT 5) AS q LIMIT 100" {
		t.Fatalf("WrapRowLimit() = %q", got)
	}
	if got := WrapRowLimit("SELECT Age FROM employees;", 0); got != "SELECT Age FROM employees" {
		t.Fatalf("WrapRowLimit(0) = %q", got)
	}
}

func TestNormalizeValuesConvertsBytes(t *testing.T) {
	got := normalizeValues([]any{[]byte("Sales"), int64(3), nil})
	if got[0] != "Sales" || got[1] != int64(3) || got[2] != nil {
		t.Fatalf("normalizeValues() = %#v", got)
	}
}

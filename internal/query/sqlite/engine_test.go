package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hrsight/hrsight/internal/query"
)

func seedDatabase(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hr.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer func() { _ = db.Close() }()
	for _, statement := range []string{
		`CREATE TABLE employees (Age INTEGER, Attrition TEXT, Department TEXT, MonthlyIncome INTEGER)`,
		`INSERT INTO employees VALUES (41, 'Yes', 'Sales', 5993), (49, 'No', 'Research & Development', 5130), (37, 'Yes', 'Research & Development', 2090)`,
	} {
		if _, err := db.Exec(statement); err != nil {
			t.Fatalf("seed sqlite: %v", err)
		}
	}
	return path
}

func TestExecuteAttritionRate(t *testing.T) {
	engine, err := NewEngine(seedDatabase(t), "")
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	result, err := engine.Execute(context.Background(), query.Request{SQL: `SELECT
  Department,
  ROUND(100.0 * SUM(CASE WHEN Attrition = 'Yes' THEN 1 ELSE 0 END) / COUNT(*), 2)
    AS AttritionRatePercent
FROM employees
GROUP BY Department
ORDER BY AttritionRatePercent DESC;`})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("rows = %#v", result.Rows)
	}
	if result.Rows[0][0] != "Sales" || result.Rows[0][1] != float64(100) {
		t.Fatalf("first row = %#v", result.Rows[0])
	}
	if result.Rows[1][1] != float64(50) {
		t.Fatalf("second row = %#v", result.Rows[1])
	}
}

func TestExecuteCountAndRowLimit(t *testing.T) {
	engine, err := NewEngine(seedDatabase(t), "employees")
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	result, err := engine.Execute(context.Background(), query.Request{SQL: "SELECT COUNT(*) AS employee_count FROM employees;"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Columns[0] != "employee_count" || result.Rows[0][0] != int64(3) {
		t.Fatalf("result = %#v", result)
	}

	limited, err := engine.Execute(context.Background(), query.Request{SQL: "SELECT Age FROM employees LIMIT 50;", RowLimit: 1})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(limited.Rows) != 1 {
		t.Fatalf("rows = %d", len(limited.Rows))
	}
}

func TestExecuteRejectsUnsafeStatements(t *testing.T) {
	path := seedDatabase(t)
	engine, err := NewEngine(path, "")
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	for _, statement := range []string{
		"DELETE FROM employees",
		"SELECT * FROM employees; DROP TABLE employees;",
		"SELECT name FROM sqlite_master",
		"SELECT * FROM employees WHERE 1 = 1 AND attach = 1",
	} {
		if _, err := engine.Execute(context.Background(), query.Request{SQL: statement}); !errors.Is(err, query.ErrUnsafeStatement) {
			t.Fatalf("Execute(%q) error = %v, want ErrUnsafeStatement", statement, err)
		}
	}
	again, err := engine.Execute(context.Background(), query.Request{SQL: "SELECT COUNT(*) FROM employees"})
	if err != nil || again.Rows[0][0] != int64(3) {
		t.Fatalf("table changed after rejected statements: %#v, %v", again, err)
	}
}

func TestExecuteSurfacesEngineError(t *testing.T) {
	engine, err := NewEngine(seedDatabase(t), "")
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	_, err = engine.Execute(context.Background(), query.Request{SQL: "SELECT Salary FROM employees"})
	if err == nil || errors.Is(err, query.ErrUnsafeStatement) {
		t.Fatalf("expected engine error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Salary") {
		t.Fatalf("engine error does not name the column: %v", err)
	}
}

func TestExecuteMissingDatabase(t *testing.T) {
	engine, err := NewEngine(filepath.Join(t.TempDir(), "missing.db"), "")
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	if _, err := engine.Execute(context.Background(), query.Request{SQL: "SELECT 1 FROM employees"}); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Execute() error = %v, want not exist", err)
	}
	if _, err := NewEngine(" ", ""); err == nil {
		t.Fatal("expected missing path error")
	}
}

func TestEngineConnectionRejectsWrites(t *testing.T) {
	engine, err := NewEngine(seedDatabase(t), "")
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	db, err := engine.open()
	if err != nil {
		t.Fatalf("open() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, `INSERT INTO employees VALUES (22, 'No', 'Sales', 1000)`); err == nil {
		t.Fatal("insert succeeded on the engine connection")
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE scratch (id INTEGER)`); err == nil {
		t.Fatal("create succeeded on the engine connection")
	}

	result, err := engine.Execute(ctx, query.Request{SQL: "SELECT COUNT(*) AS n FROM employees;"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Rows[0][0] != int64(3) {
		t.Fatalf("count = %#v, want 3", result.Rows[0][0])
	}
}

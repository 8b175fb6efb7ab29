package schema

import (
	"strings"
	"testing"
)

func TestEmployeesDescriptor(t *testing.T) {
	if Employees.Table() != "employees" {
		t.Fatalf("Table() = %q", Employees.Table())
	}
	names := Employees.ColumnNames()
	if len(names) != 35 {
		t.Fatalf("len(ColumnNames()) = %d", len(names))
	}
	if names[0] != "Age" || names[len(names)-1] != "YearsWithCurrManager" {
		t.Fatalf("unexpected column order: first=%q last=%q", names[0], names[len(names)-1])
	}
}

func TestColumnLookupIsCaseInsensitive(t *testing.T) {
	column, ok := Employees.Column(" attrition ")
	if !ok {
		t.Fatal("expected attrition column")
	}
	if column.Kind != KindCategorical {
		t.Fatalf("Kind = %q", column.Kind)
	}
	if column.NumeralLiterals["1"] != "Yes" || column.NumeralLiterals["0"] != "No" {
		t.Fatalf("NumeralLiterals = %#v", column.NumeralLiterals)
	}
	if _, ok := Employees.Column("Salary"); ok {
		t.Fatal("unexpected Salary column")
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	column, _ := Employees.Column("Attrition")
	column.Values[0] = "Maybe"
	column.NumeralLiterals["1"] = "Maybe"

	again, _ := Employees.Column("Attrition")
	if again.Values[0] != "Yes" || again.NumeralLiterals["1"] != "Yes" {
		t.Fatalf("descriptor was mutated through a returned column: %#v", again)
	}

	columns := Employees.Columns()
	columns[0].Name = "Renamed"
	if Employees.ColumnNames()[0] != "Age" {
		t.Fatal("descriptor was mutated through Columns()")
	}
}

func TestHintListsColumnsAndRules(t *testing.T) {
	hint := Employees.Hint()
	for _, want := range []string{
		"Table: employees",
		"MonthlyIncome",
		"Only generate SELECT queries.",
		"INSERT, UPDATE, DELETE, DROP, ALTER, PRAGMA, ATTACH, DETACH, CREATE",
		"Default LIMIT 50",
	} {
		if !strings.Contains(hint, want) {
			t.Fatalf("Hint() missing %q:\n%s", want, hint)
		}
	}
}

func TestTypingRulesCoverBinaryCategoricals(t *testing.T) {
	rules := strings.Join(Employees.TypingRules(), "\n")
	want := "Attrition is TEXT with values 'Yes' or 'No' (NOT 1/0). Never use Attrition = 1 or Attrition = 0."
	if !strings.Contains(rules, want) {
		t.Fatalf("TypingRules() missing attrition rule:\n%s", rules)
	}
	if !strings.Contains(rules, "OverTime is TEXT") {
		t.Fatalf("TypingRules() missing overtime rule:\n%s", rules)
	}
	if !strings.Contains(rules, "Department") {
		t.Fatalf("TypingRules() missing department:\n%s", rules)
	}
}

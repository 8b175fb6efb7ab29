package schema

import (
	"fmt"
	"strings"
)

type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindText        Kind = "text"
	KindCategorical Kind = "categorical"
)

// DefaultLimit is the row cap appended to generated statements that carry none.
const DefaultLimit = 50

type Column struct {
	Name   string
	Kind   Kind
	Values []string
	// NumeralLiterals maps a numeral a generator may wrongly compare against
	// the column to the string literal it stands for ("1" -> "Yes").
	NumeralLiterals map[string]string
}

func (c Column) clone() Column {
	out := Column{Name: c.Name, Kind: c.Kind}
	if len(c.Values) > 0 {
		out.Values = append([]string(nil), c.Values...)
	}
	if len(c.NumeralLiterals) > 0 {
		out.NumeralLiterals = make(map[string]string, len(c.NumeralLiterals))
		for k, v := range c.NumeralLiterals {
			out.NumeralLiterals[k] = v
		}
	}
	return out
}

// Descriptor is immutable once built; accessors hand out copies.
type Descriptor struct {
	table   string
	columns []Column
	index   map[string]int
}

func newDescriptor(table string, columns []Column) Descriptor {
	index := make(map[string]int, len(columns))
	for i, column := range columns {
		index[strings.ToLower(column.Name)] = i
	}
	return Descriptor{table: table, columns: columns, index: index}
}

func (d Descriptor) Table() string {
	return d.table
}

func (d Descriptor) Columns() []Column {
	out := make([]Column, 0, len(d.columns))
	for _, column := range d.columns {
		out = append(out, column.clone())
	}
	return out
}

func (d Descriptor) ColumnNames() []string {
	names := make([]string, 0, len(d.columns))
	for _, column := range d.columns {
		names = append(names, column.Name)
	}
	return names
}

// Column looks a column up case-insensitively.
func (d Descriptor) Column(name string) (Column, bool) {
	i, ok := d.index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Column{}, false
	}
	return d.columns[i].clone(), true
}

func (d Descriptor) ColumnsOfKind(kind Kind) []Column {
	out := make([]Column, 0)
	for _, column := range d.columns {
		if column.Kind == kind {
			out = append(out, column.clone())
		}
	}
	return out
}

// ForbiddenKeywords lists the data- and schema-mutating keywords that may never
// appear in a statement sent to the store.
func ForbiddenKeywords() []string {
	return []string{"INSERT", "UPDATE", "DELETE", "DROP", "ALTER", "PRAGMA", "ATTACH", "DETACH", "CREATE"}
}

// ForbiddenSources matches relations other than the dataset table: engine
// table functions, file scans and system catalogs.
func ForbiddenSources() []string {
	return []string{
		`\b(read|sniff)_\w+\s*\(`,
		`\b\w+_scan\s*\(`,
		`\b(glob|query|query_table|getenv)\s*\(`,
		`\bpragma_\w+`,
		`\bduckdb_\w+`,
		`\bsqlite_(master|schema|temp_master|temp_schema)\b`,
		`\binformation_schema\b`,
		`\bpg_catalog\b`,
		`\b(from|join)\s+'`,
	}
}

// Hint is the schema block given to the generator. The validator enforces the
// same rules, so both are derived from this descriptor.
func (d Descriptor) Hint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Table: %s\n", d.table)
	fmt.Fprintf(&b, "Columns: %s\n\n", strings.Join(d.ColumnNames(), ", "))
	b.WriteString("Rules:\n")
	b.WriteString("- Only generate SELECT queries.\n")
	fmt.Fprintf(&b, "- Never use %s.\n", strings.Join(ForbiddenKeywords(), ", "))
	b.WriteString("- Prefer aggregations (COUNT, AVG, MIN, MAX) when asked for summaries.\n")
	fmt.Fprintf(&b, "- Default LIMIT %d unless the user asks for full output.\n", DefaultLimit)
	return b.String()
}

// TypingRules spells out the column typing the generator most often gets wrong.
func (d Descriptor) TypingRules() []string {
	rules := []string{fmt.Sprintf("Table name is exactly: %s", d.table)}

	var plainText []string
	for _, column := range d.columns {
		if column.Kind == KindNumeric {
			continue
		}
		if len(column.NumeralLiterals) == 0 {
			plainText = append(plainText, column.Name)
			continue
		}
		rules = append(rules, binaryRule(column))
	}
	if len(plainText) > 0 {
		rules = append(rules, fmt.Sprintf("%s are TEXT.", strings.Join(plainText, ", ")))
	}

	numeric := make([]string, 0)
	for _, column := range d.columns {
		if column.Kind == KindNumeric {
			numeric = append(numeric, column.Name)
		}
	}
	if len(numeric) > 0 {
		rules = append(rules, fmt.Sprintf("%s are numeric columns.", strings.Join(numeric, ", ")))
	}
	rules = append(rules, "For rates/percentages: avoid integer division by using 1.0 * ... or 100.0 * ...")
	return rules
}

func binaryRule(column Column) string {
	quoted := make([]string, 0, len(column.Values))
	for _, value := range column.Values {
		quoted = append(quoted, "'"+value+"'")
	}
	numerals := make([]string, 0, len(column.NumeralLiterals))
	misuse := make([]string, 0, len(column.NumeralLiterals))
	for _, numeral := range []string{"1", "0"} {
		if _, ok := column.NumeralLiterals[numeral]; ok {
			numerals = append(numerals, numeral)
			misuse = append(misuse, fmt.Sprintf("%s = %s", column.Name, numeral))
		}
	}
	return fmt.Sprintf("%s is TEXT with values %s (NOT %s). Never use %s.",
		column.Name,
		strings.Join(quoted, " or "),
		strings.Join(numerals, "/"),
		strings.Join(misuse, " or "),
	)
}

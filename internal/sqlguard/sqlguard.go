package sqlguard

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hrsight/hrsight/internal/schema"
)

var (
	codeFencePattern     = regexp.MustCompile("```[A-Za-z0-9_+-]*")
	whitespacePattern    = regexp.MustCompile(`\s+`)
	selectKeywordPattern = regexp.MustCompile(`(?i)\bselect\b`)
	countFormPattern     = regexp.MustCompile(`(?i)^select\s+count\s*\(\s*(?:\*|distinct\s+\w+|\w+)\s*\)(?:\s+(?:as\s+)?"?\w+"?)?\s+from\s`)
	groupByPattern       = regexp.MustCompile(`(?i)\bgroup\s+by\b`)
	limitClausePattern   = regexp.MustCompile(`(?i)\blimit\s+\d+`)

	// Shapes that show the generator echoed its instructions instead of writing SQL.
	degeneratePatterns = []*regexp.Regexp{
		regexp.MustCompile(`select\s+query\b`),
		regexp.MustCompile(`select\s+sql\b`),
		regexp.MustCompile(`select\s+data\b`),
		regexp.MustCompile(`select\s+\*\s*limit\b`),
	}
)

// Guard validates and repairs statements against one schema descriptor.
// It is safe for concurrent use.
type Guard struct {
	defaultLimit int
	tableRef     *regexp.Regexp
	forbidden    *regexp.Regexp
	sources      *regexp.Regexp
	categorical  []categoricalRule
}

type categoricalRule struct {
	column  schema.Column
	pattern *regexp.Regexp
}

func New(descriptor schema.Descriptor, defaultLimit int) *Guard {
	if defaultLimit <= 0 {
		defaultLimit = schema.DefaultLimit
	}
	table := descriptor.Table()
	g := &Guard{
		defaultLimit: defaultLimit,
		tableRef:     regexp.MustCompile(`(?i)\b(from|join)\s+["` + "`" + `]?` + regexp.QuoteMeta(table) + `\b`),
		forbidden:    regexp.MustCompile(`(?i)\b(` + strings.Join(schema.ForbiddenKeywords(), "|") + `)\b`),
		sources:      regexp.MustCompile(`(?i)` + strings.Join(schema.ForbiddenSources(), "|")),
	}

	columns := append(descriptor.ColumnsOfKind(schema.KindCategorical), descriptor.ColumnsOfKind(schema.KindText)...)
	for _, column := range columns {
		g.categorical = append(g.categorical, categoricalRule{
			column:  column,
			pattern: numeralComparisonPattern(column.Name),
		})
	}
	return g
}

// numeralComparisonPattern matches "<column> <op> <numeral>" in spaced and
// unspaced forms, optionally with a quoted or qualified column name. A
// numeral with a zero fraction ("1.0") counts as its integer part.
func numeralComparisonPattern(column string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(["` + "`" + `]?\b` + regexp.QuoteMeta(column) + `\b["` + "`" + `]?\s*(?:==|=|!=|<>)\s*)(\d+(?:\.\d+)?)\b`)
}

// Normalize strips code fences with their info string and collapses
// whitespace runs.
func Normalize(raw string) string {
	s := codeFencePattern.ReplaceAllStringFunc(raw, func(fence string) string {
		if tag := fence[3:]; strings.HasPrefix(strings.ToLower(tag), "select") {
			return " " + tag
		}
		return " "
	})
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ExtractFirst returns the first statement of raw generator output, starting
// at the first SELECT. A terminator is kept only when the input had one.
func ExtractFirst(raw string) string {
	s := Normalize(raw)
	if loc := selectKeywordPattern.FindStringIndex(s); loc != nil && loc[0] > 0 {
		s = s[loc[0]:]
	}
	if idx := strings.Index(s, ";"); idx >= 0 {
		s = strings.TrimSpace(s[:idx]) + ";"
	}
	return strings.TrimSpace(s)
}

func (g *Guard) IsValid(statement string) bool {
	s := strings.ToLower(ExtractFirst(statement))
	if !strings.HasPrefix(s, "select") {
		return false
	}
	if !g.tableRef.MatchString(s) {
		return false
	}
	if g.forbidden.MatchString(s) {
		return false
	}
	if g.sources.MatchString(s) {
		return false
	}
	if g.ContainsCategoricalNumeral(s) {
		return false
	}
	for _, pattern := range degeneratePatterns {
		if pattern.MatchString(s) {
			return false
		}
	}
	return true
}

// EnsureLimit appends the default LIMIT to anything that is not a pure COUNT
// statement and has no LIMIT clause yet. A pure COUNT selects a single
// COUNT(...) item, optionally aliased, and has no GROUP BY.
func (g *Guard) EnsureLimit(statement string) string {
	s := ExtractFirst(statement)
	if s == "" {
		return s
	}
	if countFormPattern.MatchString(s) && !groupByPattern.MatchString(s) {
		return strings.TrimSpace(strings.TrimRight(s, ";")) + ";"
	}
	if limitClausePattern.MatchString(s) {
		return s
	}
	return fmt.Sprintf("%s LIMIT %d;", strings.TrimSpace(strings.TrimRight(s, ";")), g.defaultLimit)
}

// Clean runs normalize, extract and bound in order.
func (g *Guard) Clean(raw string) string {
	return g.EnsureLimit(raw)
}

func (g *Guard) ContainsCategoricalNumeral(statement string) bool {
	for _, rule := range g.categorical {
		if rule.pattern.MatchString(statement) {
			return true
		}
	}
	return false
}

// RewriteCategoricalNumeral replaces numerals compared against binary
// categorical columns with the string literal they stand for. Comparisons
// without a known mapping are left for validation to reject.
func (g *Guard) RewriteCategoricalNumeral(statement string) string {
	out := statement
	for _, rule := range g.categorical {
		if len(rule.column.NumeralLiterals) == 0 {
			continue
		}
		literals := rule.column.NumeralLiterals
		pattern := rule.pattern
		out = pattern.ReplaceAllStringFunc(out, func(match string) string {
			parts := pattern.FindStringSubmatch(match)
			numeral := parts[2]
			if whole, fraction, found := strings.Cut(numeral, "."); found {
				if strings.Trim(fraction, "0") != "" {
					return match
				}
				numeral = whole
			}
			literal, ok := literals[numeral]
			if !ok {
				return match
			}
			return parts[1] + "'" + literal + "'"
		})
	}
	return out
}

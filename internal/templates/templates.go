package templates

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

var spacePattern = regexp.MustCompile(`\s+`)

type Template struct {
	Name      string
	Statement string
	groups    [][]string
}

type Matcher struct {
	templates  []Template
	keywords   []*regexp.Regexp
	qualifiers []*regexp.Regexp
	count      string
}

type catalogFile struct {
	Templates []struct {
		Name      string     `yaml:"name"`
		Match     [][]string `yaml:"match"`
		Statement string     `yaml:"statement"`
	} `yaml:"templates"`
	Count struct {
		Keywords   []string `yaml:"keywords"`
		Qualifiers []string `yaml:"qualifiers"`
		Statement  string   `yaml:"statement"`
	} `yaml:"count"`
}

// Default returns the matcher built from the embedded catalog.
func Default() (*Matcher, error) {
	return Parse(embeddedCatalog)
}

func Parse(data []byte) (*Matcher, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode template catalog: %w", err)
	}

	m := &Matcher{count: strings.TrimSpace(file.Count.Statement)}
	seen := map[string]struct{}{}
	for i, item := range file.Templates {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			return nil, fmt.Errorf("template %d: name is required", i)
		}
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("template %q: duplicate name", name)
		}
		seen[name] = struct{}{}
		if strings.TrimSpace(item.Statement) == "" {
			return nil, fmt.Errorf("template %q: statement is required", name)
		}
		if len(item.Match) == 0 {
			return nil, fmt.Errorf("template %q: at least one match group is required", name)
		}
		groups := make([][]string, 0, len(item.Match))
		for _, group := range item.Match {
			alternatives := make([]string, 0, len(group))
			for _, phrase := range group {
				if phrase = normalizeQuestion(phrase); phrase != "" {
					alternatives = append(alternatives, phrase)
				}
			}
			if len(alternatives) == 0 {
				return nil, fmt.Errorf("template %q: empty match group", name)
			}
			groups = append(groups, alternatives)
		}
		m.templates = append(m.templates, Template{Name: name, Statement: item.Statement, groups: groups})
	}

	if m.count == "" {
		return nil, fmt.Errorf("count statement is required")
	}
	if len(file.Count.Keywords) == 0 {
		return nil, fmt.Errorf("count keywords are required")
	}
	for _, keyword := range file.Count.Keywords {
		m.keywords = append(m.keywords, phrasePattern(keyword))
	}
	for _, qualifier := range file.Count.Qualifiers {
		m.qualifiers = append(m.qualifiers, phrasePattern(qualifier))
	}
	return m, nil
}

// Match returns the first template whose every keyword group has a hit in
// the question.
func (m *Matcher) Match(question string) (Template, bool) {
	q := normalizeQuestion(question)
	if q == "" {
		return Template{}, false
	}
	for _, template := range m.templates {
		if template.matches(q) {
			return template, true
		}
	}
	return Template{}, false
}

// MatchCount returns the plain row-count statement for unqualified counting
// questions.
func (m *Matcher) MatchCount(question string) (string, bool) {
	if !m.IsCountQuestion(question) {
		return "", false
	}
	q := normalizeQuestion(question)
	for _, qualifier := range m.qualifiers {
		if qualifier.MatchString(q) {
			return "", false
		}
	}
	return m.count, true
}

func (m *Matcher) IsCountQuestion(question string) bool {
	q := normalizeQuestion(question)
	for _, keyword := range m.keywords {
		if keyword.MatchString(q) {
			return true
		}
	}
	return false
}

func (m *Matcher) Templates() []Template {
	return append([]Template(nil), m.templates...)
}

func (t Template) matches(question string) bool {
	for _, group := range t.groups {
		hit := false
		for _, phrase := range group {
			if strings.Contains(question, phrase) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

func normalizeQuestion(value string) string {
	return strings.TrimSpace(spacePattern.ReplaceAllString(strings.ToLower(value), " "))
}

// phrasePattern bounds word-like phrases at word edges and matches operator
// symbols anywhere.
func phrasePattern(phrase string) *regexp.Regexp {
	phrase = normalizeQuestion(phrase)
	quoted := regexp.QuoteMeta(phrase)
	if isWordChar(phrase[0]) {
		quoted = `\b` + quoted
	}
	if isWordChar(phrase[len(phrase)-1]) {
		quoted += `\b`
	}
	return regexp.MustCompile(quoted)
}

func isWordChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

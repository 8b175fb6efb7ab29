package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/hrsight/hrsight/internal/llm"
)

const attritionRateStatement = `SELECT
  Department,
  ROUND(100.0 * SUM(CASE WHEN Attrition = 'Yes' THEN 1 ELSE 0 END) / COUNT(*), 2)
    AS AttritionRatePercent
FROM employees
GROUP BY Department
ORDER BY AttritionRatePercent DESC;`

func TestGenerateCountQuestionSkipsGenerator(t *testing.T) {
	generator := &fakeGenerator{}
	p := newTestPipeline(t, generator, nil)

	gen, err := p.Generate(context.Background(), "How many employees are there?", conversation(3))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if gen.Statement != "SELECT COUNT(*) AS employee_count FROM employees;" {
		t.Fatalf("Statement = %q", gen.Statement)
	}
	if gen.Source != SourceCount || gen.GeneratorCalls != 0 || len(generator.calls) != 0 {
		t.Fatalf("source=%q calls=%d recorded=%d", gen.Source, gen.GeneratorCalls, len(generator.calls))
	}
}

func TestGenerateTemplateIsExactRegardlessOfMemory(t *testing.T) {
	for _, history := range [][]llm.Message{nil, conversation(5)} {
		generator := &fakeGenerator{}
		p := newTestPipeline(t, generator, nil)

		gen, err := p.Generate(context.Background(), "What is the attrition rate by department?", history)
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if gen.Statement != attritionRateStatement {
			t.Fatalf("Statement =\n%s", gen.Statement)
		}
		if gen.Source != SourceTemplate || gen.Template != "attrition_rate_by_department" {
			t.Fatalf("source=%q template=%q", gen.Source, gen.Template)
		}
		if len(generator.calls) != 0 {
			t.Fatalf("generator calls = %d", len(generator.calls))
		}
	}
}

func TestGenerateFirstAttemptWithMemory(t *testing.T) {
	generator := &fakeGenerator{replies: []string{"```sql\nSELECT Age FROM employees\n```"}}
	p := newTestPipeline(t, generator, nil)

	gen, err := p.Generate(context.Background(), "  And their ages? ", conversation(4))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if gen.Statement != "SELECT Age FROM employees LIMIT 50;" || gen.Source != SourceGenerated || gen.GeneratorCalls != 1 {
		t.Fatalf("generation = %#v", gen)
	}

	call := generator.calls[0]
	if call.temperature != 0 {
		t.Fatalf("temperature = %v", call.temperature)
	}
	if len(call.messages) != 4 {
		t.Fatalf("messages = %#v", call.messages)
	}
	system := call.messages[0]
	if system.Role != llm.RoleSystem {
		t.Fatalf("first message role = %q", system.Role)
	}
	for _, want := range []string{
		"You are an expert data analyst who writes SQLite SQL for the HR dataset.",
		"Table: employees",
		"CRITICAL RULES:",
		"- Attrition is TEXT with values 'Yes' or 'No' (NOT 1/0). Never use Attrition = 1 or Attrition = 0.",
		"- Output ONLY ONE SQL SELECT query. No explanations. No markdown fences.",
	} {
		if !strings.Contains(system.Content, want) {
			t.Fatalf("system prompt missing %q:\n%s", want, system.Content)
		}
	}
	if call.messages[1].Content != "Conversation context (for follow-up questions):" {
		t.Fatalf("memory header = %q", call.messages[1].Content)
	}
	wantSummary := "USER: question 2\nASSISTANT: answer 2\nUSER: question 3\nASSISTANT: answer 3\nUSER: question 4\nASSISTANT: answer 4"
	if call.messages[2].Content != wantSummary {
		t.Fatalf("summary = %q", call.messages[2].Content)
	}
	if call.messages[3].Content != "Question: And their ages?" {
		t.Fatalf("question message = %q", call.messages[3].Content)
	}
}

func TestGenerateGuardRegeneratesCategoricalNumeral(t *testing.T) {
	generator := &fakeGenerator{replies: []string{
		"SELECT Age FROM employees WHERE Attrition = 1",
		"SELECT Age FROM employees WHERE Attrition = 'Yes'",
	}}
	p := newTestPipeline(t, generator, nil)

	gen, err := p.Generate(context.Background(), "Which employees left the company?", nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if gen.Statement != "SELECT Age FROM employees WHERE Attrition = 'Yes' LIMIT 50;" {
		t.Fatalf("Statement = %q", gen.Statement)
	}
	if gen.Source != SourceGuarded || gen.GeneratorCalls != 2 {
		t.Fatalf("source=%q calls=%d", gen.Source, gen.GeneratorCalls)
	}

	guarded := generator.calls[1].messages
	if len(guarded) != 3 {
		t.Fatalf("guarded messages = %#v", guarded)
	}
	if !strings.HasPrefix(guarded[1].Content, "Reminder: Attrition is TEXT ('Yes'/'No'), never 1/0.") ||
		!strings.HasSuffix(guarded[1].Content, "Fix and output ONE valid SELECT query.") {
		t.Fatalf("reminder = %q", guarded[1].Content)
	}
	if guarded[2].Content != "Question: Which employees left the company?" {
		t.Fatalf("question = %q", guarded[2].Content)
	}
}

func TestGenerateStrictRetryIsNotRevalidated(t *testing.T) {
	generator := &fakeGenerator{replies: []string{
		"SELECT Age FROM employees WHERE Attrition=1",
		"SELECT Age FROM employees WHERE Attrition=0",
		"SELECT * FROM staff",
	}}
	p := newTestPipeline(t, generator, nil)

	gen, err := p.Generate(context.Background(), "Which employees left the company?", nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if gen.Statement != "SELECT * FROM staff LIMIT 50;" {
		t.Fatalf("Statement = %q", gen.Statement)
	}
	if gen.Source != SourceRetried || gen.GeneratorCalls != 3 || len(generator.calls) != 3 {
		t.Fatalf("source=%q calls=%d recorded=%d", gen.Source, gen.GeneratorCalls, len(generator.calls))
	}
	retry := generator.calls[2].messages[1].Content
	for _, want := range []string{
		"Your previous SQL was invalid. You MUST query the SQLite table 'employees'",
		"Include 'FROM employees'.",
		"For rates use 100.0*SUM(CASE...)/COUNT(*).",
		"If the question asks 'how many', use SELECT COUNT(*).",
	} {
		if !strings.Contains(retry, want) {
			t.Fatalf("retry instruction missing %q: %q", want, retry)
		}
	}
}

func TestGenerateRetryOutputIsRewritten(t *testing.T) {
	generator := &fakeGenerator{replies: []string{
		"I think you want the ages.",
		"```sql\nSELECT Age FROM employees WHERE OverTime = 1\n```",
	}}
	p := newTestPipeline(t, generator, nil)

	gen, err := p.Generate(context.Background(), "Ages of people working overtime", nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if gen.Statement != "SELECT Age FROM employees WHERE OverTime = 'Yes' LIMIT 50;" {
		t.Fatalf("Statement = %q", gen.Statement)
	}
	if gen.Source != SourceRetried || gen.GeneratorCalls != 2 {
		t.Fatalf("source=%q calls=%d", gen.Source, gen.GeneratorCalls)
	}
	if p.guard.ContainsCategoricalNumeral(gen.Statement) {
		t.Fatalf("numeral comparison survived: %q", gen.Statement)
	}
}

func TestGenerateQualifiedCountGoesToGenerator(t *testing.T) {
	generator := &fakeGenerator{replies: []string{"SELECT COUNT(*) FROM employees WHERE Age > 40"}}
	p := newTestPipeline(t, generator, nil)

	gen, err := p.Generate(context.Background(), "How many employees are older than 40?", nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if gen.Statement != "SELECT COUNT(*) FROM employees WHERE Age > 40;" || gen.Source != SourceGenerated {
		t.Fatalf("generation = %#v", gen)
	}
}

func TestGenerateErrors(t *testing.T) {
	p := newTestPipeline(t, &fakeGenerator{}, nil)
	if _, err := p.Generate(context.Background(), "   ", nil); !errors.Is(err, ErrQuestionRequired) {
		t.Fatalf("empty question error = %v", err)
	}

	generator := &fakeGenerator{err: fmt.Errorf("%w: remote api key is not configured", llm.ErrUnavailable)}
	p = newTestPipeline(t, generator, nil)
	if _, err := p.Generate(context.Background(), "Average age by gender", nil); !errors.Is(err, llm.ErrUnavailable) {
		t.Fatalf("unavailable error = %v", err)
	}
	if len(generator.calls) != 1 {
		t.Fatalf("generator calls = %d", len(generator.calls))
	}
}

func TestStateNames(t *testing.T) {
	want := []string{"template_check", "count_check", "generate", "guard_check", "generate_guarded", "validate", "generate_retry", "done"}
	for s := stateTemplateCheck; s <= stateDone; s++ {
		if s.String() != want[s] {
			t.Fatalf("state %d = %q, want %q", s, s.String(), want[s])
		}
	}
}

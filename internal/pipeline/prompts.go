package pipeline

import (
	"fmt"
	"strings"

	"github.com/hrsight/hrsight/internal/schema"
)

const (
	memoryHeader         = "Conversation context (for follow-up questions):"
	resultsPresentNotice = "The query returned rows. Do NOT say 'no matching records'."
	repairClosing        = "Return ONLY ONE corrected SQL query."

	// NoRecordsMessage answers every empty result. It is never generated.
	NoRecordsMessage = "No matching records were found. Try refining the question (e.g., specify a department, a range, or a specific attribute)."
)

const answerSystemPrompt = `You are a professional HR consultant.

Rules:
- Provide ONLY the final answer to the user.
- Do NOT explain your reasoning.
- Do NOT describe SQL execution.
- Do NOT mention tables, queries, or internal steps.
- Keep the answer concise and professional.
- Use at most 2 short bullet points or 1 short paragraph.

IMPORTANT:
- If results are present, NEVER say "no matching records".`

// prompts holds every instruction string derived from one descriptor so the
// generator hears the same rules the guard enforces.
type prompts struct {
	system      string
	reminder    string
	strictRetry string
	dialect     string
}

func newPrompts(descriptor schema.Descriptor, dialect string) prompts {
	var system strings.Builder
	fmt.Fprintf(&system, "You are an expert data analyst who writes %s SQL for the HR dataset.\n\n", dialect)
	system.WriteString(descriptor.Hint())
	system.WriteString("\nCRITICAL RULES:\n")
	for _, rule := range descriptor.TypingRules() {
		fmt.Fprintf(&system, "- %s\n", rule)
	}
	system.WriteString("- Output ONLY ONE SQL SELECT query. No explanations. No markdown fences.")

	binary := binaryColumnNotes(descriptor)
	reminder := "Reminder: " + strings.Join(binary, " ") + " Fix and output ONE valid SELECT query."

	strict := fmt.Sprintf(
		"Your previous SQL was invalid. You MUST query the %s table '%s' and output ONLY ONE valid SELECT statement. Include 'FROM %s'. %s For rates use 100.0*SUM(CASE...)/COUNT(*). If the question asks 'how many', use SELECT COUNT(*).",
		dialect, descriptor.Table(), descriptor.Table(), strings.Join(binaryColumnTypes(descriptor), " "),
	)

	return prompts{
		system:      system.String(),
		reminder:    reminder,
		strictRetry: strict,
		dialect:     dialect,
	}
}

func binaryColumnNotes(descriptor schema.Descriptor) []string {
	var notes []string
	for _, column := range descriptor.ColumnsOfKind(schema.KindCategorical) {
		if len(column.NumeralLiterals) == 0 {
			continue
		}
		notes = append(notes, fmt.Sprintf("%s is TEXT (%s), never 1/0.", column.Name, quotedValues(column.Values)))
	}
	return notes
}

func binaryColumnTypes(descriptor schema.Descriptor) []string {
	var notes []string
	for _, column := range descriptor.ColumnsOfKind(schema.KindCategorical) {
		if len(column.NumeralLiterals) == 0 {
			continue
		}
		notes = append(notes, fmt.Sprintf("%s is TEXT (%s).", column.Name, quotedValues(column.Values)))
	}
	return notes
}

func quotedValues(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, value := range values {
		quoted = append(quoted, "'"+value+"'")
	}
	return strings.Join(quoted, "/")
}

func (p prompts) repairIntro() string {
	return fmt.Sprintf("The SQL you wrote failed in %s. Fix it.", p.dialect)
}

func (p prompts) repairError(engineErr string) string {
	return fmt.Sprintf("%s error:\n%s", p.dialect, engineErr)
}

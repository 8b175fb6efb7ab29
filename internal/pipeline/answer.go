package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hrsight/hrsight/internal/llm"
	"github.com/hrsight/hrsight/internal/observability"
	"github.com/hrsight/hrsight/internal/query"
)

// Compose turns a result into the user-facing answer and reports how many
// generator calls it made. Empty results get NoRecordsMessage and no call.
func (p *Pipeline) Compose(ctx context.Context, question string, result query.Result, history []llm.Message) (string, int, error) {
	if result.Empty() {
		observability.IncrementEmptyResults()
		return NoRecordsMessage, 0, nil
	}

	messages := []llm.Message{llm.System(answerSystemPrompt)}
	messages = append(messages, memoryMessages(history, p.cfg.MemoryTurns)...)
	messages = append(messages,
		llm.User(resultsPresentNotice),
		llm.User("User question: "+strings.TrimSpace(question)),
		llm.User("Result preview:\n"+RenderMarkdown(result, p.cfg.PreviewRows)),
	)

	text, err := p.complete(ctx, "answer", messages, p.cfg.AnswerTemperature)
	if err != nil {
		return "", 1, err
	}
	return strings.TrimSpace(text), 1, nil
}

// RenderMarkdown renders at most maxRows rows as a markdown table.
func RenderMarkdown(result query.Result, maxRows int) string {
	rows := result.Rows
	if maxRows > 0 && len(rows) > maxRows {
		rows = rows[:maxRows]
	}

	var b strings.Builder
	b.WriteString("|")
	for _, column := range result.Columns {
		b.WriteString(" " + escapeCell(column) + " |")
	}
	b.WriteString("\n|")
	for range result.Columns {
		b.WriteString(" --- |")
	}
	for _, row := range rows {
		b.WriteString("\n|")
		for i := range result.Columns {
			var value any
			if i < len(row) {
				value = row[i]
			}
			b.WriteString(" " + escapeCell(FormatValue(value)) + " |")
		}
	}
	return b.String()
}

func FormatValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case []byte:
		return string(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32)
	case time.Time:
		return typed.Format(time.RFC3339)
	default:
		return fmt.Sprint(typed)
	}
}

func escapeCell(value string) string {
	value = strings.ReplaceAll(value, "\n", " ")
	return strings.ReplaceAll(value, "|", `\|`)
}

package pipeline

import (
	"strings"

	"github.com/hrsight/hrsight/internal/llm"
)

// SummarizeMemory renders the newest maxTurns turns as "ROLE: content" lines,
// oldest first.
func SummarizeMemory(history []llm.Message, maxTurns int) string {
	if maxTurns <= 0 || len(history) == 0 {
		return ""
	}
	recent := history
	if len(recent) > maxTurns {
		recent = recent[len(recent)-maxTurns:]
	}
	lines := make([]string, 0, len(recent))
	for _, turn := range recent {
		lines = append(lines, strings.ToUpper(string(turn.Role))+": "+turn.Content)
	}
	return strings.Join(lines, "\n")
}

func memoryMessages(history []llm.Message, maxTurns int) []llm.Message {
	summary := SummarizeMemory(history, maxTurns)
	if summary == "" {
		return nil
	}
	return []llm.Message{llm.User(memoryHeader), llm.User(summary)}
}

package llm

import (
	"context"
	"errors"
	"strings"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// Generator returns one final completion for an ordered message bundle.
// Backend failures, including missing credentials, are reported as errors
// wrapping ErrUnavailable and never as an empty completion.
type Generator interface {
	Complete(ctx context.Context, messages []Message, temperature float64) (string, error)
}

var ErrUnavailable = errors.New("generator unavailable")

// ParseRole maps free-form role names onto the supported roles.
func ParseRole(value string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleSystem:
		return RoleSystem, true
	case RoleUser:
		return RoleUser, true
	case RoleAssistant:
		return RoleAssistant, true
	default:
		return "", false
	}
}

package pipeline

import (
	"errors"
	"fmt"
)

var ErrQuestionRequired = errors.New("question is required")

// ExecutionError is the terminal failure of a question whose statement could
// not be executed, after the repair attempt if one was made.
type ExecutionError struct {
	Statement string
	Err       error
	Repaired  bool
}

func (e *ExecutionError) Error() string {
	if e.Repaired {
		return fmt.Sprintf("repaired statement failed: %v", e.Err)
	}
	return fmt.Sprintf("statement failed: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

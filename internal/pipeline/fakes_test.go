package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/hrsight/hrsight/internal/llm"
	"github.com/hrsight/hrsight/internal/query"
)

type generatorCall struct {
	messages    []llm.Message
	temperature float64
}

type fakeGenerator struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   []generatorCall
}

func (f *fakeGenerator) Complete(_ context.Context, messages []llm.Message, temperature float64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, generatorCall{messages: append([]llm.Message(nil), messages...), temperature: temperature})
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", errors.New("unexpected generator call")
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

type fakeEngine struct {
	mu       sync.Mutex
	results  map[string]query.Result
	errs     map[string]error
	executed []string
}

func (f *fakeEngine) Execute(_ context.Context, request query.Request) (query.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.executed = append(f.executed, request.SQL)
	if err, ok := f.errs[request.SQL]; ok {
		return query.Result{}, err
	}
	if result, ok := f.results[request.SQL]; ok {
		return result, nil
	}
	return query.Result{}, errors.New("no such table: unexpected")
}

func newTestPipeline(t *testing.T, generator *fakeGenerator, engine *fakeEngine) *Pipeline {
	t.Helper()
	if engine == nil {
		engine = &fakeEngine{}
	}
	p, err := New(DefaultConfig(), Dependencies{Generator: generator, Engine: engine})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

func conversation(turns int) []llm.Message {
	history := make([]llm.Message, 0, turns*2)
	for i := 1; i <= turns; i++ {
		history = append(history,
			llm.Message{Role: llm.RoleUser, Content: "question " + string(rune('0'+i))},
			llm.Message{Role: llm.RoleAssistant, Content: "answer " + string(rune('0'+i))},
		)
	}
	return history
}

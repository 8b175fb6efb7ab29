package audit

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewEntryAssignsUUID(t *testing.T) {
	entry := NewEntry("trace-1", "How many employees are there?")
	if _, err := uuid.Parse(entry.ID); err != nil {
		t.Fatalf("ID = %q is not a uuid: %v", entry.ID, err)
	}
	if entry.TraceID != "trace-1" || entry.Question != "How many employees are there?" {
		t.Fatalf("entry = %#v", entry)
	}
	if entry.Failed() {
		t.Fatal("new entry should not be failed")
	}
	if other := NewEntry("trace-1", "q"); other.ID == entry.ID {
		t.Fatal("expected distinct ids")
	}
}

func TestNormalizeLimit(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{in: 0, want: DefaultRecentLimit},
		{in: -3, want: DefaultRecentLimit},
		{in: 5, want: 5},
		{in: MaxRecentLimit + 1, want: MaxRecentLimit},
	}
	for _, tt := range tests {
		if got := NormalizeLimit(tt.in); got != tt.want {
			t.Fatalf("NormalizeLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestIsDegradable(t *testing.T) {
	base := fmt.Errorf("connection refused")
	degradable := &RetrievalError{Path: "embedding", Err: base}

	if !IsDegradable(degradable) {
		t.Error("retrieval errors must be degradable")
	}
	if !IsDegradable(fmt.Errorf("search: %w", degradable)) {
		t.Error("wrapped retrieval errors must stay degradable")
	}
	if IsDegradable(&ValidationError{Field: "duration", Reason: "too short"}) {
		t.Error("validation errors are fatal, not degradable")
	}
	if IsDegradable(&IncompleteGenerationError{Stage: StageObjectiveDesign, Missing: "objectives"}) {
		t.Error("incomplete generation errors are fatal, not degradable")
	}
}

func TestRetrievalErrorUnwrap(t *testing.T) {
	base := fmt.Errorf("timeout")
	err := &RetrievalError{Path: "graph", Err: base}
	if !errors.Is(err, base) {
		t.Error("retrieval error should unwrap to its cause")
	}
}

func TestErrorMessagesNameTheirContext(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&ValidationError{Field: "duration", Reason: "out of range"}, "duration"},
		{&RetrievalError{Path: "vector", Err: fmt.Errorf("down")}, "vector"},
		{&IncompleteGenerationError{Stage: StageContentDesign, Missing: "section list"}, "contentDesign"},
		{&AssemblyError{Reason: "empty title"}, "empty title"},
	}
	for _, tt := range tests {
		msg := tt.err.Error()
		if !strings.Contains(msg, tt.want) {
			t.Errorf("%T message %q does not mention %q", tt.err, msg, tt.want)
		}
	}
}

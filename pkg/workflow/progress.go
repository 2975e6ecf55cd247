package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/lessonforge/lesson-plan-agent/pkg/domain"
	"github.com/lessonforge/lesson-plan-agent/pkg/state"
)

// ProgressEvent reports completion of one workflow stage, carrying the
// state fragment that stage produced.
type ProgressEvent struct {
	Node  domain.Stage `json:"node"`
	State state.Delta  `json:"state"`
}

// ProgressChannel is a bounded, insertion-ordered event queue with a single
// logical producer (the orchestrator) and a single logical consumer. The
// consumer blocks while the queue is empty and iteration ends once the
// queue is drained and Close has been called. The orchestrator always
// emits a terminal outputFormat event before closing, so every consumer
// observes at least one event and a well-defined end.
type ProgressChannel struct {
	events    chan ProgressEvent
	closeOnce sync.Once
}

// NewProgressChannel creates a progress channel with the given capacity.
func NewProgressChannel(capacity int) *ProgressChannel {
	if capacity <= 0 {
		capacity = len(domain.StageOrder)
	}
	return &ProgressChannel{
		events: make(chan ProgressEvent, capacity),
	}
}

// Publish enqueues an event, waking a parked consumer. It blocks while the
// queue is full and reports false if the context is cancelled first, which
// stops event forwarding on an aborted run.
func (p *ProgressChannel) Publish(ctx context.Context, event ProgressEvent) bool {
	select {
	case p.events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

// Events returns the receive side of the queue for the consumer to range
// over.
func (p *ProgressChannel) Events() <-chan ProgressEvent {
	return p.events
}

// Close signals completion. Safe to call more than once.
func (p *ProgressChannel) Close() {
	p.closeOnce.Do(func() {
		close(p.events)
	})
}

// WriteSSE drains a progress stream into w using the Server-Sent-Events
// wire format: one "data:" line per event, terminated by a literal [DONE]
// line.
func WriteSSE(w io.Writer, events <-chan ProgressEvent) error {
	for event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal progress event: %w", err)
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return fmt.Errorf("failed to write event: %w", err)
		}
	}
	if _, err := fmt.Fprint(w, "data: [DONE]\n\n"); err != nil {
		return fmt.Errorf("failed to write stream terminator: %w", err)
	}
	return nil
}

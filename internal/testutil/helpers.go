package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/lessonforge/lesson-plan-agent/pkg/domain"
)

// TestTimeout provides a standard timeout for test contexts.
const TestTimeout = 5 * time.Second

// NewTestContext creates a context with the standard test timeout.
func NewTestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	t.Cleanup(cancel)
	return ctx
}

// NewTestRequest creates a valid generation request.
func NewTestRequest() domain.GenerationRequest {
	return domain.GenerationRequest{
		ID:       "test-req-1",
		Subject:  "数学",
		Grade:    "七年级",
		Topic:    "一元一次方程",
		Duration: 45,
	}
}

// NewTestNode creates a knowledge node for the standard test request.
func NewTestNode(id, name string) domain.KnowledgeNode {
	return domain.KnowledgeNode{
		ID:         id,
		Name:       name,
		Content:    name + "的核心内容",
		Subject:    "数学",
		Grade:      "七年级",
		Importance: 5,
		Keywords:   []string{"方程"},
	}
}

// AssertEqual checks if two values are equal.
func AssertEqual(t *testing.T, expected, actual interface{}, msg string) {
	t.Helper()
	if expected != actual {
		t.Errorf("%s: expected %v, got %v", msg, expected, actual)
	}
}

// AssertNoError checks if error is nil.
func AssertNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Errorf("%s: unexpected error: %v", msg, err)
	}
}

// AssertError checks if error is not nil.
func AssertError(t *testing.T, err error, msg string) {
	t.Helper()
	if err == nil {
		t.Errorf("%s: expected error but got nil", msg)
	}
}

// AssertTrue checks if a condition is true.
func AssertTrue(t *testing.T, condition bool, msg string) {
	t.Helper()
	if !condition {
		t.Errorf("%s: expected condition to be true", msg)
	}
}

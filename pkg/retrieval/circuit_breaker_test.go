package retrieval

import (
	"testing"
	"time"
)

func TestEmbeddingBreakerOpensAfterFailureThreshold(t *testing.T) {
	b := NewEmbeddingBreaker()

	for i := 0; i < 3; i++ {
		if !b.Allow() {
			t.Fatalf("breaker opened early after %d failures", i)
		}
		b.RecordFailure()
	}

	if b.Allow() {
		t.Error("breaker should be open after three failures")
	}
}

func TestEmbeddingBreakerHalfOpenRecovery(t *testing.T) {
	b := NewEmbeddingBreaker()
	b.openDuration = 10 * time.Millisecond

	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}
	time.Sleep(20 * time.Millisecond)

	if !b.Allow() {
		t.Fatal("breaker should allow a probe after the cooldown")
	}
	b.RecordSuccess()
	b.RecordSuccess()

	if b.state != circuitClosed {
		t.Errorf("breaker state = %s, want closed after two successes", b.state)
	}
}

func TestEmbeddingBreakerHalfOpenFailureReopens(t *testing.T) {
	b := NewEmbeddingBreaker()
	b.openDuration = 10 * time.Millisecond

	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}
	time.Sleep(20 * time.Millisecond)

	if !b.Allow() {
		t.Fatal("breaker should allow a probe after the cooldown")
	}
	b.RecordFailure()

	if b.Allow() {
		t.Error("breaker should reopen after a half-open failure")
	}
}

func TestEmbeddingBreakerSuccessResetsFailureCount(t *testing.T) {
	b := NewEmbeddingBreaker()

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	b.RecordFailure()

	if !b.Allow() {
		t.Error("non-consecutive failures should not open the breaker")
	}
}

func TestEmbeddingBreakerReset(t *testing.T) {
	b := NewEmbeddingBreaker()
	for i := 0; i < 3; i++ {
		b.RecordFailure()
	}
	b.Reset()
	if !b.Allow() {
		t.Error("breaker should be closed after reset")
	}
}

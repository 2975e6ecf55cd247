package retrieval

import (
	"sync"
	"time"
)

// circuitState represents the state of the embedding circuit breaker.
type circuitState string

const (
	circuitClosed   circuitState = "closed"
	circuitOpen     circuitState = "open"
	circuitHalfOpen circuitState = "half-open"
)

// EmbeddingBreaker guards the embedding service. After repeated embedding
// failures the vector path skips straight to keyword scoring until a
// cooldown elapses, instead of paying a timeout per candidate.
type EmbeddingBreaker struct {
	mu          sync.Mutex
	state       circuitState
	failures    int
	successes   int
	lastFailure time.Time

	failureThreshold int
	successThreshold int
	openDuration     time.Duration
}

// NewEmbeddingBreaker creates a breaker with default settings.
func NewEmbeddingBreaker() *EmbeddingBreaker {
	return &EmbeddingBreaker{
		state:            circuitClosed,
		failureThreshold: 3,
		successThreshold: 2,
		openDuration:     30 * time.Second,
	}
}

// Allow reports whether an embedding call should be attempted.
func (b *EmbeddingBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case circuitClosed, circuitHalfOpen:
		return true
	case circuitOpen:
		if time.Since(b.lastFailure) > b.openDuration {
			b.state = circuitHalfOpen
			b.successes = 0
			return true
		}
	}
	return false
}

// RecordSuccess records a successful embedding call.
func (b *EmbeddingBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case circuitHalfOpen:
		b.successes++
		if b.successes >= b.successThreshold {
			b.state = circuitClosed
			b.failures = 0
			b.successes = 0
		}
	case circuitClosed:
		b.failures = 0
	}
}

// RecordFailure records a failed embedding call.
func (b *EmbeddingBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = time.Now()

	if b.state == circuitHalfOpen || b.failures >= b.failureThreshold {
		b.state = circuitOpen
		b.successes = 0
	}
}

// Reset returns the breaker to the closed state.
func (b *EmbeddingBreaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = circuitClosed
	b.failures = 0
	b.successes = 0
	b.lastFailure = time.Time{}
}

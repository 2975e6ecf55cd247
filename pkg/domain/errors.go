package domain

import (
	"errors"
	"fmt"
)

// ValidationError reports a bad input shape or range. Fatal: the run
// short-circuits at inputAnalysis.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// RetrievalError reports an embedding or graph-search failure. Non-fatal:
// the caller degrades to empty or fallback-scored results and continues.
type RetrievalError struct {
	Path string // "vector", "graph", "embedding", "enrichment"
	Err  error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval degraded on %s path: %v", e.Path, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// IncompleteGenerationError reports that a stage's required output is
// missing or structurally invalid. Fatal: the run short-circuits.
type IncompleteGenerationError struct {
	Stage   Stage
	Missing string
}

func (e *IncompleteGenerationError) Error() string {
	return fmt.Sprintf("incomplete generation at %s: %s", e.Stage, e.Missing)
}

// AssemblyError reports that final structural validation failed at
// outputFormat. Terminal: it is recorded on an otherwise-complete run.
type AssemblyError struct {
	Reason string
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("assembly failed: %s", e.Reason)
}

// IsDegradable reports whether err may be swallowed with degraded data
// rather than failing the run.
func IsDegradable(err error) bool {
	var re *RetrievalError
	return errors.As(err, &re)
}

// Package state defines the workflow state aggregate and its merge
// semantics. The orchestrator owns one WorkflowState per run; stages never
// mutate it directly — each stage returns a Delta holding only the fields it
// changed, and the orchestrator folds deltas in with Merge.
package state

import (
	"time"

	"github.com/lessonforge/lesson-plan-agent/pkg/domain"
)

// WorkflowState is the single aggregate threaded through all stages of a
// run. It is created by the orchestrator at run start and discarded at run
// end; it is never persisted by this core.
type WorkflowState struct {
	Request          domain.GenerationRequest  `json:"request"`
	KnowledgeContext []domain.KnowledgeContext `json:"knowledgeContext,omitempty"`
	Objectives       *domain.LessonObjectives  `json:"objectives,omitempty"`
	KeyPoints        []string                  `json:"keyPoints,omitempty"`
	DifficultPoints  []string                  `json:"difficultPoints,omitempty"`
	TeachingMethods  []string                  `json:"teachingMethods,omitempty"`
	Sections         []domain.LessonSection    `json:"sections,omitempty"`
	Materials        []string                  `json:"materials,omitempty"`
	Homework         string                    `json:"homework,omitempty"`
	Evaluation       string                    `json:"evaluation,omitempty"`
	Output           *domain.LessonPlan        `json:"output,omitempty"`
	Error            string                    `json:"error,omitempty"`
	Usage            domain.TokenUsage         `json:"usage"`
	StartTime        time.Time                 `json:"startTime"`
	EndTime          time.Time                 `json:"endTime,omitzero"`
}

// Succeeded reports whether the run completed with output and no error.
func (s *WorkflowState) Succeeded() bool {
	return s.Error == "" && s.Output != nil
}

// Delta carries the fields a single stage changed. A nil slice or pointer
// means "unchanged"; an empty non-nil slice is a meaningful value (the
// knowledgeQuery stage degrades to an empty context list, not an absent
// one). String fields use pointers for the same reason.
type Delta struct {
	Request          *domain.GenerationRequest `json:"request,omitempty"`
	KnowledgeContext []domain.KnowledgeContext `json:"knowledgeContext,omitempty"`
	Objectives       *domain.LessonObjectives  `json:"objectives,omitempty"`
	KeyPoints        []string                  `json:"keyPoints,omitempty"`
	DifficultPoints  []string                  `json:"difficultPoints,omitempty"`
	TeachingMethods  []string                  `json:"teachingMethods,omitempty"`
	Sections         []domain.LessonSection    `json:"sections,omitempty"`
	Materials        []string                  `json:"materials,omitempty"`
	Homework         *string                   `json:"homework,omitempty"`
	Evaluation       *string                   `json:"evaluation,omitempty"`
	Output           *domain.LessonPlan        `json:"output,omitempty"`
	Error            string                    `json:"error,omitempty"`
	Usage            domain.TokenUsage         `json:"usage,omitzero"`
	StartTime        time.Time                 `json:"startTime,omitzero"`
	EndTime          time.Time                 `json:"endTime,omitzero"`
}

// Merge folds a stage delta into the previous state and returns the next
// state. It is pure: neither argument is mutated.
//
// Semantics: a shallow field-wise overwrite for set fields, except Usage,
// which is always merged additively, and StartTime, which is set once and
// never overwritten. Once Error is set on the previous state, subsequent
// deltas may no longer change domain fields — only Usage and EndTime are
// still merged, so accounting stays accurate on failed runs.
func Merge(prev WorkflowState, delta Delta) WorkflowState {
	next := prev
	next.Usage = domain.MergeUsage(prev.Usage, delta.Usage)

	if next.StartTime.IsZero() && !delta.StartTime.IsZero() {
		next.StartTime = delta.StartTime
	}
	if !delta.EndTime.IsZero() {
		next.EndTime = delta.EndTime
	}

	if prev.Error != "" {
		return next
	}

	if delta.Request != nil {
		next.Request = *delta.Request
	}
	if delta.KnowledgeContext != nil {
		next.KnowledgeContext = delta.KnowledgeContext
	}
	if delta.Objectives != nil {
		next.Objectives = delta.Objectives
	}
	if delta.KeyPoints != nil {
		next.KeyPoints = delta.KeyPoints
	}
	if delta.DifficultPoints != nil {
		next.DifficultPoints = delta.DifficultPoints
	}
	if delta.TeachingMethods != nil {
		next.TeachingMethods = delta.TeachingMethods
	}
	if delta.Sections != nil {
		next.Sections = delta.Sections
	}
	if delta.Materials != nil {
		next.Materials = delta.Materials
	}
	if delta.Homework != nil {
		next.Homework = *delta.Homework
	}
	if delta.Evaluation != nil {
		next.Evaluation = *delta.Evaluation
	}
	if delta.Output != nil {
		next.Output = delta.Output
	}
	if delta.Error != "" {
		next.Error = delta.Error
	}

	return next
}

// New creates the initial state for a run.
func New(request domain.GenerationRequest) WorkflowState {
	return WorkflowState{
		Request:   request,
		StartTime: time.Now(),
	}
}

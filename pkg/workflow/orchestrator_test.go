package workflow

import (
	"context"
	"fmt"
	"testing"

	"github.com/lessonforge/lesson-plan-agent/internal/testutil"
	"github.com/lessonforge/lesson-plan-agent/pkg/domain"
	"github.com/lessonforge/lesson-plan-agent/pkg/retrieval"
)

// panicContentSkill simulates a broken generation skill.
type panicContentSkill struct{}

func (panicContentSkill) Sections(ctx context.Context, req domain.GenerationRequest, objectives *domain.LessonObjectives, keyPoints []string, kc []domain.KnowledgeContext) ([]domain.LessonSection, domain.TokenUsage, error) {
	panic("section generator crashed")
}

func newFullOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	// A real retrieval engine over an empty graph: both search paths run
	// and return zero candidates.
	engine, err := retrieval.NewEngine(domain.RetrievalConfig{
		VectorWeight: 0.6,
		GraphWeight:  0.4,
	}, &testutil.MockGraphStore{}, &testutil.MockEmbedder{}, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	o, err := New(nil, engine,
		testutil.NewMockObjectiveSkill(),
		testutil.NewMockContentSkill(),
		testutil.NewMockActivitySkill(),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o
}

func TestRunSucceedsWithEmptyRetrieval(t *testing.T) {
	o := newFullOrchestrator(t)
	ctx := testutil.NewTestContext(t)

	final := o.Run(ctx, testutil.NewTestRequest())

	if !final.Succeeded() {
		t.Fatalf("run failed: %s", final.Error)
	}
	if final.KnowledgeContext == nil || len(final.KnowledgeContext) != 0 {
		t.Errorf("knowledge context should be empty but present, got %v", final.KnowledgeContext)
	}
	if final.Output.Objectives.Knowledge == "" {
		t.Error("objectives missing from output")
	}
	if final.StartTime.IsZero() || final.EndTime.IsZero() {
		t.Error("run timestamps not populated")
	}

	total := 0
	for _, s := range final.Output.Sections {
		total += s.DurationMinutes
	}
	if total != final.Request.Duration {
		t.Errorf("section durations sum to %d, want %d", total, final.Request.Duration)
	}
}

func TestRunAccumulatesUsageAcrossStages(t *testing.T) {
	o := newFullOrchestrator(t)
	ctx := testutil.NewTestContext(t)

	final := o.Run(ctx, testutil.NewTestRequest())

	// Seven generation calls (three objective, one content, three activity),
	// each reporting the fixed test usage.
	want := 7 * testutil.TestUsage.TotalTokens
	if final.Usage.TotalTokens != want {
		t.Errorf("total tokens = %d, want %d", final.Usage.TotalTokens, want)
	}
}

func TestRunShortCircuitsOnValidationError(t *testing.T) {
	o := newFullOrchestrator(t)
	ctx := testutil.NewTestContext(t)

	req := testutil.NewTestRequest()
	req.Duration = 10

	final := o.Run(ctx, req)

	if final.Error == "" {
		t.Fatal("expected validation error")
	}
	if final.Output != nil {
		t.Error("failed run must not produce output")
	}
	if final.StartTime.IsZero() || final.EndTime.IsZero() {
		t.Error("timestamps must be populated even on short-circuit")
	}
	if final.Objectives != nil || final.Sections != nil {
		t.Error("skipped stages must not contribute state")
	}
}

func TestRunFailsWhenActivityGenerationFails(t *testing.T) {
	activity := testutil.NewMockActivitySkill()
	activity.HomeworkErr = fmt.Errorf("model unavailable")

	o, err := New(nil, nil, testutil.NewMockObjectiveSkill(), testutil.NewMockContentSkill(), activity)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	final := o.Run(testutil.NewTestContext(t), testutil.NewTestRequest())
	if final.Error == "" || final.Output != nil {
		t.Errorf("expected failed run, got error=%q output=%v", final.Error, final.Output)
	}
}

func TestRunFailsOnIncompleteObjectives(t *testing.T) {
	objectives := testutil.NewMockObjectiveSkill()
	objectives.ObjectivesResult = &domain.LessonObjectives{Knowledge: "太短", Process: "经历完整的建模过程", Affective: "感受数学的应用价值"}

	o, err := New(nil, nil, objectives, testutil.NewMockContentSkill(), testutil.NewMockActivitySkill())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	final := o.Run(testutil.NewTestContext(t), testutil.NewTestRequest())
	if final.Error == "" {
		t.Fatal("expected incomplete-objectives failure")
	}
}

func TestRunRecoversFromStagePanic(t *testing.T) {
	o, err := New(nil, nil, testutil.NewMockObjectiveSkill(), panicContentSkill{}, testutil.NewMockActivitySkill())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	final := o.Run(testutil.NewTestContext(t), testutil.NewTestRequest())
	if final.Error == "" {
		t.Fatal("panicking stage should surface as a run error")
	}
	if final.Output != nil {
		t.Error("panicked run must not produce output")
	}
	if final.EndTime.IsZero() {
		t.Error("terminal stage must still run after a panic")
	}
}

func TestRunAssignsRequestID(t *testing.T) {
	o := newFullOrchestrator(t)

	req := testutil.NewTestRequest()
	req.ID = ""

	final := o.Run(testutil.NewTestContext(t), req)
	if final.Request.ID == "" {
		t.Error("run should assign a request id when absent")
	}
}

func TestStreamEmitsAllStagesInOrder(t *testing.T) {
	o := newFullOrchestrator(t)
	ctx := testutil.NewTestContext(t)

	progress := o.Stream(ctx, testutil.NewTestRequest())

	var nodes []domain.Stage
	for event := range progress.Events() {
		nodes = append(nodes, event.Node)
	}

	if len(nodes) != len(domain.StageOrder) {
		t.Fatalf("got %d events, want %d: %v", len(nodes), len(domain.StageOrder), nodes)
	}
	for i, stage := range domain.StageOrder {
		if nodes[i] != stage {
			t.Errorf("event %d = %s, want %s", i, nodes[i], stage)
		}
	}
}

func TestStreamShortCircuitEndsWithTerminalEvent(t *testing.T) {
	o := newFullOrchestrator(t)
	ctx := testutil.NewTestContext(t)

	req := testutil.NewTestRequest()
	req.Duration = 10

	progress := o.Stream(ctx, req)

	var nodes []domain.Stage
	for event := range progress.Events() {
		nodes = append(nodes, event.Node)
	}

	if len(nodes) != 2 {
		t.Fatalf("got %d events, want 2: %v", len(nodes), nodes)
	}
	if nodes[0] != domain.StageInputAnalysis || nodes[1] != domain.StageOutputFormat {
		t.Errorf("unexpected sequence: %v", nodes)
	}
}

func TestStreamTerminalEventCarriesEndTime(t *testing.T) {
	o := newFullOrchestrator(t)
	ctx := testutil.NewTestContext(t)

	progress := o.Stream(ctx, testutil.NewTestRequest())

	var last ProgressEvent
	for event := range progress.Events() {
		last = event
	}
	if last.Node != domain.StageOutputFormat {
		t.Fatalf("last event = %s, want outputFormat", last.Node)
	}
	if last.State.EndTime.IsZero() {
		t.Error("terminal event should carry the end time")
	}
	if last.State.Output == nil {
		t.Error("terminal event of a successful run should carry the output")
	}
}

func TestNewRejectsMissingSkills(t *testing.T) {
	if _, err := New(nil, nil, nil, testutil.NewMockContentSkill(), testutil.NewMockActivitySkill()); err == nil {
		t.Error("expected error for missing objective skill")
	}
}

func TestNewRejectsInvalidDurationBounds(t *testing.T) {
	cfg := &Config{MinDuration: 60, MaxDuration: 30}
	_, err := New(cfg, nil, testutil.NewMockObjectiveSkill(), testutil.NewMockContentSkill(), testutil.NewMockActivitySkill())
	if err == nil {
		t.Error("expected error for inverted duration bounds")
	}
}

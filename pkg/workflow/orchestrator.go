// Package workflow implements the fixed lesson-generation pipeline: a state
// machine that drives six stages in canonical order, short-circuits to the
// terminal outputFormat stage on error, merges token accounting across
// parallel generation branches, and exposes blocking and streaming execution
// modes over the same transition logic.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lessonforge/lesson-plan-agent/pkg/domain"
	"github.com/lessonforge/lesson-plan-agent/pkg/observability"
	"github.com/lessonforge/lesson-plan-agent/pkg/retrieval"
	"github.com/lessonforge/lesson-plan-agent/pkg/state"
	"go.opentelemetry.io/otel/trace"
)

// KnowledgeSearcher is the retrieval capability the knowledgeQuery stage
// depends on. *retrieval.Engine satisfies it.
type KnowledgeSearcher interface {
	HybridSearch(ctx context.Context, query, subject, grade string, opts retrieval.SearchOptions) ([]domain.KnowledgeContext, error)
}

// Config controls orchestrator behavior.
type Config struct {
	// MinDuration and MaxDuration bound the accepted lesson length in
	// minutes.
	MinDuration int
	MaxDuration int
	// QueueSize is the progress-channel capacity for streaming runs.
	QueueSize int
}

// DefaultConfig returns the standard orchestrator configuration.
func DefaultConfig() *Config {
	return &Config{
		MinDuration: 20,
		MaxDuration: 180,
		QueueSize:   len(domain.StageOrder),
	}
}

// Orchestrator drives lesson-plan generation runs. Safe for concurrent use:
// each run owns its own WorkflowState and progress channel.
type Orchestrator struct {
	config   *Config
	searcher KnowledgeSearcher

	objectives domain.ObjectiveSkill
	content    domain.ContentSkill
	activity   domain.ActivitySkill

	telemetry *observability.Telemetry
	metrics   *observability.Metrics
	logger    observability.Logger
}

// New creates an orchestrator. The searcher may be nil, in which case the
// knowledgeQuery stage uses only caller-supplied context.
func New(cfg *Config, searcher KnowledgeSearcher, objectives domain.ObjectiveSkill, content domain.ContentSkill, activity domain.ActivitySkill) (*Orchestrator, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.MinDuration <= 0 || cfg.MaxDuration < cfg.MinDuration {
		return nil, fmt.Errorf("invalid duration bounds: min=%d max=%d", cfg.MinDuration, cfg.MaxDuration)
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = len(domain.StageOrder)
	}
	if objectives == nil || content == nil || activity == nil {
		return nil, fmt.Errorf("all three generation skills are required")
	}

	return &Orchestrator{
		config:     cfg,
		searcher:   searcher,
		objectives: objectives,
		content:    content,
		activity:   activity,
		logger:     observability.NewStructuredLogger("orchestrator"),
	}, nil
}

// WithTelemetry attaches tracing and metrics to the orchestrator.
func (o *Orchestrator) WithTelemetry(telemetry *observability.Telemetry) error {
	if telemetry == nil {
		return nil
	}
	metrics, err := observability.NewMetrics(telemetry.Meter())
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}
	o.telemetry = telemetry
	o.metrics = metrics
	return nil
}

// Run executes a generation run in blocking mode and returns the terminal
// state. The terminal state always has StartTime and EndTime populated and
// carries either Output or Error, never both.
func (o *Orchestrator) Run(ctx context.Context, req domain.GenerationRequest) *state.WorkflowState {
	return o.execute(ctx, req, nil, "blocking")
}

// Stream executes a generation run in streaming mode. It returns immediately
// with a progress channel that receives one event per executed stage, in
// order, always ending with the terminal outputFormat event, after which the
// channel is closed.
func (o *Orchestrator) Stream(ctx context.Context, req domain.GenerationRequest) *ProgressChannel {
	progress := NewProgressChannel(o.config.QueueSize)
	go func() {
		defer progress.Close()
		o.execute(ctx, req, progress, "streaming")
	}()
	return progress
}

// execute is the transition loop shared by both modes: run the current
// stage, merge its delta, publish progress, then advance — to the next
// canonical stage, or straight to outputFormat once the merged state carries
// an error.
func (o *Orchestrator) execute(ctx context.Context, req domain.GenerationRequest, progress *ProgressChannel, mode string) *state.WorkflowState {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	if o.telemetry != nil {
		var span trace.Span
		ctx, span = o.telemetry.StartGenerationRequest(ctx, req.ID, req.Subject, req.Topic)
		defer span.End()
	}
	if o.metrics != nil {
		o.metrics.RecordGenerationRequest(ctx, mode)
	}

	o.logger.Info(ctx, "Generation run started", map[string]interface{}{
		"request_id": req.ID,
		"subject":    req.Subject,
		"topic":      req.Topic,
		"mode":       mode,
	})

	st := state.New(req)
	current := domain.StageInputAnalysis
	for {
		delta := o.executeStage(ctx, current, st)
		st = state.Merge(st, delta)

		if progress != nil {
			progress.Publish(ctx, ProgressEvent{Node: current, State: delta})
		}
		if current == domain.StageOutputFormat {
			break
		}
		current = o.nextStage(current, st.Error != "")
	}

	if o.metrics != nil {
		status := "success"
		if st.Error != "" {
			status = "error"
		}
		o.metrics.RecordGenerationComplete(ctx, st.EndTime.Sub(st.StartTime), status)
	}

	o.logger.Info(ctx, "Generation run finished", map[string]interface{}{
		"request_id": req.ID,
		"succeeded":  st.Succeeded(),
		"error":      st.Error,
		"duration":   st.EndTime.Sub(st.StartTime).String(),
		"tokens":     st.Usage.TotalTokens,
	})

	return &st
}

// executeStage dispatches one stage with instrumentation and panic
// isolation. A panicking stage yields a generic failure delta instead of
// tearing down the run, so the terminal stage and event still happen.
func (o *Orchestrator) executeStage(ctx context.Context, stage domain.Stage, st state.WorkflowState) (delta state.Delta) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error(ctx, "Stage panicked", fmt.Errorf("%v", r),
				map[string]interface{}{"stage": string(stage)})
			delta = state.Delta{Error: fmt.Sprintf("internal error at %s", stage)}
		}
	}()

	start := time.Now()
	if o.telemetry != nil {
		o.telemetry.InstrumentWorkflowStage(ctx, string(stage), func(ctx context.Context) string {
			delta = o.dispatch(ctx, stage, st)
			return delta.Error
		})
	} else {
		delta = o.dispatch(ctx, stage, st)
	}

	if o.metrics != nil {
		status := "success"
		if delta.Error != "" {
			status = "error"
		}
		o.metrics.RecordStage(ctx, string(stage), time.Since(start), status)
	}

	o.logger.Debug(ctx, "Stage completed", map[string]interface{}{
		"stage":    string(stage),
		"error":    delta.Error,
		"tokens":   delta.Usage.TotalTokens,
		"duration": time.Since(start).String(),
	})
	return delta
}

func (o *Orchestrator) dispatch(ctx context.Context, stage domain.Stage, st state.WorkflowState) state.Delta {
	switch stage {
	case domain.StageInputAnalysis:
		return o.stageInputAnalysis(ctx, st)
	case domain.StageKnowledgeQuery:
		return o.stageKnowledgeQuery(ctx, st)
	case domain.StageObjectiveDesign:
		return o.stageObjectiveDesign(ctx, st)
	case domain.StageContentDesign:
		return o.stageContentDesign(ctx, st)
	case domain.StageActivityDesign:
		return o.stageActivityDesign(ctx, st)
	case domain.StageOutputFormat:
		return o.stageOutputFormat(ctx, st)
	default:
		return state.Delta{Error: fmt.Sprintf("unknown stage %q", stage)}
	}
}

// nextStage applies the transition rule: an error transitions directly to
// the terminal sink, otherwise the run advances in canonical order.
func (o *Orchestrator) nextStage(current domain.Stage, hasError bool) domain.Stage {
	if hasError {
		return domain.StageOutputFormat
	}
	for i, stage := range domain.StageOrder {
		if stage == current && i+1 < len(domain.StageOrder) {
			return domain.StageOrder[i+1]
		}
	}
	return domain.StageOutputFormat
}

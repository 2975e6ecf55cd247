package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	meter metric.Meter

	// Counters
	generationRequestsTotal    metric.Int64Counter
	stageExecutionsTotal       metric.Int64Counter
	llmRequestsTotal           metric.Int64Counter
	llmTokensUsedTotal         metric.Int64Counter
	retrievalSearchesTotal     metric.Int64Counter
	retrievalDegradationsTotal metric.Int64Counter

	// Histograms
	generationDuration metric.Float64Histogram
	stageDuration      metric.Float64Histogram
	llmRequestDuration metric.Float64Histogram

	// Gauges (using async instruments)
	activeRuns metric.Int64ObservableGauge

	activeRunCount int64
}

// NewMetrics creates and initializes all metrics
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{
		meter: meter,
	}

	var err error

	m.generationRequestsTotal, err = meter.Int64Counter(
		"generation_requests_total",
		metric.WithDescription("Total number of lesson generation requests"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	m.stageExecutionsTotal, err = meter.Int64Counter(
		"stage_executions_total",
		metric.WithDescription("Total number of workflow stage executions"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	m.llmRequestsTotal, err = meter.Int64Counter(
		"llm_requests_total",
		metric.WithDescription("Total number of LLM requests"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	m.llmTokensUsedTotal, err = meter.Int64Counter(
		"llm_tokens_used_total",
		metric.WithDescription("Total number of LLM tokens used"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	m.retrievalSearchesTotal, err = meter.Int64Counter(
		"retrieval_searches_total",
		metric.WithDescription("Total number of hybrid knowledge searches"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	m.retrievalDegradationsTotal, err = meter.Int64Counter(
		"retrieval_degradations_total",
		metric.WithDescription("Total number of degraded retrieval paths"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	m.generationDuration, err = meter.Float64Histogram(
		"generation_duration_seconds",
		metric.WithDescription("Duration of lesson generation runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.stageDuration, err = meter.Float64Histogram(
		"stage_duration_seconds",
		metric.WithDescription("Duration of workflow stage execution in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.llmRequestDuration, err = meter.Float64Histogram(
		"llm_request_duration_seconds",
		metric.WithDescription("Duration of LLM requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.activeRuns, err = meter.Int64ObservableGauge(
		"active_generation_runs",
		metric.WithDescription("Number of in-flight generation runs"),
		metric.WithUnit("1"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(m.activeRunCount)
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordGenerationRequest records a new generation run
func (m *Metrics) RecordGenerationRequest(ctx context.Context, mode string) {
	m.generationRequestsTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("mode", mode),
		),
	)
	m.activeRunCount++
}

// RecordGenerationComplete records completion of a generation run
func (m *Metrics) RecordGenerationComplete(ctx context.Context, duration time.Duration, status string) {
	m.generationDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("status", status),
		),
	)
	m.activeRunCount--
}

// RecordStage records one workflow stage execution
func (m *Metrics) RecordStage(ctx context.Context, stage string, duration time.Duration, status string) {
	m.stageExecutionsTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("stage", stage),
			attribute.String("status", status),
		),
	)
	m.stageDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("stage", stage),
			attribute.String("status", status),
		),
	)
}

// RecordLLMRequest records an LLM request
func (m *Metrics) RecordLLMRequest(ctx context.Context, model string, promptTokens, completionTokens int64, duration time.Duration) {
	m.llmRequestsTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("model", model),
		),
	)

	m.llmTokensUsedTotal.Add(ctx, promptTokens+completionTokens,
		metric.WithAttributes(
			attribute.String("model", model),
			attribute.String("type", "total"),
		),
	)

	m.llmRequestDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("model", model),
		),
	)
}

// RecordRetrieval records a completed hybrid search
func (m *Metrics) RecordRetrieval(ctx context.Context, resultCount int) {
	m.retrievalSearchesTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.Int("results", resultCount),
		),
	)
}

// RecordRetrievalDegradation records a degraded retrieval path
func (m *Metrics) RecordRetrievalDegradation(ctx context.Context, path string) {
	m.retrievalDegradationsTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("path", path),
		),
	)
}

// GetActiveRunCount returns the current number of in-flight runs
func (m *Metrics) GetActiveRunCount() int64 {
	return m.activeRunCount
}

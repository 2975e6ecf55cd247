package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentWorkflowStage wraps a workflow stage with a span. The stage
// function reports a fatal domain error by returning its message; stage
// functions themselves never return Go errors past the orchestrator.
func (t *Telemetry) InstrumentWorkflowStage(ctx context.Context, stageName string, fn func(context.Context) string) {
	ctx, span := t.StartSpan(ctx, fmt.Sprintf("workflow.stage.%s", stageName),
		trace.WithAttributes(
			attribute.String("stage.name", stageName),
		),
	)
	defer span.End()

	startTime := time.Now()
	errMsg := fn(ctx)
	duration := time.Since(startTime)

	status := "success"
	if errMsg != "" {
		status = "error"
		span.SetStatus(codes.Error, errMsg)
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.SetAttributes(
		attribute.String("status", status),
		attribute.Float64("duration.seconds", duration.Seconds()),
	)
}

// InstrumentLLMCall wraps an LLM call with a span and token attributes.
func (t *Telemetry) InstrumentLLMCall(ctx context.Context, model, provider string, fn func(context.Context) (promptTokens, completionTokens int, err error)) error {
	ctx, span := t.StartSpan(ctx, "llm.chat",
		trace.WithAttributes(
			attribute.String("llm.model", model),
			attribute.String("llm.provider", provider),
		),
	)
	defer span.End()

	startTime := time.Now()
	promptTokens, completionTokens, err := fn(ctx)
	duration := time.Since(startTime)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
		span.SetAttributes(
			attribute.Int("llm.prompt_tokens", promptTokens),
			attribute.Int("llm.completion_tokens", completionTokens),
			attribute.Int("llm.total_tokens", promptTokens+completionTokens),
		)
	}

	span.SetAttributes(
		attribute.Float64("duration.seconds", duration.Seconds()),
	)

	return err
}

// InstrumentRetrievalPath wraps one retrieval path with a span.
func (t *Telemetry) InstrumentRetrievalPath(ctx context.Context, path string, fn func(context.Context) int) {
	ctx, span := t.StartSpan(ctx, fmt.Sprintf("retrieval.%s", path),
		trace.WithAttributes(
			attribute.String("retrieval.path", path),
		),
	)
	defer span.End()

	startTime := time.Now()
	resultCount := fn(ctx)

	span.SetStatus(codes.Ok, "")
	span.SetAttributes(
		attribute.Int("retrieval.results", resultCount),
		attribute.Float64("duration.seconds", time.Since(startTime).Seconds()),
	)
}

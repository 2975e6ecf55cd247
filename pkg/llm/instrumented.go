package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/lessonforge/lesson-plan-agent/pkg/domain"
	"github.com/lessonforge/lesson-plan-agent/pkg/observability"
)

// InstrumentedChatClient wraps a chat client with tracing and metrics.
type InstrumentedChatClient struct {
	client    domain.ChatClient
	telemetry *observability.Telemetry
	metrics   *observability.Metrics
	model     string
	provider  string
}

// NewInstrumentedChatClient creates a new instrumented chat client.
func NewInstrumentedChatClient(client domain.ChatClient, telemetry *observability.Telemetry, model, provider string) (*InstrumentedChatClient, error) {
	if client == nil {
		return nil, fmt.Errorf("client is required")
	}
	if telemetry == nil {
		return nil, fmt.Errorf("telemetry is required")
	}

	metrics, err := observability.NewMetrics(telemetry.Meter())
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	return &InstrumentedChatClient{
		client:    client,
		telemetry: telemetry,
		metrics:   metrics,
		model:     model,
		provider:  provider,
	}, nil
}

// Chat performs a chat completion wrapped in a span, and records request
// metrics on success.
func (c *InstrumentedChatClient) Chat(ctx context.Context, messages []domain.Message, opts domain.ChatOptions) (*domain.ChatResponse, error) {
	model := opts.Model
	if model == "" {
		model = c.model
	}

	var response *domain.ChatResponse
	startTime := time.Now()
	err := c.telemetry.InstrumentLLMCall(ctx, model, c.provider, func(ctx context.Context) (int, int, error) {
		resp, err := c.client.Chat(ctx, messages, opts)
		if err != nil {
			return 0, 0, err
		}
		response = resp
		return resp.Usage.PromptTokens, resp.Usage.CompletionTokens, nil
	})
	if err != nil {
		return nil, err
	}

	c.metrics.RecordLLMRequest(ctx, model,
		int64(response.Usage.PromptTokens),
		int64(response.Usage.CompletionTokens),
		time.Since(startTime))

	return response, nil
}

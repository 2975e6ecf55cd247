// Package testutil provides mocks and helpers shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/lessonforge/lesson-plan-agent/pkg/domain"
)

// MockChatClient is a mock implementation of domain.ChatClient.
type MockChatClient struct {
	mu           sync.Mutex
	Responses    map[string]string
	CallCount    int
	LastMessages []domain.Message
	ShouldError  bool
	ErrorMessage string
	Usage        domain.TokenUsage
	// ChatFunc allows custom chat behavior for tests
	ChatFunc func(ctx context.Context, messages []domain.Message, opts domain.ChatOptions) (*domain.ChatResponse, error)
}

// NewMockChatClient creates a new mock chat client.
func NewMockChatClient() *MockChatClient {
	return &MockChatClient{
		Responses: make(map[string]string),
		Usage: domain.TokenUsage{
			PromptTokens:     50,
			CompletionTokens: 50,
			TotalTokens:      100,
		},
	}
}

// Chat implements domain.ChatClient. The response is selected by the first
// Responses key found as a substring of any message, falling back to the
// "default" key.
func (m *MockChatClient) Chat(ctx context.Context, messages []domain.Message, opts domain.ChatOptions) (*domain.ChatResponse, error) {
	if m.ChatFunc != nil {
		m.mu.Lock()
		m.CallCount++
		m.LastMessages = messages
		m.mu.Unlock()
		return m.ChatFunc(ctx, messages, opts)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallCount++
	m.LastMessages = messages

	if m.ShouldError {
		return nil, fmt.Errorf("%s", m.ErrorMessage)
	}

	content := "Mock response"
	if resp, ok := m.lookupLocked(messages); ok {
		content = resp
	} else if resp, ok := m.Responses["default"]; ok {
		content = resp
	}

	return &domain.ChatResponse{
		Content:      content,
		Usage:        m.Usage,
		FinishReason: "stop",
	}, nil
}

func (m *MockChatClient) lookupLocked(messages []domain.Message) (string, bool) {
	for key, resp := range m.Responses {
		if key == "default" {
			continue
		}
		for _, msg := range messages {
			if strings.Contains(msg.Content, key) {
				return resp, true
			}
		}
	}
	return "", false
}

// GetCallCount returns the number of Chat calls made.
func (m *MockChatClient) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// MockEmbedder is a mock implementation of domain.Embedder.
type MockEmbedder struct {
	mu          sync.Mutex
	CallCount   int
	ShouldError bool
	// EmbedFunc allows custom embedding behavior for tests
	EmbedFunc func(ctx context.Context, text string) ([]float64, error)
}

// Embed implements domain.Embedder.
func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	m.mu.Lock()
	m.CallCount++
	m.mu.Unlock()

	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, text)
	}
	if m.ShouldError {
		return nil, fmt.Errorf("embedding service unavailable")
	}
	return []float64{0.1, 0.2, 0.3, 0.4, 0.5}, nil
}

// GetCallCount returns the number of Embed calls made.
func (m *MockEmbedder) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// MockGraphStore is a mock implementation of domain.GraphStore backed by
// fixed slices. Individual methods can be overridden or forced to fail.
type MockGraphStore struct {
	Nodes         []domain.KnowledgeNode
	QueryResults  []domain.SearchResult
	Relations     []domain.Relation
	Prerequisites []domain.KnowledgeNode

	CandidatesErr error
	QueryErr      error
	FetchErr      error
}

// Candidates implements domain.GraphStore.
func (m *MockGraphStore) Candidates(ctx context.Context, subject, grade, scope string) ([]domain.KnowledgeNode, error) {
	if m.CandidatesErr != nil {
		return nil, m.CandidatesErr
	}
	return m.Nodes, nil
}

// Query implements domain.GraphStore.
func (m *MockGraphStore) Query(ctx context.Context, subject, grade string, keywords []string, limit int, scope string) ([]domain.SearchResult, error) {
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}
	return m.QueryResults, nil
}

// FetchNodeWithNeighborhood implements domain.GraphStore.
func (m *MockGraphStore) FetchNodeWithNeighborhood(ctx context.Context, id string, depth int) (*domain.KnowledgeNode, []domain.Relation, error) {
	if m.FetchErr != nil {
		return nil, nil, m.FetchErr
	}
	for i := range m.Nodes {
		if m.Nodes[i].ID == id {
			return &m.Nodes[i], m.Relations, nil
		}
	}
	return nil, nil, fmt.Errorf("node not found: %s", id)
}

// FetchPrerequisites implements domain.GraphStore.
func (m *MockGraphStore) FetchPrerequisites(ctx context.Context, id string) ([]domain.KnowledgeNode, error) {
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	return m.Prerequisites, nil
}

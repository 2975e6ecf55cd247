package domain

import (
	"context"
)

// ChatClient defines the chat-completion capability.
type ChatClient interface {
	// Chat performs a chat completion.
	Chat(ctx context.Context, messages []Message, opts ChatOptions) (*ChatResponse, error)
}

// Embedder defines the embedding capability.
type Embedder interface {
	// Embed generates an embedding vector for text.
	Embed(ctx context.Context, text string) ([]float64, error)
}

// GraphStore defines the knowledge-graph capability consumed by the
// retrieval engine. Implementations are long-lived and safe for concurrent
// use across runs; no run-specific state is stored on them.
type GraphStore interface {
	// Candidates returns all knowledge nodes for a subject/grade/scope.
	Candidates(ctx context.Context, subject, grade, scope string) ([]KnowledgeNode, error)

	// Query returns nodes matching subject/grade/scope and any of the
	// given keywords, up to limit.
	Query(ctx context.Context, subject, grade string, keywords []string, limit int, scope string) ([]SearchResult, error)

	// FetchNodeWithNeighborhood returns a node plus its relations up to
	// depth hops.
	FetchNodeWithNeighborhood(ctx context.Context, id string, depth int) (*KnowledgeNode, []Relation, error)

	// FetchPrerequisites returns the prerequisite nodes of a node.
	FetchPrerequisites(ctx context.Context, id string) ([]KnowledgeNode, error)
}

// ObjectiveSkill generates the objective-design artifacts: three-part
// objectives, key/difficult points, and teaching methods. The three calls
// are independent and may run concurrently.
type ObjectiveSkill interface {
	Objectives(ctx context.Context, req GenerationRequest, kc []KnowledgeContext) (*LessonObjectives, TokenUsage, error)
	Points(ctx context.Context, req GenerationRequest, kc []KnowledgeContext) (keyPoints, difficultPoints []string, usage TokenUsage, err error)
	Methods(ctx context.Context, req GenerationRequest, objectives *LessonObjectives) ([]string, TokenUsage, error)
}

// ContentSkill generates the timed section list of the lesson body.
// Returned durations are raw model output; the caller rescales them to the
// requested total.
type ContentSkill interface {
	Sections(ctx context.Context, req GenerationRequest, objectives *LessonObjectives, keyPoints []string, kc []KnowledgeContext) ([]LessonSection, TokenUsage, error)
}

// ActivitySkill generates the supporting artifacts: materials, homework,
// and evaluation. The three calls are independent and may run concurrently.
type ActivitySkill interface {
	Materials(ctx context.Context, req GenerationRequest, sections []LessonSection) ([]string, TokenUsage, error)
	Homework(ctx context.Context, req GenerationRequest, sections []LessonSection) (string, TokenUsage, error)
	Evaluation(ctx context.Context, req GenerationRequest, objectives *LessonObjectives) (string, TokenUsage, error)
}

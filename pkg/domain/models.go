package domain

// Stage identifies one node in the fixed lesson-generation workflow.
type Stage string

const (
	StageInputAnalysis   Stage = "inputAnalysis"
	StageKnowledgeQuery  Stage = "knowledgeQuery"
	StageObjectiveDesign Stage = "objectiveDesign"
	StageContentDesign   Stage = "contentDesign"
	StageActivityDesign  Stage = "activityDesign"
	StageOutputFormat    Stage = "outputFormat"
)

// StageOrder is the canonical stage sequence. A consumer of the progress
// stream observes a prefix of this order, except that an error truncates the
// sequence at the terminal StageOutputFormat.
var StageOrder = []Stage{
	StageInputAnalysis,
	StageKnowledgeQuery,
	StageObjectiveDesign,
	StageContentDesign,
	StageActivityDesign,
	StageOutputFormat,
}

// GenerationRequest is an incoming lesson-plan generation request.
// Immutable once accepted into a run.
type GenerationRequest struct {
	ID           string             `json:"id"`
	Subject      string             `json:"subject"`
	Grade        string             `json:"grade"`
	Topic        string             `json:"topic"`
	Duration     int                `json:"duration"` // minutes
	Style        string             `json:"style,omitempty"`
	Requirements string             `json:"requirements,omitempty"`
	UserScope    string             `json:"userScope,omitempty"`
	Context      []KnowledgeContext `json:"context,omitempty"`
}

// KnowledgeContext is one retrieved (or caller-supplied) piece of knowledge
// attached to a run. Read-only once attached.
type KnowledgeContext struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Content   string  `json:"content"`
	Relevance float64 `json:"relevance,omitempty"`
	Source    string  `json:"source,omitempty"` // provenance: "vector", "graph", "hybrid", "caller"
}

// LessonObjectives holds the three required objective dimensions.
type LessonObjectives struct {
	Knowledge string `json:"knowledge"`
	Process   string `json:"process"`
	Affective string `json:"affective"`
}

// LessonSection is one timed section of the lesson body.
type LessonSection struct {
	Title           string `json:"title"`
	DurationMinutes int    `json:"durationMinutes"`
	TeacherActivity string `json:"teacherActivity"`
	StudentActivity string `json:"studentActivity"`
	Content         string `json:"content"`
	DesignIntent    string `json:"designIntent,omitempty"`
}

// LessonPlan is the final assembled output of a successful run.
type LessonPlan struct {
	Title           string           `json:"title"`
	Subject         string           `json:"subject"`
	Grade           string           `json:"grade"`
	Duration        int              `json:"duration"`
	Objectives      LessonObjectives `json:"objectives"`
	KeyPoints       []string         `json:"keyPoints"`
	DifficultPoints []string         `json:"difficultPoints"`
	TeachingMethods []string         `json:"teachingMethods"`
	Sections        []LessonSection  `json:"sections"`
	Materials       []string         `json:"materials"`
	Homework        string           `json:"homework"`
	Evaluation      string           `json:"evaluation"`
}

// KnowledgeNode is a node in the knowledge graph.
type KnowledgeNode struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Content     string    `json:"content,omitempty"`
	Subject     string    `json:"subject"`
	Grade       string    `json:"grade"`
	Scope       string    `json:"scope,omitempty"`
	Importance  float64   `json:"importance,omitempty"` // 1-10, defaults to 1
	Keywords    []string  `json:"keywords,omitempty"`
	Examples    []string  `json:"examples,omitempty"`
	Embedding   []float64 `json:"embedding,omitempty"`
}

// Relation is an edge from a knowledge node to a neighbor.
type Relation struct {
	Type       string `json:"type"`
	TargetID   string `json:"targetId"`
	TargetName string `json:"targetName"`
}

// SearchResult is a scored graph/vector candidate. Ephemeral: it exists only
// during fusion and is never persisted.
type SearchResult struct {
	NodeID      string  `json:"nodeId"`
	Name        string  `json:"name"`
	Score       float64 `json:"score"`
	VectorScore float64 `json:"vectorScore,omitempty"`
	GraphScore  float64 `json:"graphScore,omitempty"`
}

// RetrievalConfig controls hybrid search. Loaded once at process start and
// treated as an immutable snapshot; individual calls may override limits.
type RetrievalConfig struct {
	VectorWeight float64 `json:"vector_weight" yaml:"vector_weight"`
	GraphWeight  float64 `json:"graph_weight" yaml:"graph_weight"`
	MaxResults   int     `json:"max_results" yaml:"max_results"`
	SearchDepth  int     `json:"search_depth" yaml:"search_depth"`
}

// Message is a chat message sent to a language model.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// ChatOptions provides per-call options for chat completions.
type ChatOptions struct {
	Model       string   `json:"model,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

// ChatResponse is a chat completion response.
type ChatResponse struct {
	Content      string     `json:"content"`
	Usage        TokenUsage `json:"usage"`
	FinishReason string     `json:"finish_reason,omitempty"`
}

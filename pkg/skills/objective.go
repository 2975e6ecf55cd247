// Package skills implements the generation skills invoked by the workflow
// stages. Each skill wraps the chat capability with a prompt, parses the
// model's JSON reply, and reports the tokens it spent.
package skills

import (
	"context"
	"fmt"
	"strings"

	"github.com/lessonforge/lesson-plan-agent/pkg/domain"
)

// ObjectiveGenerator produces objectives, key/difficult points, and
// teaching methods through independent chat calls.
type ObjectiveGenerator struct {
	chat  domain.ChatClient
	model string
}

// NewObjectiveGenerator creates an objective-design skill.
func NewObjectiveGenerator(chat domain.ChatClient, model string) *ObjectiveGenerator {
	return &ObjectiveGenerator{chat: chat, model: model}
}

// Objectives implements domain.ObjectiveSkill.
func (g *ObjectiveGenerator) Objectives(ctx context.Context, req domain.GenerationRequest, kc []domain.KnowledgeContext) (*domain.LessonObjectives, domain.TokenUsage, error) {
	messages := []domain.Message{
		{Role: "system", Content: objectivesSystemPrompt},
		{Role: "user", Content: requestBlock(req) + contextBlock(kc)},
	}

	response, err := g.chat.Chat(ctx, messages, domain.ChatOptions{
		Model:       g.model,
		Temperature: 0.7,
		MaxTokens:   800,
	})
	if err != nil {
		return nil, domain.TokenUsage{}, fmt.Errorf("objectives generation failed: %w", err)
	}

	var objectives domain.LessonObjectives
	if err := decodeJSON(response.Content, &objectives); err != nil {
		return nil, response.Usage, fmt.Errorf("objectives parsing failed: %w", err)
	}
	return &objectives, response.Usage, nil
}

// Points implements domain.ObjectiveSkill.
func (g *ObjectiveGenerator) Points(ctx context.Context, req domain.GenerationRequest, kc []domain.KnowledgeContext) ([]string, []string, domain.TokenUsage, error) {
	messages := []domain.Message{
		{Role: "system", Content: pointsSystemPrompt},
		{Role: "user", Content: requestBlock(req) + contextBlock(kc)},
	}

	response, err := g.chat.Chat(ctx, messages, domain.ChatOptions{
		Model:       g.model,
		Temperature: 0.5,
		MaxTokens:   600,
	})
	if err != nil {
		return nil, nil, domain.TokenUsage{}, fmt.Errorf("points generation failed: %w", err)
	}

	var parsed struct {
		KeyPoints       []string `json:"keyPoints"`
		DifficultPoints []string `json:"difficultPoints"`
	}
	if err := decodeJSON(response.Content, &parsed); err != nil {
		return nil, nil, response.Usage, fmt.Errorf("points parsing failed: %w", err)
	}
	return trimLines(parsed.KeyPoints), trimLines(parsed.DifficultPoints), response.Usage, nil
}

// Methods implements domain.ObjectiveSkill.
func (g *ObjectiveGenerator) Methods(ctx context.Context, req domain.GenerationRequest, objectives *domain.LessonObjectives) ([]string, domain.TokenUsage, error) {
	user := requestBlock(req)
	if objectives != nil {
		user += fmt.Sprintf("\nObjectives: knowledge=%s; process=%s; affective=%s",
			objectives.Knowledge, objectives.Process, objectives.Affective)
	}

	messages := []domain.Message{
		{Role: "system", Content: methodsSystemPrompt},
		{Role: "user", Content: user},
	}

	response, err := g.chat.Chat(ctx, messages, domain.ChatOptions{
		Model:       g.model,
		Temperature: 0.5,
		MaxTokens:   400,
	})
	if err != nil {
		return nil, domain.TokenUsage{}, fmt.Errorf("methods generation failed: %w", err)
	}

	var parsed struct {
		Methods []string `json:"methods"`
	}
	if err := decodeJSON(response.Content, &parsed); err != nil {
		return nil, response.Usage, fmt.Errorf("methods parsing failed: %w", err)
	}
	return trimLines(parsed.Methods), response.Usage, nil
}

// requestBlock renders the request fields shared by every prompt.
func requestBlock(req domain.GenerationRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\nGrade: %s\nTopic: %s\nDuration: %d minutes\n",
		req.Subject, req.Grade, req.Topic, req.Duration)
	if req.Style != "" {
		fmt.Fprintf(&b, "Teaching style: %s\n", req.Style)
	}
	if req.Requirements != "" {
		fmt.Fprintf(&b, "Additional requirements: %s\n", req.Requirements)
	}
	return b.String()
}

// contextBlock renders retrieved knowledge context for inclusion in a
// prompt. Empty context renders nothing.
func contextBlock(kc []domain.KnowledgeContext) string {
	if len(kc) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\nRelevant knowledge:\n")
	for _, item := range kc {
		fmt.Fprintf(&b, "- %s: %s\n", item.Name, item.Content)
	}
	return b.String()
}

const (
	objectivesSystemPrompt = `You are an experienced curriculum designer. Write three-dimensional teaching objectives for the lesson described by the user.
Respond with a JSON object only:
{"knowledge": "...", "process": "...", "affective": "..."}
Each field must be a complete sentence describing what students will achieve.`

	pointsSystemPrompt = `You are an experienced curriculum designer. Identify the key points and difficult points of the lesson described by the user.
Respond with a JSON object only:
{"keyPoints": ["..."], "difficultPoints": ["..."]}`

	methodsSystemPrompt = `You are an experienced curriculum designer. Choose the teaching methods best suited to the lesson and objectives described by the user.
Respond with a JSON object only:
{"methods": ["..."]}`
)

package skills

import (
	"context"
	"fmt"
	"strings"

	"github.com/lessonforge/lesson-plan-agent/pkg/domain"
)

// ActivityGenerator produces materials, homework, and evaluation through
// independent chat calls.
type ActivityGenerator struct {
	chat  domain.ChatClient
	model string
}

// NewActivityGenerator creates an activity-design skill.
func NewActivityGenerator(chat domain.ChatClient, model string) *ActivityGenerator {
	return &ActivityGenerator{chat: chat, model: model}
}

// Materials implements domain.ActivitySkill.
func (g *ActivityGenerator) Materials(ctx context.Context, req domain.GenerationRequest, sections []domain.LessonSection) ([]string, domain.TokenUsage, error) {
	messages := []domain.Message{
		{Role: "system", Content: materialsSystemPrompt},
		{Role: "user", Content: requestBlock(req) + sectionBlock(sections)},
	}

	response, err := g.chat.Chat(ctx, messages, domain.ChatOptions{
		Model:       g.model,
		Temperature: 0.5,
		MaxTokens:   400,
	})
	if err != nil {
		return nil, domain.TokenUsage{}, fmt.Errorf("materials generation failed: %w", err)
	}

	var parsed struct {
		Materials []string `json:"materials"`
	}
	if err := decodeJSON(response.Content, &parsed); err != nil {
		return nil, response.Usage, fmt.Errorf("materials parsing failed: %w", err)
	}
	return trimLines(parsed.Materials), response.Usage, nil
}

// Homework implements domain.ActivitySkill.
func (g *ActivityGenerator) Homework(ctx context.Context, req domain.GenerationRequest, sections []domain.LessonSection) (string, domain.TokenUsage, error) {
	messages := []domain.Message{
		{Role: "system", Content: homeworkSystemPrompt},
		{Role: "user", Content: requestBlock(req) + sectionBlock(sections)},
	}

	response, err := g.chat.Chat(ctx, messages, domain.ChatOptions{
		Model:       g.model,
		Temperature: 0.6,
		MaxTokens:   600,
	})
	if err != nil {
		return "", domain.TokenUsage{}, fmt.Errorf("homework generation failed: %w", err)
	}

	homework := strings.TrimSpace(response.Content)
	if homework == "" {
		return "", response.Usage, fmt.Errorf("homework generation returned empty text")
	}
	return homework, response.Usage, nil
}

// Evaluation implements domain.ActivitySkill.
func (g *ActivityGenerator) Evaluation(ctx context.Context, req domain.GenerationRequest, objectives *domain.LessonObjectives) (string, domain.TokenUsage, error) {
	user := requestBlock(req)
	if objectives != nil {
		user += fmt.Sprintf("\nObjectives: knowledge=%s; process=%s; affective=%s\n",
			objectives.Knowledge, objectives.Process, objectives.Affective)
	}

	messages := []domain.Message{
		{Role: "system", Content: evaluationSystemPrompt},
		{Role: "user", Content: user},
	}

	response, err := g.chat.Chat(ctx, messages, domain.ChatOptions{
		Model:       g.model,
		Temperature: 0.6,
		MaxTokens:   600,
	})
	if err != nil {
		return "", domain.TokenUsage{}, fmt.Errorf("evaluation generation failed: %w", err)
	}

	evaluation := strings.TrimSpace(response.Content)
	if evaluation == "" {
		return "", response.Usage, fmt.Errorf("evaluation generation returned empty text")
	}
	return evaluation, response.Usage, nil
}

// sectionBlock renders section titles for inclusion in a prompt.
func sectionBlock(sections []domain.LessonSection) string {
	if len(sections) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\nLesson sections:\n")
	for _, s := range sections {
		fmt.Fprintf(&b, "- %s (%d min)\n", s.Title, s.DurationMinutes)
	}
	return b.String()
}

const (
	materialsSystemPrompt = `You are an experienced curriculum designer. List the teaching materials and aids needed for the lesson described by the user.
Respond with a JSON object only:
{"materials": ["..."]}`

	homeworkSystemPrompt = `You are an experienced curriculum designer. Write a homework assignment for the lesson described by the user. Respond with the assignment text only, no JSON.`

	evaluationSystemPrompt = `You are an experienced curriculum designer. Describe how to evaluate whether the lesson objectives were met. Respond with the evaluation text only, no JSON.`
)

package skills

import (
	"context"
	"fmt"
	"strings"

	"github.com/lessonforge/lesson-plan-agent/pkg/domain"
)

// ContentGenerator produces the timed section list of the lesson body.
type ContentGenerator struct {
	chat  domain.ChatClient
	model string
}

// NewContentGenerator creates a content-design skill.
func NewContentGenerator(chat domain.ChatClient, model string) *ContentGenerator {
	return &ContentGenerator{chat: chat, model: model}
}

// Sections implements domain.ContentSkill. Durations in the returned
// sections are the model's raw estimates; the workflow rescales them so
// they sum exactly to the requested total.
func (g *ContentGenerator) Sections(ctx context.Context, req domain.GenerationRequest, objectives *domain.LessonObjectives, keyPoints []string, kc []domain.KnowledgeContext) ([]domain.LessonSection, domain.TokenUsage, error) {
	user := requestBlock(req)
	if objectives != nil {
		user += fmt.Sprintf("\nObjectives: knowledge=%s; process=%s; affective=%s\n",
			objectives.Knowledge, objectives.Process, objectives.Affective)
	}
	if len(keyPoints) > 0 {
		user += "Key points: " + strings.Join(keyPoints, "; ") + "\n"
	}
	user += contextBlock(kc)

	messages := []domain.Message{
		{Role: "system", Content: sectionsSystemPrompt},
		{Role: "user", Content: user},
	}

	response, err := g.chat.Chat(ctx, messages, domain.ChatOptions{
		Model:       g.model,
		Temperature: 0.7,
		MaxTokens:   2000,
	})
	if err != nil {
		return nil, domain.TokenUsage{}, fmt.Errorf("section generation failed: %w", err)
	}

	var parsed struct {
		Sections []domain.LessonSection `json:"sections"`
	}
	if err := decodeJSON(response.Content, &parsed); err != nil {
		return nil, response.Usage, fmt.Errorf("section parsing failed: %w", err)
	}

	sections := make([]domain.LessonSection, 0, len(parsed.Sections))
	for _, s := range parsed.Sections {
		if strings.TrimSpace(s.Title) == "" {
			continue
		}
		sections = append(sections, s)
	}
	return sections, response.Usage, nil
}

const sectionsSystemPrompt = `You are an experienced curriculum designer. Break the lesson described by the user into ordered teaching sections.
Respond with a JSON object only:
{"sections": [{"title": "...", "durationMinutes": 10, "teacherActivity": "...", "studentActivity": "...", "content": "...", "designIntent": "..."}]}
Use 3 to 6 sections. Durations are estimates in minutes; they will be rescaled to the requested total.`

package skills

import (
	"testing"

	"github.com/lessonforge/lesson-plan-agent/internal/testutil"
)

func TestObjectiveGeneratorObjectives(t *testing.T) {
	chat := testutil.NewMockChatClient()
	chat.Responses["default"] = `{"knowledge": "理解方程", "process": "经历建模", "affective": "感受应用"}`

	g := NewObjectiveGenerator(chat, "test-model")
	objectives, usage, err := g.Objectives(testutil.NewTestContext(t), testutil.NewTestRequest(), nil)
	if err != nil {
		t.Fatalf("Objectives: %v", err)
	}
	if objectives.Knowledge != "理解方程" || objectives.Process != "经历建模" || objectives.Affective != "感受应用" {
		t.Errorf("unexpected objectives: %+v", objectives)
	}
	if usage.TotalTokens != 100 {
		t.Errorf("usage = %+v", usage)
	}
}

func TestObjectiveGeneratorPoints(t *testing.T) {
	chat := testutil.NewMockChatClient()
	chat.Responses["default"] = "```json\n{\"keyPoints\": [\"方程的定义\"], \"difficultPoints\": [\"建模\", \"\"]}\n```"

	g := NewObjectiveGenerator(chat, "test-model")
	keyPoints, difficultPoints, _, err := g.Points(testutil.NewTestContext(t), testutil.NewTestRequest(), nil)
	if err != nil {
		t.Fatalf("Points: %v", err)
	}
	if len(keyPoints) != 1 || keyPoints[0] != "方程的定义" {
		t.Errorf("key points = %v", keyPoints)
	}
	// Empty entries are dropped.
	if len(difficultPoints) != 1 {
		t.Errorf("difficult points = %v", difficultPoints)
	}
}

func TestObjectiveGeneratorChatErrorPropagates(t *testing.T) {
	chat := testutil.NewMockChatClient()
	chat.ShouldError = true
	chat.ErrorMessage = "model unavailable"

	g := NewObjectiveGenerator(chat, "test-model")
	if _, _, err := g.Objectives(testutil.NewTestContext(t), testutil.NewTestRequest(), nil); err == nil {
		t.Error("expected chat error to propagate")
	}
}

func TestObjectiveGeneratorMalformedResponse(t *testing.T) {
	chat := testutil.NewMockChatClient()
	chat.Responses["default"] = "I'd rather write prose."

	g := NewObjectiveGenerator(chat, "test-model")
	if _, _, err := g.Objectives(testutil.NewTestContext(t), testutil.NewTestRequest(), nil); err == nil {
		t.Error("expected parse error for non-JSON response")
	}
}

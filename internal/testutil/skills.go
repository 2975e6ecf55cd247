package testutil

import (
	"context"

	"github.com/lessonforge/lesson-plan-agent/pkg/domain"
)

// TestUsage is the token usage every mock skill call reports.
var TestUsage = domain.TokenUsage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30}

// MockObjectiveSkill is a mock implementation of domain.ObjectiveSkill with
// sensible defaults and per-call error switches.
type MockObjectiveSkill struct {
	ObjectivesResult *domain.LessonObjectives
	KeyPoints        []string
	DifficultPoints  []string
	MethodsResult    []string

	ObjectivesErr error
	PointsErr     error
	MethodsErr    error
}

// NewMockObjectiveSkill creates a mock objective skill returning a complete
// objectives object.
func NewMockObjectiveSkill() *MockObjectiveSkill {
	return &MockObjectiveSkill{
		ObjectivesResult: &domain.LessonObjectives{
			Knowledge: "理解一元一次方程的概念和解法",
			Process:   "经历从实际问题抽象出方程的过程",
			Affective: "体会方程思想在生活中的应用价值",
		},
		KeyPoints:       []string{"方程的定义", "等式的性质"},
		DifficultPoints: []string{"从应用题抽象出方程"},
		MethodsResult:   []string{"讲授法", "小组讨论"},
	}
}

// Objectives implements domain.ObjectiveSkill.
func (m *MockObjectiveSkill) Objectives(ctx context.Context, req domain.GenerationRequest, kc []domain.KnowledgeContext) (*domain.LessonObjectives, domain.TokenUsage, error) {
	if m.ObjectivesErr != nil {
		return nil, domain.TokenUsage{}, m.ObjectivesErr
	}
	return m.ObjectivesResult, TestUsage, nil
}

// Points implements domain.ObjectiveSkill.
func (m *MockObjectiveSkill) Points(ctx context.Context, req domain.GenerationRequest, kc []domain.KnowledgeContext) ([]string, []string, domain.TokenUsage, error) {
	if m.PointsErr != nil {
		return nil, nil, domain.TokenUsage{}, m.PointsErr
	}
	return m.KeyPoints, m.DifficultPoints, TestUsage, nil
}

// Methods implements domain.ObjectiveSkill.
func (m *MockObjectiveSkill) Methods(ctx context.Context, req domain.GenerationRequest, objectives *domain.LessonObjectives) ([]string, domain.TokenUsage, error) {
	if m.MethodsErr != nil {
		return nil, domain.TokenUsage{}, m.MethodsErr
	}
	return m.MethodsResult, TestUsage, nil
}

// MockContentSkill is a mock implementation of domain.ContentSkill.
type MockContentSkill struct {
	SectionsResult []domain.LessonSection
	SectionsErr    error
}

// NewMockContentSkill creates a mock content skill returning three sections.
func NewMockContentSkill() *MockContentSkill {
	return &MockContentSkill{
		SectionsResult: []domain.LessonSection{
			{Title: "导入", DurationMinutes: 5, TeacherActivity: "提出生活问题", StudentActivity: "思考讨论"},
			{Title: "新知讲解", DurationMinutes: 25, TeacherActivity: "讲解概念", StudentActivity: "练习"},
			{Title: "总结", DurationMinutes: 10, TeacherActivity: "归纳要点", StudentActivity: "提问"},
		},
	}
}

// Sections implements domain.ContentSkill.
func (m *MockContentSkill) Sections(ctx context.Context, req domain.GenerationRequest, objectives *domain.LessonObjectives, keyPoints []string, kc []domain.KnowledgeContext) ([]domain.LessonSection, domain.TokenUsage, error) {
	if m.SectionsErr != nil {
		return nil, domain.TokenUsage{}, m.SectionsErr
	}
	return m.SectionsResult, TestUsage, nil
}

// MockActivitySkill is a mock implementation of domain.ActivitySkill.
type MockActivitySkill struct {
	MaterialsResult  []string
	HomeworkResult   string
	EvaluationResult string

	MaterialsErr  error
	HomeworkErr   error
	EvaluationErr error
}

// NewMockActivitySkill creates a mock activity skill with non-empty results.
func NewMockActivitySkill() *MockActivitySkill {
	return &MockActivitySkill{
		MaterialsResult:  []string{"多媒体课件", "练习卷"},
		HomeworkResult:   "完成课本习题 1-5 题",
		EvaluationResult: "通过课堂练习和提问检查目标达成情况",
	}
}

// Materials implements domain.ActivitySkill.
func (m *MockActivitySkill) Materials(ctx context.Context, req domain.GenerationRequest, sections []domain.LessonSection) ([]string, domain.TokenUsage, error) {
	if m.MaterialsErr != nil {
		return nil, domain.TokenUsage{}, m.MaterialsErr
	}
	return m.MaterialsResult, TestUsage, nil
}

// Homework implements domain.ActivitySkill.
func (m *MockActivitySkill) Homework(ctx context.Context, req domain.GenerationRequest, sections []domain.LessonSection) (string, domain.TokenUsage, error) {
	if m.HomeworkErr != nil {
		return "", domain.TokenUsage{}, m.HomeworkErr
	}
	return m.HomeworkResult, TestUsage, nil
}

// Evaluation implements domain.ActivitySkill.
func (m *MockActivitySkill) Evaluation(ctx context.Context, req domain.GenerationRequest, objectives *domain.LessonObjectives) (string, domain.TokenUsage, error) {
	if m.EvaluationErr != nil {
		return "", domain.TokenUsage{}, m.EvaluationErr
	}
	return m.EvaluationResult, TestUsage, nil
}

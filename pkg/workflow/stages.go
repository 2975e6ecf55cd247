package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/lessonforge/lesson-plan-agent/pkg/domain"
	"github.com/lessonforge/lesson-plan-agent/pkg/retrieval"
	"github.com/lessonforge/lesson-plan-agent/pkg/state"
)

// gradeAliases maps colloquial grade names to their canonical form. Unknown
// grades pass through unchanged.
var gradeAliases = map[string]string{
	"初一":      "七年级",
	"初二":      "八年级",
	"初三":      "九年级",
	"高一":      "高中一年级",
	"高二":      "高中二年级",
	"高三":      "高中三年级",
	"grade 7": "七年级",
	"grade 8": "八年级",
	"grade 9": "九年级",
}

// knownSubjects is the set of subjects with curated knowledge coverage. An
// unknown subject is a soft warning, never a failure.
var knownSubjects = map[string]struct{}{
	"数学": {}, "语文": {}, "英语": {}, "物理": {}, "化学": {},
	"生物": {}, "历史": {}, "地理": {}, "政治": {}, "科学": {},
}

// minObjectiveRunes is the minimum content length for each of the three
// objective dimensions.
const minObjectiveRunes = 5

// stageInputAnalysis validates the request and normalizes the grade name.
// Validation failure is fatal and short-circuits the run.
func (o *Orchestrator) stageInputAnalysis(ctx context.Context, st state.WorkflowState) state.Delta {
	req := st.Request

	req.Subject = strings.TrimSpace(req.Subject)
	req.Grade = strings.TrimSpace(req.Grade)
	req.Topic = strings.TrimSpace(req.Topic)

	if req.Subject == "" {
		return errorDelta(&domain.ValidationError{Field: "subject", Reason: "must not be empty"})
	}
	if req.Grade == "" {
		return errorDelta(&domain.ValidationError{Field: "grade", Reason: "must not be empty"})
	}
	if req.Topic == "" {
		return errorDelta(&domain.ValidationError{Field: "topic", Reason: "must not be empty"})
	}
	if req.Duration < o.config.MinDuration || req.Duration > o.config.MaxDuration {
		return errorDelta(&domain.ValidationError{
			Field:  "duration",
			Reason: fmt.Sprintf("must be between %d and %d minutes, got %d", o.config.MinDuration, o.config.MaxDuration, req.Duration),
		})
	}

	if canonical, ok := gradeAliases[strings.ToLower(req.Grade)]; ok {
		req.Grade = canonical
	}

	if _, ok := knownSubjects[req.Subject]; !ok {
		o.logger.Warn(ctx, "Unknown subject, knowledge coverage may be sparse",
			map[string]interface{}{"subject": req.Subject})
	}

	return state.Delta{Request: &req}
}

// stageKnowledgeQuery retrieves knowledge context for the lesson topic.
// Retrieval failure is non-fatal: the stage degrades to an empty context
// list and the run proceeds.
func (o *Orchestrator) stageKnowledgeQuery(ctx context.Context, st state.WorkflowState) state.Delta {
	req := st.Request

	contexts := []domain.KnowledgeContext{}
	if o.searcher != nil {
		found, err := o.searcher.HybridSearch(ctx, req.Topic, req.Subject, req.Grade, retrieval.SearchOptions{
			ScopeID:  req.UserScope,
			Existing: req.Context,
		})
		if err != nil {
			o.logger.Warn(ctx, "Knowledge retrieval degraded to empty context",
				map[string]interface{}{"error": err.Error()})
		} else if found != nil {
			contexts = found
		}
	} else if len(req.Context) > 0 {
		contexts = req.Context
	}

	// Non-nil even when empty: "queried and found nothing" is a meaningful
	// value, not an unset field.
	return state.Delta{KnowledgeContext: contexts}
}

// stageObjectiveDesign fans out three independent generation calls
// (objectives, key/difficult points, teaching methods) and waits for all of
// them. Any failure, or a structurally incomplete objectives object, fails
// the stage.
func (o *Orchestrator) stageObjectiveDesign(ctx context.Context, st state.WorkflowState) state.Delta {
	var (
		wg         sync.WaitGroup
		objectives *domain.LessonObjectives
		objUsage   domain.TokenUsage
		objErr     error

		keyPoints, difficultPoints []string
		pointsUsage                domain.TokenUsage
		pointsErr                  error

		methods     []string
		methodUsage domain.TokenUsage
		methodErr   error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		objectives, objUsage, objErr = o.objectives.Objectives(ctx, st.Request, st.KnowledgeContext)
	}()
	go func() {
		defer wg.Done()
		keyPoints, difficultPoints, pointsUsage, pointsErr = o.objectives.Points(ctx, st.Request, st.KnowledgeContext)
	}()
	go func() {
		defer wg.Done()
		methods, methodUsage, methodErr = o.objectives.Methods(ctx, st.Request, nil)
	}()
	wg.Wait()

	usage := domain.MergeUsage(objUsage, pointsUsage, methodUsage)

	for _, err := range []error{objErr, pointsErr, methodErr} {
		if err != nil {
			return state.Delta{
				Error: (&domain.IncompleteGenerationError{Stage: domain.StageObjectiveDesign, Missing: err.Error()}).Error(),
				Usage: usage,
			}
		}
	}
	if missing := missingObjectiveField(objectives); missing != "" {
		return state.Delta{
			Error: (&domain.IncompleteGenerationError{Stage: domain.StageObjectiveDesign, Missing: missing}).Error(),
			Usage: usage,
		}
	}

	return state.Delta{
		Objectives:      objectives,
		KeyPoints:       keyPoints,
		DifficultPoints: difficultPoints,
		TeachingMethods: methods,
		Usage:           usage,
	}
}

// missingObjectiveField names the first objective dimension that is absent
// or below the minimum content length, or returns "" when all three pass.
func missingObjectiveField(objectives *domain.LessonObjectives) string {
	if objectives == nil {
		return "objectives object"
	}
	fields := []struct {
		name  string
		value string
	}{
		{"knowledge objective", objectives.Knowledge},
		{"process objective", objectives.Process},
		{"affective objective", objectives.Affective},
	}
	for _, f := range fields {
		if utf8.RuneCountInString(strings.TrimSpace(f.value)) < minObjectiveRunes {
			return f.name
		}
	}
	return ""
}

// stageContentDesign generates the timed section list and rescales durations
// so they sum exactly to the requested total. Zero sections fails the stage.
func (o *Orchestrator) stageContentDesign(ctx context.Context, st state.WorkflowState) state.Delta {
	sections, usage, err := o.content.Sections(ctx, st.Request, st.Objectives, st.KeyPoints, st.KnowledgeContext)
	if err != nil {
		return state.Delta{
			Error: (&domain.IncompleteGenerationError{Stage: domain.StageContentDesign, Missing: err.Error()}).Error(),
			Usage: usage,
		}
	}
	if len(sections) == 0 {
		return state.Delta{
			Error: (&domain.IncompleteGenerationError{Stage: domain.StageContentDesign, Missing: "section list"}).Error(),
			Usage: usage,
		}
	}

	return state.Delta{
		Sections: rescaleDurations(sections, st.Request.Duration),
		Usage:    usage,
	}
}

// rescaleDurations scales section durations proportionally so they sum
// exactly to total. Every section keeps at least one minute; the last
// section absorbs the rounding remainder. When the model returns more
// sections than there are minutes, trailing sections are dropped first:
// with the one-minute floor no assignment over the full list could reach
// the total.
func rescaleDurations(sections []domain.LessonSection, total int) []domain.LessonSection {
	if len(sections) == 0 || total <= 0 {
		return sections
	}

	scaled := make([]domain.LessonSection, len(sections))
	copy(scaled, sections)
	if len(scaled) > total {
		scaled = scaled[:total]
	}

	rawSum := 0
	for i := range scaled {
		if scaled[i].DurationMinutes < 1 {
			scaled[i].DurationMinutes = 1
		}
		rawSum += scaled[i].DurationMinutes
	}

	allocated := 0
	for i := 0; i < len(scaled)-1; i++ {
		d := scaled[i].DurationMinutes * total / rawSum
		if d < 1 {
			d = 1
		}
		scaled[i].DurationMinutes = d
		allocated += d
	}

	last := total - allocated
	if last < 1 {
		// Truncating division can only overshoot when total is barely
		// larger than the section count; claw minutes back from earlier
		// sections so the sum stays exact.
		deficit := 1 - last
		for i := len(scaled) - 2; i >= 0 && deficit > 0; i-- {
			give := scaled[i].DurationMinutes - 1
			if give > deficit {
				give = deficit
			}
			scaled[i].DurationMinutes -= give
			deficit -= give
		}
		last = 1
	}
	scaled[len(scaled)-1].DurationMinutes = last

	return scaled
}

// stageActivityDesign fans out materials, homework, and evaluation
// generation concurrently. Any of the three failing fails the stage.
func (o *Orchestrator) stageActivityDesign(ctx context.Context, st state.WorkflowState) state.Delta {
	var (
		wg            sync.WaitGroup
		materials     []string
		materialUsage domain.TokenUsage
		materialErr   error

		homework      string
		homeworkUsage domain.TokenUsage
		homeworkErr   error

		evaluation    string
		evalUsage     domain.TokenUsage
		evaluationErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		materials, materialUsage, materialErr = o.activity.Materials(ctx, st.Request, st.Sections)
	}()
	go func() {
		defer wg.Done()
		homework, homeworkUsage, homeworkErr = o.activity.Homework(ctx, st.Request, st.Sections)
	}()
	go func() {
		defer wg.Done()
		evaluation, evalUsage, evaluationErr = o.activity.Evaluation(ctx, st.Request, st.Objectives)
	}()
	wg.Wait()

	usage := domain.MergeUsage(materialUsage, homeworkUsage, evalUsage)

	for _, err := range []error{materialErr, homeworkErr, evaluationErr} {
		if err != nil {
			return state.Delta{
				Error: (&domain.IncompleteGenerationError{Stage: domain.StageActivityDesign, Missing: err.Error()}).Error(),
				Usage: usage,
			}
		}
	}

	return state.Delta{
		Materials:  materials,
		Homework:   &homework,
		Evaluation: &evaluation,
		Usage:      usage,
	}
}

// stageOutputFormat is the universal sink. On an already-failed run it only
// stamps the end time. Otherwise it assembles the final plan, defaulting
// still-missing fields to empty, and runs a final structural validation
// whose failure re-sets the error rather than panicking: the run always
// completes with either output or error, never both.
func (o *Orchestrator) stageOutputFormat(_ context.Context, st state.WorkflowState) state.Delta {
	now := time.Now()
	if st.Error != "" {
		return state.Delta{EndTime: now}
	}

	plan := &domain.LessonPlan{
		Title:           fmt.Sprintf("%s·%s", st.Request.Subject, st.Request.Topic),
		Subject:         st.Request.Subject,
		Grade:           st.Request.Grade,
		Duration:        st.Request.Duration,
		KeyPoints:       emptyIfNil(st.KeyPoints),
		DifficultPoints: emptyIfNil(st.DifficultPoints),
		TeachingMethods: emptyIfNil(st.TeachingMethods),
		Sections:        st.Sections,
		Materials:       emptyIfNil(st.Materials),
		Homework:        st.Homework,
		Evaluation:      st.Evaluation,
	}
	if st.Objectives != nil {
		plan.Objectives = *st.Objectives
	}
	if plan.Sections == nil {
		plan.Sections = []domain.LessonSection{}
	}

	if reason := validatePlan(plan); reason != "" {
		return state.Delta{
			Error:   (&domain.AssemblyError{Reason: reason}).Error(),
			EndTime: now,
		}
	}

	return state.Delta{
		Output:  plan,
		EndTime: now,
	}
}

// validatePlan is the final structural check on an assembled plan. It
// returns a reason string, or "" when the plan is sound.
func validatePlan(plan *domain.LessonPlan) string {
	if strings.TrimSpace(plan.Title) == "" {
		return "empty title"
	}
	if strings.TrimSpace(plan.Objectives.Knowledge) == "" {
		return "empty knowledge objective"
	}
	if len(plan.Sections) == 0 {
		return "empty section list"
	}
	for i, s := range plan.Sections {
		if strings.TrimSpace(s.Title) == "" {
			return fmt.Sprintf("section %d has no title", i+1)
		}
		if s.DurationMinutes <= 0 {
			return fmt.Sprintf("section %d has non-positive duration", i+1)
		}
	}
	return ""
}

func errorDelta(err error) state.Delta {
	return state.Delta{Error: err.Error()}
}

func emptyIfNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

package graphstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lessonforge/lesson-plan-agent/internal/testutil"
	"github.com/lessonforge/lesson-plan-agent/pkg/domain"
)

func seededStore(t *testing.T) *MemoryStore {
	t.Helper()
	store := NewMemoryStore()

	nodes := []domain.KnowledgeNode{
		{ID: "eq", Name: "一元一次方程", Content: "含有一个未知数的等式", Subject: "数学", Grade: "七年级", Importance: 8},
		{ID: "rat", Name: "有理数", Content: "整数和分数的统称", Subject: "数学", Grade: "七年级", Importance: 6},
		{ID: "geo", Name: "三角形", Subject: "数学", Grade: "八年级", Importance: 5},
		{ID: "priv", Name: "校本教材", Subject: "数学", Grade: "七年级", Scope: "school-1"},
	}
	for _, n := range nodes {
		if err := store.AddNode(n); err != nil {
			t.Fatalf("AddNode(%s): %v", n.ID, err)
		}
	}

	if err := store.AddRelation("eq", domain.Relation{Type: RelationPrerequisite, TargetID: "rat"}); err != nil {
		t.Fatalf("AddRelation: %v", err)
	}
	if err := store.AddRelation("rat", domain.Relation{Type: "related", TargetID: "geo"}); err != nil {
		t.Fatalf("AddRelation: %v", err)
	}
	return store
}

func TestCandidatesFiltersBySubjectGradeScope(t *testing.T) {
	store := seededStore(t)
	ctx := testutil.NewTestContext(t)

	candidates, err := store.Candidates(ctx, "数学", "七年级", "")
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	// The scoped node is invisible without its scope; the grade-8 node is
	// filtered out.
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(candidates))
	}

	scoped, err := store.Candidates(ctx, "数学", "七年级", "school-1")
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if len(scoped) != 3 {
		t.Errorf("got %d candidates with scope, want 3", len(scoped))
	}
}

func TestQueryScoresByImportance(t *testing.T) {
	store := seededStore(t)
	ctx := testutil.NewTestContext(t)

	results, err := store.Query(ctx, "数学", "七年级", []string{"方程"}, 10, "")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].NodeID != "eq" || results[0].Score != 8 {
		t.Errorf("unexpected result: %+v", results[0])
	}
}

func TestQueryLimitKeepsHighestImportance(t *testing.T) {
	store := NewMemoryStore()
	for _, n := range []domain.KnowledgeNode{
		{ID: "a", Name: "方程甲", Subject: "数学", Grade: "七年级", Importance: 2},
		{ID: "b", Name: "方程乙", Subject: "数学", Grade: "七年级", Importance: 3},
		{ID: "c", Name: "方程丙", Subject: "数学", Grade: "七年级", Importance: 9},
		{ID: "d", Name: "方程丁", Subject: "数学", Grade: "七年级", Importance: 5},
	} {
		if err := store.AddNode(n); err != nil {
			t.Fatalf("AddNode(%s): %v", n.ID, err)
		}
	}

	results, err := store.Query(testutil.NewTestContext(t), "数学", "七年级", []string{"方程"}, 2, "")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].NodeID != "c" || results[1].NodeID != "d" {
		t.Errorf("limit kept %s, %s; want the two highest-importance nodes c, d",
			results[0].NodeID, results[1].NodeID)
	}
}

func TestQueryNoKeywordsReturnsNothing(t *testing.T) {
	store := seededStore(t)
	results, err := store.Query(testutil.NewTestContext(t), "数学", "七年级", nil, 10, "")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

func TestFetchNodeWithNeighborhood(t *testing.T) {
	store := seededStore(t)
	ctx := testutil.NewTestContext(t)

	t.Run("DepthOne", func(t *testing.T) {
		node, relations, err := store.FetchNodeWithNeighborhood(ctx, "eq", 1)
		if err != nil {
			t.Fatalf("FetchNodeWithNeighborhood: %v", err)
		}
		if node.Name != "一元一次方程" {
			t.Errorf("node = %+v", node)
		}
		if len(relations) != 1 {
			t.Errorf("got %d relations at depth 1, want 1", len(relations))
		}
	})

	t.Run("DepthTwoFollowsNeighbors", func(t *testing.T) {
		_, relations, err := store.FetchNodeWithNeighborhood(ctx, "eq", 2)
		if err != nil {
			t.Fatalf("FetchNodeWithNeighborhood: %v", err)
		}
		if len(relations) != 2 {
			t.Errorf("got %d relations at depth 2, want 2", len(relations))
		}
	})

	t.Run("UnknownNode", func(t *testing.T) {
		if _, _, err := store.FetchNodeWithNeighborhood(ctx, "missing", 1); err == nil {
			t.Error("expected error for unknown node")
		}
	})
}

func TestFetchPrerequisites(t *testing.T) {
	store := seededStore(t)

	prereqs, err := store.FetchPrerequisites(testutil.NewTestContext(t), "eq")
	if err != nil {
		t.Fatalf("FetchPrerequisites: %v", err)
	}
	if len(prereqs) != 1 || prereqs[0].ID != "rat" {
		t.Errorf("prerequisites = %+v", prereqs)
	}

	// Non-prerequisite relations are excluded.
	prereqs, err = store.FetchPrerequisites(testutil.NewTestContext(t), "rat")
	if err != nil {
		t.Fatalf("FetchPrerequisites: %v", err)
	}
	if len(prereqs) != 0 {
		t.Errorf("prerequisites = %+v, want none", prereqs)
	}
}

func TestAddRelationFillsTargetName(t *testing.T) {
	store := seededStore(t)
	if err := store.AddRelation("geo", domain.Relation{Type: "related", TargetID: "eq"}); err != nil {
		t.Fatalf("AddRelation: %v", err)
	}
	_, relations, err := store.FetchNodeWithNeighborhood(testutil.NewTestContext(t), "geo", 1)
	if err != nil {
		t.Fatalf("FetchNodeWithNeighborhood: %v", err)
	}
	if len(relations) != 1 || relations[0].TargetName != "一元一次方程" {
		t.Errorf("relations = %+v", relations)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.yaml")
	content := `nodes:
  - id: eq
    name: 一元一次方程
    subject: 数学
    grade: 七年级
    importance: 8
  - id: rat
    name: 有理数
    subject: 数学
    grade: 七年级
relations:
  - source: eq
    type: prerequisite
    target: rat
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	store := NewMemoryStore()
	if err := store.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	prereqs, err := store.FetchPrerequisites(testutil.NewTestContext(t), "eq")
	if err != nil {
		t.Fatalf("FetchPrerequisites: %v", err)
	}
	if len(prereqs) != 1 || prereqs[0].Name != "有理数" {
		t.Errorf("prerequisites = %+v", prereqs)
	}
}

func TestLoadFromFileRejectsUnknownSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.yaml")
	content := `nodes: []
relations:
  - source: ghost
    type: prerequisite
    target: eq
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := NewMemoryStore().LoadFromFile(path); err == nil {
		t.Error("expected error for relation from unknown node")
	}
}

// Package graphstore provides knowledge-graph storage backends for the
// retrieval engine.
package graphstore

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/lessonforge/lesson-plan-agent/pkg/domain"
)

// RelationPrerequisite marks an edge whose target must be taught before the
// source node.
const RelationPrerequisite = "prerequisite"

// MemoryStore is an in-memory implementation of domain.GraphStore. Safe for
// concurrent use; lookups return copies so callers never share node slices
// with the store.
type MemoryStore struct {
	mu        sync.RWMutex
	nodes     map[string]domain.KnowledgeNode
	relations map[string][]domain.Relation
}

// NewMemoryStore creates an empty in-memory graph store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nodes:     make(map[string]domain.KnowledgeNode),
		relations: make(map[string][]domain.Relation),
	}
}

// AddNode inserts or replaces a node.
func (m *MemoryStore) AddNode(node domain.KnowledgeNode) error {
	if node.ID == "" {
		return fmt.Errorf("node ID is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes[node.ID] = node
	return nil
}

// AddRelation inserts a directed edge from a source node. The relation's
// target name is filled in from the store when absent.
func (m *MemoryStore) AddRelation(sourceID string, relation domain.Relation) error {
	if sourceID == "" || relation.TargetID == "" {
		return fmt.Errorf("relation endpoints are required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.nodes[sourceID]; !ok {
		return fmt.Errorf("unknown source node: %s", sourceID)
	}
	if relation.TargetName == "" {
		if target, ok := m.nodes[relation.TargetID]; ok {
			relation.TargetName = target.Name
		}
	}
	m.relations[sourceID] = append(m.relations[sourceID], relation)
	return nil
}

// Candidates returns all nodes for a subject/grade/scope.
func (m *MemoryStore) Candidates(ctx context.Context, subject, grade, scope string) ([]domain.KnowledgeNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var candidates []domain.KnowledgeNode
	for _, node := range m.nodes {
		if m.matchesLocked(node, subject, grade, scope) {
			candidates = append(candidates, node)
		}
	}
	return candidates, nil
}

// Query returns nodes matching subject/grade/scope and any of the given
// keywords, scored by node importance, up to limit. All matches are scored
// before truncation: map iteration order must never decide which of them
// survive the limit.
func (m *MemoryStore) Query(ctx context.Context, subject, grade string, keywords []string, limit int, scope string) ([]domain.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []domain.SearchResult
	for _, node := range m.nodes {
		if !m.matchesLocked(node, subject, grade, scope) {
			continue
		}
		if !matchesAnyKeyword(node, keywords) {
			continue
		}
		importance := node.Importance
		if importance <= 0 {
			importance = 1
		}
		results = append(results, domain.SearchResult{
			NodeID:     node.ID,
			Name:       node.Name,
			Score:      importance,
			GraphScore: importance,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].NodeID < results[j].NodeID
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// FetchNodeWithNeighborhood returns a node plus its relations up to depth
// hops.
func (m *MemoryStore) FetchNodeWithNeighborhood(ctx context.Context, id string, depth int) (*domain.KnowledgeNode, []domain.Relation, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	node, ok := m.nodes[id]
	if !ok {
		return nil, nil, fmt.Errorf("node not found: %s", id)
	}
	if depth <= 0 {
		depth = 1
	}

	var relations []domain.Relation
	visited := map[string]struct{}{id: {}}
	frontier := []string{id}
	for hop := 0; hop < depth && len(frontier) > 0; hop++ {
		var next []string
		for _, current := range frontier {
			for _, rel := range m.relations[current] {
				relations = append(relations, rel)
				if _, seen := visited[rel.TargetID]; seen {
					continue
				}
				visited[rel.TargetID] = struct{}{}
				next = append(next, rel.TargetID)
			}
		}
		frontier = next
	}

	return &node, relations, nil
}

// FetchPrerequisites returns the prerequisite nodes of a node.
func (m *MemoryStore) FetchPrerequisites(ctx context.Context, id string) ([]domain.KnowledgeNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var prereqs []domain.KnowledgeNode
	for _, rel := range m.relations[id] {
		if rel.Type != RelationPrerequisite {
			continue
		}
		if node, ok := m.nodes[rel.TargetID]; ok {
			prereqs = append(prereqs, node)
		}
	}
	return prereqs, nil
}

func (m *MemoryStore) matchesLocked(node domain.KnowledgeNode, subject, grade, scope string) bool {
	if subject != "" && node.Subject != subject {
		return false
	}
	if grade != "" && node.Grade != grade {
		return false
	}
	// Scoped nodes are only visible within their scope; unscoped nodes are
	// visible everywhere.
	if node.Scope != "" && node.Scope != scope {
		return false
	}
	return true
}

func matchesAnyKeyword(node domain.KnowledgeNode, keywords []string) bool {
	if len(keywords) == 0 {
		return false
	}
	text := strings.ToLower(node.Name + " " + node.Description + " " + node.Content + " " + strings.Join(node.Keywords, " "))
	for _, kw := range keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// graphFile is the on-disk YAML layout for seeding a store.
type graphFile struct {
	Nodes     []domain.KnowledgeNode `yaml:"nodes"`
	Relations []struct {
		Source string `yaml:"source"`
		Type   string `yaml:"type"`
		Target string `yaml:"target"`
	} `yaml:"relations"`
}

// LoadFromFile seeds the store with nodes and relations from a YAML file.
func (m *MemoryStore) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read graph file: %w", err)
	}

	var file graphFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse graph file: %w", err)
	}

	for _, node := range file.Nodes {
		if err := m.AddNode(node); err != nil {
			return fmt.Errorf("invalid node in graph file: %w", err)
		}
	}
	for _, rel := range file.Relations {
		err := m.AddRelation(rel.Source, domain.Relation{
			Type:     rel.Type,
			TargetID: rel.Target,
		})
		if err != nil {
			return fmt.Errorf("invalid relation in graph file: %w", err)
		}
	}
	return nil
}

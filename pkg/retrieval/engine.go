// Package retrieval implements hybrid knowledge retrieval: a vector/keyword
// search path and a graph-structure search path run concurrently, their
// scores are normalized and fused into one ranked list, and the survivors
// are enriched with graph neighborhood content. Every external failure
// degrades rather than aborts.
package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/lessonforge/lesson-plan-agent/pkg/domain"
	"github.com/lessonforge/lesson-plan-agent/pkg/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SearchOptions carries per-call overrides for hybrid search.
type SearchOptions struct {
	MaxResults  int
	SearchDepth int
	ScopeID     string
	// Existing is caller-supplied knowledge context; entries win over
	// retrieved results with the same id.
	Existing []domain.KnowledgeContext
}

// Engine combines the embedding-capable search path and the graph-structure
// search path into one ranked knowledge-context list. Safe for concurrent
// use across runs: all per-call state lives on the stack.
type Engine struct {
	config   domain.RetrievalConfig
	graph    domain.GraphStore
	embedder domain.Embedder
	breaker  *EmbeddingBreaker

	telemetry *observability.Telemetry
	metrics   *observability.Metrics
	logger    observability.Logger
}

// NewEngine creates a hybrid retrieval engine. The embedder may be nil, in
// which case the vector path always falls back to keyword scoring.
func NewEngine(cfg domain.RetrievalConfig, graph domain.GraphStore, embedder domain.Embedder, telemetry *observability.Telemetry) (*Engine, error) {
	if graph == nil {
		return nil, fmt.Errorf("graph store is required")
	}
	if cfg.VectorWeight < 0 || cfg.VectorWeight > 1 || cfg.GraphWeight < 0 || cfg.GraphWeight > 1 {
		return nil, fmt.Errorf("retrieval weights must be in [0,1]")
	}
	if cfg.VectorWeight+cfg.GraphWeight <= 0 {
		return nil, fmt.Errorf("retrieval weights must sum to a positive value")
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 10
	}
	if cfg.SearchDepth <= 0 {
		cfg.SearchDepth = 2
	}

	e := &Engine{
		config:   cfg,
		graph:    graph,
		embedder: embedder,
		breaker:  NewEmbeddingBreaker(),
		logger:   observability.NewStructuredLogger("retrieval_engine"),
	}

	if telemetry != nil {
		e.telemetry = telemetry
		metrics, err := observability.NewMetrics(telemetry.Meter())
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics: %w", err)
		}
		e.metrics = metrics
	}

	return e, nil
}

// HybridSearch runs both search paths concurrently, fuses their results,
// enriches the survivors, and de-duplicates against caller-supplied context.
// It never fails on external-service errors; the worst case is an empty
// result list.
func (e *Engine) HybridSearch(ctx context.Context, query, subject, grade string, opts SearchOptions) ([]domain.KnowledgeContext, error) {
	if e.telemetry != nil {
		var span trace.Span
		ctx, span = e.telemetry.StartSpan(ctx, "retrieval.hybrid_search",
			trace.WithAttributes(
				attribute.String("subject", subject),
				attribute.String("grade", grade),
				attribute.Int("query.length", len(query)),
			),
		)
		defer span.End()
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = e.config.MaxResults
	}
	depth := opts.SearchDepth
	if depth <= 0 {
		depth = e.config.SearchDepth
	}

	keywords := ExtractKeywords(query)

	// Both paths fan out with failures isolated from each other; a dead
	// graph store must not starve the vector path and vice versa.
	var (
		wg            sync.WaitGroup
		vectorResults []domain.SearchResult
		graphResults  []domain.SearchResult
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		e.instrumentPath(ctx, "vector", func(ctx context.Context) int {
			vectorResults = e.vectorSearch(ctx, query, subject, grade, opts.ScopeID, keywords, maxResults)
			return len(vectorResults)
		})
	}()
	go func() {
		defer wg.Done()
		e.instrumentPath(ctx, "graph", func(ctx context.Context) int {
			graphResults = e.graphSearch(ctx, subject, grade, opts.ScopeID, keywords, maxResults)
			return len(graphResults)
		})
	}()
	wg.Wait()

	fused := fuse(vectorResults, graphResults, e.config.VectorWeight, e.config.GraphWeight)
	if len(fused) > maxResults {
		fused = fused[:maxResults]
	}

	e.logger.Debug(ctx, "Hybrid search fused", map[string]interface{}{
		"vector_results": len(vectorResults),
		"graph_results":  len(graphResults),
		"fused_results":  len(fused),
	})

	contexts := make([]domain.KnowledgeContext, 0, len(fused))
	for _, result := range fused {
		contexts = append(contexts, e.enrich(ctx, result, depth))
	}

	if e.metrics != nil {
		e.metrics.RecordRetrieval(ctx, len(contexts))
	}

	if len(opts.Existing) > 0 {
		contexts = mergeExisting(opts.Existing, contexts)
	}

	return contexts, ctx.Err()
}

// vectorSearch scores all candidate nodes for the subject/grade/scope by
// cosine similarity against the query embedding, falling back to a
// deterministic keyword-overlap formula when embedding is unavailable.
// It never fails: any error degrades to keyword scoring or an empty list.
func (e *Engine) vectorSearch(ctx context.Context, query, subject, grade, scope string, keywords []string, limit int) []domain.SearchResult {
	candidates, err := e.graph.Candidates(ctx, subject, grade, scope)
	if err != nil {
		e.degrade(ctx, "vector", err)
		return nil
	}
	if len(candidates) == 0 {
		// Nothing to score; skip the embedding service entirely.
		return nil
	}

	var queryVec []float64
	if e.embedder != nil && e.breaker.Allow() {
		queryVec, err = e.embedder.Embed(ctx, query)
		if err != nil {
			e.breaker.RecordFailure()
			e.degrade(ctx, "embedding", err)
			queryVec = nil
		} else {
			e.breaker.RecordSuccess()
		}
	}

	results := make([]domain.SearchResult, 0, len(candidates))
	for _, cand := range candidates {
		var score float64
		if queryVec != nil {
			score = e.similarityScore(ctx, queryVec, cand, keywords)
		} else {
			score = keywordScore(cand, keywords)
		}
		results = append(results, domain.SearchResult{
			NodeID: cand.ID,
			Name:   cand.Name,
			Score:  score,
		})
	}

	sortByScore(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// similarityScore computes cosine similarity between the query embedding and
// the candidate's embedding, computing the candidate's embedding on demand.
// A candidate that cannot be embedded falls back to keyword scoring; only
// that candidate is affected.
func (e *Engine) similarityScore(ctx context.Context, queryVec []float64, cand domain.KnowledgeNode, keywords []string) float64 {
	vec := cand.Embedding
	if len(vec) == 0 {
		v, err := e.embedder.Embed(ctx, embeddingText(cand))
		if err != nil {
			e.breaker.RecordFailure()
			return keywordScore(cand, keywords)
		}
		e.breaker.RecordSuccess()
		vec = v
	}
	return cosineSimilarity(queryVec, vec)
}

// graphSearch queries the graph store for nodes matching the extracted
// keywords, scored by node importance. Any failure yields an empty list.
func (e *Engine) graphSearch(ctx context.Context, subject, grade, scope string, keywords []string, limit int) []domain.SearchResult {
	results, err := e.graph.Query(ctx, subject, grade, keywords, limit, scope)
	if err != nil {
		e.degrade(ctx, "graph", err)
		return nil
	}

	sortByScore(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// enrich fetches the node's full content plus its neighborhood and
// prerequisites and builds a display context. If enrichment fails the
// result degrades to a minimal context instead of being dropped.
func (e *Engine) enrich(ctx context.Context, result domain.SearchResult, depth int) domain.KnowledgeContext {
	node, relations, err := e.graph.FetchNodeWithNeighborhood(ctx, result.NodeID, depth)
	if err != nil || node == nil {
		if err != nil {
			e.degrade(ctx, "enrichment", err)
		}
		return domain.KnowledgeContext{
			ID:        result.NodeID,
			Name:      result.Name,
			Content:   result.Name,
			Relevance: result.Score,
			Source:    "hybrid",
		}
	}

	prereqs, err := e.graph.FetchPrerequisites(ctx, result.NodeID)
	if err != nil {
		e.degrade(ctx, "enrichment", err)
		prereqs = nil
	}

	var b strings.Builder
	b.WriteString(node.Name)
	if node.Description != "" {
		b.WriteString("\n")
		b.WriteString(node.Description)
	}
	if node.Content != "" {
		b.WriteString("\n")
		b.WriteString(node.Content)
	}
	if len(node.Examples) > 0 {
		b.WriteString("\nExamples: ")
		b.WriteString(strings.Join(node.Examples, "; "))
	}
	if related := relatedNames(relations, prereqs); len(related) > 0 {
		b.WriteString("\nRelated: ")
		b.WriteString(strings.Join(related, ", "))
	}
	if len(prereqs) > 0 {
		names := make([]string, len(prereqs))
		for i, p := range prereqs {
			names[i] = p.Name
		}
		b.WriteString("\nPrerequisites: ")
		b.WriteString(strings.Join(names, ", "))
	}

	return domain.KnowledgeContext{
		ID:        node.ID,
		Name:      node.Name,
		Content:   b.String(),
		Relevance: result.Score,
		Source:    "hybrid",
	}
}

// instrumentPath wraps one search path with a span when telemetry is on.
func (e *Engine) instrumentPath(ctx context.Context, path string, fn func(context.Context) int) {
	if e.telemetry == nil {
		fn(ctx)
		return
	}
	e.telemetry.InstrumentRetrievalPath(ctx, path, fn)
}

// relatedNames lists neighbor names from the fetched relations, excluding
// nodes already shown as prerequisites.
func relatedNames(relations []domain.Relation, prereqs []domain.KnowledgeNode) []string {
	if len(relations) == 0 {
		return nil
	}
	skip := make(map[string]struct{}, len(prereqs))
	for _, p := range prereqs {
		skip[p.ID] = struct{}{}
	}
	seen := make(map[string]struct{}, len(relations))
	names := make([]string, 0, len(relations))
	for _, rel := range relations {
		if rel.TargetName == "" {
			continue
		}
		if _, dup := seen[rel.TargetID]; dup {
			continue
		}
		if _, isPrereq := skip[rel.TargetID]; isPrereq {
			continue
		}
		seen[rel.TargetID] = struct{}{}
		names = append(names, rel.TargetName)
	}
	return names
}

func (e *Engine) degrade(ctx context.Context, path string, err error) {
	degraded := &domain.RetrievalError{Path: path, Err: err}
	e.logger.Warn(ctx, "Retrieval path degraded",
		map[string]interface{}{"path": path, "error": degraded.Error()})
	if e.metrics != nil {
		e.metrics.RecordRetrievalDegradation(ctx, path)
	}
}

// keywordScore is the deterministic fallback scoring formula:
// 0.3 + 0.5*(matched/total) + 0.2*(importance/10). Importance defaults to 1
// when absent.
func keywordScore(node domain.KnowledgeNode, keywords []string) float64 {
	var ratio float64
	if len(keywords) > 0 {
		text := node.Name + " " + node.Description + " " + node.Content + " " + strings.Join(node.Keywords, " ")
		ratio = float64(countKeywordMatches(text, keywords)) / float64(len(keywords))
	}
	importance := node.Importance
	if importance <= 0 {
		importance = 1
	}
	return 0.3 + 0.5*ratio + 0.2*(importance/10)
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched lengths or zero vectors score 0.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// normalizeScores min-max normalizes scores into [0,1] in place. When every
// score is equal (including a single-candidate list) all scores normalize
// to 1.0 rather than 0/0.
func normalizeScores(results []domain.SearchResult) {
	if len(results) == 0 {
		return
	}
	minScore, maxScore := results[0].Score, results[0].Score
	for _, r := range results[1:] {
		if r.Score < minScore {
			minScore = r.Score
		}
		if r.Score > maxScore {
			maxScore = r.Score
		}
	}
	if maxScore == minScore {
		for i := range results {
			results[i].Score = 1.0
		}
		return
	}
	span := maxScore - minScore
	for i := range results {
		results[i].Score = (results[i].Score - minScore) / span
	}
}

// fuse normalizes each path independently, then combines them into one
// ranked list via weighted sum keyed by node id. A node present in only one
// path receives that path's weighted score alone.
func fuse(vector, graph []domain.SearchResult, vectorWeight, graphWeight float64) []domain.SearchResult {
	normalizeScores(vector)
	normalizeScores(graph)

	fused := make(map[string]*domain.SearchResult, len(vector)+len(graph))
	for _, v := range vector {
		fused[v.NodeID] = &domain.SearchResult{
			NodeID:      v.NodeID,
			Name:        v.Name,
			VectorScore: v.Score,
			Score:       v.Score * vectorWeight,
		}
	}
	for _, g := range graph {
		if existing, ok := fused[g.NodeID]; ok {
			existing.GraphScore = g.Score
			existing.Score = existing.VectorScore*vectorWeight + g.Score*graphWeight
			continue
		}
		fused[g.NodeID] = &domain.SearchResult{
			NodeID:     g.NodeID,
			Name:       g.Name,
			GraphScore: g.Score,
			Score:      g.Score * graphWeight,
		}
	}

	merged := make([]domain.SearchResult, 0, len(fused))
	for _, r := range fused {
		merged = append(merged, *r)
	}
	sortByScore(merged)
	return merged
}

// mergeExisting de-duplicates retrieved contexts against caller-supplied
// ones by id; caller-supplied entries win and keep their position.
func mergeExisting(existing, retrieved []domain.KnowledgeContext) []domain.KnowledgeContext {
	seen := make(map[string]struct{}, len(existing))
	merged := make([]domain.KnowledgeContext, 0, len(existing)+len(retrieved))
	for _, kc := range existing {
		seen[kc.ID] = struct{}{}
		merged = append(merged, kc)
	}
	for _, kc := range retrieved {
		if _, dup := seen[kc.ID]; dup {
			continue
		}
		merged = append(merged, kc)
	}
	return merged
}

func embeddingText(node domain.KnowledgeNode) string {
	parts := []string{node.Name}
	if node.Description != "" {
		parts = append(parts, node.Description)
	}
	if node.Content != "" {
		parts = append(parts, node.Content)
	}
	return strings.Join(parts, "\n")
}

func sortByScore(results []domain.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].NodeID < results[j].NodeID
	})
}

package retriever

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bentman/JARVISv5/pkg/config"
	"github.com/bentman/JARVISv5/pkg/jarvismodel"
	"github.com/bentman/JARVISv5/pkg/memory"
)

// Retriever ranks and merges context drawn from all three memory layers.
type Retriever struct {
	memory *memory.Manager
	cfg    config.RetrievalConfig
	now    func() time.Time
}

// New constructs a Retriever over an already-open Manager.
func New(m *memory.Manager, cfg config.RetrievalConfig) *Retriever {
	return &Retriever{memory: m, cfg: cfg, now: time.Now}
}

// Retrieve gathers, scores, filters, and ranks context relevant to query
// for taskID. An empty or failing source contributes zero results, never
// an error; query itself must be non-empty, rejected with invalid_argument
// at this boundary rather than silently scoring against nothing. Returns
// an empty slice (never nil) when retrieval is disabled or nothing clears
// the score threshold.
func (r *Retriever) Retrieve(ctx context.Context, taskID, query string) ([]jarvismodel.RetrievalResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, jarvismodel.NewCodedError(jarvismodel.CodeInvalidArgument, "query must be non-empty", nil)
	}
	if !r.cfg.Enabled {
		return []jarvismodel.RetrievalResult{}, nil
	}

	now := r.now().UTC()
	var all []jarvismodel.RetrievalResult

	all = append(all, r.scoreWorkingState(taskID, query)...)
	all = append(all, r.scoreSemantic(ctx, query, now)...)
	all = append(all, r.scoreEpisodic(ctx, taskID, query, now)...)

	filtered := make([]jarvismodel.RetrievalResult, 0, len(all))
	for _, res := range all {
		if res.FinalScore >= r.cfg.MinFinalScoreThreshold {
			filtered = append(filtered, res)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].FinalScore != filtered[j].FinalScore {
			return filtered[i].FinalScore > filtered[j].FinalScore
		}
		if filtered[i].Source != filtered[j].Source {
			return filtered[i].Source < filtered[j].Source
		}
		return contentHash(filtered[i].Content) < contentHash(filtered[j].Content)
	})

	if r.cfg.MaxTotalResults > 0 && len(filtered) > r.cfg.MaxTotalResults {
		filtered = filtered[:r.cfg.MaxTotalResults]
	}
	return filtered, nil
}

// scoreWorkingState scores the working-state transcript as a retrieval
// source. A missing working-state document or a store error both degrade
// to zero results rather than propagating an error.
func (r *Retriever) scoreWorkingState(taskID, query string) []jarvismodel.RetrievalResult {
	doc, err := r.memory.WorkingState(taskID)
	if err != nil || doc == nil {
		return nil
	}

	messages := doc.Messages
	if r.cfg.MaxWorkingStateMessages > 0 && len(messages) > r.cfg.MaxWorkingStateMessages {
		messages = messages[len(messages)-r.cfg.MaxWorkingStateMessages:]
	}

	words := queryWords(query)
	weights := toWeights(r.cfg.WorkingStateWeights)
	n := len(messages)

	out := make([]jarvismodel.RetrievalResult, 0, n)
	for i, msg := range messages {
		relevance := coverageScore(words, msg.Content)
		recency := positionRecency(i, n)
		res, err := jarvismodel.NewRetrievalResult(msg.Content, jarvismodel.SourceWorkingState, relevance, recency, weights, map[string]any{"role": string(msg.Role)})
		if err != nil {
			continue
		}
		out = append(out, res)
	}
	return out
}

// scoreSemantic scores the semantic vector store as a retrieval source:
// relevance is the store's own similarity score, recency is exponential
// decay on the entry's timestamp (0.5 when absent). A search error
// degrades to zero results.
func (r *Retriever) scoreSemantic(ctx context.Context, query string, now time.Time) []jarvismodel.RetrievalResult {
	k := r.cfg.MaxTotalResults
	if k <= 0 {
		k = 10
	}
	hits, err := r.memory.Semantic.SearchText(ctx, query, k)
	if err != nil {
		return nil
	}

	weights := toWeights(r.cfg.SemanticWeights)
	out := make([]jarvismodel.RetrievalResult, 0, len(hits))
	for _, hit := range hits {
		recency := missingTimestampRecency
		if ts, ok := hit.Entry.Timestamp(); ok {
			recency = decayRecency(ts, now, r.cfg.DecayHours)
		}
		res, err := jarvismodel.NewRetrievalResult(hit.Entry.Text, jarvismodel.SourceSemantic, clamp01(hit.Similarity), recency, weights, hit.Entry.Metadata)
		if err != nil {
			continue
		}
		out = append(out, res)
	}
	return out
}

// scoreEpisodic scores the episodic log as a retrieval source: keywords
// longer than 3 characters drive search_decisions; relevance is the
// fraction of those keywords matched in the decision content, recency
// mirrors the semantic source's decay curve. A search error degrades to
// zero results.
func (r *Retriever) scoreEpisodic(ctx context.Context, taskID, query string, now time.Time) []jarvismodel.RetrievalResult {
	keywords := keywordsOf(query)
	if len(keywords) == 0 {
		return nil
	}

	limit := r.cfg.MaxTotalResults
	if limit <= 0 {
		limit = 10
	}

	seen := make(map[int64]jarvismodel.Decision)
	for _, kw := range keywords {
		hits, err := r.memory.Episodic.SearchDecisions(ctx, kw, taskID, limit)
		if err != nil {
			continue
		}
		for _, d := range hits {
			seen[d.ID] = d
		}
	}

	weights := toWeights(r.cfg.EpisodicWeights)
	out := make([]jarvismodel.RetrievalResult, 0, len(seen))
	for _, d := range seen {
		relevance := coverageScore(keywords, d.Content)
		recency := decayRecency(d.Timestamp, now, r.cfg.DecayHours)
		res, err := jarvismodel.NewRetrievalResult(d.Content, jarvismodel.SourceEpisodic, relevance, recency, weights, map[string]any{"action_type": string(d.ActionType)})
		if err != nil {
			continue
		}
		out = append(out, res)
	}
	return out
}

func toWeights(w config.Weights) jarvismodel.ScoreWeights {
	return jarvismodel.ScoreWeights{Relevance: w.Relevance, Recency: w.Recency}
}

package jarvismodel

import "time"

// SemanticEntry is one row of the Semantic Store's metadata table, paired
// with a vector held in the ANN index.
type SemanticEntry struct {
	VectorID int64          `json:"vector_id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
	Vector   []float32      `json:"-"` // never serialized into metadata JSON
}

// Timestamp extracts the entry's recency timestamp from metadata, if
// the caller has stored one there.
func (e SemanticEntry) Timestamp() (time.Time, bool) {
	raw, ok := e.Metadata["timestamp"]
	if !ok {
		return time.Time{}, false
	}
	switch v := raw.(type) {
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	case time.Time:
		return v, true
	default:
		return time.Time{}, false
	}
}

// WorkingStateDoc is the per-task ephemeral JSON document.
type WorkingStateDoc struct {
	TaskID         string    `json:"task_id"`
	Goal           string    `json:"goal"`
	Status         FSMState  `json:"status"`
	CurrentStep    string    `json:"current_step,omitempty"`
	CompletedSteps []string  `json:"completed_steps"`
	NextSteps      []string  `json:"next_steps"`
	Messages       []Message `json:"messages"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// RetrievalSource identifies which store a RetrievalResult came from.
type RetrievalSource string

const (
	SourceWorkingState RetrievalSource = "working_state"
	SourceSemantic     RetrievalSource = "semantic"
	SourceEpisodic     RetrievalSource = "episodic"
)

// RetrievalResult is one ranked unit returned by the Hybrid Retriever.
// FinalScore is always derived, never user-supplied.
type RetrievalResult struct {
	Content       string          `json:"content"`
	Source        RetrievalSource `json:"source"`
	RelevanceScore float64        `json:"relevance_score"`
	RecencyScore   float64        `json:"recency_score"`
	FinalScore     float64        `json:"final_score"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// NewRetrievalResult validates and constructs a RetrievalResult, enforcing
// the [0,1] invariant on all three scores.
func NewRetrievalResult(content string, source RetrievalSource, relevance, recency float64, weights ScoreWeights, meta map[string]any) (RetrievalResult, error) {
	if relevance < 0 || relevance > 1 {
		return RetrievalResult{}, NewCodedError(CodeInvalidArgument, "relevance_score out of [0,1]", nil)
	}
	if recency < 0 || recency > 1 {
		return RetrievalResult{}, NewCodedError(CodeInvalidArgument, "recency_score out of [0,1]", nil)
	}
	final := relevance*weights.Relevance + recency*weights.Recency
	if final < 0 {
		final = 0
	}
	if final > 1 {
		final = 1
	}
	return RetrievalResult{
		Content:        content,
		Source:         source,
		RelevanceScore: relevance,
		RecencyScore:   recency,
		FinalScore:     final,
		Metadata:       meta,
	}, nil
}

// ScoreWeights are the per-source relevance/recency weights used to derive
// FinalScore.
type ScoreWeights struct {
	Relevance float64
	Recency   float64
}

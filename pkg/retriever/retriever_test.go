package retriever

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bentman/JARVISv5/pkg/ann"
	"github.com/bentman/JARVISv5/pkg/config"
	"github.com/bentman/JARVISv5/pkg/embedding"
	"github.com/bentman/JARVISv5/pkg/episodic"
	"github.com/bentman/JARVISv5/pkg/jarvismodel"
	"github.com/bentman/JARVISv5/pkg/memory"
	"github.com/bentman/JARVISv5/pkg/semantic"
	"github.com/bentman/JARVISv5/pkg/workingstate"
)

func newTestManager(t *testing.T) *memory.Manager {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	ep, err := episodic.Open(ctx, filepath.Join(dir, "trace.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ep.Close() })

	ws, err := workingstate.New(filepath.Join(dir, "working_state"), 50)
	require.NoError(t, err)

	sem, err := semantic.Open(ctx, filepath.Join(dir, "metadata.db"), ann.NewFlatIndex(), embedding.NewHashEmbedder(16))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sem.Close() })

	return memory.New(ep, ws, sem)
}

func testConfig() config.RetrievalConfig {
	return config.RetrievalConfig{
		Enabled:                 true,
		MaxWorkingStateMessages: 10,
		MaxTotalResults:         10,
		MinFinalScoreThreshold:  0,
		DecayHours:              24,
		WorkingStateWeights:     config.Weights{Relevance: 0.7, Recency: 0.3},
		SemanticWeights:         config.Weights{Relevance: 0.7, Recency: 0.3},
		EpisodicWeights:         config.Weights{Relevance: 0.6, Recency: 0.4},
	}
}

func TestRetrieve_DisabledReturnsEmpty(t *testing.T) {
	m := newTestManager(t)
	cfg := testConfig()
	cfg.Enabled = false
	r := New(m, cfg)

	results, err := r.Retrieve(context.Background(), "task-1", "status")
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestRetrieve_EmptyQueryIsInvalidArgument(t *testing.T) {
	m := newTestManager(t)
	r := New(m, testConfig())

	_, err := r.Retrieve(context.Background(), "task-1", "   ")
	require.Error(t, err)
	code, ok := jarvismodel.CodeOf(err)
	require.True(t, ok)
	require.Equal(t, jarvismodel.CodeInvalidArgument, code)
}

func TestRetrieve_MergesAllThreeSources(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.AppendMessage("task-1", jarvismodel.RoleUser, "what is the deployment status today?")
	require.NoError(t, err)

	_, err = m.RememberFact(ctx, "the deployment status dashboard lives at status.internal", nil)
	require.NoError(t, err)

	decisionID, err := m.RecordDecision(ctx, "task-1", jarvismodel.ActionTool, "checked deployment status", jarvismodel.StatusOK)
	require.NoError(t, err)
	_, err = m.RecordToolCall(ctx, decisionID, "read_file", `{}`, `{"status":"green"}`)
	require.NoError(t, err)

	r := New(m, testConfig())
	results, err := r.Retrieve(ctx, "task-1", "deployment status")
	require.NoError(t, err)
	require.NotEmpty(t, results)

	sources := map[jarvismodel.RetrievalSource]bool{}
	for _, res := range results {
		sources[res.Source] = true
		require.GreaterOrEqual(t, res.FinalScore, 0.0)
		require.LessOrEqual(t, res.FinalScore, 1.0)
	}
	require.True(t, sources[jarvismodel.SourceWorkingState])
	require.True(t, sources[jarvismodel.SourceSemantic])
	require.True(t, sources[jarvismodel.SourceEpisodic])
}

func TestRetrieve_SortedByFinalScoreDescending(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.AppendMessage("task-1", jarvismodel.RoleUser, "deployment status update")
	require.NoError(t, err)
	_, err = m.AppendMessage("task-1", jarvismodel.RoleAssistant, "unrelated weather forecast")
	require.NoError(t, err)

	r := New(m, testConfig())
	results, err := r.Retrieve(ctx, "task-1", "deployment status update")
	require.NoError(t, err)
	require.NotEmpty(t, results)

	for i := 1; i < len(results); i++ {
		require.LessOrEqual(t, results[i].FinalScore, results[i-1].FinalScore)
	}
}

func TestRetrieve_ThresholdFiltersLowScores(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.AppendMessage("task-1", jarvismodel.RoleUser, "completely unrelated content about gardening")
	require.NoError(t, err)

	cfg := testConfig()
	cfg.MinFinalScoreThreshold = 0.99
	r := New(m, cfg)

	results, err := r.Retrieve(ctx, "task-1", "deployment status")
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestRetrieve_TruncatesToMaxTotalResults(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := m.AppendMessage("task-1", jarvismodel.RoleUser, "deployment status update message")
		require.NoError(t, err)
	}

	cfg := testConfig()
	cfg.MaxTotalResults = 2
	r := New(m, cfg)

	results, err := r.Retrieve(ctx, "task-1", "deployment status update message")
	require.NoError(t, err)
	require.Len(t, results, 2)
}

func TestRetrieve_NoWorkingStateDocReturnsOtherSourcesOnly(t *testing.T) {
	m := newTestManager(t)
	r := New(m, testConfig())

	results, err := r.Retrieve(context.Background(), "never-seen-task", "anything")
	require.NoError(t, err)
	for _, res := range results {
		require.NotEqual(t, jarvismodel.SourceWorkingState, res.Source)
	}
}

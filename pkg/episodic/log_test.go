package episodic

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bentman/JARVISv5/pkg/jarvismodel"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.db")
	client, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestAppendDecision_AssignsMonotoneIDs(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	id1, err := c.AppendDecision(ctx, "task-1", jarvismodel.ActionPlan, "compiled graph", jarvismodel.StatusOK)
	require.NoError(t, err)
	id2, err := c.AppendDecision(ctx, "task-1", jarvismodel.ActionNode, "ran router", jarvismodel.StatusOK)
	require.NoError(t, err)

	require.Greater(t, id2, id1)
}

func TestAppendToolCall_OwnedByDecision(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	decisionID, err := c.AppendDecision(ctx, "task-1", jarvismodel.ActionTool, "invoking read_file", jarvismodel.StatusOK)
	require.NoError(t, err)

	toolCallID, err := c.AppendToolCall(ctx, decisionID, "read_file", `{"path":"a.txt"}`, `{"ok":true}`)
	require.NoError(t, err)
	require.Positive(t, toolCallID)

	results, err := c.SearchToolCalls(ctx, "read_file", "", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, decisionID, results[0].DecisionID)
}

func TestSearchDecisions_CaseInsensitiveSubstring(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	_, err := c.AppendDecision(ctx, "task-1", jarvismodel.ActionPlan, "Compiled WORKFLOW graph", jarvismodel.StatusOK)
	require.NoError(t, err)

	results, err := c.SearchDecisions(ctx, "workflow", "", 20)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestSearchDecisions_OrderedIDDescending(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.AppendDecision(ctx, "task-1", jarvismodel.ActionNode, "step marker", jarvismodel.StatusOK)
		require.NoError(t, err)
	}

	results, err := c.SearchDecisions(ctx, "marker", "", 20)
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.True(t, results[0].ID > results[1].ID && results[1].ID > results[2].ID)
}

func TestSearchDecisions_EmptyQueryRejected(t *testing.T) {
	c := newTestClient(t)
	_, err := c.SearchDecisions(context.Background(), "   ", "", 10)
	require.Error(t, err)
	code, ok := jarvismodel.CodeOf(err)
	require.True(t, ok)
	require.Equal(t, jarvismodel.CodeInvalidArgument, code)
}

func TestSearchDecisions_ScopedByTaskID(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	_, err := c.AppendDecision(ctx, "task-a", jarvismodel.ActionPlan, "alpha decision", jarvismodel.StatusOK)
	require.NoError(t, err)
	_, err = c.AppendDecision(ctx, "task-b", jarvismodel.ActionPlan, "alpha decision", jarvismodel.StatusOK)
	require.NoError(t, err)

	results, err := c.SearchDecisions(ctx, "alpha", "task-a", 20)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "task-a", results[0].TaskID)
}

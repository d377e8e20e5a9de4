package workflow

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bentman/JARVISv5/pkg/jarvismodel"
)

func TestCompile_BaseGraphHasNoToolCall(t *testing.T) {
	g := Compile("hello there", false)

	require.Equal(t, "router", g.Entry)
	_, hasTool := g.Nodes["tool_call"]
	require.False(t, hasTool)

	canon := g.Canonicalize()
	require.Equal(t, []string{"context_builder", "llm_worker", "router", "validator"}, canon.NodeIDs)
}

func TestCompile_WithToolCallInsertsNodeBetweenContextBuilderAndLLMWorker(t *testing.T) {
	g := Compile("read this file", true)

	_, hasTool := g.Nodes["tool_call"]
	require.True(t, hasTool)

	require.True(t, g.Nodes["tool_call"].Inputs["context_builder"])
	require.True(t, g.Nodes["llm_worker"].Inputs["tool_call"])
}

func TestCompile_RecordsIntentOnRouterParams(t *testing.T) {
	g := Compile("please read the file at /tmp/a.txt", false)
	require.Equal(t, "file_ops", g.Nodes["router"].Params["intent"])
}

func TestCompile_DeterministicForSameInput(t *testing.T) {
	g1 := Compile("deploy the service", true)
	g2 := Compile("deploy the service", true)
	require.Equal(t, g1.Canonicalize(), g2.Canonicalize())
}

func TestCompile_EdgesAreSorted(t *testing.T) {
	g := Compile("hello", true)
	canon := g.Canonicalize()
	for i := 1; i < len(canon.Edges); i++ {
		prev, cur := canon.Edges[i-1], canon.Edges[i]
		require.True(t, prev.From < cur.From || (prev.From == cur.From && prev.To <= cur.To))
	}
	require.IsType(t, jarvismodel.CanonicalGraph{}, canon)
}

package nodes

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/bentman/JARVISv5/pkg/cache"
	"github.com/bentman/JARVISv5/pkg/jarvismodel"
	"github.com/bentman/JARVISv5/pkg/sandbox"
	"github.com/bentman/JARVISv5/pkg/tools"
)

func newTestToolExecutor(t *testing.T) *tools.Executor {
	t.Helper()
	box, err := sandbox.New([]string{t.TempDir()}, true, true, true, 1<<20, 1<<20, 100, 100)
	require.NoError(t, err)

	reg := tools.NewRegistry()
	require.NoError(t, reg.Register(tools.ReadFileTool{Box: box}))
	require.NoError(t, reg.Register(tools.WriteFileTool{Box: box}))

	mr := miniredis.RunT(t)
	c := cache.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Second)

	return tools.NewExecutor(reg, c, nil, time.Minute, "v1", 200)
}

func TestToolCall_NoToolNameIsNoop(t *testing.T) {
	tc := ToolCall{NodeID: "tool_call", Executor: newTestToolExecutor(t), AllowWriteSafe: true, AllowExternal: true}
	nc := &Context{TaskID: "task-1"}
	tc.Execute(context.Background(), nc)

	require.False(t, nc.Failed())
	require.Empty(t, nc.ToolResult)
}

func TestToolCall_DispatchesAndRecordsResult(t *testing.T) {
	exec := newTestToolExecutor(t)
	writeResult := exec.Execute(context.Background(), "task-1", "write_file", map[string]any{"path": "a.txt", "content": "hi"}, true, false)
	require.False(t, writeResult.IsError)

	tc := ToolCall{NodeID: "tool_call", Executor: exec, AllowWriteSafe: true, AllowExternal: false}
	nc := &Context{TaskID: "task-1", ToolName: "read_file", ToolParams: map[string]any{"path": "a.txt"}}
	tc.Execute(context.Background(), nc)

	require.False(t, nc.Failed())
	require.Equal(t, "hi", nc.ToolResult)
}

func TestToolCall_PermissionDeniedRecordsNodeError(t *testing.T) {
	exec := newTestToolExecutor(t)
	tc := ToolCall{NodeID: "tool_call", Executor: exec, AllowWriteSafe: false, AllowExternal: false}
	nc := &Context{TaskID: "task-1", ToolName: "write_file", ToolParams: map[string]any{"path": "a.txt", "content": "x"}}
	tc.Execute(context.Background(), nc)

	require.True(t, nc.Failed())
	require.Equal(t, jarvismodel.CodePermissionDenied, nc.Err.Code)
}

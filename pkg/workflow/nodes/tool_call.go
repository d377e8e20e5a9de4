package nodes

import (
	"context"

	"github.com/bentman/JARVISv5/pkg/jarvismodel"
	"github.com/bentman/JARVISv5/pkg/tools"
)

// ToolCall dispatches to the Tool Executor. It is a runtime-only DAG
// augmentation: the plan compiler inserts this node between
// context_builder and llm_worker iff the caller supplied a tool call for
// this turn. WRITE_SAFE tools and external calls remain deny-by-default —
// AllowWriteSafe and AllowExternal must be raised explicitly by
// configuration, never by a node itself.
type ToolCall struct {
	NodeID         string
	Executor       *tools.Executor
	AllowWriteSafe bool
	AllowExternal  bool
}

func (t ToolCall) ID() string                 { return t.NodeID }
func (t ToolCall) Type() jarvismodel.NodeType { return jarvismodel.NodeToolCall }

func (t ToolCall) Execute(ctx context.Context, nc *Context) {
	if nc.ToolName == "" {
		return
	}

	result := t.Executor.Execute(ctx, nc.TaskID, nc.ToolName, nc.ToolParams, t.AllowWriteSafe, t.AllowExternal)
	if result.IsError {
		nc.Fail(result.ErrorCode, "tool call "+nc.ToolName+" failed")
		return
	}
	nc.ToolResult = result.Content
}

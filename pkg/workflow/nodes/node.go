// Package nodes implements the workflow node contract:
// router, context_builder, llm_worker, tool_call, and validator. Grounded
// on pkg/agent/controller's per-step ReAct loop (iterating.go, react.go) —
// the "run one step, append to the transcript, never let a step panic the
// whole turn" idiom generalized from a single hand-written loop into a set
// of independently composable nodes the DAG executor schedules.
package nodes

import (
	"context"

	"github.com/bentman/JARVISv5/pkg/jarvismodel"
)

// NodeError is the structured failure a node records on a Context instead
// of returning a Go error: a node never raises, errors become
// {node_error: code, message} on the context.
type NodeError struct {
	Code    jarvismodel.Code
	Message string
}

// Context is the mutable state threaded through one workflow run. Nodes
// are pure with respect to this struct except for well-defined calls into
// the Memory Manager, Cache, or Tool Executor.
type Context struct {
	TaskID    string
	UserInput string

	// Intent is set by the router node.
	Intent string

	// HasToolCall mirrors the caller-supplied flag that drives the
	// tool_call node's runtime DAG augmentation.
	HasToolCall bool
	ToolName    string
	ToolParams  map[string]any

	// Messages is the working-state transcript as loaded/augmented during
	// this run (most-recent-last).
	Messages []jarvismodel.Message

	// ToolResult is tool_call's dispatched result, available to llm_worker
	// when a tool call was requested this turn.
	ToolResult string

	// LLMOutput is llm_worker's post-processed completion.
	LLMOutput string

	// Err is non-nil once any node fails; the executor stops scheduling
	// further nodes once it is set.
	Err *NodeError
}

// Failed reports whether a prior node has already recorded an error.
func (c *Context) Failed() bool { return c.Err != nil }

// Fail records a node error on the context. Nodes call this instead of
// returning a Go error.
func (c *Context) Fail(code jarvismodel.Code, message string) {
	c.Err = &NodeError{Code: code, Message: message}
}

// Node is one workflow step. Execute must never panic or return a Go
// error — failures are recorded via Context.Fail.
type Node interface {
	ID() string
	Type() jarvismodel.NodeType
	Execute(ctx context.Context, nc *Context)
}

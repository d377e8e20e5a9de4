// Package workflow implements the Plan Compiler and DAG Executor.
// Grounded on pkg/agent/orchestrator/runner.go's
// dispatch-then-await step model, generalized from goroutine-based
// sub-agent dispatch to a deterministic, sequential, single-task DAG walk.
package workflow

import (
	"github.com/bentman/JARVISv5/pkg/jarvismodel"
	"github.com/bentman/JARVISv5/pkg/workflow/nodes"
)

// Compile builds the fixed per-turn workflow graph: always
// router -> context_builder -> [tool_call] -> llm_worker -> validator.
// hasToolCall is the only input that changes the topology — the tool_call
// node is inserted between context_builder and llm_worker iff the caller
// requested a tool call this turn.
//
// The compiler derives intent itself, with the same deterministic
// classifier the router node runs, rather than requiring a caller to
// precompute it: this keeps {intent, has_tool_call} as the compiler's
// literal input (intent recorded as the router node's params, for the
// trace) without either duplicating classification logic outside the
// graph or dropping router from its place in the node list.
func Compile(userInput string, hasToolCall bool) *jarvismodel.Graph {
	intent := nodes.ClassifyIntent(userInput)

	g := jarvismodel.NewGraph("router")
	g.AddNode(&jarvismodel.DAGNode{ID: "router", Type: jarvismodel.NodeRouter, Params: map[string]any{"intent": intent}})
	g.AddNode(&jarvismodel.DAGNode{ID: "context_builder", Type: jarvismodel.NodeContextBuilder})
	g.AddEdge("router", "context_builder")

	prev := "context_builder"
	if hasToolCall {
		g.AddNode(&jarvismodel.DAGNode{ID: "tool_call", Type: jarvismodel.NodeToolCall})
		g.AddEdge(prev, "tool_call")
		prev = "tool_call"
	}

	g.AddNode(&jarvismodel.DAGNode{ID: "llm_worker", Type: jarvismodel.NodeLLMWorker})
	g.AddEdge(prev, "llm_worker")

	g.AddNode(&jarvismodel.DAGNode{ID: "validator", Type: jarvismodel.NodeValidator})
	g.AddEdge("llm_worker", "validator")

	return g
}

package workflow

import (
	"context"
	"sort"
	"time"

	"github.com/bentman/JARVISv5/pkg/jarvismodel"
	"github.com/bentman/JARVISv5/pkg/workflow/nodes"
)

// Executor runs a compiled graph node-by-node in topological order,
// emitting a start and an end/error trace event per node.
// A node's error stops further execution; the partial trace is returned
// with a nil Go error and the node error stays on the Context.
type Executor struct {
	registry map[jarvismodel.NodeType]nodes.Node
}

// NewExecutor builds an Executor from a set of node implementations keyed
// by their NodeType. Node ids are matched at run time against whatever the
// Plan Compiler names them, so the same implementation set serves every
// compiled graph.
func NewExecutor(nodeSet ...nodes.Node) *Executor {
	reg := make(map[jarvismodel.NodeType]nodes.Node, len(nodeSet))
	for _, n := range nodeSet {
		reg[n.Type()] = n
	}
	return &Executor{registry: reg}
}

// Run executes g's nodes in topological order (ties broken by node id
// ascending for a deterministic walk), stopping at the first
// node error. controllerState is stamped onto every trace event this call
// produces.
func (e *Executor) Run(ctx context.Context, g *jarvismodel.Graph, nc *nodes.Context, controllerState jarvismodel.FSMState) ([]jarvismodel.TraceEvent, error) {
	order, err := topoSort(g)
	if err != nil {
		return nil, err
	}

	runStart := time.Now()
	var trace []jarvismodel.TraceEvent

	for _, id := range order {
		node := g.Nodes[id]
		impl, ok := e.registry[node.Type]
		if !ok {
			return trace, jarvismodel.NewCodedError(jarvismodel.CodeConfigurationError,
				"no node implementation registered for type "+string(node.Type), nil)
		}

		nodeStart := time.Now()
		trace = append(trace, jarvismodel.TraceEvent{
			TaskID:          nc.TaskID,
			ControllerState: controllerState,
			EventType:       "start",
			NodeID:          id,
			NodeType:        string(node.Type),
			StartOffsetNS:   nodeStart.Sub(runStart).Nanoseconds(),
		})

		impl.Execute(ctx, nc)
		elapsed := time.Since(nodeStart)

		event := jarvismodel.TraceEvent{
			TaskID:          nc.TaskID,
			ControllerState: controllerState,
			EventType:       "end",
			NodeID:          id,
			NodeType:        string(node.Type),
			Success:         !nc.Failed(),
			ElapsedNS:       elapsed.Nanoseconds(),
			StartOffsetNS:   nodeStart.Sub(runStart).Nanoseconds(),
		}
		if nc.Failed() {
			event.EventType = "error"
			event.ErrorPresent = true
			event.ErrorCode = string(nc.Err.Code)
		}
		trace = append(trace, event)

		if nc.Failed() {
			break
		}
	}

	return trace, nil
}

// topoSort computes a topological order over g, breaking ties by node id
// ascending. Returns a cycle_detected CodedError if no valid order exists:
// a cycle is detected and reported before executing any node.
func topoSort(g *jarvismodel.Graph) ([]string, error) {
	remaining := make(map[string]map[string]bool, len(g.Nodes))
	for id, n := range g.Nodes {
		deps := make(map[string]bool, len(n.Inputs))
		for dep := range n.Inputs {
			deps[dep] = true
		}
		remaining[id] = deps
	}

	successors := make(map[string][]string)
	for _, e := range g.Edges {
		successors[e.From] = append(successors[e.From], e.To)
	}

	order := make([]string, 0, len(g.Nodes))
	for len(order) < len(g.Nodes) {
		ready := make([]string, 0)
		for id, deps := range remaining {
			if len(deps) == 0 {
				ready = append(ready, id)
			}
		}
		if len(ready) == 0 {
			return nil, jarvismodel.NewCodedError(jarvismodel.CodeCycleDetected, "cycle detected in workflow graph", nil)
		}
		sort.Strings(ready)
		next := ready[0]
		order = append(order, next)
		delete(remaining, next)
		for _, succ := range successors[next] {
			if deps, ok := remaining[succ]; ok {
				delete(deps, next)
			}
		}
	}
	return order, nil
}

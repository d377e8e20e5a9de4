// Package controller implements the Controller: the single entry point
// that advances a task through
// INIT -> PLAN -> EXECUTE -> VALIDATE -> COMMIT -> ARCHIVE, with any
// non-terminal state able to fall to FAILED. Grounded on
// pkg/agent/orchestrator/runner.go's dispatch-then-await step model,
// generalized from a goroutine-per-subagent dispatcher to a sequential,
// single-task state machine that owns its own FSM instead of delegating to
// an external queue.
package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/bentman/JARVISv5/pkg/archive"
	"github.com/bentman/JARVISv5/pkg/cache"
	"github.com/bentman/JARVISv5/pkg/config"
	"github.com/bentman/JARVISv5/pkg/jarvismodel"
	"github.com/bentman/JARVISv5/pkg/llm"
	"github.com/bentman/JARVISv5/pkg/memory"
	"github.com/bentman/JARVISv5/pkg/retriever"
	"github.com/bentman/JARVISv5/pkg/tools"
	"github.com/bentman/JARVISv5/pkg/workflow"
	"github.com/bentman/JARVISv5/pkg/workflow/nodes"
)

// legalTransitions enumerates every non-FAILED edge in the FSM. Any
// non-terminal state may additionally transition to FAILED; that edge is
// checked separately in transition rather than listed here, since every
// non-terminal state allows it.
var legalTransitions = map[jarvismodel.FSMState]jarvismodel.FSMState{
	jarvismodel.StateInit:     jarvismodel.StatePlan,
	jarvismodel.StatePlan:     jarvismodel.StateExecute,
	jarvismodel.StateExecute:  jarvismodel.StateValidate,
	jarvismodel.StateValidate: jarvismodel.StateCommit,
	jarvismodel.StateCommit:   jarvismodel.StateArchive,
}

// Controller advances tasks through the FSM, compiling and running a
// workflow graph at EXECUTE and persisting decision rows at every
// transition. It keeps an in-memory registry of live/recently-archived
// tasks in a single long-lived process; a task absent from memory is
// recovered from its last archival snapshot so a caller can still address
// it by id across a process restart.
type Controller struct {
	memory   *memory.Manager
	archiver *archive.Store
	executor *workflow.Executor

	mu    sync.Mutex
	tasks map[string]*jarvismodel.Task
}

// New builds a Controller wired with the given capability injections —
// model, embedding, and vector-index are all injected capabilities, never
// constructed internally. allowWriteSafe and allowExternal bound every
// tool_call node this controller runs; passing false, false keeps
// WRITE_SAFE tools and external calls deny-by-default.
func New(
	cfg config.Config,
	mem *memory.Manager,
	archiver *archive.Store,
	generator llm.Generator,
	retr *retriever.Retriever,
	c *cache.Cache,
	toolExecutor *tools.Executor,
	allowWriteSafe, allowExternal bool,
) *Controller {
	nodeSet := []nodes.Node{
		nodes.Router{NodeID: "router"},
		nodes.ContextBuilder{
			NodeID:      "context_builder",
			Memory:      mem,
			Cache:       c,
			Retriever:   retr,
			MaxMessages: cfg.Transcript.MaxMessages,
			CacheTTL:    cfg.Cache.ContextTTL,
		},
		nodes.ToolCall{
			NodeID:         "tool_call",
			Executor:       toolExecutor,
			AllowWriteSafe: allowWriteSafe,
			AllowExternal:  allowExternal,
		},
		nodes.LLMWorker{
			NodeID:    "llm_worker",
			Generator: generator,
			Memory:    mem,
		},
		nodes.Validator{
			NodeID:          "validator",
			MaxOutputChars:  cfg.Validator.MaxOutputChars,
			ForbiddenTokens: cfg.Validator.ForbiddenTokens,
		},
	}

	return &Controller{
		memory:   mem,
		archiver: archiver,
		executor: workflow.NewExecutor(nodeSet...),
		tasks:    make(map[string]*jarvismodel.Task),
	}
}

// RunInput is the single task-submission contract. ToolName/ToolParams
// are an internal extension of that contract: tool_call is inserted into
// the compiled graph iff the caller provides tool-call input, which the
// external submission shape otherwise has no field for. Resolved as an
// Open Question (see DESIGN.md): RunInput grows an optional tool-call
// pair that callers leave zero-valued for plain chat turns, so the public
// {user_input, task_id} surface is unaffected.
type RunInput struct {
	UserInput  string
	TaskID     string
	ToolName   string
	ToolParams map[string]any
	Deadline   *time.Time
}

// RunResult is the `run` return contract.
type RunResult struct {
	TaskID     string
	FinalState jarvismodel.FSMState
	LLMOutput  string
	Trace      []jarvismodel.TraceEvent
}

// Run advances one turn of a task through the full FSM, steps 1-6. It
// never returns a Go error for reachable failure modes —
// those land the task in FAILED with a decision row recording the code —
// reserving the error return for conditions that indicate a programmer
// mistake or a broken store: an illegal transition in this code
// (invalid_transition), a cyclic compiled graph (cycle_detected), or a
// failed working-state/decision write or a node type with no registered
// implementation (configuration_error).
func (c *Controller) Run(ctx context.Context, in RunInput) (*RunResult, error) {
	runStart := time.Now()

	task, err := c.resolveTask(in.TaskID, in.UserInput)
	if err != nil {
		return nil, err
	}
	taskID := task.TaskID

	if in.Deadline != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, *in.Deadline)
		defer cancel()
		task.DeadlineAt = in.Deadline
	}

	task.Transcript = append(task.Transcript, jarvismodel.Message{Role: jarvismodel.RoleUser, Content: in.UserInput})
	if _, err := c.memory.AppendMessage(taskID, jarvismodel.RoleUser, in.UserInput); err != nil {
		return nil, jarvismodel.NewCodedError(jarvismodel.CodeConfigurationError, "appending user message: "+err.Error(), nil)
	}

	if err := c.transition(ctx, task, jarvismodel.StateInit, jarvismodel.StatePlan, "compiling workflow graph"); err != nil {
		return nil, err
	}

	if deadlineExceeded(ctx) {
		return c.fail(task, jarvismodel.CodeDeadlineExceeded, "deadline exceeded before EXECUTE", runStart)
	}

	graph := workflow.Compile(in.UserInput, in.ToolName != "")

	if err := c.transition(ctx, task, jarvismodel.StatePlan, jarvismodel.StateExecute, "running workflow graph"); err != nil {
		return nil, err
	}

	nc := &nodes.Context{
		TaskID:      taskID,
		UserInput:   in.UserInput,
		HasToolCall: in.ToolName != "",
		ToolName:    in.ToolName,
		ToolParams:  in.ToolParams,
	}

	nodeTrace, err := c.executor.Run(ctx, graph, nc, jarvismodel.StateExecute)
	if err != nil {
		return nil, err
	}
	task.Trace = append(task.Trace, nodeTrace...)

	if nc.ToolName != "" {
		c.recordToolCall(ctx, taskID, nc)
	}

	if deadlineExceeded(ctx) {
		return c.fail(task, jarvismodel.CodeDeadlineExceeded, "deadline exceeded during EXECUTE", runStart)
	}

	// EXECUTE -> VALIDATE: the validator already ran as the graph's last
	// node, so this transition evaluates its recorded outcome rather than
	// re-invoking it (see DESIGN.md's Open Question resolution).
	if nc.Failed() {
		if err := c.recordTransition(ctx, task, jarvismodel.StateExecute, jarvismodel.StateFailed,
			fmt.Sprintf("node error: %s: %s", nc.Err.Code, nc.Err.Message), jarvismodel.StatusErr); err != nil {
			return nil, err
		}
		task.State = jarvismodel.StateFailed
		task.FinalOutput = nc.LLMOutput
		c.commitOnly(ctx, task)
		return c.result(task, runStart), nil
	}

	if err := c.transition(ctx, task, jarvismodel.StateExecute, jarvismodel.StateValidate, "validator passed"); err != nil {
		return nil, err
	}

	task.FinalOutput = nc.LLMOutput
	for _, m := range nc.Messages {
		task.Transcript = append(task.Transcript, m)
	}

	if err := c.transition(ctx, task, jarvismodel.StateValidate, jarvismodel.StateCommit, "persisting working state and decisions"); err != nil {
		return nil, err
	}

	if err := c.transition(ctx, task, jarvismodel.StateCommit, jarvismodel.StateArchive, "archiving task snapshot"); err != nil {
		return nil, err
	}
	task.State = jarvismodel.StateArchive
	if c.archiver != nil {
		_ = c.archiver.Write(task) // archival is a transient-degradation concern, never a prerequisite
	}

	return c.result(task, runStart), nil
}

// resolveTask implements step 1: resolve or create the task. A task found
// in a terminal state starts a new turn, resetting per-turn state while
// keeping its transcript and trace, honoring the idempotent-run law.
func (c *Controller) resolveTask(taskID, goal string) (*jarvismodel.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if taskID == "" {
		newID, err := jarvismodel.NewTaskID()
		if err != nil {
			return nil, jarvismodel.NewCodedError(jarvismodel.CodeConfigurationError, "generating task id: "+err.Error(), nil)
		}
		taskID = newID
	}

	if task, ok := c.tasks[taskID]; ok {
		if task.State.Terminal() {
			task.State = jarvismodel.StateInit
			task.Turn++
		}
		return task, nil
	}

	if c.archiver != nil {
		if archived, err := c.archiver.Load(taskID); err == nil && archived != nil {
			archived.State = jarvismodel.StateInit
			archived.Turn++
			c.tasks[taskID] = archived
			return archived, nil
		}
	}

	task := &jarvismodel.Task{
		TaskID:    taskID,
		CreatedAt: time.Now().UTC(),
		Goal:      goal,
		State:     jarvismodel.StateInit,
		Turn:      1,
	}
	c.tasks[taskID] = task
	return task, nil
}

// transition validates and performs a legal FSM edge, recording a decision
// row. content describes the transition for the episodic log.
func (c *Controller) transition(ctx context.Context, task *jarvismodel.Task, from, to jarvismodel.FSMState, content string) error {
	want, ok := legalTransitions[from]
	if !ok || want != to {
		return jarvismodel.NewCodedError(jarvismodel.CodeInvalidTransition,
			fmt.Sprintf("illegal transition %s -> %s", from, to), nil)
	}
	if err := c.recordTransition(ctx, task, from, to, content, jarvismodel.StatusOK); err != nil {
		return err
	}
	task.State = to
	return nil
}

// recordTransition appends one decision row and one trace event for an FSM
// edge. Each transition appends exactly one decision row, recorded under
// the "plan" action type since an FSM edge is itself a planning decision
// rather than a node, tool, validation, or archival outcome.
func (c *Controller) recordTransition(ctx context.Context, task *jarvismodel.Task, from, to jarvismodel.FSMState, content string, status jarvismodel.Status) error {
	if _, err := c.memory.RecordDecision(ctx, task.TaskID, jarvismodel.ActionPlan,
		fmt.Sprintf("%s -> %s: %s", from, to, content), status); err != nil {
		return jarvismodel.NewCodedError(jarvismodel.CodeConfigurationError, "recording decision row: "+err.Error(), nil)
	}
	task.Trace = append(task.Trace, jarvismodel.TraceEvent{
		TaskID:          task.TaskID,
		ControllerState: to,
		EventType:       "transition",
		Success:         status == jarvismodel.StatusOK,
	})
	return nil
}

// recordToolCall appends the episodic tool_calls row owned by a fresh
// decision row, once a tool_call node has run.
func (c *Controller) recordToolCall(ctx context.Context, taskID string, nc *nodes.Context) {
	status := jarvismodel.StatusOK
	resultJSON := nc.ToolResult
	if nc.Failed() {
		status = jarvismodel.StatusErr
		resultJSON = string(nc.Err.Code)
	}
	decisionID, err := c.memory.RecordDecision(ctx, taskID, jarvismodel.ActionTool, "tool_call: "+nc.ToolName, status)
	if err != nil {
		return // episodic write failures never block task progress
	}
	_, _ = c.memory.RecordToolCall(ctx, decisionID, nc.ToolName, paramsToJSON(nc.ToolParams), resultJSON)
}

// commitOnly persists the failed task's decision/trace rows without
// archiving it: a failed task still commits its persisted trace/decision
// rows but never reaches ARCHIVE.
func (c *Controller) commitOnly(ctx context.Context, task *jarvismodel.Task) {
	_, _ = c.memory.RecordDecision(ctx, task.TaskID, jarvismodel.ActionError,
		fmt.Sprintf("task failed at turn %d", task.Turn), jarvismodel.StatusErr)
}

// fail lands a task in FAILED outside the normal transition table — used
// for deadline expiry, which can strike at any non-terminal state: once
// exceeded, the Controller enters FAILED with deadline_exceeded.
func (c *Controller) fail(task *jarvismodel.Task, code jarvismodel.Code, message string, runStart time.Time) (*RunResult, error) {
	_ = c.recordTransition(context.Background(), task, task.State, jarvismodel.StateFailed,
		fmt.Sprintf("%s: %s", code, message), jarvismodel.StatusErr)
	task.State = jarvismodel.StateFailed
	c.commitOnly(context.Background(), task)
	return c.result(task, runStart), nil
}

// result finalizes a run by appending the latency-baseline trace entry as
// a last trace entry and building the public RunResult.
func (c *Controller) result(task *jarvismodel.Task, runStart time.Time) *RunResult {
	task.Trace = append(task.Trace, jarvismodel.TraceEvent{
		TaskID:          task.TaskID,
		ControllerState: task.State,
		EventType:       "transition",
		NodeType:        "controller_latency_baseline_total_elapsed_ns",
		Success:         true,
		ElapsedNS:       time.Since(runStart).Nanoseconds(),
	})
	return &RunResult{
		TaskID:     task.TaskID,
		FinalState: task.State,
		LLMOutput:  task.FinalOutput,
		Trace:      task.Trace,
	}
}

func deadlineExceeded(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func paramsToJSON(params map[string]any) string {
	if len(params) == 0 {
		return "{}"
	}
	data, err := json.Marshal(params)
	if err != nil {
		return "{}"
	}
	return string(data)
}

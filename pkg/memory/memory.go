// Package memory implements the Memory Manager: a thin
// facade coordinating the Episodic Log, Working State Store, and Semantic
// Store behind a handful of convenience operations, so workflow nodes and
// the controller never reach into a single store directly. Grounded on
// tarsy's pkg/agent/context package, which plays the same "one place that
// knows how to pull from every memory surface" role.
package memory

import (
	"context"

	"github.com/bentman/JARVISv5/pkg/episodic"
	"github.com/bentman/JARVISv5/pkg/jarvismodel"
	"github.com/bentman/JARVISv5/pkg/semantic"
	"github.com/bentman/JARVISv5/pkg/workingstate"
)

// Manager bundles handles to all three memory layers.
type Manager struct {
	Episodic *episodic.Client
	Working  *workingstate.Store
	Semantic *semantic.Store
}

// New constructs a Manager over already-open store handles.
func New(ep *episodic.Client, ws *workingstate.Store, sem *semantic.Store) *Manager {
	return &Manager{Episodic: ep, Working: ws, Semantic: sem}
}

// RecordDecision appends a decision row to the Episodic Log.
func (m *Manager) RecordDecision(ctx context.Context, taskID string, actionType jarvismodel.ActionType, content string, status jarvismodel.Status) (int64, error) {
	return m.Episodic.AppendDecision(ctx, taskID, actionType, content, status)
}

// RecordToolCall appends a tool-call row owned by decisionID.
func (m *Manager) RecordToolCall(ctx context.Context, decisionID int64, toolName, paramsJSON, resultJSON string) (int64, error) {
	return m.Episodic.AppendToolCall(ctx, decisionID, toolName, paramsJSON, resultJSON)
}

// AppendMessage appends one transcript message to a task's working-state
// document, bounded by the transcript cap.
func (m *Manager) AppendMessage(taskID string, role jarvismodel.Role, content string) (*jarvismodel.WorkingStateDoc, error) {
	return m.Working.AppendMessage(taskID, role, content)
}

// RememberFact stores a durable fact in the Semantic Store, to be surfaced
// across future tasks by the Hybrid Retriever.
func (m *Manager) RememberFact(ctx context.Context, text string, metadata map[string]any) (int64, error) {
	return m.Semantic.Add(ctx, text, metadata)
}

// WorkingState loads a task's current working-state document, or nil if it
// has none yet.
func (m *Manager) WorkingState(taskID string) (*jarvismodel.WorkingStateDoc, error) {
	return m.Working.Load(taskID)
}

package episodic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bentman/JARVISv5/pkg/jarvismodel"
)

// AppendDecision inserts one append-only decision row and returns its id.
// Writes serialize on writeMu and fsync before returning (WAL checkpoint on
// commit provides the durability guarantee; the mutex prevents SQLITE_BUSY
// from concurrent Go-side writers racing the single sqlite writer slot).
func (c *Client) AppendDecision(ctx context.Context, taskID string, actionType jarvismodel.ActionType, content string, status jarvismodel.Status) (int64, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	now := time.Now().UTC()
	res, err := c.writeDB.ExecContext(ctx,
		`INSERT INTO decisions (task_id, action_type, content, status, timestamp) VALUES (?, ?, ?, ?, ?)`,
		taskID, string(actionType), content, string(status), now.Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("appending decision: %w", err)
	}
	return res.LastInsertId()
}

// AppendToolCall inserts one append-only tool-call row owned by decisionID
// and returns its id: every tool invocation produces at least one
// tool_calls row plus its owning decision.
func (c *Client) AppendToolCall(ctx context.Context, decisionID int64, toolName, paramsJSON, resultJSON string) (int64, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	now := time.Now().UTC()
	res, err := c.writeDB.ExecContext(ctx,
		`INSERT INTO tool_calls (decision_id, tool_name, params, result, timestamp) VALUES (?, ?, ?, ?, ?)`,
		decisionID, toolName, paramsJSON, resultJSON, now.Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("appending tool call: %w", err)
	}
	return res.LastInsertId()
}

// SearchDecisions performs a parameterized, case-insensitive substring
// match over decision content, optionally scoped to a task, ordered by
// id DESC. An empty/whitespace query is a programmer error surfaced
// immediately rather than silently matching everything.
func (c *Client) SearchDecisions(ctx context.Context, query string, taskID string, limit int) ([]jarvismodel.Decision, error) {
	if strings.TrimSpace(query) == "" {
		return nil, jarvismodel.NewCodedError(jarvismodel.CodeInvalidArgument, "search query must not be empty", nil)
	}
	if limit <= 0 {
		limit = 20
	}

	q := `SELECT id, task_id, action_type, content, status, timestamp FROM decisions WHERE content LIKE ? ESCAPE '\'`
	args := []any{likePattern(query)}
	if taskID != "" {
		q += ` AND task_id = ?`
		args = append(args, taskID)
	}
	q += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := c.readDB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("searching decisions: %w", err)
	}
	defer rows.Close()

	var out []jarvismodel.Decision
	for rows.Next() {
		var d jarvismodel.Decision
		var actionType, status, ts string
		if err := rows.Scan(&d.ID, &d.TaskID, &actionType, &d.Content, &status, &ts); err != nil {
			return nil, fmt.Errorf("scanning decision row: %w", err)
		}
		d.ActionType = jarvismodel.ActionType(actionType)
		d.Status = jarvismodel.Status(status)
		d.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, d)
	}
	return out, rows.Err()
}

// SearchToolCalls performs a parameterized, case-insensitive substring
// match over tool-call params/result, optionally scoped to a task, ordered
// by id DESC.
func (c *Client) SearchToolCalls(ctx context.Context, query string, taskID string, limit int) ([]jarvismodel.ToolCallRecord, error) {
	if strings.TrimSpace(query) == "" {
		return nil, jarvismodel.NewCodedError(jarvismodel.CodeInvalidArgument, "search query must not be empty", nil)
	}
	if limit <= 0 {
		limit = 20
	}

	q := `SELECT tc.id, tc.decision_id, tc.tool_name, tc.params, tc.result, tc.timestamp
	      FROM tool_calls tc WHERE (tc.tool_name LIKE ? ESCAPE '\' OR tc.params LIKE ? ESCAPE '\' OR tc.result LIKE ? ESCAPE '\')`
	pattern := likePattern(query)
	args := []any{pattern, pattern, pattern}
	if taskID != "" {
		q += ` AND tc.decision_id IN (SELECT id FROM decisions WHERE task_id = ?)`
		args = append(args, taskID)
	}
	q += ` ORDER BY tc.id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := c.readDB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("searching tool calls: %w", err)
	}
	defer rows.Close()

	var out []jarvismodel.ToolCallRecord
	for rows.Next() {
		var tc jarvismodel.ToolCallRecord
		var ts string
		if err := rows.Scan(&tc.ID, &tc.DecisionID, &tc.ToolName, &tc.Params, &tc.Result, &ts); err != nil {
			return nil, fmt.Errorf("scanning tool call row: %w", err)
		}
		tc.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, tc)
	}
	return out, rows.Err()
}

// likePattern escapes SQL LIKE metacharacters and wraps query for a
// substring match. Case-insensitivity relies on sqlite's default
// NOCASE-agnostic LIKE behavior for ASCII; callers expecting full Unicode
// case folding should lower-case query themselves beforehand.
func likePattern(query string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(query)
	return "%" + escaped + "%"
}

// Package tools implements the Tool Registry and Executor: schema-validated
// dispatch, permission tiers, and a Privacy Wrapper gating any tool that
// makes an external call. Grounded on tarsy's pkg/mcp/executor.go
// ToolExecutor.Execute, whose "resolve → validate → dispatch → wrap
// result, never a bare Go error" flow this package generalizes from one
// MCP client transport to any in-process Tool implementation (file
// sandbox, future external integrations).
package tools

import (
	"context"
	"sort"

	"github.com/bentman/JARVISv5/pkg/jarvismodel"
)

// PermissionTier classifies how privileged a tool's effects are.
type PermissionTier string

const (
	TierReadOnly  PermissionTier = "READ_ONLY"
	TierWriteSafe PermissionTier = "WRITE_SAFE"
	TierSystem    PermissionTier = "SYSTEM"
)

// Permitted reports whether a tool of tier t may run given the caller's
// allow_write_safe flag. READ_ONLY is permitted by default; WRITE_SAFE is
// deny-by-default unless explicitly allowed; SYSTEM is permanently denied
// at this tier — no combination of allow flags ever unlocks it.
func (t PermissionTier) Permitted(allowWriteSafe bool) bool {
	switch t {
	case TierReadOnly:
		return true
	case TierWriteSafe:
		return allowWriteSafe
	default:
		return false
	}
}

// Field describes one parameter a tool's schema accepts.
type Field struct {
	Name     string
	Type     string
	Required bool
	Default  any
}

// Schema is a tool's declared parameter list. Fields always returns them
// sorted by name, so the registry's schema export is deterministic
// regardless of the order a tool happened to construct them in.
type Schema struct {
	fields []Field
}

// NewSchema builds a Schema from an unordered field list, sorting it by
// field name once up front.
func NewSchema(fields ...Field) Schema {
	sorted := append([]Field(nil), fields...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return Schema{fields: sorted}
}

// Fields returns the schema's fields in sorted (name-ascending) order.
func (s Schema) Fields() []Field { return s.fields }

// Tool is one invocable capability. Implementations validate their own
// params against their schema and never panic; any failure is returned as
// an error, which Execute converts into a wrapped result rather than
// propagating as a bare Go error to the caller.
type Tool interface {
	Name() string
	Tier() PermissionTier
	// External reports whether invoking this tool makes a call outside the
	// process (network, subprocess) — such tools always go through the
	// Privacy Wrapper and are never cached.
	External() bool
	// Schema declares this tool's accepted parameters.
	Schema() Schema
	// Validate checks params against the tool's schema, returning a
	// CodedError (CodeValidationError) describing the first problem found.
	Validate(params map[string]any) error
	Run(ctx context.Context, params map[string]any) (string, error)
}

// Result is the outcome of one tool invocation — always returned, never a
// bare Go error, mirroring tarsy's "return error as content, not as
// Go error" MCP convention. For an external tool call, Content carries the
// unredacted value and RedactedContent carries the Privacy Wrapper's
// scrubbed representation of it.
type Result struct {
	ToolName        string           `json:"tool_name"`
	Content         string           `json:"content"`
	RedactedContent string           `json:"redacted_result_text,omitempty"`
	IsError         bool             `json:"is_error"`
	ErrorCode       jarvismodel.Code `json:"error_code,omitempty"`
	FromCache       bool             `json:"from_cache"`
}

func errorResult(name string, code jarvismodel.Code, message string) Result {
	return Result{ToolName: name, Content: message, IsError: true, ErrorCode: code}
}

package tools

import (
	"context"
	"time"

	"github.com/bentman/JARVISv5/pkg/cache"
	"github.com/bentman/JARVISv5/pkg/jarvismodel"
	"github.com/bentman/JARVISv5/pkg/pii"
)

// Executor dispatches validated tool calls through the Privacy Wrapper and
// cache:
//  1. resolve the tool by name
//  2. validate params against its schema
//  3. check the tool's tier against allow_write_safe (SYSTEM is always
//     denied, regardless of any allow flag)
//  4. for an external tool, check allow_external, then require a
//     configured Privacy Wrapper (redactor) before ever calling it
//  5. for non-external READ_ONLY tools, serve from cache if present
//  6. for external tools, audit the call and attach a redacted copy of the
//     result alongside the unredacted content
//  7. for cacheable, successful calls, populate the cache
type Executor struct {
	registry *Registry
	cache    *cache.Cache
	redactor *pii.Redactor

	cacheTTL     time.Duration
	cacheVersion string
	maxKeyLength int
}

// NewExecutor constructs an Executor. cache may be nil to disable caching
// entirely: the cache itself is optional and fails open.
func NewExecutor(registry *Registry, c *cache.Cache, redactor *pii.Redactor, cacheTTL time.Duration, cacheVersion string, maxKeyLength int) *Executor {
	return &Executor{
		registry:     registry,
		cache:        c,
		redactor:     redactor,
		cacheTTL:     cacheTTL,
		cacheVersion: cacheVersion,
		maxKeyLength: maxKeyLength,
	}
}

// Execute runs one tool call end to end, never returning a bare Go error —
// every outcome, including resolution/validation/permission failures, comes
// back as a Result with IsError and ErrorCode set. allowWriteSafe and
// allowExternal gate WRITE_SAFE tools and external calls respectively; a
// SYSTEM-tier tool is denied no matter what either flag says.
func (e *Executor) Execute(ctx context.Context, taskID, toolName string, params map[string]any, allowWriteSafe, allowExternal bool) Result {
	tool, ok := e.registry.Get(toolName)
	if !ok {
		return errorResult(toolName, jarvismodel.CodeToolNotFound, "tool not found: "+toolName)
	}

	if err := tool.Validate(params); err != nil {
		return errorResult(toolName, jarvismodel.CodeValidationError, err.Error())
	}

	if !tool.Tier().Permitted(allowWriteSafe) {
		e.recordDenial(taskID, toolName)
		return errorResult(toolName, jarvismodel.CodePermissionDenied, "tool requires a permission tier not granted to this request")
	}

	if tool.External() {
		if !allowExternal {
			e.recordDenial(taskID, toolName)
			return errorResult(toolName, jarvismodel.CodePermissionDenied, "external call not permitted for this request")
		}
		if e.redactor == nil {
			return errorResult(toolName, jarvismodel.CodeConfigurationError, "external tool requires a privacy wrapper but none is configured")
		}
	}

	cacheable := e.cache != nil && !tool.External() && tool.Tier() == TierReadOnly
	var cacheKey string
	if cacheable {
		key, err := cache.BuildKey("tool", e.cacheVersion, map[string]any{"tool_name": toolName, "payload": params}, e.maxKeyLength)
		if err == nil {
			cacheKey = key
			var cached Result
			if hit, _ := e.cache.Get(ctx, "tool", cacheKey, &cached); hit {
				cached.FromCache = true
				return cached
			}
		}
	}

	if tool.External() {
		if err := e.redactor.RecordExternalCall(taskID, toolName); err != nil {
			return errorResult(toolName, jarvismodel.CodeExecutionError, "failed to record external call audit event: "+err.Error())
		}
	}

	content, err := tool.Run(ctx, params)
	if err != nil {
		code := jarvismodel.CodeExecutionError
		if c, ok := jarvismodel.CodeOf(err); ok {
			code = c
		}
		return errorResult(toolName, code, err.Error())
	}

	result := Result{ToolName: toolName, Content: content, IsError: false}

	if tool.External() {
		redacted, _, err := e.redactor.Process(ctx, taskID, content, pii.ModePartial)
		if err == nil {
			result.RedactedContent = redacted
		}
	}

	if cacheable && cacheKey != "" {
		e.cache.Set(ctx, "tool", cacheKey, result, e.cacheTTL)
	}

	return result
}

// recordDenial audits a permission_denied outcome when a Privacy Wrapper is
// configured to receive it; with no redactor wired, there is nothing to
// audit into.
func (e *Executor) recordDenial(taskID, toolName string) {
	if e.redactor != nil {
		_ = e.redactor.RecordPermissionDenied(taskID, toolName)
	}
}

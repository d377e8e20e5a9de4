package tools

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
)

func newTestExecutor(t *testing.T) (*Executor, *sandbox.Sandbox) {
	t.Helper()
	box, err := sandbox.New([]string{t.TempDir()}, true, true, true, 1<<20, 1<<20, 100, 100)
	require.NoError(t, err)

	reg := NewRegistry()
	require.NoError(t, reg.Register(ReadFileTool{Box: box}))
	require.NoError(t, reg.Register(WriteFileTool{Box: box}))
	require.NoError(t, reg.Register(ListDirTool{Box: box}))

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := cache.NewWithClient(redisClient, time.Second)

	return NewExecutor(reg, c, nil, time.Minute, "v1", 200), box
}

func TestExecute_ToolNotFound(t *testing.T) {
	exec, _ := newTestExecutor(t)
	result := exec.Execute(context.Background(), "task-1", "nonexistent", nil, true, true)
	require.True(t, result.IsError)
	require.Equal(t, jarvismodel.CodeToolNotFound, result.ErrorCode)
}

func TestExecute_ValidationError(t *testing.T) {
	exec, _ := newTestExecutor(t)
	result := exec.Execute(context.Background(), "task-1", "read_file", map[string]any{}, true, true)
	require.True(t, result.IsError)
	require.Equal(t, jarvismodel.CodeValidationError, result.ErrorCode)
}

func TestExecute_PermissionDenied(t *testing.T) {
	exec, _ := newTestExecutor(t)
	result := exec.Execute(context.Background(), "task-1", "write_file",
		map[string]any{"path": "a.txt", "content": "x"}, false, false)
	require.True(t, result.IsError)
	require.Equal(t, jarvismodel.CodePermissionDenied, result.ErrorCode)
}

func TestExecute_SystemTierToolIsNeverPermitted(t *testing.T) {
	exec, _ := newTestExecutor(t)
	require.NoError(t, exec.registry.Register(systemTierTool{}))

	result := exec.Execute(context.Background(), "task-1", "system_tool", nil, true, true)
	require.True(t, result.IsError)
	require.Equal(t, jarvismodel.CodePermissionDenied, result.ErrorCode)
}

func TestExecute_WriteThenReadSucceeds(t *testing.T) {
	exec, _ := newTestExecutor(t)
	ctx := context.Background()

	writeResult := exec.Execute(ctx, "task-1", "write_file",
		map[string]any{"path": "a.txt", "content": "hello"}, true, false)
	require.False(t, writeResult.IsError)

	readResult := exec.Execute(ctx, "task-1", "read_file", map[string]any{"path": "a.txt"}, false, false)
	require.False(t, readResult.IsError)
	require.Equal(t, "hello", readResult.Content)
}

func TestExecute_InvalidatePatternForcesCacheMissOnNextCall(t *testing.T) {
	box, err := sandbox.New([]string{t.TempDir()}, true, true, true, 1<<20, 1<<20, 100, 100)
	require.NoError(t, err)
	require.NoError(t, box.WriteText("a.txt", "hello"))

	reg := NewRegistry()
	require.NoError(t, reg.Register(ReadFileTool{Box: box}))

	mr := miniredis.RunT(t)
	c := cache.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Second)
	exec := NewExecutor(reg, c, nil, time.Minute, "v1", 200)
	ctx := context.Background()

	first := exec.Execute(ctx, "task-1", "read_file", map[string]any{"path": "a.txt"}, false, false)
	require.False(t, first.FromCache)

	second := exec.Execute(ctx, "task-1", "read_file", map[string]any{"path": "a.txt"}, false, false)
	require.True(t, second.FromCache)

	c.InvalidatePattern(ctx, "tool", "tool:v1:*")

	third := exec.Execute(ctx, "task-1", "read_file", map[string]any{"path": "a.txt"}, false, false)
	require.False(t, third.FromCache)
}

func TestExecute_ReadOnlyToolIsServedFromCacheOnSecondCall(t *testing.T) {
	exec, box := newTestExecutor(t)
	ctx := context.Background()
	require.NoError(t, box.WriteText("a.txt", "hello"))

	first := exec.Execute(ctx, "task-1", "read_file", map[string]any{"path": "a.txt"}, false, false)
	require.False(t, first.IsError)
	require.False(t, first.FromCache)

	second := exec.Execute(ctx, "task-1", "read_file", map[string]any{"path": "a.txt"}, false, false)
	require.False(t, second.IsError)
	require.True(t, second.FromCache)
	require.Equal(t, "hello", second.Content)
}

func TestExecute_ExternalToolWithoutPrivacyWrapperIsConfigurationError(t *testing.T) {
	box, err := sandbox.New([]string{t.TempDir()}, true, true, true, 1<<20, 1<<20, 100, 100)
	require.NoError(t, err)
	reg := NewRegistry()
	require.NoError(t, reg.Register(externalTestTool{}))
	_ = box

	exec := NewExecutor(reg, nil, nil, time.Minute, "v1", 200)
	result := exec.Execute(context.Background(), "task-1", "external_tool", nil, false, true)
	require.True(t, result.IsError)
	require.Equal(t, jarvismodel.CodeConfigurationError, result.ErrorCode)
}

func TestExecute_ExternalToolDeniedWithoutAllowExternal(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(externalTestTool{}))
	exec := NewExecutor(reg, nil, nil, time.Minute, "v1", 200)

	result := exec.Execute(context.Background(), "task-1", "external_tool", nil, false, false)
	require.True(t, result.IsError)
	require.Equal(t, jarvismodel.CodePermissionDenied, result.ErrorCode)
}

type systemTierTool struct{}

func (systemTierTool) Name() string                                       { return "system_tool" }
func (systemTierTool) Tier() PermissionTier                                { return TierSystem }
func (systemTierTool) External() bool                                      { return false }
func (systemTierTool) Schema() Schema                                      { return NewSchema() }
func (systemTierTool) Validate(map[string]any) error                       { return nil }
func (systemTierTool) Run(context.Context, map[string]any) (string, error) { return "ok", nil }

type externalTestTool struct{}

func (externalTestTool) Name() string        { return "external_tool" }
func (externalTestTool) Tier() PermissionTier { return TierReadOnly }
func (externalTestTool) External() bool       { return true }
func (externalTestTool) Schema() Schema       { return NewSchema() }
func (externalTestTool) Validate(map[string]any) error { return nil }
func (externalTestTool) Run(context.Context, map[string]any) (string, error) {
	return "external result", nil
}

package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bentman/JARVISv5/pkg/jarvismodel"
)

type noopTool struct{ name string }

func (n noopTool) Name() string                                       { return n.name }
func (n noopTool) Tier() PermissionTier                                { return TierReadOnly }
func (n noopTool) External() bool                                      { return false }
func (n noopTool) Schema() Schema                                      { return NewSchema() }
func (n noopTool) Validate(map[string]any) error                       { return nil }
func (n noopTool) Run(context.Context, map[string]any) (string, error) { return "ok", nil }

func TestRegistry_RejectsDuplicateName(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(noopTool{name: "a"}))

	err := r.Register(noopTool{name: "a"})
	require.Error(t, err)
	code, ok := jarvismodel.CodeOf(err)
	require.True(t, ok)
	require.Equal(t, jarvismodel.CodeConfigurationError, code)
}

func TestRegistry_GetMissingReturnsFalse(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Get("absent")
	require.False(t, ok)
}

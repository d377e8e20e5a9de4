package pii

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestRedactor(t *testing.T) (*Redactor, *AuditLog) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	audit, err := OpenAuditLog(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = audit.Close() })
	return NewRedactor(true, true, true, audit), audit
}

func TestRedactor_ProcessRedactsAndAudits(t *testing.T) {
	r, _ := newTestRedactor(t)
	out, categories, err := r.Process(context.Background(), "task-1", "reach me at a@example.com", ModeStrict)
	require.NoError(t, err)
	require.Contains(t, categories, CategoryEmail)
	require.NotContains(t, out, "a@example.com")
}

func TestRedactor_DetectionOnlyLeavesTextUnchanged(t *testing.T) {
	r := NewRedactor(true, false, false, nil)
	out, categories, err := r.Process(context.Background(), "task-1", "reach me at a@example.com", ModeStrict)
	require.NoError(t, err)
	require.Contains(t, categories, CategoryEmail)
	require.Contains(t, out, "a@example.com")
}

func TestRedactor_DisabledDetectionIsNoOp(t *testing.T) {
	r := NewRedactor(false, true, true, nil)
	out, categories, err := r.Process(context.Background(), "task-1", "reach me at a@example.com", ModeStrict)
	require.NoError(t, err)
	require.Empty(t, categories)
	require.Equal(t, "reach me at a@example.com", out)
}

func TestRedactor_CleanTextProducesNoCategories(t *testing.T) {
	r, _ := newTestRedactor(t)
	out, categories, err := r.Process(context.Background(), "task-1", "nothing sensitive here", ModeStrict)
	require.NoError(t, err)
	require.Empty(t, categories)
	require.Equal(t, "nothing sensitive here", out)
}

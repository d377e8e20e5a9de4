package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, DebugRelease, cfg.Debug)
	require.True(t, cfg.Cache.Enabled)
	require.Equal(t, 0.5, cfg.Retrieval.MinFinalScoreThreshold)
	require.Equal(t, 0.3, cfg.Retrieval.WorkingStateWeights.Relevance)
}

func TestLoad_DotEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	envContent := "CACHE_ENABLED=false\nDEBUG=dev\nRETRIEVAL_MIN_FINAL_SCORE=0.25\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(envContent), 0o600))

	t.Setenv("CACHE_ENABLED", "")
	os.Unsetenv("CACHE_ENABLED")
	os.Unsetenv("DEBUG")
	os.Unsetenv("RETRIEVAL_MIN_FINAL_SCORE")

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.False(t, cfg.Cache.Enabled)
	require.Equal(t, DebugDev, cfg.Debug)
	require.Equal(t, 0.25, cfg.Retrieval.MinFinalScoreThreshold)
}

func TestLoad_ProcessEnvWinsOverDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DEBUG=dev\n"), 0o600))
	t.Setenv("DEBUG", "release")

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, DebugRelease, cfg.Debug)
}

func TestResolveDebugMode_RejectsArbitraryValues(t *testing.T) {
	t.Setenv("DEBUG", "whatever-the-host-sent")
	require.Equal(t, DebugRelease, resolveDebugMode())
}

func TestGetBool_InvalidValue(t *testing.T) {
	t.Setenv("JARVIS_TEST_BOOL", "maybe")
	_, err := getBool("JARVIS_TEST_BOOL", true)
	require.Error(t, err)
}

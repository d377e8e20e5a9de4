package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Load resolves configuration with process environment taking precedence,
// then a .env file found under dir, then built-in defaults. An optional
// dir/jarvisd.yaml is applied last: the validator, transcript and retrieval
// fields it sets override the values resolved from all three layers.
//
// Mirrors cmd/tarsy/main.go's own sequence (godotenv.Load before reading
// any env var), generalized from a single hard-coded path to an injectable
// directory so tests can point at a fixture .env.
func Load(dir string) (Config, error) {
	envPath := filepath.Join(dir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("could not load .env file", "path", envPath, "error", err)
		}
	} else {
		slog.Info("loaded environment overrides", "path", envPath)
	}

	cfg := defaults()

	cfg.DataDir = getString("DATA_DIR", cfg.DataDir)
	cfg.Debug = resolveDebugMode()

	if err := loadCache(&cfg.Cache); err != nil {
		return Config{}, err
	}
	if err := loadPII(&cfg.PII, cfg.DataDir); err != nil {
		return Config{}, err
	}
	if err := loadRetrieval(&cfg.Retrieval); err != nil {
		return Config{}, err
	}
	loadSandbox(&cfg.Sandbox)

	if err := loadYAMLOverrides(dir, &cfg); err != nil {
		return Config{}, fmt.Errorf("loading yaml overrides: %w", err)
	}

	return cfg, nil
}

// resolveDebugMode accepts "dev" or "release" verbatim; anything else
// (including unset) collapses to the safe default "release" — it must
// never propagate an arbitrary host value.
func resolveDebugMode() DebugMode {
	switch strings.ToLower(strings.TrimSpace(getString("DEBUG", string(DebugRelease)))) {
	case string(DebugDev):
		return DebugDev
	default:
		return DebugRelease
	}
}

func loadCache(c *CacheConfig) error {
	enabled, err := getBool("CACHE_ENABLED", c.Enabled)
	if err != nil {
		return err
	}
	c.Enabled = enabled

	ttl, err := getInt("CACHE_DEFAULT_TTL", int(c.DefaultTTL.Seconds()))
	if err != nil {
		return err
	}
	c.DefaultTTL = secondsToDuration(ttl)

	ctxTTL, err := getInt("CONTEXT_CACHE_TTL_SECONDS", int(c.ContextTTL.Seconds()))
	if err != nil {
		return err
	}
	c.ContextTTL = secondsToDuration(ctxTTL)

	toolTTL, err := getInt("TOOL_CACHE_TTL_SECONDS", int(c.ToolTTL.Seconds()))
	if err != nil {
		return err
	}
	c.ToolTTL = secondsToDuration(toolTTL)

	c.RedisAddr = getString("CACHE_REDIS_ADDR", c.RedisAddr)
	redisDB, err := getInt("CACHE_REDIS_DB", c.RedisDB)
	if err != nil {
		return err
	}
	c.RedisDB = redisDB

	return nil
}

func loadPII(p *PIIConfig, dataDir string) error {
	detect, err := getBool("ENABLE_PII_DETECTION", p.DetectionEnabled)
	if err != nil {
		return err
	}
	p.DetectionEnabled = detect

	redact, err := getBool("ENABLE_PII_REDACTION", p.RedactionEnabled)
	if err != nil {
		return err
	}
	p.RedactionEnabled = redact

	audit, err := getBool("ENABLE_SECURITY_AUDIT", p.AuditEnabled)
	if err != nil {
		return err
	}
	p.AuditEnabled = audit

	if !filepath.IsAbs(p.AuditLogPath) {
		p.AuditLogPath = filepath.Join(dataDir, "logs", "security_audit.jsonl")
	}
	return nil
}

func loadRetrieval(r *RetrievalConfig) error {
	enabled, err := getBool("ENABLE_HYBRID_RETRIEVAL", r.Enabled)
	if err != nil {
		return err
	}
	r.Enabled = enabled

	threshold, err := getFloat01("RETRIEVAL_MIN_FINAL_SCORE", r.MinFinalScoreThreshold)
	if err != nil {
		return err
	}
	r.MinFinalScoreThreshold = threshold

	var werr error
	r.WorkingStateWeights, werr = loadWeights("RETRIEVAL_WORKING", r.WorkingStateWeights)
	if werr != nil {
		return werr
	}
	r.SemanticWeights, werr = loadWeights("RETRIEVAL_SEMANTIC", r.SemanticWeights)
	if werr != nil {
		return werr
	}
	r.EpisodicWeights, werr = loadWeights("RETRIEVAL_EPISODIC", r.EpisodicWeights)
	if werr != nil {
		return werr
	}
	return nil
}

func loadWeights(prefix string, def Weights) (Weights, error) {
	rel, err := getFloat01(fmt.Sprintf("%s_RELEVANCE_WEIGHT", prefix), def.Relevance)
	if err != nil {
		return Weights{}, err
	}
	rec, err := getFloat01(fmt.Sprintf("%s_RECENCY_WEIGHT", prefix), def.Recency)
	if err != nil {
		return Weights{}, err
	}
	return Weights{Relevance: rel, Recency: rec}, nil
}

func loadSandbox(s *SandboxConfig) {
	if v := getString("SANDBOX_ROOTS", ""); v != "" {
		s.AllowedRoots = strings.Split(v, string(os.PathListSeparator))
	}
}

func secondsToDuration(s int) time.Duration { return time.Duration(s) * time.Second }

// Package config resolves all process tunables with process environment
// taking precedence over a .env file, which in turn takes precedence over
// built-in defaults. Mirrors tarsy's one-struct-per-concern layout
// (pkg/config/queue.go, pkg/config/system.go) without the YAML-registry
// machinery tarsy needs for its multi-agent-chain configuration —
// this module has a single fixed pipeline, so a flat set of typed structs
// is enough.
package config

import "time"

// DebugMode is the resolved value of DEBUG: "dev" or "release". Any other
// input collapses to "release" so a misconfigured host can never leak an
// arbitrary string into code paths that branch on it.
type DebugMode string

const (
	DebugDev     DebugMode = "dev"
	DebugRelease DebugMode = "release"
)

// CacheConfig configures pkg/cache.
type CacheConfig struct {
	Enabled           bool
	DefaultTTL        time.Duration
	ContextTTL        time.Duration
	ToolTTL           time.Duration
	KeyVersion        string
	MaxKeyLength      int
	RedisAddr         string
	RedisDB           int
	OperationTimeout  time.Duration
}

// PIIConfig configures pkg/pii.
type PIIConfig struct {
	DetectionEnabled bool
	RedactionEnabled bool
	AuditEnabled     bool
	AuditLogPath     string
}

// RetrievalConfig configures pkg/retriever.
type RetrievalConfig struct {
	Enabled                  bool
	MaxWorkingStateMessages  int
	MaxTotalResults          int
	MinFinalScoreThreshold   float64
	DecayHours               float64
	WorkingStateWeights      Weights
	SemanticWeights          Weights
	EpisodicWeights          Weights
}

// Weights is a (relevance, recency) weight pair for one retrieval source.
type Weights struct {
	Relevance float64
	Recency   float64
}

// SandboxConfig configures pkg/sandbox.
type SandboxConfig struct {
	AllowedRoots   []string
	ReadEnabled    bool
	WriteEnabled   bool
	DeleteEnabled  bool
	MaxReadBytes   int64
	MaxWriteBytes  int64
	MaxListEntries int
	MaxVisited     int
}

// ValidatorConfig configures the `validator` workflow node.
type ValidatorConfig struct {
	MaxOutputChars  int
	ForbiddenTokens []string
}

// TranscriptConfig bounds the working-state transcript.
type TranscriptConfig struct {
	MaxMessages int
}

// Config is the umbrella object returned by Load, bundling every
// component's resolved configuration — tarsy's Config struct
// (pkg/config/config.go) plays the same umbrella role over its registries.
type Config struct {
	DataDir    string
	Debug      DebugMode
	Cache      CacheConfig
	PII        PIIConfig
	Retrieval  RetrievalConfig
	Sandbox    SandboxConfig
	Validator  ValidatorConfig
	Transcript TranscriptConfig
}

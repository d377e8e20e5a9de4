package config

import "time"

// defaultSandboxRoot is used when no SANDBOX_ROOTS is configured.
const defaultSandboxRoot = "./data"

// defaults returns the built-in configuration used when neither the process
// environment nor a .env file supplies a value. Mirrors tarsy's
// pkg/config/queue.go DefaultQueueConfig() idiom of one function returning
// a fully-populated struct literal.
func defaults() Config {
	return Config{
		DataDir: "./data",
		Debug:   DebugRelease,
		Cache: CacheConfig{
			Enabled:          true,
			DefaultTTL:       3600 * time.Second,
			ContextTTL:       3600 * time.Second,
			ToolTTL:          1800 * time.Second,
			KeyVersion:       "v1",
			MaxKeyLength:     240,
			RedisAddr:        "localhost:6379",
			RedisDB:          0,
			OperationTimeout: 2 * time.Second,
		},
		PII: PIIConfig{
			DetectionEnabled: true,
			RedactionEnabled: true,
			AuditEnabled:     true,
			AuditLogPath:     "data/logs/security_audit.jsonl",
		},
		Retrieval: RetrievalConfig{
			Enabled:                 false,
			MaxWorkingStateMessages: 10,
			MaxTotalResults:         10,
			MinFinalScoreThreshold:  0.5,
			DecayHours:              24,
			WorkingStateWeights:     Weights{Relevance: 0.3, Recency: 0.7},
			SemanticWeights:         Weights{Relevance: 0.9, Recency: 0.1},
			EpisodicWeights:         Weights{Relevance: 0.7, Recency: 0.3},
		},
		Sandbox: SandboxConfig{
			AllowedRoots:   []string{defaultSandboxRoot},
			ReadEnabled:    true,
			WriteEnabled:   false,
			DeleteEnabled:  false,
			MaxReadBytes:   1 << 20,  // 1 MiB
			MaxWriteBytes:  1 << 20,
			MaxListEntries: 1000,
			MaxVisited:     20000,
		},
		Validator: ValidatorConfig{
			MaxOutputChars:  8000,
			ForbiddenTokens: []string{"Instruction:", "User:"},
		},
		Transcript: TranscriptConfig{
			MaxMessages: 50,
		},
	}
}

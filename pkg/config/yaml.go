package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// fileOverrides mirrors Config's shape for the subset of settings that are
// more naturally expressed as a structured file than a flat env var —
// the validator settings, the transcript window, and the retrieval
// weights and thresholds — rather
// than forcing every nested field through getString/getInt. Unset fields
// decode to their zero value and are left untouched by the merge below.
type fileOverrides struct {
	Validator  *ValidatorConfig  `yaml:"validator"`
	Transcript *TranscriptConfig `yaml:"transcript"`
	Retrieval  *RetrievalConfig  `yaml:"retrieval"`
}

// loadYAMLOverrides applies dir/jarvisd.yaml on top of cfg, if present.
// A missing file is not an error — env vars and built-in defaults already
// cover every field this file can set.
func loadYAMLOverrides(dir string, cfg *Config) error {
	path := filepath.Join(dir, "jarvisd.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var overrides fileOverrides
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return err
	}

	if overrides.Validator != nil {
		if err := mergo.Merge(&cfg.Validator, *overrides.Validator, mergo.WithOverride); err != nil {
			return err
		}
	}
	if overrides.Transcript != nil {
		if err := mergo.Merge(&cfg.Transcript, *overrides.Transcript, mergo.WithOverride); err != nil {
			return err
		}
	}
	if overrides.Retrieval != nil {
		if err := mergo.Merge(&cfg.Retrieval, *overrides.Retrieval, mergo.WithOverride); err != nil {
			return err
		}
	}

	slog.Info("loaded configuration overrides", "path", path)
	return nil
}

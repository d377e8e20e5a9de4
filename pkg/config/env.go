package config

import (
	"os"
	"strconv"
	"strings"
)

// getString resolves a string value: process environment, falling back to
// def. Because Load (see loader.go) populates the process environment from
// the .env file without overwriting variables already set, a plain
// os.LookupEnv here implements the full "process environment → .env file →
// built-in default" precedence.
func getString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// getBool parses a boolean leniently: 1/true/yes/on and 0/false/no/off,
// case-insensitively.
func getBool(key string, def bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, NewLoadError(key, strconvError("invalid boolean value "+strconv.Quote(v)))
	}
}

// getInt parses an integer env var, falling back to def when unset.
func getInt(key string, def int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, NewLoadError(key, err)
	}
	return n, nil
}

// getFloat01 parses a float env var constrained to [0,1], falling back to
// def when unset.
func getFloat01(key string, def float64) (float64, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, NewLoadError(key, err)
	}
	if f < 0 || f > 1 {
		return 0, NewValidationError(key, v, strconvError("must be within [0,1]"))
	}
	return f, nil
}

type simpleErr string

func (e simpleErr) Error() string { return string(e) }

func strconvError(msg string) error { return simpleErr(msg) }

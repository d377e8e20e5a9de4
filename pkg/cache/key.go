// Package cache implements the Cache: a Redis-backed, fail-open,
// deterministic-key cache for retrieval context and tool results. Grounded
// on evalgo-org-eve's db/repository/redis.go (go-redis/v9 client wrapper,
// JSON-marshal-then-Set/Get idiom).
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// BuildKey derives a deterministic cache key from prefix, a version tag,
// and a set of part values. Parts are canonicalized (object keys sorted,
// compact separators, non-finite floats rejected) before being folded into
// the key, so two logically identical calls always produce the same key
// regardless of map iteration order. When the resulting key would exceed
// maxLength, it collapses to a fixed-width hash form instead of being
// truncated (truncation could silently collide two distinct long keys).
func BuildKey(prefix, version string, parts map[string]any, maxLength int) (string, error) {
	canonical, err := canonicalize(parts)
	if err != nil {
		return "", fmt.Errorf("canonicalizing cache key parts: %w", err)
	}

	key := prefix + ":" + version + ":" + canonical
	if maxLength <= 0 || len(key) <= maxLength {
		return key, nil
	}

	sum := sha256.Sum256([]byte(canonical))
	return prefix + ":" + version + ":h:" + hex.EncodeToString(sum[:]), nil
}

// canonicalize renders parts as compact JSON with object keys sorted
// lexicographically at every level, rejecting non-ASCII text and
// non-finite floats (NaN/Inf have no stable JSON representation).
func canonicalize(v any) (string, error) {
	ordered, err := order(v)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(ordered)
	if err != nil {
		return "", err
	}
	s := string(data)
	if !isASCII(s) {
		return "", fmt.Errorf("cache key part contains non-ASCII text")
	}
	return s, nil
}

func order(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]orderedPair, 0, len(keys))
		for _, k := range keys {
			ov, err := order(val[k])
			if err != nil {
				return nil, err
			}
			out = append(out, orderedPair{Key: k, Value: ov})
		}
		return orderedMap(out), nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			ov, err := order(item)
			if err != nil {
				return nil, err
			}
			out[i] = ov
		}
		return out, nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil, fmt.Errorf("cache key part contains a non-finite number")
		}
		return val, nil
	default:
		return v, nil
	}
}

type orderedPair struct {
	Key   string
	Value any
}

// orderedMap marshals as a JSON object preserving insertion order (already
// sorted by order()), since encoding/json always re-sorts map[string]any
// keys itself — but alphabetically, which is exactly the order we want, so
// this type exists purely to avoid a second, redundant sort pass.
type orderedMap []orderedPair

func (m orderedMap) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, pair := range m {
		if i > 0 {
			b.WriteByte(',')
		}
		keyJSON, err := json.Marshal(pair.Key)
		if err != nil {
			return nil, err
		}
		valJSON, err := json.Marshal(pair.Value)
		if err != nil {
			return nil, err
		}
		b.Write(keyJSON)
		b.WriteByte(':')
		b.Write(valJSON)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}

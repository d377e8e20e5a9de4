// Package retriever implements the Hybrid Retriever: per-
// source relevance/recency scoring, a weighted merge across the Working
// State Store, Semantic Store, and Episodic Log, threshold filtering, and a
// stable final ranking. Grounded on pkg/agent/context, tarsy's
// "assemble context from every memory surface and rank it" package.
package retriever

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strings"
	"time"
)

// queryWords lower-cases and splits query into the words used for coverage
// scoring, trimming surrounding punctuation from each.
func queryWords(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		if w := strings.Trim(f, ".,!?:;\"'()"); w != "" {
			words = append(words, w)
		}
	}
	return words
}

// coverageScore is "count of query words appearing in text (case-folded) ÷
// total query words", capped at 1. Used as the working-state and episodic
// relevance score.
func coverageScore(words []string, text string) float64 {
	if len(words) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	hits := 0
	for _, w := range words {
		if strings.Contains(lower, w) {
			hits++
		}
	}
	return clamp01(float64(hits) / float64(len(words)))
}

// keywordsOf extracts episodic search keywords: words longer than 3
// characters, case-folded.
func keywordsOf(query string) []string {
	out := make([]string, 0)
	for _, w := range queryWords(query) {
		if len(w) > 3 {
			out = append(out, w)
		}
	}
	return out
}

// positionRecency implements the working-state recency curve: newest
// message scores 1.0, oldest scores 0.1, linear in between by distance
// from the oldest message. n is the total message count; position is the
// message's distance from the oldest (0 = oldest).
func positionRecency(position, n int) float64 {
	if n <= 1 {
		return 1
	}
	return clamp01(0.1 + 0.9*(float64(position)/float64(n-1)))
}

// decayRecency is the semantic/episodic recency curve: exponential decay
// clamped to [0.1, 1.0].
func decayRecency(ts, now time.Time, decayHours float64) float64 {
	if decayHours <= 0 {
		return 1
	}
	ageHours := now.Sub(ts).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	v := math.Exp(-ageHours / decayHours)
	if v < 0.1 {
		return 0.1
	}
	if v > 1 {
		return 1
	}
	return v
}

// missingTimestampRecency is the fallback used when a semantic/episodic
// entry carries no timestamp.
const missingTimestampRecency = 0.5

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// contentHash is the stable tie-break key for otherwise-equal-scored
// results, ordered (-final_score, source, content-hash).
func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

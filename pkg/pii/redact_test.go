package pii

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRedact_StrictReplacesWholeMatch(t *testing.T) {
	text := "email me at jane@example.com please"
	matches := Detect(text, Detectors())
	out := Redact(text, matches, ModeStrict)
	require.NotContains(t, out, "jane@example.com")
	require.Contains(t, out, "[REDACTED:email]")
}

func TestRedact_PartialKeepsTrailingDigits(t *testing.T) {
	text := "card 4111111111111111 on file"
	matches := Detect(text, Detectors())
	out := Redact(text, matches, ModePartial)
	require.Contains(t, out, "1111]")
	require.NotContains(t, out, "4111111111111111")
}

func TestRedact_PartialKeepsEmailDomainVisible(t *testing.T) {
	text := "email me at jane@example.com please"
	matches := Detect(text, Detectors())
	out := Redact(text, matches, ModePartial)
	require.Contains(t, out, "[REDACTED_EMAIL]@example.com")
	require.NotContains(t, out, "jane@example.com")
}

func TestRedact_MultipleMatchesPreservesSurroundingText(t *testing.T) {
	text := "contact a@example.com or b@example.com"
	matches := Detect(text, Detectors())
	out := Redact(text, matches, ModeStrict)
	require.Contains(t, out, "contact ")
	require.Contains(t, out, " or ")
}

func TestRedact_NoMatchesReturnsTextUnchanged(t *testing.T) {
	text := "nothing sensitive here"
	out := Redact(text, nil, ModeStrict)
	require.Equal(t, text, out)
}

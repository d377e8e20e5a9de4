package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStubGenerator_FixedResponseTruncatesToMaxTokens(t *testing.T) {
	s := StubGenerator{Response: "hello world"}
	out, err := s.Generate(context.Background(), "ignored", nil, 5)
	require.NoError(t, err)
	require.Equal(t, "hello", out)
}

func TestStubGenerator_DerivedResponseStopsAtStopToken(t *testing.T) {
	s := StubGenerator{}
	out, err := s.Generate(context.Background(), "what is 1+1? User: next question", []string{"User:"}, 1000)
	require.NoError(t, err)
	require.Contains(t, out, "ack: what is 1+1?")
	require.NotContains(t, out, "next question")
}

func TestStubGenerator_DeterministicAcrossCalls(t *testing.T) {
	s := StubGenerator{}
	out1, err := s.Generate(context.Background(), "same prompt", nil, 1000)
	require.NoError(t, err)
	out2, err := s.Generate(context.Background(), "same prompt", nil, 1000)
	require.NoError(t, err)
	require.Equal(t, out1, out2)
}

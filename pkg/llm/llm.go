// Package llm defines the LLM Worker's injected capability boundary: the
// model is an injected capability, not an owned dependency. The
// controller and workflow nodes depend only on this interface; tarsy's
// gRPC-backed Gemini client (pkg/llm/client.go) is replaced
// because the model runtime itself is an external collaborator out of
// this module's scope — what survives is the shape of the contract,
// generalized from a streaming gRPC call to a single synchronous
// capability call.
package llm

import "context"

// Generator produces text completions. Implementations may be a real model
// runtime, a test double, or — as here — a deterministic stub usable in
// unit tests without any external process.
type Generator interface {
	Generate(ctx context.Context, prompt string, stopTokens []string, maxTokens int) (string, error)
}

// StubGenerator is a deterministic Generator for tests and local
// development: it echoes a fixed response (or a template completed with the
// prompt) without calling any external runtime.
type StubGenerator struct {
	// Response, if non-empty, is always returned verbatim.
	Response string
}

// Generate implements Generator. With no fixed Response configured, it
// returns a deterministic completion derived from the prompt so repeated
// calls with the same input are reproducible.
func (s StubGenerator) Generate(_ context.Context, prompt string, stopTokens []string, maxTokens int) (string, error) {
	if s.Response != "" {
		return truncate(s.Response, maxTokens), nil
	}
	out := "ack: " + prompt
	for _, stop := range stopTokens {
		if stop == "" {
			continue
		}
		if idx := indexOf(out, stop); idx >= 0 {
			out = out[:idx]
		}
	}
	return truncate(out, maxTokens), nil
}

func truncate(s string, maxTokens int) string {
	if maxTokens <= 0 || len(s) <= maxTokens {
		return s
	}
	return s[:maxTokens]
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

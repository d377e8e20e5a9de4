package nodes

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/bentman/JARVISv5/pkg/jarvismodel"
)

// Validator gate-keeps the LLM output: empty, over-size, or carrying a
// forbidden token all fail the task.
type Validator struct {
	NodeID          string
	MaxOutputChars  int
	ForbiddenTokens []string
}

func (v Validator) ID() string                 { return v.NodeID }
func (v Validator) Type() jarvismodel.NodeType { return jarvismodel.NodeValidator }

func (v Validator) Execute(_ context.Context, nc *Context) {
	output := strings.TrimSpace(nc.LLMOutput)
	if output == "" {
		nc.Fail(jarvismodel.CodeValidationError, "llm output is empty")
		return
	}
	if v.MaxOutputChars > 0 && utf8.RuneCountInString(output) > v.MaxOutputChars {
		nc.Fail(jarvismodel.CodeValidationError, "llm output exceeds max_output_chars")
		return
	}
	for _, tok := range v.ForbiddenTokens {
		if tok == "" {
			continue
		}
		if strings.Contains(output, tok) {
			nc.Fail(jarvismodel.CodeValidationError, "llm output contains forbidden token")
			return
		}
	}
}

package nodes

import (
	"context"
	"strings"

	"github.com/bentman/JARVISv5/pkg/jarvismodel"
	"github.com/bentman/JARVISv5/pkg/llm"
	"github.com/bentman/JARVISv5/pkg/memory"
)

// defaultStopTokens are the minimum stop sequences applied when a node
// doesn't override them: instruction markers, the next user turn, and
// end-of-turn markers.
var defaultStopTokens = []string{"Instruction:", "User:", "<|endofturn|>"}

// LLMWorker calls the injected Generator with a bounded prompt, post-
// processes the completion, and appends the assistant turn to working
// state.
type LLMWorker struct {
	NodeID     string
	Generator  llm.Generator
	Memory     *memory.Manager
	MaxTokens  int
	StopTokens []string
}

func (w LLMWorker) ID() string                 { return w.NodeID }
func (w LLMWorker) Type() jarvismodel.NodeType { return jarvismodel.NodeLLMWorker }

func (w LLMWorker) Execute(ctx context.Context, nc *Context) {
	prompt := buildPrompt(nc)
	stopTokens := w.StopTokens
	if len(stopTokens) == 0 {
		stopTokens = defaultStopTokens
	}
	maxTokens := w.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 512
	}

	raw, err := w.Generator.Generate(ctx, prompt, stopTokens, maxTokens)
	if err != nil {
		nc.Fail(jarvismodel.CodeExecutionError, "llm generate: "+err.Error())
		return
	}

	output := postProcess(raw, stopTokens)
	nc.LLMOutput = output
	nc.Messages = append(nc.Messages, jarvismodel.Message{Role: jarvismodel.RoleAssistant, Content: output})

	if _, err := w.Memory.AppendMessage(nc.TaskID, jarvismodel.RoleAssistant, output); err != nil {
		nc.Fail(jarvismodel.CodeExecutionError, "appending assistant message: "+err.Error())
	}
}

// buildPrompt renders the transcript plus any tool result into a single
// prompt string for the Generator.
func buildPrompt(nc *Context) string {
	var sb strings.Builder
	for _, m := range nc.Messages {
		sb.WriteString(string(m.Role))
		sb.WriteString(": ")
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	if nc.ToolResult != "" {
		sb.WriteString("Tool Result: ")
		sb.WriteString(nc.ToolResult)
		sb.WriteString("\n")
	}
	sb.WriteString("User: ")
	sb.WriteString(nc.UserInput)
	return sb.String()
}

// postProcess strips any trailing fragment after the first stop token,
// trims whitespace, and applies the "name is <Token>" normalization rule
// used to support name-recall scenarios.
func postProcess(raw string, stopTokens []string) string {
	cut := len(raw)
	for _, tok := range stopTokens {
		if idx := strings.Index(raw, tok); idx >= 0 && idx < cut {
			cut = idx
		}
	}
	trimmed := strings.TrimSpace(raw[:cut])
	return normalizeNameIs(trimmed)
}

// normalizeNameIs rewrites a first line of the form `name is <Token>` (any
// case, optional trailing punctuation) down to just `<Token>`.
func normalizeNameIs(text string) string {
	lines := strings.SplitN(text, "\n", 2)
	first := lines[0]
	lower := strings.ToLower(first)
	const marker = "name is "
	idx := strings.Index(lower, marker)
	if idx < 0 {
		return text
	}
	rest := strings.TrimSpace(first[idx+len(marker):])
	rest = strings.TrimRight(rest, ".!?")
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return text
	}
	return fields[0]
}

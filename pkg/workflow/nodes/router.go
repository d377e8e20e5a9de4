package nodes

import (
	"context"
	"strings"

	"github.com/bentman/JARVISv5/pkg/jarvismodel"
)

// Router classifies user input into a coarse intent tag via a fixed
// keyword-rule classifier — not LLM-driven at this tier.
type Router struct {
	NodeID string
}

func (r Router) ID() string                 { return r.NodeID }
func (r Router) Type() jarvismodel.NodeType { return jarvismodel.NodeRouter }

func (r Router) Execute(_ context.Context, nc *Context) {
	nc.Intent = ClassifyIntent(nc.UserInput)
}

// ClassifyIntent is the deterministic keyword-rule classifier shared by the
// router node and the plan compiler. Rule order
// matters: the first matching category wins.
func ClassifyIntent(userInput string) string {
	lower := strings.ToLower(userInput)
	switch {
	case containsAny(lower, "file", "directory", "folder", "path", "delete ", "read file", "write file"):
		return "file_ops"
	case containsAny(lower, "code", "function", "bug", "compile", "refactor", "implement", "stack trace"):
		return "code"
	case containsAny(lower, "research", "look up", "investigate", "find information", "sources"):
		return "research"
	default:
		return "chat"
	}
}

func containsAny(haystack string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

package nodes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bentman/JARVISv5/pkg/cache"
	"github.com/bentman/JARVISv5/pkg/jarvismodel"
	"github.com/bentman/JARVISv5/pkg/memory"
	"github.com/bentman/JARVISv5/pkg/retriever"
)

const retrievedContentPreviewChars = 500

// cachedContext is the value shape stored under the context_builder cache
// key (task_id, turn).
type cachedContext struct {
	Messages []jarvismodel.Message `json:"messages"`
}

// ContextBuilder loads the working-state transcript and, when a retriever
// is injected, inlines a single Retrieved Context system message.
type ContextBuilder struct {
	NodeID      string
	Memory      *memory.Manager
	Cache       *cache.Cache
	Retriever   *retriever.Retriever
	MaxMessages int
	CacheTTL    time.Duration
}

func (c ContextBuilder) ID() string                 { return c.NodeID }
func (c ContextBuilder) Type() jarvismodel.NodeType { return jarvismodel.NodeContextBuilder }

func (c ContextBuilder) Execute(ctx context.Context, nc *Context) {
	doc, err := c.Memory.WorkingState(nc.TaskID)
	if err != nil {
		nc.Fail(jarvismodel.CodeExecutionError, "loading working state: "+err.Error())
		return
	}

	turn := 0
	if doc != nil {
		turn = countUserTurns(doc.Messages)
	}

	if c.Cache != nil {
		if key, ok := c.cacheKey(nc.TaskID, turn); ok {
			var cached cachedContext
			if hit, _ := c.Cache.Get(ctx, "context", key, &cached); hit {
				nc.Messages = cached.Messages
				return
			}
		}
	}

	var messages []jarvismodel.Message
	if doc != nil {
		messages = doc.Messages
		if c.MaxMessages > 0 && len(messages) > c.MaxMessages {
			messages = messages[len(messages)-c.MaxMessages:]
		}
	}
	nc.Messages = append([]jarvismodel.Message(nil), messages...)

	c.insertRetrievedContext(ctx, nc)

	if c.Cache != nil {
		if key, ok := c.cacheKey(nc.TaskID, turn); ok {
			c.Cache.Set(ctx, "context", key, cachedContext{Messages: nc.Messages}, c.CacheTTL)
		}
	}
}

func (c ContextBuilder) cacheKey(taskID string, turn int) (string, bool) {
	key, err := cache.BuildKey("context_builder", "v1", map[string]any{"task_id": taskID, "turn": turn}, 200)
	if err != nil {
		return "", false
	}
	return key, true
}

// insertRetrievedContext is fail-safe: a missing
// retriever, empty query, retriever error, or empty retrieval all leave
// the context unchanged.
func (c ContextBuilder) insertRetrievedContext(ctx context.Context, nc *Context) {
	if c.Retriever == nil || strings.TrimSpace(nc.UserInput) == "" {
		return
	}
	results, err := c.Retriever.Retrieve(ctx, nc.TaskID, nc.UserInput)
	if err != nil || len(results) == 0 {
		return
	}

	top := results[0]
	content := fmt.Sprintf("Retrieved Context:\n[%s] score=%.3f\n%s",
		top.Source, top.FinalScore, truncateContent(top.Content, retrievedContentPreviewChars))
	msg := jarvismodel.Message{Role: jarvismodel.RoleSystem, Content: content}

	insertAt := 0
	for i, m := range nc.Messages {
		if m.Role == jarvismodel.RoleSystem {
			insertAt = i + 1
			break
		}
	}
	out := make([]jarvismodel.Message, 0, len(nc.Messages)+1)
	out = append(out, nc.Messages[:insertAt]...)
	out = append(out, msg)
	out = append(out, nc.Messages[insertAt:]...)
	nc.Messages = out
}

// countUserTurns counts user messages in a transcript: each turn begins
// with exactly one, so this doubles as the turn counter without requiring
// a dedicated field on WorkingStateDoc.
func countUserTurns(messages []jarvismodel.Message) int {
	n := 0
	for _, m := range messages {
		if m.Role == jarvismodel.RoleUser {
			n++
		}
	}
	return n
}

func truncateContent(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

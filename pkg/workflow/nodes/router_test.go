package nodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRouter_ClassifiesFileOps(t *testing.T) {
	nc := &Context{UserInput: "please read the file at /tmp/a.txt"}
	Router{NodeID: "router"}.Execute(context.Background(), nc)
	require.Equal(t, "file_ops", nc.Intent)
}

func TestRouter_ClassifiesCode(t *testing.T) {
	nc := &Context{UserInput: "there's a bug in this function, can you refactor it?"}
	Router{NodeID: "router"}.Execute(context.Background(), nc)
	require.Equal(t, "code", nc.Intent)
}

func TestRouter_ClassifiesResearch(t *testing.T) {
	nc := &Context{UserInput: "please research the latest papers on this topic"}
	Router{NodeID: "router"}.Execute(context.Background(), nc)
	require.Equal(t, "research", nc.Intent)
}

func TestRouter_DefaultsToChat(t *testing.T) {
	nc := &Context{UserInput: "hello, how are you today?"}
	Router{NodeID: "router"}.Execute(context.Background(), nc)
	require.Equal(t, "chat", nc.Intent)
}

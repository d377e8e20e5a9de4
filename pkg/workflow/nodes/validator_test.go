package nodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bentman/JARVISv5/pkg/jarvismodel"
)

func TestValidator_PassesCleanOutput(t *testing.T) {
	v := Validator{NodeID: "validator", MaxOutputChars: 100, ForbiddenTokens: []string{"Instruction:"}}
	nc := &Context{LLMOutput: "a clean response"}
	v.Execute(context.Background(), nc)
	require.False(t, nc.Failed())
}

func TestValidator_RejectsEmptyOutput(t *testing.T) {
	v := Validator{NodeID: "validator", MaxOutputChars: 100}
	nc := &Context{LLMOutput: "   "}
	v.Execute(context.Background(), nc)
	require.True(t, nc.Failed())
	require.Equal(t, jarvismodel.CodeValidationError, nc.Err.Code)
}

func TestValidator_RejectsOverSizeOutput(t *testing.T) {
	v := Validator{NodeID: "validator", MaxOutputChars: 5}
	nc := &Context{LLMOutput: "this is far too long"}
	v.Execute(context.Background(), nc)
	require.True(t, nc.Failed())
}

func TestValidator_RejectsForbiddenToken(t *testing.T) {
	v := Validator{NodeID: "validator", MaxOutputChars: 100, ForbiddenTokens: []string{"Instruction:"}}
	nc := &Context{LLMOutput: "Instruction: do something else"}
	v.Execute(context.Background(), nc)
	require.True(t, nc.Failed())
}

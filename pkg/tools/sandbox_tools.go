package tools

import (
	"context"
	"fmt"

	"github.com/bentman/JARVISv5/pkg/jarvismodel"
	"github.com/bentman/JARVISv5/pkg/sandbox"
)

// ReadFileTool exposes Sandbox.ReadText as a READ_ONLY, non-external tool.
type ReadFileTool struct {
	Box *sandbox.Sandbox
}

func (t ReadFileTool) Name() string        { return "read_file" }
func (t ReadFileTool) Tier() PermissionTier { return TierReadOnly }
func (t ReadFileTool) External() bool       { return false }

func (t ReadFileTool) Schema() Schema {
	return NewSchema(Field{Name: "path", Type: "string", Required: true})
}

func (t ReadFileTool) Validate(params map[string]any) error {
	return requireStringParam(params, "path")
}

func (t ReadFileTool) Run(ctx context.Context, params map[string]any) (string, error) {
	path, _ := params["path"].(string)
	return t.Box.ReadText(path)
}

// WriteFileTool exposes Sandbox.WriteText as a WRITE_SAFE, non-external
// tool.
type WriteFileTool struct {
	Box *sandbox.Sandbox
}

func (t WriteFileTool) Name() string        { return "write_file" }
func (t WriteFileTool) Tier() PermissionTier { return TierWriteSafe }
func (t WriteFileTool) External() bool       { return false }

func (t WriteFileTool) Schema() Schema {
	return NewSchema(
		Field{Name: "path", Type: "string", Required: true},
		Field{Name: "content", Type: "string", Required: true},
	)
}

func (t WriteFileTool) Validate(params map[string]any) error {
	if err := requireStringParam(params, "path"); err != nil {
		return err
	}
	return requireStringParam(params, "content")
}

func (t WriteFileTool) Run(ctx context.Context, params map[string]any) (string, error) {
	path, _ := params["path"].(string)
	content, _ := params["content"].(string)
	if err := t.Box.WriteText(path, content); err != nil {
		return "", err
	}
	return "wrote " + path, nil
}

// ListDirTool exposes Sandbox.ListDir as a READ_ONLY, non-external,
// cacheable tool.
type ListDirTool struct {
	Box *sandbox.Sandbox
}

func (t ListDirTool) Name() string        { return "list_dir" }
func (t ListDirTool) Tier() PermissionTier { return TierReadOnly }
func (t ListDirTool) External() bool       { return false }

func (t ListDirTool) Schema() Schema {
	return NewSchema(Field{Name: "path", Type: "string", Required: true})
}

func (t ListDirTool) Validate(params map[string]any) error {
	return requireStringParam(params, "path")
}

func (t ListDirTool) Run(ctx context.Context, params map[string]any) (string, error) {
	path, _ := params["path"].(string)
	entries, err := t.Box.ListDir(path)
	if err != nil {
		return "", err
	}
	out := ""
	for _, e := range entries {
		kind := "file"
		if e.IsDir {
			kind = "dir"
		}
		out += fmt.Sprintf("%s\t%s\t%d\n", e.Name, kind, e.Size)
	}
	return out, nil
}

func requireStringParam(params map[string]any, key string) error {
	v, ok := params[key]
	if !ok {
		return jarvismodel.NewCodedError(jarvismodel.CodeValidationError, "missing required parameter: "+key, nil)
	}
	if _, ok := v.(string); !ok {
		return jarvismodel.NewCodedError(jarvismodel.CodeValidationError, "parameter must be a string: "+key, nil)
	}
	return nil
}

package tools

import (
	"fmt"
	"sort"

	"github.com/bentman/JARVISv5/pkg/jarvismodel"
)

// Registry holds every Tool available to a running controller, keyed by
// name.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool, rejecting a duplicate name as a configuration
// error — two tools racing for the same name is a wiring mistake, not a
// runtime condition to tolerate silently.
func (r *Registry) Register(t Tool) error {
	if _, exists := r.tools[t.Name()]; exists {
		return jarvismodel.NewCodedError(jarvismodel.CodeConfigurationError,
			fmt.Sprintf("tool %q already registered", t.Name()), nil)
	}
	r.tools[t.Name()] = t
	return nil
}

// Get looks up a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns every registered tool name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

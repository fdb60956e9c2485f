// Package tools defines the function-calling tools evalbox exposes to LLMs.
package tools

import (
	"context"
	"fmt"
)

// Handler executes a tool call with the decoded JSON arguments.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// Tool is a callable descriptor: the name, description and JSON-schema
// parameters an LLM function-calling API consumes, plus the handler bound to
// whatever configuration the tool was built with.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
	Handler     Handler
}

// Registry holds the tools available to an agent, keyed by name.
type Registry struct {
	tools map[string]Tool
	order []string // registration order, for stable listing
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Names must be unique.
func (r *Registry) Register(t Tool) error {
	if t.Name == "" {
		return fmt.Errorf("tool has no name")
	}
	if t.Handler == nil {
		return fmt.Errorf("tool %s has no handler", t.Name)
	}
	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("tool already registered: %s", t.Name)
	}
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// AllTools returns the registered tools in registration order.
func (r *Registry) AllTools() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// CallTool dispatches a tool call by name.
func (r *Registry) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("unknown tool: %s", name)
	}
	return t.Handler(ctx, args)
}

// HasTools returns true if any tools are registered.
func (r *Registry) HasTools() bool {
	return len(r.tools) > 0
}

// Package tools provides the fixed registry of information tools the
// reasoning loop can call. Tools are total: execution faults surface as
// descriptive result text, never as faults past the loop.
package tools

import (
	"context"
	"sync"
	"time"
)

// Tool is the interface all tools implement.
type Tool interface {
	Name() string
	Description() string
	Spec() *Spec
	Validate(input *Input) error
	Execute(ctx context.Context, input *Input) (*Output, error)
}

// Input contains the arguments for one tool execution, exactly as the
// reasoning engine supplied them.
type Input struct {
	Args map[string]any
}

// Output contains the result of a tool execution. A failed execution
// sets Success false and a human-readable Error; both re-enter the
// conversation as ordinary text.
type Output struct {
	Success  bool
	Output   string
	Error    string
	Duration time.Duration
}

// Text returns the conversational form of the output: the result on
// success, the failure description otherwise.
func (o *Output) Text() string {
	if o.Success {
		return o.Output
	}
	return o.Error
}

// Spec describes a tool for engine function calling.
type Spec struct {
	Name        string
	Description string
	Parameters  map[string]Param
	Required    []string
}

// Param describes a single tool parameter.
type Param struct {
	Type        string
	Description string
	Default     any
}

// Registry manages the available tools.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool to the registry.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// List returns all registered tools.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tools := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		tools = append(tools, t)
	}
	return tools
}

// Specs returns the specs of all registered tools.
func (r *Registry) Specs() []*Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	specs := make([]*Spec, 0, len(r.tools))
	for _, t := range r.tools {
		specs = append(specs, t.Spec())
	}
	return specs
}

// StringArg reads a string argument, with ok=false when missing or of
// the wrong type.
func StringArg(in *Input, key string) (string, bool) {
	v, ok := in.Args[key].(string)
	return v, ok
}

// IntArg reads an integer argument. JSON numbers arrive as float64.
func IntArg(in *Input, key string, def int) int {
	switch v := in.Args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

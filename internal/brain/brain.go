// Package brain defines the reasoning-engine boundary: the interface the
// loop drives and the message/tool-call types that cross it.
package brain

import "context"

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Brain is the reasoning engine. One Think call is one reasoning step:
// the engine either answers in natural language or requests tool calls.
type Brain interface {
	Think(ctx context.Context, req *ThinkRequest) (*ThinkResponse, error)

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error
}

// ThinkRequest carries the full context for one reasoning step.
type ThinkRequest struct {
	SystemPrompt string
	Messages     []Message
	Tools        []ToolSpec
	MaxTokens    int
	Temperature  float64
}

// ThinkResponse is the engine's verdict: tool calls to run, or a final
// answer when ToolCalls is empty.
type ThinkResponse struct {
	Content   string
	ToolCalls []ToolCall
	Usage     TokenUsage
}

// Message is one entry of conversation history. Tool-result messages
// carry the Invocation that produced them.
type Message struct {
	Role       string
	Content    string
	Invocation *ToolInvocation
}

// ToolInvocation links a tool-result message to the engine request that
// caused it. Args are kept so history can be replayed to the backend in
// protocol-valid form.
type ToolInvocation struct {
	CallID  string
	Tool    string
	Args    map[string]any
	IsError bool
}

// ToolCall is a request from the engine to execute one tool.
type ToolCall struct {
	ID   string
	Tool string
	Args map[string]any
}

// ToolSpec describes an available tool to the engine.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]ParameterSpec
	Required    []string
}

// ParameterSpec describes a single tool parameter.
type ParameterSpec struct {
	Type        string
	Description string
	Default     any
}

// TokenUsage tracks backend token consumption.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

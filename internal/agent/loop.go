// Package agent drives the reasoning loop: it feeds conversation
// history to the engine, executes the tool calls the engine requests,
// and repeats until the engine answers or the iteration bound is hit.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/auralab-io/stimme/internal/brain"
	"github.com/auralab-io/stimme/internal/logging"
	"github.com/auralab-io/stimme/internal/metrics"
	"github.com/auralab-io/stimme/internal/persona"
	"github.com/auralab-io/stimme/internal/session"
	"github.com/auralab-io/stimme/internal/tools"
)

const defaultMaxIterations = 10

// Config carries the loop's tunables.
type Config struct {
	MaxIterations int
	MaxTokens     int
	Temperature   float64
}

// Loop runs tool-augmented reasoning turns against a Brain.
type Loop struct {
	brain   brain.Brain
	tools   *tools.Registry
	persona *persona.Persona
	cfg     Config
	log     *logging.Logger
}

// Response is the outcome of one completed turn. Degraded marks answers
// produced despite an engine failure or iteration exhaustion.
type Response struct {
	Content   string
	ToolsUsed []string
	Degraded  bool
	Usage     brain.TokenUsage
}

// New creates a reasoning loop.
func New(b brain.Brain, reg *tools.Registry, p *persona.Persona, cfg Config, log *logging.Logger) *Loop {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = defaultMaxIterations
	}
	if log == nil {
		log = logging.New()
	}
	return &Loop{
		brain:   b,
		tools:   reg,
		persona: p,
		cfg:     cfg,
		log:     log.Component("agent"),
	}
}

// Process runs one conversation turn. The caller holds the session's
// turn lock. On engine failure the session is rolled back to its
// pre-turn state and a degraded answer is returned; Process itself does
// not fail.
func (l *Loop) Process(ctx context.Context, sess *session.Session, userText string) *Response {
	sess.TruncateTurns()
	mark := len(sess.Messages)
	sess.Append(brain.Message{Role: brain.RoleUser, Content: userText})

	systemPrompt := l.persona.Render(persona.Context{
		Language: sess.Language,
		Timezone: sess.Timezone,
	})
	specs := engineSpecs(l.tools)

	resp := &Response{}

	for iter := 0; iter < l.cfg.MaxIterations; iter++ {
		thinkStart := time.Now()
		verdict, err := l.brain.Think(ctx, &brain.ThinkRequest{
			SystemPrompt: systemPrompt,
			Messages:     sess.Messages,
			Tools:        specs,
			MaxTokens:    l.cfg.MaxTokens,
			Temperature:  l.cfg.Temperature,
		})
		metrics.EngineLatency.Observe(time.Since(thinkStart).Seconds())
		if err != nil {
			l.log.Error("reasoning step failed", "identity", sess.Identity, "iteration", iter, "error", err)
			sess.Rollback(mark)
			resp.Content = engineFailureText(sess.Language)
			resp.Degraded = true
			return resp
		}

		resp.Usage.PromptTokens += verdict.Usage.PromptTokens
		resp.Usage.CompletionTokens += verdict.Usage.CompletionTokens
		resp.Usage.TotalTokens += verdict.Usage.TotalTokens

		if len(verdict.ToolCalls) == 0 {
			sess.Append(brain.Message{Role: brain.RoleAssistant, Content: verdict.Content})
			sess.TruncateTurns()
			resp.Content = verdict.Content
			return resp
		}

		l.log.Debug("engine requested tools", "identity", sess.Identity, "iteration", iter, "calls", len(verdict.ToolCalls))
		for _, msg := range l.runToolCalls(ctx, verdict.ToolCalls, resp) {
			sess.Append(msg)
		}
	}

	// Iteration bound reached without a final answer.
	l.log.Warn("iteration bound exhausted", "identity", sess.Identity, "max", l.cfg.MaxIterations)
	content := exhaustionText(sess.Language)
	sess.Append(brain.Message{Role: brain.RoleAssistant, Content: content})
	sess.TruncateTurns()
	resp.Content = content
	resp.Degraded = true
	return resp
}

// runToolCalls executes a batch of tool calls concurrently and returns
// their result messages in the order the engine requested them.
func (l *Loop) runToolCalls(ctx context.Context, calls []brain.ToolCall, resp *Response) []brain.Message {
	results := make([]brain.Message, len(calls))
	done := make(chan int, len(calls))

	for i, call := range calls {
		resp.ToolsUsed = append(resp.ToolsUsed, call.Tool)
		go func(i int, call brain.ToolCall) {
			results[i] = l.runTool(ctx, call)
			done <- i
		}(i, call)
	}
	for range calls {
		<-done
	}
	return results
}

func (l *Loop) runTool(ctx context.Context, call brain.ToolCall) brain.Message {
	invocation := &brain.ToolInvocation{CallID: call.ID, Tool: call.Tool, Args: call.Args}
	msg := brain.Message{Role: brain.RoleTool, Invocation: invocation}

	tool, ok := l.tools.Get(call.Tool)
	if !ok {
		invocation.IsError = true
		msg.Content = fmt.Sprintf("Error: unknown tool %q.", call.Tool)
		metrics.ToolInvocations.WithLabelValues(call.Tool, "unknown").Inc()
		return msg
	}

	input := &tools.Input{Args: call.Args}
	if err := tool.Validate(input); err != nil {
		invocation.IsError = true
		msg.Content = fmt.Sprintf("Error: invalid arguments for %s: %v.", call.Tool, err)
		metrics.ToolInvocations.WithLabelValues(call.Tool, "invalid").Inc()
		return msg
	}

	out, err := tool.Execute(ctx, input)
	switch {
	case err != nil:
		invocation.IsError = true
		msg.Content = fmt.Sprintf("Error: %s failed: %v.", call.Tool, err)
		metrics.ToolInvocations.WithLabelValues(call.Tool, "error").Inc()
		l.log.Warn("tool execution failed", "tool", call.Tool, "error", err)
	case !out.Success:
		invocation.IsError = true
		msg.Content = out.Text()
		metrics.ToolInvocations.WithLabelValues(call.Tool, "error").Inc()
		l.log.Debug("tool reported failure", "tool", call.Tool, "detail", out.Error)
	default:
		msg.Content = out.Text()
		metrics.ToolInvocations.WithLabelValues(call.Tool, "ok").Inc()
		l.log.Debug("tool completed", "tool", call.Tool, "duration", out.Duration)
	}
	return msg
}

func engineSpecs(reg *tools.Registry) []brain.ToolSpec {
	specs := reg.Specs()
	out := make([]brain.ToolSpec, 0, len(specs))
	for _, s := range specs {
		params := make(map[string]brain.ParameterSpec, len(s.Parameters))
		for name, p := range s.Parameters {
			params[name] = brain.ParameterSpec{Type: p.Type, Description: p.Description, Default: p.Default}
		}
		out = append(out, brain.ToolSpec{
			Name:        s.Name,
			Description: s.Description,
			Parameters:  params,
			Required:    s.Required,
		})
	}
	return out
}

func engineFailureText(language string) string {
	if language == "de" {
		return "Entschuldigung, ich habe gerade technische Schwierigkeiten. Bitte versuche es später noch einmal."
	}
	return "Sorry, I'm having technical trouble right now. Please try again in a moment."
}

func exhaustionText(language string) string {
	if language == "de" {
		return "Das konnte ich leider nicht vollständig klären. Magst du die Frage anders formulieren?"
	}
	return "I wasn't able to fully work that out. Could you rephrase the question?"
}

package brain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/auralab-io/stimme/internal/config"
)

// OpenAIBrain talks to any OpenAI-compatible chat completion endpoint
// with function calling (Groq-hosted models by default).
type OpenAIBrain struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewOpenAI builds a brain from engine configuration. The API key is
// resolved by the caller so this package never reads the environment.
func NewOpenAI(cfg config.EngineConfig, apiKey string) (*OpenAIBrain, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("engine API key is empty")
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIBrain{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: float32(cfg.Temperature),
	}, nil
}

// Ping performs a cheap authenticated call against the backend.
func (b *OpenAIBrain) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := b.client.ListModels(ctx); err != nil {
		return fmt.Errorf("engine unreachable: %w", err)
	}
	return nil
}

// Think runs one chat completion over the supplied history and tools.
func (b *OpenAIBrain) Think(ctx context.Context, req *ThinkRequest) (*ThinkResponse, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:       b.model,
		Messages:    convertMessages(req.SystemPrompt, req.Messages),
		MaxTokens:   b.maxTokens,
		Temperature: b.temperature,
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}
	if req.Temperature > 0 {
		chatReq.Temperature = float32(req.Temperature)
	}
	if len(req.Tools) > 0 {
		chatReq.Tools = convertTools(req.Tools)
	}

	resp, err := b.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	choice := resp.Choices[0].Message
	out := &ThinkResponse{
		Content: choice.Content,
		Usage: TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}

	for _, tc := range choice.ToolCalls {
		args := map[string]any{}
		// Malformed arguments surface later as a validation failure on
		// the tool side; the call itself is still reported.
		_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:   tc.ID,
			Tool: tc.Function.Name,
			Args: args,
		})
	}

	return out, nil
}

// convertMessages renders our history into wire messages. Tool results
// stored in session history need a preceding assistant tool_calls
// message to be protocol-valid, so one is synthesized per run of
// consecutive tool messages from their invocation metadata.
func convertMessages(systemPrompt string, msgs []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs)+1)
	if systemPrompt != "" {
		out = append(out, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}

	for i := 0; i < len(msgs); i++ {
		m := msgs[i]
		switch m.Role {
		case RoleTool:
			// Collect the run of tool results starting here.
			j := i
			for j < len(msgs) && msgs[j].Role == RoleTool {
				j++
			}
			group := msgs[i:j]

			calls := make([]openai.ToolCall, 0, len(group))
			for _, tm := range group {
				inv := tm.Invocation
				if inv == nil {
					continue
				}
				rawArgs, _ := json.Marshal(inv.Args)
				calls = append(calls, openai.ToolCall{
					ID:   inv.CallID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      inv.Tool,
						Arguments: string(rawArgs),
					},
				})
			}
			out = append(out, openai.ChatCompletionMessage{
				Role:      openai.ChatMessageRoleAssistant,
				ToolCalls: calls,
			})
			for _, tm := range group {
				wire := openai.ChatCompletionMessage{
					Role:    openai.ChatMessageRoleTool,
					Content: tm.Content,
				}
				if tm.Invocation != nil {
					wire.ToolCallID = tm.Invocation.CallID
				}
				out = append(out, wire)
			}
			i = j - 1

		case RoleSystem:
			out = append(out, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleSystem,
				Content: m.Content,
			})

		case RoleAssistant:
			out = append(out, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: m.Content,
			})

		default:
			out = append(out, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: m.Content,
			})
		}
	}
	return out
}

func convertTools(specs []ToolSpec) []openai.Tool {
	tools := make([]openai.Tool, 0, len(specs))
	for _, spec := range specs {
		props := map[string]any{}
		for name, p := range spec.Parameters {
			prop := map[string]any{"type": p.Type}
			if p.Description != "" {
				prop["description"] = p.Description
			}
			if p.Default != nil {
				prop["default"] = p.Default
			}
			props[name] = prop
		}

		params := map[string]any{
			"type":       "object",
			"properties": props,
		}
		if len(spec.Required) > 0 {
			params["required"] = spec.Required
		}

		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  params,
			},
		})
	}
	return tools
}

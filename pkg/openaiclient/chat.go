package openaiclient

import (
	"context"
	"fmt"

	openaisdk "github.com/openai/openai-go"

	contractx "github.com/ktios/frontdesk/agent/contract"
)

// ChatAdapter exposes chat completions with function calling through the
// model contract.
type ChatAdapter struct {
	client      *openaisdk.Client
	model       string
	temperature float64
}

var _ contractx.ChatModel = (*ChatAdapter)(nil)

func NewChatAdapter(client *openaisdk.Client, cfg Config) (*ChatAdapter, error) {
	if client == nil {
		return nil, fmt.Errorf("openaiclient: client is required")
	}
	return &ChatAdapter{
		client:      client,
		model:       cfg.ChatModel,
		temperature: cfg.Temperature,
	}, nil
}

func (a *ChatAdapter) Complete(ctx context.Context, transcript []contractx.Message, tools []contractx.ToolDefinition) (contractx.ModelResponse, error) {
	params := openaisdk.ChatCompletionNewParams{
		Model:       openaisdk.ChatModel(a.model),
		Messages:    toMessageParams(transcript),
		Temperature: openaisdk.Float(a.temperature),
	}
	if len(tools) > 0 {
		params.Tools = toToolParams(tools)
	}

	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return contractx.ModelResponse{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return contractx.ModelResponse{}, fmt.Errorf("chat completion: empty choices")
	}

	choice := resp.Choices[0]
	out := contractx.ModelResponse{
		Content:      choice.Message.Content,
		FinishReason: choice.FinishReason,
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, contractx.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}

func toMessageParams(transcript []contractx.Message) []openaisdk.ChatCompletionMessageParamUnion {
	out := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(transcript))
	for _, m := range transcript {
		switch m.Role {
		case contractx.RoleSystem:
			out = append(out, openaisdk.SystemMessage(m.Content))
		case contractx.RoleUser:
			out = append(out, openaisdk.UserMessage(m.Content))
		case contractx.RoleAssistant:
			if len(m.ToolCalls) == 0 {
				out = append(out, openaisdk.AssistantMessage(m.Content))
				continue
			}
			assistant := openaisdk.ChatCompletionAssistantMessageParam{}
			if m.Content != "" {
				assistant.Content.OfString = openaisdk.String(m.Content)
			}
			for _, tc := range m.ToolCalls {
				assistant.ToolCalls = append(assistant.ToolCalls, openaisdk.ChatCompletionMessageToolCallParam{
					ID: tc.ID,
					Function: openaisdk.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			out = append(out, openaisdk.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		case contractx.RoleTool:
			out = append(out, openaisdk.ToolMessage(m.Content, m.ToolCallID))
		}
	}
	return out
}

func toToolParams(tools []contractx.ToolDefinition) []openaisdk.ChatCompletionToolParam {
	out := make([]openaisdk.ChatCompletionToolParam, 0, len(tools))
	for _, d := range tools {
		out = append(out, openaisdk.ChatCompletionToolParam{
			Function: openaisdk.FunctionDefinitionParam{
				Name:        d.Name,
				Description: openaisdk.String(d.Description),
				Parameters:  openaisdk.FunctionParameters(d.Parameters),
			},
		})
	}
	return out
}

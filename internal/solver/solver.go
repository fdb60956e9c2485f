// Package solver answers natural-language problems by letting an LLM write
// Python and run it in the remote sandbox via the code_exec tool.
package solver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/michaelbrown/evalbox/internal/tools"
)

const defaultSystemPrompt = `You are an assistant that knows how to solve math and computation problems by converting them into Python programs and running them with the code_exec tool. Never compute non-trivial results in your head: write a program, run it, and base your answer on its output.`

const defaultMaxIter = 5

// Solver drives an OpenAI-compatible model with a single tool bound to it.
type Solver struct {
	client       *openai.Client
	model        string
	tool         tools.Tool
	systemPrompt string
	maxIter      int

	// Optional observers for display; both receive the raw strings the
	// model exchanged with the tool.
	OnToolCall   func(code string)
	OnToolResult func(result string)
}

// New creates a Solver talking to an OpenAI-compatible endpoint.
func New(baseURL, apiKey, model string, tool tools.Tool) *Solver {
	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)
	return &Solver{
		client:       &client,
		model:        model,
		tool:         tool,
		systemPrompt: defaultSystemPrompt,
		maxIter:      defaultMaxIter,
	}
}

// SetSystemPrompt overrides the default system prompt.
func (s *Solver) SetSystemPrompt(prompt string) {
	if prompt != "" {
		s.systemPrompt = prompt
	}
}

// Solve runs the tool loop for one problem and returns the model's final
// text answer. Tool results, including tracebacks from broken generated
// code, go back to the model, which decides whether to retry or answer.
func (s *Solver) Solve(ctx context.Context, problem string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(s.systemPrompt),
		openai.UserMessage("Please solve the following problem by creating a Python program that prints the solution to standard output using `print()`: " + problem),
	}

	params := openai.ChatCompletionNewParams{
		Model: s.model,
		Tools: []openai.ChatCompletionToolParam{{
			Function: shared.FunctionDefinitionParam{
				Name:        s.tool.Name,
				Description: param.NewOpt(s.tool.Description),
				Parameters:  shared.FunctionParameters(s.tool.Parameters),
			},
		}},
	}

	for i := 0; i < s.maxIter; i++ {
		params.Messages = messages

		completion, err := s.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("chat completion (iteration %d): %w", i+1, err)
		}
		if len(completion.Choices) == 0 {
			return "", fmt.Errorf("no choices returned")
		}
		msg := completion.Choices[0].Message

		// No tool calls means the model is done
		if len(msg.ToolCalls) == 0 {
			return msg.Content, nil
		}

		messages = append(messages, assistantWithToolCalls(msg))

		for _, tc := range msg.ToolCalls {
			result := s.executeToolCall(ctx, tc.Function.Name, tc.Function.Arguments)
			messages = append(messages, openai.ToolMessage(result, tc.ID))
		}
	}

	return "", fmt.Errorf("solver reached max iterations (%d) without a final answer", s.maxIter)
}

// executeToolCall runs one tool invocation, degrading failures to text the
// model can react to.
func (s *Solver) executeToolCall(ctx context.Context, name, rawArgs string) string {
	if name != s.tool.Name {
		return fmt.Sprintf("error: unknown tool %q", name)
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return fmt.Sprintf("error: invalid tool arguments: %s", err)
	}

	if s.OnToolCall != nil {
		code, _ := args["code"].(string)
		s.OnToolCall(code)
	}

	result, err := s.tool.Handler(ctx, args)
	if err != nil {
		result = fmt.Sprintf("error: %s", err)
	}

	if s.OnToolResult != nil {
		s.OnToolResult(result)
	}
	return result
}

// assistantWithToolCalls converts a response message carrying tool calls back
// into a request param so the transcript stays well-formed.
func assistantWithToolCalls(msg openai.ChatCompletionMessage) openai.ChatCompletionMessageParamUnion {
	toolCalls := make([]openai.ChatCompletionMessageToolCallParam, len(msg.ToolCalls))
	for i, tc := range msg.ToolCalls {
		toolCalls[i] = openai.ChatCompletionMessageToolCallParam{
			ID: tc.ID,
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		}
	}

	assistant := openai.ChatCompletionAssistantMessageParam{
		ToolCalls: toolCalls,
	}
	if msg.Content != "" {
		assistant.Content.OfString = param.NewOpt(msg.Content)
	}

	return openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant}
}

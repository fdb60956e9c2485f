package solver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/michaelbrown/evalbox/internal/evalclient"
	"github.com/michaelbrown/evalbox/internal/tools"
)

// fakeLLM serves canned OpenAI-style chat completion responses in order.
func fakeLLM(t *testing.T, responses []string) (*httptest.Server, *int) {
	t.Helper()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls >= len(responses) {
			t.Errorf("unexpected LLM call #%d", calls+1)
			http.Error(w, "no more responses", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, responses[calls])
		calls++
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func toolCallResponse(code string) string {
	args, _ := json.Marshal(map[string]string{"code": code})
	quoted, _ := json.Marshal(string(args))
	return fmt.Sprintf(`{
		"id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "test",
		"choices": [{
			"index": 0, "finish_reason": "tool_calls",
			"message": {
				"role": "assistant", "content": "",
				"tool_calls": [{
					"id": "call_1", "type": "function",
					"function": {"name": "code_exec", "arguments": %s}
				}]
			}
		}]
	}`, quoted)
}

func textResponse(content string) string {
	quoted, _ := json.Marshal(content)
	return fmt.Sprintf(`{
		"id": "chatcmpl-2", "object": "chat.completion", "created": 2, "model": "test",
		"choices": [{
			"index": 0, "finish_reason": "stop",
			"message": {"role": "assistant", "content": %s}
		}]
	}`, quoted)
}

func TestSolveRunsToolAndReturnsAnswer(t *testing.T) {
	// Sandbox stub records the code it received and prints the "output".
	var received evalclient.Request
	sandbox := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		fmt.Fprint(w, "42\n")
	}))
	defer sandbox.Close()

	// The model wraps its code in fences; the tool must strip them.
	llm, calls := fakeLLM(t, []string{
		toolCallResponse("```python\nprint(21*2)\n```"),
		textResponse("The answer is 42."),
	})

	tool := tools.NewCodeExec(evalclient.New(sandbox.URL, "secret"), tools.CodeExecOptions{})
	s := New(llm.URL, "test-key", "test-model", tool)

	var calledWith, gotResult string
	s.OnToolCall = func(code string) { calledWith = code }
	s.OnToolResult = func(result string) { gotResult = result }

	answer, err := s.Solve(context.Background(), "What is 21 times 2?")
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	if answer != "The answer is 42." {
		t.Errorf("answer = %q", answer)
	}
	if *calls != 2 {
		t.Errorf("LLM calls = %d, want 2", *calls)
	}
	if received.Code != "print(21*2)" {
		t.Errorf("sandbox received code %q, want fences stripped", received.Code)
	}
	if !strings.Contains(calledWith, "print(21*2)") {
		t.Errorf("OnToolCall code = %q", calledWith)
	}
	if gotResult != "42\n" {
		t.Errorf("OnToolResult = %q", gotResult)
	}
}

func TestSolveDirectAnswerSkipsTool(t *testing.T) {
	llm, calls := fakeLLM(t, []string{textResponse("Two.")})

	toolRan := false
	tool := tools.Tool{
		Name:        "code_exec",
		Description: "noop",
		Parameters:  map[string]any{"type": "object"},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			toolRan = true
			return "", nil
		},
	}

	s := New(llm.URL, "test-key", "test-model", tool)
	answer, err := s.Solve(context.Background(), "What is 1+1?")
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if answer != "Two." {
		t.Errorf("answer = %q", answer)
	}
	if toolRan {
		t.Error("tool should not run when the model answers directly")
	}
	if *calls != 1 {
		t.Errorf("LLM calls = %d, want 1", *calls)
	}
}

func TestSolveFeedsTracebackBackToModel(t *testing.T) {
	// First attempt fails in the sandbox; the model retries and answers.
	llm, _ := fakeLLM(t, []string{
		toolCallResponse("print(undefined_name)"),
		toolCallResponse("print(2)"),
		textResponse("It prints 2."),
	})

	outputs := []string{"NameError: name 'undefined_name' is not defined", "2\n"}
	call := 0
	tool := tools.Tool{
		Name:        "code_exec",
		Description: "stub",
		Parameters:  map[string]any{"type": "object"},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			out := outputs[call]
			call++
			return out, nil
		},
	}

	s := New(llm.URL, "test-key", "test-model", tool)
	answer, err := s.Solve(context.Background(), "What does this print?")
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if answer != "It prints 2." {
		t.Errorf("answer = %q", answer)
	}
	if call != 2 {
		t.Errorf("tool ran %d times, want 2", call)
	}
}

func TestSolveMaxIterations(t *testing.T) {
	// The model never stops asking for the tool.
	responses := make([]string, defaultMaxIter)
	for i := range responses {
		responses[i] = toolCallResponse("print(1)")
	}
	llm, _ := fakeLLM(t, responses)

	tool := tools.Tool{
		Name:        "code_exec",
		Description: "stub",
		Parameters:  map[string]any{"type": "object"},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			return "1\n", nil
		},
	}

	s := New(llm.URL, "test-key", "test-model", tool)
	if _, err := s.Solve(context.Background(), "loop forever"); err == nil {
		t.Fatal("expected max iterations error")
	}
}

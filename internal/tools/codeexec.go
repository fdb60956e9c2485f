package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/michaelbrown/evalbox/internal/evalclient"
)

// CodeExecName is the tool name presented to the LLM.
const CodeExecName = "code_exec"

// CodeExecDescription tells the model when and how to use the tool. The
// phrasing matters: models still occasionally wrap the code in fences, which
// is why the handler strips them before dispatch.
const CodeExecDescription = `Evaluates an arbitrary snippet of Python code. This is useful if you want the answer to a computation that can be answered by creating a standalone Python program that prints the answer to standard output.

In order to use it, you need to specify the code as if it were the contents of a file called main.py with no code fences, run with the Python interpreter as ` + "`python3 main.py`" + `. The answer should be printed to standard output.

Some things to note:
- There are no other files in the current directory. This means that any attempt to open() files will fail.
- Make sure the code is optimized so that it runs fast. Try to use memoization.
- Always call print() with the final result so that it is printed to standard output.

Bad response:
` + "```python\n1 + 1\n```" + `

Good response:
import urllib.request
print(urllib.request.urlopen("https://ifconfig.me").read().decode("utf-8"))`

// CodeExecOptions is the fixed per-tool execution configuration. Every call
// made through the tool shares these values; only the code varies.
type CodeExecOptions struct {
	Files           map[string]string
	Strace          bool
	InterpreterMode bool
}

// NewCodeExec builds the code_exec tool bound to a sandbox client and a fixed
// set of execution options.
//
// The handler normalizes the model-supplied code (see StripFences), forwards
// it to the sandbox, and returns the response text as-is: a traceback from
// broken code is a result, not an error. Only transport failures error.
func NewCodeExec(client *evalclient.Client, opts CodeExecOptions) Tool {
	return Tool{
		Name:        CodeExecName,
		Description: CodeExecDescription,
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"code": map[string]any{
					"type":        "string",
					"description": "The snippet of Python code to evaluate. Plain source, no code fences.",
				},
			},
			"required": []string{"code"},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			code, ok := args["code"].(string)
			if !ok {
				return "", fmt.Errorf("'code' argument must be a string")
			}
			return client.Exec(ctx, evalclient.Request{
				Code:            StripFences(code),
				Files:           opts.Files,
				Strace:          opts.Strace,
				InterpreterMode: opts.InterpreterMode,
			})
		},
	}
}

// StripFences removes an enclosing triple-backtick code fence, if present.
//
// The surrounding whitespace is trimmed first. When the trimmed string both
// starts and ends with ``` the first and last lines are dropped wholesale,
// so a language tag on the opening fence goes with it. Anything else,
// including a fence on only one end, passes through untouched: the remote
// service gets to complain about stray backticks, not us.
func StripFences(code string) string {
	code = strings.TrimSpace(code)
	if strings.HasPrefix(code, "```") && strings.HasSuffix(code, "```") {
		lines := strings.Split(code, "\n")
		if len(lines) == 1 {
			// Fence markers with no interior line, e.g. "```print(1)```".
			return ""
		}
		code = strings.Join(lines[1:len(lines)-1], "\n")
	}
	return code
}

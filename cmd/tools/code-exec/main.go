package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/michaelbrown/evalbox/internal/evalclient"
	"github.com/michaelbrown/evalbox/internal/tools"
)

var client *evalclient.Client

func main() {
	url := os.Getenv("EVALBOX_URL")
	token := os.Getenv("EVAL_TOKEN_AUTH")
	if url == "" || token == "" {
		fmt.Fprintln(os.Stderr, "EVALBOX_URL and EVAL_TOKEN_AUTH must be set")
		os.Exit(1)
	}
	client = evalclient.New(url, token)

	s := server.NewMCPServer("evalbox-code-exec", "0.1.0")

	s.AddTool(mcp.Tool{
		Name:        tools.CodeExecName,
		Description: tools.CodeExecDescription,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"code": map[string]any{
					"type":        "string",
					"description": "Python code to execute, the contents of main.py",
				},
			},
			Required: []string{"code"},
		},
	}, handleCodeExec)

	if err := server.ServeStdio(s); err != nil {
		fmt.Printf("server error: %v\n", err)
	}
}

func handleCodeExec(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]any)
	if args == nil {
		return errResult("error: invalid arguments"), nil
	}

	code, _ := args["code"].(string)
	if code == "" {
		return errResult("error: 'code' is required"), nil
	}

	output, err := client.Exec(ctx, evalclient.Request{
		Code: tools.StripFences(code),
	})
	if err != nil {
		return errResult(fmt.Sprintf("error: %v", err)), nil
	}

	// Whatever came back, output or traceback, is the result the model
	// should see.
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: output}},
	}, nil
}

func errResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: text}},
		IsError: true,
	}
}

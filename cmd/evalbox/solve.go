package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/michaelbrown/evalbox/internal/solver"
	"github.com/michaelbrown/evalbox/internal/storage"
	"github.com/michaelbrown/evalbox/internal/tools"
)

var solveCmd = &cobra.Command{
	Use:   "solve <problem>",
	Short: "Solve a problem by letting an LLM write and run Python",
	Long: `Ask an LLM to solve a problem by generating a Python program, running it
in the sandbox via the code_exec tool, and answering from its output.

Examples:
  evalbox solve "What is the 100th Fibonacci number?"
  evalbox solve --provider ollama --model qwen3:14b "Sum of primes below 1000?"
  evalbox solve --preset numerics "What is the mean of column 1 in data.csv?"`,
	Args: cobra.ExactArgs(1),
	RunE: runSolve,
}

func init() {
	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, p, client, err := loadSetup()
	if err != nil {
		return err
	}

	providerName := providerFlag
	if providerName == "" {
		if p != nil && p.Provider != "" {
			providerName = p.Provider
		} else {
			providerName = cfg.DefaultProvider
		}
	}
	provider, err := cfg.Provider(providerName)
	if err != nil {
		return err
	}

	model := modelFlag
	if model == "" {
		if p != nil && p.Model != "" {
			model = p.Model
		} else {
			model = provider.Models["default"]
		}
	}

	opts := tools.CodeExecOptions{
		Strace:          cfg.Sandbox.Strace,
		InterpreterMode: cfg.Sandbox.InterpreterMode,
	}
	if p != nil {
		opts.Files = p.Files
		opts.Strace = opts.Strace || p.Strace
		opts.InterpreterMode = opts.InterpreterMode || p.InterpreterMode
	}
	tool := tools.NewCodeExec(client, opts)

	s := solver.New(provider.BaseURL, provider.APIKey, model, tool)
	if p != nil {
		s.SetSystemPrompt(p.SystemPrompt)
	}

	// Display the generated code and its output, and record each run.
	var lastCode string
	started := time.Now()
	s.OnToolCall = func(code string) {
		lastCode = code
		fmt.Printf("\033[33m⚡ code_exec\033[0m\n")
		for _, line := range strings.Split(strings.TrimSpace(code), "\n") {
			fmt.Printf("  \033[90m│ %s\033[0m\n", line)
		}
	}
	s.OnToolResult = func(result string) {
		preview := strings.Split(strings.TrimSpace(result), "\n")
		if len(preview) > 8 {
			preview = preview[:8]
		}
		for _, line := range preview {
			fmt.Printf("  \033[32m→ %s\033[0m\n", line)
		}
		fmt.Println()

		saveRun(cfg, &storage.Run{
			ID:       uuid.New().String(),
			Source:   storage.SourceSolver,
			Code:     lastCode,
			Output:   result,
			Strace:   opts.Strace,
			Duration: time.Since(started),
		})
	}

	answer, err := s.Solve(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("solving: %w", err)
	}

	fmt.Println(answer)
	return nil
}

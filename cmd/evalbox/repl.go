package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/michaelbrown/evalbox/internal/evalclient"
	"github.com/michaelbrown/evalbox/internal/storage"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactively evaluate Python snippets in the sandbox",
	Long: `Start an interactive prompt. Each entered snippet is submitted to the
sandbox in interpreter mode, so bare expressions print their value.

Every snippet runs in a fresh ephemeral container, so variables do not carry
over between entries. End a multi-line snippet with an empty line.

Examples:
  evalbox repl
  evalbox repl --preset numerics`,
	RunE: runRepl,
}

func init() {
	rootCmd.AddCommand(replCmd)
}

func runRepl(cmd *cobra.Command, args []string) error {
	cfg, p, client, err := loadSetup()
	if err != nil {
		return err
	}

	var files map[string]string
	strace := cfg.Sandbox.Strace
	if p != nil {
		files = p.Files
		strace = strace || p.Strace
	}

	fmt.Printf("evalbox - remote Python eval (%s)\n", cfg.Sandbox.URL)
	fmt.Printf("Each snippet runs in a fresh container. /help for commands, /quit to exit\n\n")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     "/tmp/evalbox_history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer rl.Close()

	for {
		snippet, err := readSnippet(rl)
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Println("\nGoodbye!")
				return nil
			}
			return err
		}
		if snippet == "" {
			continue
		}

		if strings.HasPrefix(snippet, "/") {
			switch strings.ToLower(strings.Fields(snippet)[0]) {
			case "/quit", "/exit", "/q":
				fmt.Println("Goodbye!")
				return nil
			case "/strace":
				strace = !strace
				fmt.Printf("strace: %v\n\n", strace)
			case "/help":
				fmt.Println("Commands:")
				fmt.Println("  /help    - Show this help")
				fmt.Println("  /strace  - Toggle strace debugging")
				fmt.Println("  /quit    - Exit")
				fmt.Println()
			default:
				fmt.Printf("Unknown command: %s (try /help)\n\n", snippet)
			}
			continue
		}

		started := time.Now()
		output, err := client.Exec(context.Background(), evalclient.Request{
			Code:            snippet,
			Files:           files,
			Strace:          strace,
			InterpreterMode: true,
		})
		if err != nil {
			fmt.Printf("error: %s\n\n", err)
			continue
		}

		fmt.Print(output)
		if output != "" && !strings.HasSuffix(output, "\n") {
			fmt.Println()
		}

		saveRun(cfg, &storage.Run{
			ID:              uuid.New().String(),
			Source:          storage.SourceREPL,
			Code:            snippet,
			Output:          output,
			Strace:          strace,
			InterpreterMode: true,
			Duration:        time.Since(started),
		})
	}
}

// readSnippet reads one snippet: a single line, or, when the first line ends
// with ':' or '\', more lines until an empty one.
func readSnippet(rl *readline.Instance) (string, error) {
	line, err := rl.Readline()
	if err != nil {
		return "", err
	}
	line = strings.TrimRight(line, " \t")
	if line == "" {
		return "", nil
	}

	if !strings.HasSuffix(line, ":") && !strings.HasSuffix(line, "\\") {
		return line, nil
	}

	lines := []string{line}
	rl.SetPrompt("... ")
	defer rl.SetPrompt(">>> ")
	for {
		next, err := rl.Readline()
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(next) == "" {
			break
		}
		lines = append(lines, next)
	}
	return strings.Join(lines, "\n"), nil
}

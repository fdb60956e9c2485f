package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/michaelbrown/evalbox/internal/config"
	"github.com/michaelbrown/evalbox/internal/evalclient"
	"github.com/michaelbrown/evalbox/internal/preset"
	"github.com/michaelbrown/evalbox/internal/storage"
	"github.com/michaelbrown/evalbox/internal/storage/sqlite"
)

var (
	execFiles  []string
	straceFlag bool
	interpFlag bool
	noSaveFlag bool
	debugFlag  bool
)

var execCmd = &cobra.Command{
	Use:   "exec [file]",
	Short: "Run a Python snippet in the remote sandbox",
	Long: `Submit a snippet of Python code to the sandbox and print its output.

The snippet is read from the given file, or from stdin when no file is given.
Whatever the snippet printed to stdout/stderr comes back as-is, including
tracebacks when the code fails.

Examples:
  evalbox exec script.py
  echo 'print(1+1)' | evalbox exec
  evalbox exec script.py -f data.csv --interpreter
  evalbox exec script.py --strace`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExec,
}

func init() {
	execCmd.Flags().StringSliceVarP(&execFiles, "file", "f", nil, "Extra file to place next to the code (path or name=path), repeatable")
	execCmd.Flags().BoolVar(&straceFlag, "strace", false, "Run the code under strace (debugging)")
	execCmd.Flags().BoolVar(&interpFlag, "interpreter", false, "Interpreter mode: top-level expressions are printed")
	execCmd.Flags().BoolVar(&noSaveFlag, "no-save", false, "Do not record the run in history")
	execCmd.Flags().BoolVar(&debugFlag, "debug", false, "Log the submitted code and raw response to stderr")
	rootCmd.AddCommand(execCmd)
}

// loadSetup resolves config and the optional preset into a ready client plus
// the execution options every command shares.
func loadSetup() (*config.Config, *preset.Preset, *evalclient.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}

	var p *preset.Preset
	if presetFlag != "" {
		presetPath := filepath.Join(cfg.PresetsDir, presetFlag+".yaml")
		p, err = preset.Load(presetPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("loading preset: %w", err)
		}
	}

	var opts []evalclient.Option
	if debugFlag {
		opts = append(opts, evalclient.WithLogger(log.New(os.Stderr, "evalbox: ", 0)))
	}
	client := evalclient.New(cfg.Sandbox.URL, cfg.Sandbox.Token, opts...)
	return cfg, p, client, nil
}

func runExec(cmd *cobra.Command, args []string) error {
	cfg, p, client, err := loadSetup()
	if err != nil {
		return err
	}

	code, err := readCode(args)
	if err != nil {
		return err
	}

	req := evalclient.Request{
		Code:            code,
		Strace:          cfg.Sandbox.Strace || straceFlag,
		InterpreterMode: cfg.Sandbox.InterpreterMode || interpFlag,
	}
	if p != nil {
		req.Files = p.Files
		req.Strace = req.Strace || p.Strace
		req.InterpreterMode = req.InterpreterMode || p.InterpreterMode
	}
	if len(execFiles) > 0 {
		files, err := readExtraFiles(execFiles)
		if err != nil {
			return err
		}
		if req.Files == nil {
			req.Files = files
		} else {
			for name, content := range files {
				req.Files[name] = content
			}
		}
	}

	started := time.Now()
	output, err := client.Exec(context.Background(), req)
	if err != nil {
		return fmt.Errorf("executing code: %w", err)
	}

	fmt.Print(output)
	if output != "" && !strings.HasSuffix(output, "\n") {
		fmt.Println()
	}

	if !noSaveFlag {
		saveRun(cfg, &storage.Run{
			ID:              uuid.New().String(),
			Source:          storage.SourceCLI,
			Code:            code,
			Output:          output,
			Strace:          req.Strace,
			InterpreterMode: req.InterpreterMode,
			Duration:        time.Since(started),
		})
	}
	return nil
}

// readCode reads the snippet from the named file or stdin.
func readCode(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", args[0], err)
	}
	return string(data), nil
}

// readExtraFiles loads -f flags into the files mapping. A flag is either a
// bare path (the base name becomes the sandbox filename) or name=path.
func readExtraFiles(flags []string) (map[string]string, error) {
	files := make(map[string]string, len(flags))
	for _, f := range flags {
		name, path, found := strings.Cut(f, "=")
		if !found {
			path = f
			name = filepath.Base(f)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading file %s: %w", path, err)
		}
		files[name] = string(content)
	}
	return files, nil
}

// saveRun records a run in history, warning instead of failing: history is a
// convenience, the execution already happened.
func saveRun(cfg *config.Config, run *storage.Run) {
	store, err := sqlite.Open(cfg.Storage.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: opening run history: %v\n", err)
		return
	}
	defer store.Close()

	if err := store.CreateRun(context.Background(), run); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: recording run: %v\n", err)
	}
}

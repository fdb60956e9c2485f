package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/michaelbrown/evalbox/internal/config"
	"github.com/michaelbrown/evalbox/internal/storage"
	"github.com/michaelbrown/evalbox/internal/storage/sqlite"
)

var (
	sourceFilter string
	limitFlag    int
	exportFormat string
	exportOutput string
	forceFlag    bool
)

var runsCmd = &cobra.Command{
	Use:     "runs",
	Aliases: []string{"run", "r"},
	Short:   "Inspect recorded sandbox runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs",
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a run's code and output",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsDelete,
}

var runsExportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Export a run as markdown or JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsExport,
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd, runsShowCmd, runsDeleteCmd, runsExportCmd)

	runsListCmd.Flags().StringVar(&sourceFilter, "source", "", "Filter by source (cli, repl, api, ws, solver)")
	runsListCmd.Flags().IntVar(&limitFlag, "limit", 20, "Max runs to show")

	runsExportCmd.Flags().StringVar(&exportFormat, "format", "md", "Export format: md or json")
	runsExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")

	runsDeleteCmd.Flags().BoolVar(&forceFlag, "force", false, "Skip confirmation")
}

func openStore() (storage.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return sqlite.Open(cfg.Storage.DBPath)
}

func runRunsList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	opts := storage.RunListOptions{
		Source: storage.RunSource(sourceFilter),
		Limit:  limitFlag,
	}

	runs, err := store.ListRuns(context.Background(), opts)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("No runs found.")
		return nil
	}

	// Header
	fmt.Printf("%-10s %-8s %-40s %-10s %s\n", "ID", "SOURCE", "CODE", "DURATION", "CREATED")
	fmt.Println(strings.Repeat("─", 90))

	for _, r := range runs {
		code := firstLine(r.Code)
		if len(code) > 38 {
			code = code[:38] + ".."
		}

		fmt.Printf("%-10s %-8s %-40s %-10s %s\n",
			r.ID[:8], r.Source, code, r.Duration.Round(time.Millisecond), timeAgo(r.CreatedAt))
	}

	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.GetRun(context.Background(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Run:      %s\n", run.ID)
	fmt.Printf("Source:   %s\n", run.Source)
	fmt.Printf("Created:  %s\n", run.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Duration: %s\n", run.Duration.Round(time.Millisecond))
	if run.Strace {
		fmt.Printf("Strace:   enabled\n")
	}
	if run.InterpreterMode {
		fmt.Printf("Mode:     interpreter\n")
	}

	fmt.Println("\nCode:")
	fmt.Println(strings.Repeat("─", 60))
	fmt.Println(run.Code)
	fmt.Println("\nOutput:")
	fmt.Println(strings.Repeat("─", 60))
	fmt.Println(run.Output)

	return nil
}

func runRunsDelete(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	run, err := store.GetRun(ctx, args[0])
	if err != nil {
		return err
	}

	if !forceFlag {
		fmt.Printf("Delete run %s - %q? [y/N] ", run.ID[:8], firstLine(run.Code))
		var confirm string
		fmt.Scanln(&confirm)
		if strings.ToLower(confirm) != "y" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := store.DeleteRun(ctx, run.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted run %s\n", run.ID[:8])
	return nil
}

func runRunsExport(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.GetRun(context.Background(), args[0])
	if err != nil {
		return err
	}

	var output string
	switch exportFormat {
	case "json":
		data, err := storage.ExportJSON(run)
		if err != nil {
			return err
		}
		output = string(data)
	default:
		output = storage.ExportMarkdown(run)
	}

	if exportOutput != "" {
		return os.WriteFile(exportOutput, []byte(output), 0o644)
	}

	fmt.Print(output)
	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func timeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

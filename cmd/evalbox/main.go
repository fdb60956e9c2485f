package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	providerFlag string
	modelFlag    string
	presetFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "evalbox",
	Short: "evalbox - Run Python snippets in a remote eval sandbox",
	Long: `evalbox submits snippets of Python code to a deployed eval sandbox and
prints whatever the snippet wrote to standard output/error.

The sandbox runs each snippet in an ephemeral unprivileged container; nothing
executes locally. Point evalbox at your deployment with sandbox.url and
sandbox.token in evalbox.yaml (or the EVAL_TOKEN_AUTH environment variable).`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&providerFlag, "provider", "", "LLM provider for solve (overrides config)")
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "", "Model for solve (overrides config)")
	rootCmd.PersistentFlags().StringVar(&presetFlag, "preset", "", "Execution preset to use (e.g. default, numerics)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

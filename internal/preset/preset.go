// Package preset loads named execution presets from YAML files.
//
// A preset bundles the fixed part of a sandbox call: the files written next
// to the code, the debug flags, and, for the solver, the system prompt and
// model. Callers switch between setups with a single --preset flag.
package preset

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Preset defines a reusable execution configuration.
type Preset struct {
	Name            string            `yaml:"name"`
	Files           map[string]string `yaml:"files"`
	Strace          bool              `yaml:"strace"`
	InterpreterMode bool              `yaml:"interpreter_mode"`
	Provider        string            `yaml:"provider"`
	Model           string            `yaml:"model"`
	SystemPrompt    string            `yaml:"system_prompt"`
}

// Load reads a preset from a YAML file.
func Load(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading preset %s: %w", path, err)
	}

	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing preset %s: %w", path, err)
	}

	return &p, nil
}

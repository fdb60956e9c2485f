package storage

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExportMarkdown renders a run as a markdown document.
func ExportMarkdown(r *Run) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("# Run %s\n\n", r.ID))
	b.WriteString(fmt.Sprintf("- **Source:** %s\n", r.Source))
	b.WriteString(fmt.Sprintf("- **Created:** %s\n", r.CreatedAt.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("- **Duration:** %s\n", r.Duration))
	if r.Strace {
		b.WriteString("- **Strace:** enabled\n")
	}
	if r.InterpreterMode {
		b.WriteString("- **Interpreter mode:** enabled\n")
	}
	b.WriteString("\n## Code\n\n")
	b.WriteString(fmt.Sprintf("```python\n%s\n```\n", r.Code))
	b.WriteString("\n## Output\n\n")
	b.WriteString(fmt.Sprintf("```\n%s\n```\n", r.Output))

	return b.String()
}

// ExportJSON renders a run as formatted JSON.
func ExportJSON(r *Run) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

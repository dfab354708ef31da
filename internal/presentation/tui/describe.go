package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/statenode/internal/validator"
	"github.com/aretw0/statenode/pkg/domain"
)

// Describe builds a markdown document summarizing a machine definition and,
// if report is not nil, its validation issues.
func Describe(def domain.Definition, report *validator.Report) string {
	var sb strings.Builder

	name := def.Name
	if name == "" {
		name = "unnamed machine"
	}
	fmt.Fprintf(&sb, "# %s\n\n", name)

	sb.WriteString("## States\n\n")
	initial := def.InitialState()
	for _, s := range def.States {
		if s == initial {
			fmt.Fprintf(&sb, "- **%s** (initial)\n", s)
			continue
		}
		fmt.Fprintf(&sb, "- %s\n", s)
	}

	sb.WriteString("\n## Transitions\n\n")
	if len(def.Transitions) == 0 {
		sb.WriteString("_none_\n")
	} else {
		sb.WriteString("| Trigger | From | To |\n|---|---|---|\n")
		for _, t := range def.Transitions {
			from := t.From
			if t.IsWildcard() {
				from = "any"
			}
			fmt.Fprintf(&sb, "| `%s` | %s | %s |\n", t.Name, from, t.To)
		}
	}

	if report != nil {
		sb.WriteString("\n## Validation\n\n")
		if report.OK() {
			sb.WriteString("No issues found.\n")
		}
		for _, issue := range report.Issues {
			fmt.Fprintf(&sb, "- **%s**: %s\n", issue.Kind, issue.Message)
		}
	}

	return sb.String()
}

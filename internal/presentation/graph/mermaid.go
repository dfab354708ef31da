package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/statenode/pkg/domain"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	CurrentState string
}

// GenerateMermaid produces a Mermaid flowchart of the machine definition.
// It applies semantic styling:
// - Initial state: ((Circle))
// - State without outgoing transitions: ([Stadium])
// - Default: [Rectangle]
// Wildcard transitions are drawn as dotted edges from every state that has no
// exact transition of the same name. The current state is highlighted if an
// overlay is provided.
func GenerateMermaid(def domain.Definition, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	exact := make(map[string]map[string]bool) // from -> names
	var wildcards []domain.Transition
	for _, t := range def.Transitions {
		if t.IsWildcard() {
			wildcards = append(wildcards, t)
			continue
		}
		if exact[t.From] == nil {
			exact[t.From] = make(map[string]bool)
		}
		exact[t.From][t.Name] = true
	}

	initial := def.InitialState()
	for _, state := range def.States {
		opener, closer := "[", "]"
		switch {
		case state == initial:
			opener, closer = "((", "))"
		case len(exact[state]) == 0 && len(wildcards) == 0:
			opener, closer = "([", "])"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", sanitizeMermaidID(state), opener, escapeLabel(state), closer)
	}

	for _, t := range def.Transitions {
		if t.IsWildcard() {
			continue
		}
		fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n",
			sanitizeMermaidID(t.From), escapeLabel(t.Name), sanitizeMermaidID(t.To))
	}

	for _, t := range wildcards {
		for _, state := range def.States {
			if exact[state][t.Name] {
				continue
			}
			fmt.Fprintf(&sb, "    %s -. \"%s\" .-> %s\n",
				sanitizeMermaidID(state), escapeLabel(t.Name), sanitizeMermaidID(t.To))
		}
	}

	if overlay != nil && overlay.CurrentState != "" {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast regardless of theme
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentState))
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_", "\"", "_").Replace(id)
	// "end" closes subgraphs in Mermaid.
	if strings.EqualFold(s, "end") {
		s += "_"
	}
	return s
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

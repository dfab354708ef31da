package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/statenode/internal/runtime"
	"github.com/aretw0/statenode/pkg/config"
	"github.com/aretw0/statenode/pkg/domain"
)

// IssueKind classifies a validation warning.
type IssueKind string

const (
	IssueUnreachable      IssueKind = "unreachable"
	IssueDeadEnd          IssueKind = "dead_end"
	IssueNonCanonical     IssueKind = "non_canonical"
	IssueUndeclaredSource IssueKind = "undeclared_source"
)

// Issue is a problem that does not prevent the machine from running.
type Issue struct {
	Kind    IssueKind `json:"kind"`
	Subject string    `json:"subject"`
	Message string    `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s", i.Kind, i.Message)
}

// Report is the outcome of a successful validation.
type Report struct {
	Machine string  `json:"machine"`
	Initial string  `json:"initial"`
	States  int     `json:"states"`
	Issues  []Issue `json:"issues"`
}

// OK reports whether no issue was found.
func (r *Report) OK() bool {
	return len(r.Issues) == 0
}

func (r *Report) add(kind IssueKind, subject, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Kind: kind, Subject: subject, Message: fmt.Sprintf(format, args...)})
}

// Validate checks cfg the way a node would and then looks for states that can
// never be reached, states with no way out, transitions declared from unknown
// states and transition names no trigger can match.
// Errors that would prevent a node from being built are returned as error.
func Validate(cfg *config.Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	table, err := runtime.Build(cfg.States, cfg.Transitions)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Machine: cfg.Name,
		Initial: table.Initial(),
		States:  len(table.States()),
	}

	transitions := table.Transitions()
	for _, t := range transitions {
		if canonical := domain.Normalize(t.Name); canonical != t.Name {
			report.add(IssueNonCanonical, t.Name,
				"transition '%s' can never fire: triggers normalize to '%s'", t.Name, canonical)
		}
		if !t.IsWildcard() && !table.Has(t.From) {
			report.add(IssueUndeclaredSource, t.Name,
				"transition '%s' starts from undeclared state '%s'", t.Name, t.From)
		}
	}

	reachable := reach(table)
	for _, s := range table.States() {
		if !reachable[s] {
			report.add(IssueUnreachable, s, "state '%s' is unreachable from '%s'", s, table.Initial())
		}
	}

	for _, s := range table.States() {
		if len(table.Triggers(s)) == 0 {
			report.add(IssueDeadEnd, s, "state '%s' has no outgoing transitions", s)
		}
	}

	return report, nil
}

// reach walks the graph breadth-first from the initial state.
func reach(table *runtime.Table) map[string]bool {
	visited := map[string]bool{table.Initial(): true}
	queue := []string{table.Initial()}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, name := range table.Triggers(current) {
			target, _ := table.Resolve(current, name)
			if !visited[target] {
				visited[target] = true
				queue = append(queue, target)
			}
		}
	}
	return visited
}

// Summary renders the issues one per line, or "ok".
func (r *Report) Summary() string {
	if r.OK() {
		return "ok"
	}
	lines := make([]string, len(r.Issues))
	for i, issue := range r.Issues {
		lines[i] = issue.String()
	}
	return strings.Join(lines, "\n")
}

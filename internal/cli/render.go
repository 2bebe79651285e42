package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/skybi/compliance-console/internal/compliance"
)

var (
	colorGreen  = lipgloss.Color("2")
	colorRed    = lipgloss.Color("1")
	colorYellow = lipgloss.Color("3")
	colorMuted  = lipgloss.Color("8")

	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
)

// outcomeStyle colors a decision outcome
func outcomeStyle(outcome compliance.Outcome) lipgloss.Style {
	style := lipgloss.NewStyle().Bold(true)
	switch outcome {
	case compliance.OutcomeCompliant:
		return style.Foreground(colorGreen)
	case compliance.OutcomeNonCompliant:
		return style.Foreground(colorRed)
	default:
		return style.Foreground(colorYellow)
	}
}

func severityStyle(severity compliance.Severity) lipgloss.Style {
	switch severity {
	case compliance.SeverityHigh:
		return lipgloss.NewStyle().Foreground(colorRed)
	case compliance.SeverityMedium:
		return lipgloss.NewStyle().Foreground(colorYellow)
	default:
		return lipgloss.NewStyle()
	}
}

// renderTable writes a bordered table; an empty row set prints a placeholder instead
func renderTable(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("(none)"))
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.Render())
}

func renderTitle(w io.Writer, title string) {
	fmt.Fprintln(w, titleStyle.Render(title))
}

// renderDecision writes a decision together with its reasoning trace
func renderDecision(w io.Writer, decision *compliance.Decision) {
	id := "not persisted"
	if decision.ID != 0 {
		id = fmt.Sprintf("#%d", decision.ID)
	}
	fmt.Fprintf(w, "Decision %s for %s: %s\n", id, decision.WorkflowID, outcomeStyle(decision.Decision).Render(string(decision.Decision)))
	if len(decision.ViolatedRules) > 0 {
		fmt.Fprintf(w, "Violated rules: %s\n", strings.Join(decision.ViolatedRules, ", "))
	}
	if len(decision.RuleVersions) > 0 {
		versions := make([]string, 0, len(decision.RuleVersions))
		for _, ruleID := range sortedKeys(decision.RuleVersions) {
			versions = append(versions, ruleID+"@"+decision.RuleVersions[ruleID])
		}
		fmt.Fprintf(w, "Rule versions: %s\n", strings.Join(versions, ", "))
	}

	for _, entry := range decision.ReasoningTrace {
		if entry.Info != "" {
			fmt.Fprintln(w, mutedStyle.Render(entry.Info))
			continue
		}
		fmt.Fprintf(w, "\n%s\n", titleStyle.Render(entry.RuleID))
		for _, step := range entry.Steps {
			line := fmt.Sprintf("  %-22s %s", step.Step, step.Result)
			if step.Detail != "" {
				line += "  " + mutedStyle.Render(step.Detail)
			}
			fmt.Fprintln(w, line)
		}
	}
}

func printJSON(w io.Writer, value any) error {
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(encoded))
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

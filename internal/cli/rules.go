package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/skybi/compliance-console/internal/api/client"
	"github.com/skybi/compliance-console/internal/compliance"
	"github.com/spf13/pflag"
)

func (app *App) rulesCommand() *Command {
	return &Command{
		Name:    "rules",
		Summary: "Manage compliance rules",
		Subcommands: []*Command{
			{
				Name:    "list",
				Summary: "List all rules",
				Run:     app.listRules,
			},
			{
				Name:    "show",
				Summary: "Show a rule",
				Usage:   "auditctl rules show <rule-id>",
				Run:     app.showRule,
			},
			app.ruleCreateCommand(),
			app.ruleUpdateCommand(),
			{
				Name:    "structured",
				Summary: "List the interpretations of a rule",
				Usage:   "auditctl rules structured <rule-id>",
				Run:     app.listStructuredRules,
			},
		},
	}
}

func (app *App) listRules(ctx context.Context, _ []string) error {
	rules, err := client.Decode[[]*compliance.Rule](app.client.ListRules(ctx))
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(rules))
	for _, rule := range rules {
		rows = append(rows, []string{
			rule.RuleID,
			string(rule.Category),
			severityStyle(rule.Severity).Render(string(rule.Severity)),
			rule.Version,
			string(rule.Status),
		})
	}
	renderTable(app.stdout, []string{"RULE", "CATEGORY", "SEVERITY", "VERSION", "STATUS"}, rows)
	return nil
}

func (app *App) showRule(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("exactly one rule ID is required")
	}
	rule, err := client.Decode[*compliance.Rule](app.client.GetRule(ctx, args[0]))
	if err != nil {
		return err
	}
	renderTitle(app.stdout, rule.RuleID)
	fmt.Fprintf(app.stdout, "category: %s\nseverity: %s\nversion:  %s\nstatus:   %s\n\n%s\n",
		rule.Category, rule.Severity, rule.Version, rule.Status, rule.RuleText)
	return nil
}

func (app *App) listStructuredRules(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("exactly one rule ID is required")
	}
	structured, err := client.Decode[[]*compliance.StructuredRule](app.client.StructuredRules(ctx, args[0]))
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(structured))
	for _, rule := range structured {
		rows = append(rows, []string{
			rule.Version,
			strings.Join(rule.ApplicabilityConditions, "\n"),
			strings.Join(rule.Obligations, "\n"),
			strings.Join(rule.Exceptions, "\n"),
		})
	}
	renderTable(app.stdout, []string{"VERSION", "WHEN", "MUST", "UNLESS"}, rows)
	return nil
}

// ruleFlags holds the flags shared by rule creation and update
type ruleFlags struct {
	category string
	severity string
	version  string
	status   string
	text     string
	textFile string
}

func (flags *ruleFlags) register(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&flags.category, "category", "", "PRIVACY, SECURITY, OPERATIONAL or FINANCIAL")
	flagSet.StringVar(&flags.severity, "severity", "", "LOW, MEDIUM or HIGH")
	flagSet.StringVar(&flags.version, "version", "", "rule version")
	flagSet.StringVar(&flags.status, "status", "", "ACTIVE or DEPRECATED")
	flagSet.StringVar(&flags.text, "text", "", "rule text")
	flagSet.StringVar(&flags.textFile, "text-file", "", "path to a file containing the rule text")
}

// apply overlays the set flags onto the draft
func (flags *ruleFlags) apply(draft *compliance.RuleDraft) error {
	if flags.category != "" {
		draft.Category = compliance.RuleCategory(strings.ToUpper(flags.category))
	}
	if flags.severity != "" {
		draft.Severity = compliance.Severity(strings.ToUpper(flags.severity))
	}
	if flags.version != "" {
		draft.Version = flags.version
	}
	if flags.status != "" {
		draft.Status = compliance.RuleStatus(strings.ToUpper(flags.status))
	}
	switch {
	case flags.text != "" && flags.textFile != "":
		return usageError("--text and --text-file are mutually exclusive")
	case flags.text != "":
		draft.RuleText = flags.text
	case flags.textFile != "":
		data, err := os.ReadFile(flags.textFile)
		if err != nil {
			return fmt.Errorf("reading %s: %w", flags.textFile, err)
		}
		draft.RuleText = string(data)
	}
	return nil
}

func (app *App) ruleCreateCommand() *Command {
	var ruleID string
	var flags ruleFlags
	return &Command{
		Name:    "create",
		Summary: "Create and interpret a new rule",
		Usage:   "auditctl rules create --id <rule-id> --category <category> --severity <severity> --version <version> --text <text>",
		Flags: func() *pflag.FlagSet {
			ruleID, flags = "", ruleFlags{}
			flagSet := newFlagSet("create")
			flagSet.StringVar(&ruleID, "id", "", "public rule ID")
			flags.register(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, _ []string) error {
			draft := compliance.RuleDraft{RuleID: ruleID}
			if err := flags.apply(&draft); err != nil {
				return err
			}
			rule, err := client.Decode[*compliance.Rule](app.client.CreateRule(ctx, draft))
			if err != nil {
				return err
			}
			fmt.Fprintf(app.stdout, "created rule %s (version %s)\n", rule.RuleID, rule.Version)
			return nil
		},
	}
}

func (app *App) ruleUpdateCommand() *Command {
	var flags ruleFlags
	return &Command{
		Name:    "update",
		Summary: "Change a rule and interpret it again",
		Usage:   "auditctl rules update <rule-id> [--category ...] [--severity ...] [--version ...] [--status ...] [--text ...]",
		Flags: func() *pflag.FlagSet {
			flags = ruleFlags{}
			flagSet := newFlagSet("update")
			flags.register(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return usageError("exactly one rule ID is required")
			}

			// Start from the current state so that only the given flags change the rule
			current, err := client.Decode[*compliance.Rule](app.client.GetRule(ctx, args[0]))
			if err != nil {
				return err
			}
			draft := compliance.RuleDraft{
				RuleID:   current.RuleID,
				Category: current.Category,
				RuleText: current.RuleText,
				Severity: current.Severity,
				Version:  current.Version,
				Status:   current.Status,
			}
			if err := flags.apply(&draft); err != nil {
				return err
			}

			rule, err := client.Decode[*compliance.Rule](app.client.UpdateRule(ctx, args[0], draft))
			if err != nil {
				return err
			}
			fmt.Fprintf(app.stdout, "updated rule %s (version %s)\n", rule.RuleID, rule.Version)
			return nil
		},
	}
}

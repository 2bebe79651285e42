package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/skybi/compliance-console/internal/api/client"
	"github.com/skybi/compliance-console/internal/compliance"
	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"
)

func (app *App) workflowsCommand() *Command {
	return &Command{
		Name:    "workflows",
		Summary: "Submit and audit workflow events",
		Subcommands: []*Command{
			{
				Name:    "list",
				Summary: "List all workflow events",
				Run:     app.listWorkflows,
			},
			{
				Name:    "show",
				Summary: "Show all events of a workflow",
				Usage:   "auditctl workflows show <workflow-id>",
				Run:     app.showWorkflow,
			},
			app.workflowCreateCommand(),
			{
				Name:    "audit",
				Summary: "Audit the latest event of a workflow",
				Usage:   "auditctl workflows audit <workflow-id>",
				Run:     app.auditWorkflow,
			},
		},
	}
}

func (app *App) listWorkflows(ctx context.Context, _ []string) error {
	workflows, err := client.Decode[[]*compliance.Workflow](app.client.ListWorkflows(ctx))
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(workflows))
	for _, workflow := range workflows {
		rows = append(rows, []string{
			workflow.WorkflowID,
			string(workflow.WorkflowType),
			workflow.ActorID,
			workflow.SourceSystem,
			workflow.SubmittedAt.Local().Format(time.DateTime),
		})
	}
	renderTable(app.stdout, []string{"WORKFLOW", "TYPE", "ACTOR", "SOURCE", "SUBMITTED"}, rows)
	return nil
}

func (app *App) showWorkflow(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("exactly one workflow ID is required")
	}
	events, err := client.Decode[[]*compliance.Workflow](app.client.GetWorkflow(ctx, args[0]))
	if err != nil {
		return err
	}
	return printJSON(app.stdout, events)
}

func (app *App) workflowCreateCommand() *Command {
	var draft compliance.WorkflowDraft
	var workflowType, attributes, attributesFile string
	return &Command{
		Name:    "create",
		Summary: "Submit a new workflow event",
		Usage:   "auditctl workflows create --id <workflow-id> --type <type> --actor <actor> --source <system> (--attributes <json> | --attributes-file <path>)",
		Flags: func() *pflag.FlagSet {
			draft, workflowType, attributes, attributesFile = compliance.WorkflowDraft{}, "", "", ""
			flagSet := newFlagSet("create")
			flagSet.StringVar(&draft.WorkflowID, "id", "", "workflow ID")
			flagSet.StringVar(&workflowType, "type", "", "CLAIM_PROCESSING, POLICY_ISSUANCE, DATA_ACCESS_REQUEST or APPROVAL_ESCALATION")
			flagSet.StringVar(&draft.ActorID, "actor", "", "ID of the acting user or system")
			flagSet.StringVar(&draft.SourceSystem, "source", "", "system the event originates from")
			flagSet.StringVar(&attributes, "attributes", "", "event attributes as a JSON object")
			flagSet.StringVar(&attributesFile, "attributes-file", "", "path to a JSON (comments allowed) file containing the attributes")
			return flagSet
		},
		Run: func(ctx context.Context, _ []string) error {
			draft.WorkflowType = compliance.WorkflowType(strings.ToUpper(workflowType))
			raw, err := readAttributes(attributes, attributesFile)
			if err != nil {
				return err
			}
			draft.Attributes = raw

			workflow, err := client.Decode[*compliance.Workflow](app.client.CreateWorkflow(ctx, draft))
			if err != nil {
				return err
			}
			fmt.Fprintf(app.stdout, "submitted event #%d for workflow %s\n", workflow.ID, workflow.WorkflowID)
			return nil
		},
	}
}

// readAttributes returns the raw attributes given inline or as a file.
// Files may contain comments and trailing commas.
func readAttributes(inline, path string) (json.RawMessage, error) {
	switch {
	case inline != "" && path != "":
		return nil, usageError("--attributes and --attributes-file are mutually exclusive")
	case path != "":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		return json.RawMessage(jsonc.ToJSON(data)), nil
	default:
		return json.RawMessage(inline), nil
	}
}

func (app *App) auditWorkflow(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("exactly one workflow ID is required")
	}
	decision, err := client.Decode[*compliance.Decision](app.client.AuditWorkflow(ctx, args[0]))
	if err != nil {
		return err
	}
	renderDecision(app.stdout, decision)
	return nil
}

func (app *App) decisionsCommand() *Command {
	return &Command{
		Name:    "decisions",
		Summary: "List decisions, newest first",
		Usage:   "auditctl decisions [<workflow-id>]",
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 1 {
				return usageError("at most one workflow ID is allowed")
			}
			workflowID := ""
			if len(args) == 1 {
				workflowID = args[0]
			}
			decisions, err := client.Decode[[]*compliance.Decision](app.client.ListDecisions(ctx, workflowID))
			if err != nil {
				return err
			}
			renderTable(app.stdout, []string{"ID", "WORKFLOW", "DECISION", "VIOLATED", "CREATED"}, decisionRows(decisions))
			return nil
		},
	}
}

func decisionRows(decisions []*compliance.Decision) [][]string {
	rows := make([][]string, 0, len(decisions))
	for _, decision := range decisions {
		rows = append(rows, []string{
			strconv.FormatInt(decision.ID, 10),
			decision.WorkflowID,
			outcomeStyle(decision.Decision).Render(string(decision.Decision)),
			strings.Join(decision.ViolatedRules, ", "),
			decision.CreatedAt.Local().Format(time.DateTime),
		})
	}
	return rows
}

func (app *App) replayCommand() *Command {
	return &Command{
		Name:    "replay",
		Summary: "Replay a decision with the rule versions it was based on",
		Usage:   "auditctl replay <workflow-id> <decision-id>",
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 2 {
				return usageError("a workflow ID and a decision ID are required")
			}
			decisionID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return usageError("invalid decision ID %q", args[1])
			}
			decision, err := client.Decode[*compliance.Decision](app.client.ReplayDecision(ctx, args[0], decisionID))
			if err != nil {
				return err
			}
			renderDecision(app.stdout, decision)
			return nil
		},
	}
}

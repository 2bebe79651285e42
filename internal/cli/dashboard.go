package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/skybi/compliance-console/internal/api/client"
	"github.com/skybi/compliance-console/internal/compliance"
	"github.com/spf13/pflag"
)

const clearScreen = "\x1b[H\x1b[2J"

func (app *App) dashboardCommand() *Command {
	var watch time.Duration
	return &Command{
		Name:    "dashboard",
		Summary: "Show the audit dashboard",
		Usage:   "auditctl dashboard [--watch <interval>]",
		Flags: func() *pflag.FlagSet {
			watch = 0
			flagSet := newFlagSet("dashboard")
			flagSet.DurationVar(&watch, "watch", 0, "refresh the dashboard in the given interval until interrupted")
			return flagSet
		},
		Run: func(ctx context.Context, _ []string) error {
			if watch <= 0 {
				return app.renderDashboard(ctx)
			}

			ticker := time.NewTicker(watch)
			defer ticker.Stop()
			for {
				fmt.Fprint(app.stdout, clearScreen)
				if err := app.renderDashboard(ctx); err != nil {
					return err
				}
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}
			}
		},
	}
}

func (app *App) renderDashboard(ctx context.Context) error {
	stats, err := client.Decode[*compliance.DashboardStats](app.client.DashboardStats(ctx))
	if err != nil {
		return err
	}

	renderTitle(app.stdout, "Compliance overview")
	rows := [][]string{{"TOTAL", strconv.Itoa(stats.TotalAudits)}}
	for _, outcome := range compliance.Outcomes {
		rows = append(rows, []string{
			outcomeStyle(outcome).Render(string(outcome)),
			strconv.Itoa(stats.ComplianceStats[outcome]),
		})
	}
	renderTable(app.stdout, []string{"OUTCOME", "DECISIONS"}, rows)

	renderTitle(app.stdout, "Recent audits")
	renderTable(app.stdout, []string{"ID", "WORKFLOW", "DECISION", "VIOLATED", "CREATED"}, decisionRows(stats.RecentAudits))

	renderTitle(app.stdout, "Alerts")
	renderTable(app.stdout, []string{"ID", "WORKFLOW", "DECISION", "VIOLATED", "CREATED"}, decisionRows(stats.Alerts))
	return nil
}

func (app *App) metricsCommand() *Command {
	return &Command{
		Name:    "metrics",
		Summary: "Show the operational metrics of the backend",
		Run: func(ctx context.Context, _ []string) error {
			metrics, err := client.Decode[*compliance.SystemMetrics](app.client.SystemMetrics(ctx))
			if err != nil {
				return err
			}
			uptime := time.Duration(metrics.UptimeSeconds * float64(time.Second)).Round(time.Second)
			renderTable(app.stdout, []string{"METRIC", "VALUE"}, [][]string{
				{"audits", strconv.Itoa(metrics.AIMetrics.TotalAudits)},
				{"reasoning failures", strconv.Itoa(metrics.AIMetrics.ReasoningFailures)},
				{"interpretation failures", strconv.Itoa(metrics.AIMetrics.InterpretationFailures)},
				{"average audit latency", fmt.Sprintf("%.1f ms", metrics.AverageLatencyMS)},
				{"uptime", uptime.String()},
			})

			renderTitle(app.stdout, "Rule coverage")
			rows := make([][]string, 0, len(metrics.RuleCoverage))
			for _, ruleID := range sortedKeys(metrics.RuleCoverage) {
				rows = append(rows, []string{ruleID, strconv.Itoa(metrics.RuleCoverage[ruleID])})
			}
			renderTable(app.stdout, []string{"RULE", "EVALUATIONS"}, rows)
			return nil
		},
	}
}

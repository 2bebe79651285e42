// Package cli implements auditctl, the terminal console of the compliance-audit backend.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// Command represents a node in the command tree.
// Exactly one of Run or Subcommands should be set.
type Command struct {
	Name    string
	Summary string
	Usage   string

	// Flags returns the flag set of the command. It is called once per execution so that every run starts from the
	// default values.
	Flags func() *pflag.FlagSet

	Subcommands []*Command

	// Run executes the command with the positional arguments left after flag parsing
	Run func(ctx context.Context, args []string) error

	parent *Command
}

// UsageError reports a wrongly invoked command
type UsageError struct {
	Message string
}

func (err *UsageError) Error() string {
	return err.Message
}

func usageError(format string, args ...any) error {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// Execute dispatches args to the matching subcommand or runs the command itself
func (command *Command) Execute(ctx context.Context, args []string, help io.Writer) error {
	if len(args) > 0 && isHelpFlag(args[0]) {
		command.PrintHelp(help)
		return nil
	}

	if len(command.Subcommands) > 0 && len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		for _, sub := range command.Subcommands {
			if sub.Name == args[0] {
				sub.parent = command
				return sub.Execute(ctx, args[1:], help)
			}
		}
		if command.Run == nil {
			return usageError("unknown command %q\n\nRun '%s --help' for usage.", args[0], command.fullName())
		}
	}
	if command.Run == nil {
		command.PrintHelp(help)
		return usageError("subcommand required")
	}

	if command.Flags != nil {
		flagSet := command.Flags()
		flagSet.SetOutput(io.Discard)
		if err := flagSet.Parse(args); err != nil {
			return usageError("%s\n\nRun '%s --help' for usage.", err.Error(), command.fullName())
		}
		args = flagSet.Args()
	}
	return command.Run(ctx, args)
}

// PrintHelp writes the usage of the command to w
func (command *Command) PrintHelp(w io.Writer) {
	if command.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", command.Summary)
	}
	switch {
	case command.Usage != "":
		fmt.Fprintf(w, "Usage:\n  %s\n", command.Usage)
	case len(command.Subcommands) > 0:
		fmt.Fprintf(w, "Usage:\n  %s <command> [flags]\n", command.fullName())
	default:
		fmt.Fprintf(w, "Usage:\n  %s [flags]\n", command.fullName())
	}

	if len(command.Subcommands) > 0 {
		fmt.Fprintf(w, "\nCommands:\n")
		tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
		for _, sub := range command.Subcommands {
			fmt.Fprintf(tw, "  %s\t%s\n", sub.Name, sub.Summary)
		}
		tw.Flush()
	}

	if command.Flags != nil {
		var flagHelp strings.Builder
		flagSet := command.Flags()
		flagSet.SetOutput(&flagHelp)
		flagSet.PrintDefaults()
		if flagHelp.Len() > 0 {
			fmt.Fprintf(w, "\nFlags:\n%s", flagHelp.String())
		}
	}
}

func (command *Command) fullName() string {
	if command.parent == nil {
		return command.Name
	}
	return command.parent.fullName() + " " + command.Name
}

func isHelpFlag(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}

func newFlagSet(name string) *pflag.FlagSet {
	return pflag.NewFlagSet(name, pflag.ContinueOnError)
}

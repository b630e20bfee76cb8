package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/state"
	"github.com/spf13/cobra"
)

// LedgerOptions holds flags for the ledger command.
type LedgerOptions struct {
	*RootOptions
	Month int
	Day   int
}

// NewLedgerCommand creates the ledger command.
func NewLedgerCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LedgerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Show the commits saved on a calendar day",
		Long: `Print the change sets committed on a month/day of any year, oldest first. Both flags
default to today in the configured timezone.`,
		Example: `  shiftctl ledger
  shiftctl ledger --month 4 --day 2 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLedger(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Month, "month", 0, "month 1-12 (default: current)")
	cmd.Flags().IntVar(&opts.Day, "day", 0, "day 1-31 (default: today)")

	return cmd
}

func runLedger(cmd *cobra.Command, opts *LedgerOptions) error {
	if opts.Month < 0 || opts.Month > 12 {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid --month %d", opts.Month))
	}
	if opts.Day < 0 || opts.Day > 31 {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid --day %d", opts.Day))
	}

	app, err := opts.openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	loc := app.Config.App.Timezone
	now := app.Clock.Now().In(loc)
	month, day := now.Month(), now.Day()
	if opts.Month != 0 {
		month = time.Month(opts.Month)
	}
	if opts.Day != 0 {
		day = opts.Day
	}

	entries, err := app.Store.Ledger(cmd.Context(), month, day)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read ledger", err)
	}

	return opts.formatter(cmd).Success(entries, func(w io.Writer) {
		fmt.Fprintf(w, "%d commit(s) on %s %d\n", len(entries), month, day)
		for _, e := range entries {
			fmt.Fprintf(w, "%s  %s\n", e.SavedAt.In(loc).Format("2006-01-02 15:04:05"), summarizeChanges(e.Changes))
		}
	})
}

func summarizeChanges(c state.Changeset) string {
	return fmt.Sprintf("employees=%d attendance=+%d/-%d assignments=+%d/-%d patterns=+%d/-%d audit=%d",
		len(c.Employees),
		len(c.Attendance), len(c.RemovedAttendance),
		len(c.AddedAssignments), len(c.RemovedAssignments),
		len(c.Patterns), len(c.RemovedPatterns),
		len(c.Audit))
}

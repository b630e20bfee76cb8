package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/pkg/calendar"
	"github.com/spf13/cobra"
)

// RotateOptions holds flags for the rotate command.
type RotateOptions struct {
	*RootOptions
	Week string
}

// NewRotateCommand creates the rotate command.
func NewRotateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RotateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Apply every stored rotation pattern to a week",
		Long: `Assign each employee with a stored rotation pattern to that pattern's slot for the
week, Monday through Saturday. Dates whose slot is already held are skipped, so running
the command twice is harmless.

The week defaults to next week. Any date inside the target week is accepted.`,
		Example: `  shiftctl rotate
  shiftctl rotate --week 2025-04-07 --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRotate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Week, "week", "", "any date in the target week (YYYY-MM-DD)")

	return cmd
}

func runRotate(cmd *cobra.Command, opts *RotateOptions) error {
	out := opts.formatter(cmd)

	app, err := opts.openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	var week calendar.Date
	if opts.Week == "" {
		week = calendar.Today(app.Clock.Now(), app.Config.App.Timezone).WeekStart().AddDays(7)
	} else {
		d, err := calendar.Parse(opts.Week)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --week", err)
		}
		week = d.WeekStart()
	}
	out.VerboseLog("rotating week of %s", week)

	results, err := app.Scheduler.RunWeeklyRotation(cmd.Context(), audit.System("cli"), week)
	if err != nil {
		return WrapExitError(ExitFailure, "weekly rotation failed", err)
	}

	created := 0
	for _, r := range results {
		created += len(r.Created)
	}

	return out.Success(map[string]interface{}{
		"week_start": week,
		"created":    created,
		"results":    results,
	}, func(w io.Writer) {
		fmt.Fprintf(w, "Week of %s: %d shift(s) created for %d employee(s)\n", week, created, len(results))
		for _, r := range results {
			line := fmt.Sprintf("  %-20s %s  created=%d", r.EmployeeID, r.SlotTime, len(r.Created))
			if len(r.Skipped) > 0 {
				skipped := make([]string, len(r.Skipped))
				for i, d := range r.Skipped {
					skipped[i] = d.String()
				}
				line += "  skipped=" + strings.Join(skipped, ",")
			}
			fmt.Fprintln(w, line)
		}
	})
}

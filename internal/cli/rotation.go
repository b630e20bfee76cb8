package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/config"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/shift"
	"github.com/spf13/cobra"
)

// NewRotationCommand groups the rotation pattern subcommands.
func NewRotationCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rotation",
		Short: "Manage rotation patterns",
	}
	cmd.AddCommand(newRotationImportCommand(rootOpts))
	cmd.AddCommand(newRotationListCommand(rootOpts))
	return cmd
}

type importFailure struct {
	EmployeeID string `json:"employee_id"`
	Error      string `json:"error"`
}

func newRotationImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Store rotation patterns from a YAML file",
		Long: `Read a rotation file and store each employee's pattern. Every pattern is saved in its
own commit; one invalid entry does not stop the others.

  epoch: 2024-01-01
  patterns:
    ana: ["06:00", "14:00"]
    luis: ["07:00", "12:00", "17:00"]`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.formatter(cmd)

			rf, err := config.LoadRotationFile(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read rotation file", err)
			}

			app, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			actor := audit.System("cli")
			var saved []shift.Pattern
			var failed []importFailure
			for _, entry := range rf.Entries() {
				p, err := app.Scheduler.SetRotationPattern(cmd.Context(), actor, entry.EmployeeID, entry.Slots)
				if err != nil {
					failed = append(failed, importFailure{EmployeeID: entry.EmployeeID, Error: err.Error()})
					continue
				}
				out.VerboseLog("stored pattern for %s", p.EmployeeID)
				saved = append(saved, p)
			}

			if err := out.Success(map[string]interface{}{
				"saved":  saved,
				"failed": failed,
			}, func(w io.Writer) {
				fmt.Fprintf(w, "Imported %d pattern(s)\n", len(saved))
				for _, p := range saved {
					fmt.Fprintf(w, "  %-20s %s\n", p.EmployeeID, strings.Join(p.Slots, " "))
				}
				for _, f := range failed {
					fmt.Fprintf(w, "  %-20s FAILED: %s\n", f.EmployeeID, f.Error)
				}
			}); err != nil {
				return err
			}
			if len(failed) > 0 {
				return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("%d pattern(s) rejected", len(failed)), Printed: true}
			}
			return nil
		},
	}
}

func newRotationListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show stored rotation patterns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			patterns, err := app.Scheduler.RotationPatterns(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "failed to read rotation patterns", err)
			}
			return opts.formatter(cmd).Success(patterns, func(w io.Writer) {
				if len(patterns) == 0 {
					fmt.Fprintln(w, "No rotation patterns")
					return
				}
				for _, p := range patterns {
					fmt.Fprintf(w, "%-20s %s\n", p.EmployeeID, strings.Join(p.Slots, " "))
				}
			})
		},
	}
}

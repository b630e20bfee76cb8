package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewBackupCommand groups the backup subcommands. Without a subcommand it takes a backup.
func NewBackupCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Take, list and inspect compressed state backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackup(cmd, rootOpts)
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Write a new backup and prune old ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackup(cmd, rootOpts)
		},
	})
	cmd.AddCommand(newBackupListCommand(rootOpts))
	cmd.AddCommand(newBackupShowCommand(rootOpts))
	return cmd
}

func runBackup(cmd *cobra.Command, opts *RootOptions) error {
	app, err := opts.openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	info, err := app.Backups.Run(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "backup failed", err)
	}
	return opts.formatter(cmd).Success(info, func(w io.Writer) {
		fmt.Fprintf(w, "Wrote %s (%d bytes, blake2b %s)\n", info.Name, info.Size, info.Checksum)
	})
}

func newBackupListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			infos, err := app.Backups.List(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "failed to list backups", err)
			}
			return opts.formatter(cmd).Success(infos, func(w io.Writer) {
				if len(infos) == 0 {
					fmt.Fprintln(w, "No backups")
					return
				}
				for _, i := range infos {
					fmt.Fprintf(w, "%-45s %10d  %s\n", i.Name, i.Size, i.CreatedAt.Format("2006-01-02 15:04:05"))
				}
			})
		},
	}
}

type backupSummary struct {
	Name        string `json:"name"`
	Employees   int    `json:"employees"`
	Attendance  int    `json:"attendance"`
	Assignments int    `json:"assignments"`
	Patterns    int    `json:"patterns"`
	AuditLen    int    `json:"audit_entries"`
}

func newBackupShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Decode a backup and summarize its contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			st, err := app.Backups.Open(cmd.Context(), args[0])
			if err != nil {
				return WrapExitError(ExitFailure, "failed to open backup", err)
			}
			sum := backupSummary{
				Name:        args[0],
				Employees:   len(st.Employees),
				Attendance:  len(st.Attendance),
				Assignments: len(st.Assignments),
				Patterns:    len(st.RotationPatterns),
				AuditLen:    len(st.Audit),
			}
			return opts.formatter(cmd).Success(sum, func(w io.Writer) {
				fmt.Fprintf(w, "%s\n  employees    %d\n  attendance   %d\n  assignments  %d\n  patterns     %d\n  audit        %d\n",
					sum.Name, sum.Employees, sum.Attendance, sum.Assignments, sum.Patterns, sum.AuditLen)
			})
		},
	}
}

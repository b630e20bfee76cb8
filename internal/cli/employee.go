package cli

import (
	"fmt"
	"io"

	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/shiftclock-backend-go/internal/domain/employee"
	"github.com/spf13/cobra"
)

// NewEmployeeCommand groups registry subcommands used to seed a fresh store.
func NewEmployeeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "employee",
		Short: "Register and list employees",
	}
	cmd.AddCommand(newEmployeeAddCommand(rootOpts))
	cmd.AddCommand(newEmployeeListCommand(rootOpts))
	return cmd
}

func newEmployeeAddCommand(opts *RootOptions) *cobra.Command {
	req := employee.RegisterRequest{}

	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Register an employee",
		Example: `  shiftctl employee add --id ana --name "Ana Pérez" --national-id 1020304050 --role manager --rate 25000`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			e, err := app.Employees.Register(cmd.Context(), audit.System("cli"), req)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to register employee", err)
			}
			return opts.formatter(cmd).Success(e, func(w io.Writer) {
				fmt.Fprintf(w, "Registered %s (%s)\n", e.ID, e.Role)
			})
		},
	}

	cmd.Flags().StringVar(&req.ID, "id", "", "employee ID")
	cmd.Flags().StringVar(&req.FullName, "name", "", "full name")
	cmd.Flags().StringVar(&req.NationalID, "national-id", "", "national ID number")
	cmd.Flags().StringVar(&req.Role, "role", string(employee.RoleCollaborator), "collaborator or manager")
	cmd.Flags().StringVar(&req.HourlyRate, "rate", "", "hourly rate")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

func newEmployeeListCommand(opts *RootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered employees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			list, err := app.Employees.List(cmd.Context(), all)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to list employees", err)
			}
			return opts.formatter(cmd).Success(list, func(w io.Writer) {
				for _, e := range list {
					status := ""
					if e.Blocked {
						status = "blocked"
					}
					fmt.Fprintf(w, "%-20s %-30s %-12s %s\n", e.ID, e.FullName, e.Role, status)
				}
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include blocked employees")
	return cmd
}

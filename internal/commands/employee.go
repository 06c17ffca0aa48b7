package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var employeeCmd = &cobra.Command{
	Use:   "employee",
	Short: "Manage employees in the local database",
}

var employeeAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register an employee",
	Args:  cobra.MinimumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		store, err := a.requireLocal()
		if err != nil {
			return err
		}
		e, err := store.CreateEmployee(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Printf("✅ Added %s - ID: %s\n", e.Name, e.ID)
		fmt.Printf("   Set employee_id = %q in your config to act as them.\n", e.ID)
		return nil
	}),
}

var employeeListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List employees",
	Args:    cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		store, err := a.requireLocal()
		if err != nil {
			return err
		}
		employees, err := store.ListEmployees(cmd.Context())
		if err != nil {
			return err
		}
		if len(employees) == 0 {
			fmt.Println("No employees. Add one with 'punch employee add <name>'.")
			return nil
		}
		for _, e := range employees {
			marker := "  "
			if e.ID == a.cfg.EmployeeID || e.Name == a.cfg.EmployeeID {
				marker = "▸ "
			}
			fmt.Printf("%s%-36s  %s\n", marker, e.ID, e.Name)
		}
		return nil
	}),
}

func init() {
	employeeCmd.AddCommand(employeeAddCmd)
	employeeCmd.AddCommand(employeeListCmd)
}

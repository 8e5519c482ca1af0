package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mikeg91/proxmox-scripts/pkg/doctor"
	"github.com/mikeg91/proxmox-scripts/pkg/tui"
)

// newDoctorCmd creates the doctor subcommand
func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check host dependencies",
		Long:  `Check that the Proxmox tooling and the Intel GPU device nodes needed for provisioning are available.`,
		RunE:  runDoctor,
	}
}

// runDoctor runs all host checks and prints a report.
func runDoctor(cmd *cobra.Command, _ []string) error {
	checker := doctor.NewChecker()
	groups := checker.CheckAll(cmd.Context())

	for _, group := range groups {
		fmt.Println(tui.TitleStyle.Render(group.Name))
		for _, check := range group.Checks {
			var icon string
			switch check.Status {
			case doctor.StatusOK:
				icon = tui.SuccessStyle.Render("✓")
			case doctor.StatusWarning:
				icon = tui.WarningStyle.Render("!")
			default:
				icon = tui.ErrorStyle.Render("✗")
			}

			fmt.Printf("  %s %-18s %s\n", icon, check.Name, check.Message)
			if check.Hint != "" {
				fmt.Printf("    %s\n", tui.DimStyle.Render(check.Hint))
			}
		}
		fmt.Println()
	}

	if doctor.HasFailures(groups) {
		return fmt.Errorf("some checks failed")
	}

	fmt.Println(tui.SuccessStyle.Render("All checks passed."))
	return nil
}

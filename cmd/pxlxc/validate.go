package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mikeg91/proxmox-scripts/pkg/spec"
)

// newValidateCmd creates the validate subcommand
func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <spec-file>",
		Short: "Validate a container spec file",
		Long:  `Validate a container spec file without touching the host.`,
		Args:  cobra.ExactArgs(1),
		RunE:  runValidate,
	}
}

// runValidate validates a spec file and prints its issues.
func runValidate(_ *cobra.Command, args []string) error {
	s, err := spec.Load(args[0])
	if err != nil {
		return err
	}

	result := s.Validate()

	for _, issue := range result.Issues {
		prefix := "WARNING"
		if issue.Severity == spec.SeverityError {
			prefix = "ERROR"
		}
		if issue.Field != "" {
			fmt.Printf("[%s] %s: %s\n", prefix, issue.Field, issue.Message)
		} else {
			fmt.Printf("[%s] %s\n", prefix, issue.Message)
		}
	}

	if result.HasErrors() {
		return fmt.Errorf("validation failed with %d error(s)", result.ErrorCount())
	}

	if len(result.Issues) == 0 {
		fmt.Println("Spec is valid.")
	} else {
		fmt.Printf("\nValidation passed with %d warning(s).\n", result.WarningCount())
	}

	return nil
}

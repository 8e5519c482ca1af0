package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mikeg91/proxmox-scripts/pkg/profile"
)

// newProfilesCmd creates the profiles subcommand
func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List available application profiles",
		Long:  `List the built-in application profiles and their defaults.`,
		RunE:  runProfiles,
	}
}

// runProfiles lists the built-in profiles by category.
func runProfiles(_ *cobra.Command, _ []string) error {
	registry := profile.Builtin()

	fmt.Printf("Found %d profiles:\n\n", len(registry.Profiles))

	for _, category := range registry.Categories() {
		fmt.Printf("%s:\n", category)
		for _, p := range registry.ByCategory[category] {
			desc := p.Description
			if desc == "" {
				desc = "(no description)"
			}
			fmt.Printf("  - %s: %s\n", p.Name, desc)
			if p.RequiresGPU {
				fmt.Printf("    requires Intel GPU passthrough\n")
			}
		}
		fmt.Println()
	}

	return nil
}

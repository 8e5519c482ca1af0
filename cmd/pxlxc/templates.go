package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mikeg91/proxmox-scripts/pkg/hostcfg"
	"github.com/mikeg91/proxmox-scripts/pkg/pve"
	"github.com/mikeg91/proxmox-scripts/pkg/template"
)

// newTemplatesCmd creates the templates subcommand
func newTemplatesCmd() *cobra.Command {
	var storage, osVersion string

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List cached OS templates",
		Long:  `List container templates already downloaded to the template storage, newest first.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTemplates(cmd, storage, osVersion)
		},
	}

	cmd.Flags().StringVar(&storage, "storage", "", "Template storage (defaults to the host config)")
	cmd.Flags().StringVar(&osVersion, "os-version", "", "Filter by OS version, e.g. debian-12")

	return cmd
}

func runTemplates(cmd *cobra.Command, storage, osVersion string) error {
	cfgPath, err := hostcfg.DefaultPath()
	if err != nil {
		return err
	}
	defaults, err := hostcfg.Load(cfgPath)
	if err != nil {
		return err
	}
	if storage == "" {
		storage = defaults.TemplateStorage
	}
	if osVersion == "" {
		osVersion = defaults.OSVersion
	}

	client := pve.NewClient()
	if err := client.CheckInstalled(); err != nil {
		return err
	}

	refs, err := template.NewResolver(client).Cached(cmd.Context(), storage, osVersion)
	if err != nil {
		return err
	}

	if len(refs) == 0 {
		fmt.Printf("No %s templates cached on %s.\n", osVersion, storage)
		fmt.Println("Run 'pxlxc create --download-template' to fetch one during provisioning.")
		return nil
	}

	fmt.Printf("Cached %s templates on %s:\n\n", osVersion, storage)
	for i, ref := range refs {
		marker := "  "
		if i == 0 {
			marker = "* "
		}
		fmt.Printf("%s%s (version %s)\n", marker, ref.VolumeID, ref.Version)
	}
	fmt.Println("\n* newest, used by default")

	return nil
}

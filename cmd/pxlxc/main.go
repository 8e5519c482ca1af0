// Package main provides the pxlxc CLI for provisioning media-server LXC
// containers on a Proxmox VE host.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// version is set via -ldflags during build
var version = "dev"

func main() {
	rootCmd := newRootCmd()

	// Cobra handles error printing
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd creates the root command for pxlxc
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pxlxc",
		Short: "Proxmox LXC media-server provisioner",
		Long: `pxlxc provisions LXC containers for media-server workloads on a
Proxmox VE host.

It supports:
  - Application profiles (Plex, SABnzbd, NZBGet) with sane defaults
  - Intel GPU passthrough for hardware transcoding
  - Read-only media mounts from host storage
  - In-container bootstrap with a health check

Run it directly on the Proxmox host as root.`,
		Version: version,
	}

	rootCmd.AddCommand(
		newCreateCmd(),
		newValidateCmd(),
		newProfilesCmd(),
		newTemplatesCmd(),
		newDoctorCmd(),
	)

	return rootCmd
}

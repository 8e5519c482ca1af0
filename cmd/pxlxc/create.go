package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mikeg91/proxmox-scripts/pkg/gpu"
	"github.com/mikeg91/proxmox-scripts/pkg/hostcfg"
	"github.com/mikeg91/proxmox-scripts/pkg/profile"
	"github.com/mikeg91/proxmox-scripts/pkg/provision"
	"github.com/mikeg91/proxmox-scripts/pkg/pve"
	"github.com/mikeg91/proxmox-scripts/pkg/spec"
	"github.com/mikeg91/proxmox-scripts/pkg/tui"
)

// newCreateCmd creates the create subcommand
func newCreateCmd() *cobra.Command {
	var (
		specPath         string
		profileName      string
		interactive      bool
		plain            bool
		downloadTemplate bool
		deviceIndex      int
		destroyOnFailure bool
		verbose          bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create and bootstrap a container",
		Long: `Create an LXC container from a spec file or interactively, apply GPU
passthrough and media mounts, start it and bootstrap the selected profile.

A failed bootstrap leaves the container running for inspection; pass
--destroy-on-failure to tear down containers that fail before start.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCreate(cmd.Context(), createFlags{
				specPath:         specPath,
				profileName:      profileName,
				interactive:      interactive,
				plain:            plain,
				downloadTemplate: downloadTemplate,
				deviceIndex:      deviceIndex,
				destroyOnFailure: destroyOnFailure,
				verbose:          verbose,
			})
		},
	}

	cmd.Flags().StringVarP(&specPath, "spec", "f", "", "Container spec file (YAML)")
	cmd.Flags().StringVarP(&profileName, "profile", "p", "", "Application profile (overrides the spec)")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Build the spec interactively")
	cmd.Flags().BoolVar(&plain, "plain", false, "Print progress as plain lines instead of the live view")
	cmd.Flags().BoolVar(&downloadTemplate, "download-template", false, "Download the OS template when none is cached")
	cmd.Flags().IntVar(&deviceIndex, "device-index", -1, "GPU render node index (auto when only one exists)")
	cmd.Flags().BoolVar(&destroyOnFailure, "destroy-on-failure", false, "Destroy the container when provisioning fails before start")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

type createFlags struct {
	specPath         string
	profileName      string
	interactive      bool
	plain            bool
	downloadTemplate bool
	deviceIndex      int
	destroyOnFailure bool
	verbose          bool
}

func runCreate(ctx context.Context, flags createFlags) error {
	logger := log.New(os.Stderr)
	if flags.verbose {
		logger.SetLevel(log.DebugLevel)
	}

	cfgPath, err := hostcfg.DefaultPath()
	if err != nil {
		return err
	}
	defaults, err := hostcfg.Load(cfgPath)
	if err != nil {
		return err
	}

	client := pve.NewClient()
	if err := client.CheckInstalled(); err != nil {
		return err
	}

	registry := profile.Builtin()

	var (
		containerSpec *spec.ContainerSpec
		prof          *profile.Profile
		confirmPass   string
	)

	if flags.interactive {
		form, err := tui.RunSpecForm(registry, defaults)
		if err != nil {
			return err
		}
		containerSpec = form.Spec
		prof = form.Profile
		// The form already confirmed the password.
		confirmPass = containerSpec.RootPassword

		if prof.RequiresGPU && flags.deviceIndex < 0 {
			devices, err := gpu.Discover(gpu.DefaultDRIDir)
			if err != nil {
				return err
			}
			flags.deviceIndex, err = tui.SelectDevice(devices)
			if err != nil {
				return err
			}
		}

		ok, err := tui.ConfirmProvision(containerSpec, prof)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Cancelled.")
			return nil
		}
	} else {
		if flags.specPath == "" {
			return fmt.Errorf("either --spec or --interactive is required")
		}
		containerSpec, err = spec.Load(flags.specPath)
		if err != nil {
			return err
		}

		name := containerSpec.Profile
		if flags.profileName != "" {
			name = flags.profileName
		}
		if name != "" {
			prof = registry.Get(name)
			if prof == nil {
				return fmt.Errorf("unknown profile %q (run 'pxlxc profiles')", name)
			}
		}
	}

	if prof != nil {
		prof.ApplyDefaults(containerSpec)
	}

	opts := &provision.Options{
		Spec:                  containerSpec,
		Profile:               prof,
		ConfirmPassword:       confirmPass,
		DeviceIndex:           flags.deviceIndex,
		AllowTemplateDownload: flags.downloadTemplate,
		DestroyOnFailure:      flags.destroyOnFailure || defaults.DestroyOnFailure,
	}

	prov := provision.New(client)
	prov.SetLogger(logger)

	var result *provision.Result
	if flags.plain {
		result, err = prov.Provision(ctx, opts, plainProgress)
	} else {
		title := fmt.Sprintf("Provisioning container %d (%s)", containerSpec.VMID, containerSpec.Hostname)
		result, err = tui.RunWithProgress(ctx, title, func(cb provision.ProgressCallback) (*provision.Result, error) {
			return prov.Provision(ctx, opts, cb)
		})
	}
	if result != nil {
		printResult(result)
	}
	return err
}

// plainProgress prints progress events as plain lines for non-TTY use.
func plainProgress(e provision.ProgressEvent) {
	prefix := "==>"
	if e.IsError {
		prefix = "ERR"
	}
	fmt.Printf("%s [%s] %s\n", prefix, e.Stage.DisplayName(), e.Message)
	if e.Command != "" {
		fmt.Printf("      $ %s\n", e.Command)
	}
}

func printResult(result *provision.Result) {
	fmt.Println()
	if result.Success {
		fmt.Println(tui.SuccessStyle.Render(fmt.Sprintf("Container %d is up.", result.VMID)))
	} else {
		fmt.Println(tui.ErrorStyle.Render(fmt.Sprintf("Provisioning container %d failed.", result.VMID)))
		if result.Error != nil {
			fmt.Printf("  %v\n", result.Error)
		}
	}

	if len(result.Outputs) > 0 {
		fmt.Println()
		for _, key := range []string{"template", "device", "config_path", "enter"} {
			if v, ok := result.Outputs[key]; ok {
				fmt.Printf("  %-12s %s\n", key+":", v)
			}
		}
	}

	for _, line := range result.Logs {
		fmt.Println(tui.DimStyle.Render("  " + line))
	}
}

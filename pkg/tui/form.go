// Package tui provides the interactive surfaces of pxlxc: the huh-based
// container spec form and the bubbletea provisioning progress view. All
// provisioning semantics live in pkg/provision; this package only collects
// input and renders events.
package tui

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"

	"github.com/mikeg91/proxmox-scripts/pkg/gpu"
	"github.com/mikeg91/proxmox-scripts/pkg/hostcfg"
	"github.com/mikeg91/proxmox-scripts/pkg/profile"
	"github.com/mikeg91/proxmox-scripts/pkg/spec"
)

// FormResult carries the operator's answers out of the spec form.
type FormResult struct {
	Spec    *spec.ContainerSpec
	Profile *profile.Profile
}

// RunSpecForm walks the operator through building a container spec. Defaults
// for storage, bridge and OS version come from the host config.
func RunSpecForm(registry *profile.Registry, defaults *hostcfg.Config) (*FormResult, error) {
	var (
		profileName string
		vmid        = "100"
		hostname    string
		cores       = "2"
		memory      = "2048"
		swap        = "512"
		disk        = "8"
		storage     = defaults.Storage
		bridge      = defaults.Bridge
		unprivileged bool
		onBoot       = true
		password     string
		confirm      string
	)

	profileOpts := make([]huh.Option[string], 0, len(registry.Names()))
	for _, name := range registry.Names() {
		p := registry.Get(name)
		profileOpts = append(profileOpts, huh.NewOption(fmt.Sprintf("%s (%s)", p.Name, p.Category), name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Profile").
				Description("What should this container run?").
				Options(profileOpts...).
				Value(&profileName),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("VMID").
				Description("Container ID, 100 or higher").
				Value(&vmid).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("Hostname").
				Value(&hostname).
				Validate(validateNotEmpty),
			huh.NewInput().
				Title("CPU cores").
				Value(&cores).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("Memory (MB)").
				Value(&memory).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("Swap (MB)").
				Value(&swap).
				Validate(validateNonNegativeInt),
			huh.NewInput().
				Title("Disk (GB)").
				Value(&disk).
				Validate(validatePositiveInt),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Storage pool").
				Value(&storage).
				Validate(validateNotEmpty),
			huh.NewInput().
				Title("Network bridge").
				Value(&bridge).
				Validate(validateNotEmpty),
			huh.NewConfirm().
				Title("Unprivileged container?").
				Description("GPU passthrough profiles usually need a privileged container").
				Value(&unprivileged),
			huh.NewConfirm().
				Title("Start on boot?").
				Value(&onBoot),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Root password").
				EchoMode(huh.EchoModePassword).
				Value(&password).
				Validate(validatePassword),
			huh.NewInput().
				Title("Confirm password").
				EchoMode(huh.EchoModePassword).
				Value(&confirm).
				Validate(func(s string) error {
					if s != password {
						return errors.New("passwords do not match")
					}
					return nil
				}),
		),
	)

	if err := form.Run(); err != nil {
		return nil, err
	}

	// Validators guarantee these parse.
	id, _ := strconv.Atoi(vmid)
	coreN, _ := strconv.Atoi(cores)
	memN, _ := strconv.Atoi(memory)
	swapN, _ := strconv.Atoi(swap)
	diskN, _ := strconv.Atoi(disk)

	return &FormResult{
		Spec: &spec.ContainerSpec{
			VMID:            id,
			Hostname:        hostname,
			Cores:           coreN,
			MemoryMB:        memN,
			SwapMB:          swapN,
			DiskGB:          diskN,
			Storage:         storage,
			TemplateStorage: defaults.TemplateStorage,
			Bridge:          bridge,
			OSVersion:       defaults.OSVersion,
			Unprivileged:    unprivileged,
			OnBoot:          onBoot,
			RootPassword:    password,
			Profile:         profileName,
		},
		Profile: registry.Get(profileName),
	}, nil
}

// SelectDevice resolves which GPU device to pass through. With exactly one
// render node there is nothing to ask; with several the operator picks.
func SelectDevice(devices []gpu.Device) (int, error) {
	renders := gpu.RenderNodes(devices)
	switch len(renders) {
	case 0:
		return -1, gpu.ErrMissingDevice
	case 1:
		return 0, nil
	}

	opts := make([]huh.Option[int], len(renders))
	for i, d := range renders {
		opts[i] = huh.NewOption(d.Path, i)
	}

	var index int
	err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[int]().
			Title("GPU render node").
			Description("Multiple render nodes found; pick the one to pass through").
			Options(opts...).
			Value(&index),
	)).Run()
	if err != nil {
		return -1, err
	}
	return index, nil
}

// ConfirmProvision shows a summary and asks for final confirmation.
func ConfirmProvision(s *spec.ContainerSpec, p *profile.Profile) (bool, error) {
	summary := fmt.Sprintf(
		"VMID %d, hostname %q, profile %s\n%d cores, %d MB RAM, %d MB swap, %d GB disk on %s",
		s.VMID, s.Hostname, p.Name, s.Cores, s.MemoryMB, s.SwapMB, s.DiskGB, s.Storage,
	)

	var ok bool
	err := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title("Create this container?").
			Description(summary).
			Affirmative("Yes, create").
			Negative("No, cancel").
			Value(&ok),
	)).Run()
	return ok, err
}

func validateNotEmpty(s string) error {
	if s == "" {
		return errors.New("required")
	}
	return nil
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return errors.New("must be a number")
	}
	if n <= 0 {
		return errors.New("must be positive")
	}
	return nil
}

func validateNonNegativeInt(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return errors.New("must be a number")
	}
	if n < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

func validatePassword(s string) error {
	if len(s) < 5 {
		return errors.New("at least 5 characters")
	}
	return nil
}

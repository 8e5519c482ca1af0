// Package provision implements the container provisioning pipeline: validate,
// resolve template, create, apply passthrough and mounts, start, bootstrap.
// Every step is fail-fast; a failure after creation leaves the container in
// place unless DestroyOnFailure is set.
package provision

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/mikeg91/proxmox-scripts/pkg/bootstrap"
	"github.com/mikeg91/proxmox-scripts/pkg/gpu"
	"github.com/mikeg91/proxmox-scripts/pkg/profile"
	"github.com/mikeg91/proxmox-scripts/pkg/pve"
	"github.com/mikeg91/proxmox-scripts/pkg/spec"
	"github.com/mikeg91/proxmox-scripts/pkg/template"
)

// RenderGroupGID is the render group inside Debian containers; device nodes
// are exposed with this group so media services can open them.
const RenderGroupGID = 104

// Options configures one provisioning run.
type Options struct {
	Spec    *spec.ContainerSpec
	Profile *profile.Profile // nil skips profile defaults, GPU and bootstrap

	// ConfirmPassword, when non-empty, must match Spec.RootPassword.
	ConfirmPassword string

	// DeviceIndex selects among multiple GPU render nodes; -1 auto-selects
	// only when exactly one exists.
	DeviceIndex int

	// AllowTemplateDownload permits fetching a template when none is cached.
	AllowTemplateDownload bool

	// DestroyOnFailure tears the container down when a later stage fails.
	// Default is to keep it for inspection.
	DestroyOnFailure bool

	// DRIDir overrides the device discovery directory (tests).
	DRIDir string

	// ConfigPathFn overrides the container config path lookup (tests).
	ConfigPathFn func(vmid int) string
}

// Result is the outcome of a provisioning run.
type Result struct {
	RunID    string
	VMID     int
	Success  bool
	Duration time.Duration
	Outputs  map[string]string
	Logs     []string
	Error    error
}

// Provisioner drives the pipeline against a Proxmox host.
type Provisioner struct {
	client   *pve.Client
	resolver *template.Resolver
	logger   *log.Logger
}

// New creates a provisioner using the given pve client.
func New(client *pve.Client) *Provisioner {
	return &Provisioner{
		client:   client,
		resolver: template.NewResolver(client),
		logger:   log.Default(),
	}
}

// SetLogger replaces the structured logger.
func (p *Provisioner) SetLogger(logger *log.Logger) {
	p.logger = logger
}

// Validate runs every host-independent and host-side precondition check
// without creating anything: field validation, password confirmation,
// VMID collision, and GPU device discovery when passthrough is requested.
// It returns the resolved passthrough devices.
func (p *Provisioner) Validate(ctx context.Context, opts *Options) ([]spec.DeviceMount, error) {
	s := opts.Spec

	if result := s.Validate(); result.HasErrors() {
		return nil, &ValidationError{Result: result}
	}

	if opts.ConfirmPassword != "" && opts.ConfirmPassword != s.RootPassword {
		return nil, ErrPasswordMismatch
	}

	ids, err := p.client.ExistingVMIDs(ctx)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if id == s.VMID {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateVMID, s.VMID)
		}
	}

	return p.resolveDevices(opts)
}

// resolveDevices returns the device list to pass through: the spec's explicit
// devices, or a discovered GPU render node when the profile requires one.
func (p *Provisioner) resolveDevices(opts *Options) ([]spec.DeviceMount, error) {
	if opts.Spec.RequestsPassthrough() {
		return opts.Spec.Devices, nil
	}
	if opts.Profile == nil || !opts.Profile.RequiresGPU {
		return nil, nil
	}

	devices, err := gpu.Discover(opts.DRIDir)
	if err != nil {
		return nil, err
	}
	dev, err := gpu.Select(devices, opts.DeviceIndex)
	if err != nil {
		return nil, err
	}
	return []spec.DeviceMount{{HostPath: dev.Path, GID: RenderGroupGID}}, nil
}

// Provision runs the full pipeline. The returned Result is non-nil even on
// failure and carries the partial outputs gathered so far.
func (p *Provisioner) Provision(ctx context.Context, opts *Options, progress ProgressCallback) (*Result, error) {
	if progress == nil {
		progress = NoOpProgress
	}

	result := &Result{
		RunID:   uuid.New().String(),
		VMID:    opts.Spec.VMID,
		Outputs: make(map[string]string),
		Logs:    make([]string, 0),
	}
	start := time.Now()
	logger := p.logger.With("run", result.RunID, "vmid", opts.Spec.VMID)

	// Stage 1: validate. Nothing is created before this passes.
	progress(NewProgressEvent(StageValidating, "Validating container spec...", 5))
	devices, err := p.Validate(ctx, opts)
	if err != nil {
		return p.fail(result, start, progress, err), err
	}

	// Stage 2: resolve template.
	progress(NewProgressEventWithCommand(StageTemplate,
		"Resolving container template...",
		fmt.Sprintf("pveam list %s", opts.Spec.TemplateStorage), 15))
	ref, err := p.resolver.Resolve(ctx, opts.Spec.TemplateStorage, opts.Spec.OSVersion, opts.AllowTemplateDownload)
	if err != nil {
		return p.fail(result, start, progress, err), err
	}
	result.Outputs["template"] = ref.VolumeID
	logger.Debug("resolved template", "template", ref.VolumeID)

	// Stage 3: create. The container is not started here; passthrough and
	// mounts must land in the config first.
	progress(NewProgressEventWithCommand(StageCreating,
		fmt.Sprintf("Creating container %d...", opts.Spec.VMID),
		fmt.Sprintf("pct create %d %s", opts.Spec.VMID, ref.VolumeID), 30))
	if err := p.client.Create(ctx, opts.Spec, ref.VolumeID); err != nil {
		return p.fail(result, start, progress, err), err
	}
	result.Outputs["config_path"] = p.configPath(opts)

	// Stage 4: passthrough.
	cfg := &pve.ConfigFile{Path: p.configPath(opts)}
	if len(devices) > 0 {
		progress(NewProgressEvent(StagePassthrough,
			fmt.Sprintf("Passing through %d device(s)...", len(devices)), 40))
		for _, dev := range devices {
			if err := cfg.AppendDevice(dev); err != nil {
				return p.failKeeping(ctx, result, start, progress, opts, err), err
			}
			result.Outputs["device"] = dev.HostPath
			logger.Debug("passed through device", "device", dev.HostPath)
		}
	}

	// Stage 5: mounts.
	if len(opts.Spec.Mounts) > 0 {
		progress(NewProgressEvent(StageMounts,
			fmt.Sprintf("Applying %d mount point(s)...", len(opts.Spec.Mounts)), 50))
		for _, mp := range opts.Spec.Mounts {
			if err := cfg.AppendMount(mp); err != nil {
				return p.failKeeping(ctx, result, start, progress, opts, err), err
			}
		}
	}

	// Stage 6: start, strictly after passthrough/mount configuration.
	progress(NewProgressEventWithCommand(StageStarting,
		"Starting container...",
		fmt.Sprintf("pct start %d", opts.Spec.VMID), 60))
	if err := p.client.Start(ctx, opts.Spec.VMID); err != nil {
		return p.failKeeping(ctx, result, start, progress, opts, err), err
	}

	// Stage 7: bootstrap. Failures leave the container running, never torn
	// down, so the failing step can be inspected in place.
	if opts.Profile != nil {
		if err := p.bootstrap(ctx, opts, result, progress); err != nil {
			result.Logs = append(result.Logs,
				fmt.Sprintf("container %d is running but incompletely configured; inspect with 'pct enter %d'",
					opts.Spec.VMID, opts.Spec.VMID))
			return p.fail(result, start, progress, err), err
		}
	}

	progress(NewProgressEvent(StageComplete, "Provisioning complete", 100))
	result.Success = true
	result.Duration = time.Since(start)
	result.Outputs["enter"] = fmt.Sprintf("pct enter %d", opts.Spec.VMID)
	logger.Info("container provisioned", "duration", result.Duration)

	return result, nil
}

// bootstrap pushes unit files and executes the profile's command batch inside
// the running container, then runs the health check.
func (p *Provisioner) bootstrap(ctx context.Context, opts *Options, result *Result, progress ProgressCallback) error {
	batch := bootstrap.Build(opts.Profile)
	total := len(batch.Commands)

	for _, unit := range batch.Units {
		progress(NewProgressEvent(StageBootstrap,
			fmt.Sprintf("Installing %s...", unit.Path), 65))
		if err := p.client.Push(ctx, opts.Spec.VMID, unit.Path, unit.Content); err != nil {
			return &BootstrapError{Step: "install " + unit.Path, Err: err}
		}
	}

	for i, cmd := range batch.Commands {
		pct := 65 + (25*i)/max(total, 1)
		progress(NewProgressEventWithCommand(StageBootstrap, cmd.Description+"...", cmd.Shell, pct))
		out, err := p.client.Exec(ctx, opts.Spec.VMID, cmd.Shell)
		if out != "" {
			result.Logs = append(result.Logs, out)
		}
		if err != nil {
			return &BootstrapError{Step: cmd.Description, Command: cmd.Shell, Err: err}
		}
	}

	if batch.HealthCheck != "" {
		progress(NewProgressEventWithCommand(StageHealth,
			"Checking service health...", batch.HealthCheck, 95))
		if _, err := p.client.Exec(ctx, opts.Spec.VMID, batch.HealthCheck); err != nil {
			return &BootstrapError{Step: "health check", Command: batch.HealthCheck, Err: err}
		}
	}

	return nil
}

func (p *Provisioner) configPath(opts *Options) string {
	if opts.ConfigPathFn != nil {
		return opts.ConfigPathFn(opts.Spec.VMID)
	}
	return pve.ConfigPath(opts.Spec.VMID)
}

// fail finalizes the result for an error before or without container
// involvement.
func (p *Provisioner) fail(result *Result, start time.Time, progress ProgressCallback, err error) *Result {
	progress(NewErrorEvent(err.Error()))
	result.Success = false
	result.Error = err
	result.Duration = time.Since(start)
	return result
}

// failKeeping finalizes a failure that happened after the container was
// created. By default the half-configured container is kept for inspection;
// DestroyOnFailure tears it down instead.
func (p *Provisioner) failKeeping(ctx context.Context, result *Result, start time.Time, progress ProgressCallback, opts *Options, err error) *Result {
	if opts.DestroyOnFailure {
		progress(NewProgressEvent(StageCleanup, "Destroying partially configured container...", -1))
		if cleanupErr := p.Cleanup(ctx, opts); cleanupErr != nil {
			result.Logs = append(result.Logs, fmt.Sprintf("cleanup failed: %v", cleanupErr))
		}
	} else {
		result.Logs = append(result.Logs,
			fmt.Sprintf("container %d left in place; inspect with 'pct config %d' or remove with 'pct destroy %d'",
				opts.Spec.VMID, opts.Spec.VMID, opts.Spec.VMID))
	}
	return p.fail(result, start, progress, err)
}

// Cleanup stops and destroys the container. Stop errors are ignored since the
// container may never have started.
func (p *Provisioner) Cleanup(ctx context.Context, opts *Options) error {
	_ = p.client.Stop(ctx, opts.Spec.VMID)
	return p.client.Destroy(ctx, opts.Spec.VMID)
}

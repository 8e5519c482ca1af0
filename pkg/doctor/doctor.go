// Package doctor checks that the host carries everything provisioning needs:
// the Proxmox container tooling and the Intel GPU device nodes used for
// passthrough.
package doctor

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/mikeg91/proxmox-scripts/pkg/gpu"
	"github.com/mikeg91/proxmox-scripts/pkg/pve"
)

// CheckStatus represents the status of a dependency check.
type CheckStatus int

const (
	// StatusOK indicates the dependency is present and working.
	StatusOK CheckStatus = iota
	// StatusMissing indicates the dependency is not installed.
	StatusMissing
	// StatusError indicates an error occurred during the check.
	StatusError
	// StatusWarning indicates the dependency has issues but may work.
	StatusWarning
)

// String returns the string representation of the status.
func (s CheckStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusMissing:
		return "missing"
	case StatusError:
		return "error"
	case StatusWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Check is a single dependency check result.
type Check struct {
	ID      string
	Name    string
	Status  CheckStatus
	Message string
	Hint    string // how to fix, empty when not fixable
}

// CheckGroup is a group of related checks.
type CheckGroup struct {
	ID     string
	Name   string
	Checks []Check
}

// Group IDs.
const (
	GroupProxmox = "proxmox"
	GroupGPU     = "gpu"
)

// Checker runs host dependency checks.
type Checker struct {
	exec   pve.CommandExecutor
	driDir string
}

// NewChecker creates a checker using the real executor.
func NewChecker() *Checker {
	return &Checker{exec: &pve.RealExecutor{}, driDir: gpu.DefaultDRIDir}
}

// NewCheckerWithExecutor creates a checker with a custom executor (tests).
func NewCheckerWithExecutor(exec pve.CommandExecutor) *Checker {
	return &Checker{exec: exec, driDir: gpu.DefaultDRIDir}
}

// SetDRIDir overrides the device discovery directory.
func (c *Checker) SetDRIDir(dir string) {
	c.driDir = dir
}

// CheckAll runs all groups concurrently.
func (c *Checker) CheckAll(ctx context.Context) []CheckGroup {
	ids := []string{GroupProxmox, GroupGPU}
	result := make([]CheckGroup, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(idx int, groupID string) {
			defer wg.Done()
			result[idx] = c.CheckGroup(ctx, groupID)
		}(i, id)
	}
	wg.Wait()

	return result
}

// CheckGroup runs the checks of one group.
func (c *Checker) CheckGroup(ctx context.Context, groupID string) CheckGroup {
	switch groupID {
	case GroupProxmox:
		return CheckGroup{
			ID:   GroupProxmox,
			Name: "Proxmox VE tooling",
			Checks: []Check{
				c.checkTool(ctx, "pct", "Container toolkit", []string{"--version"}),
				c.checkTool(ctx, "pveam", "Appliance manager", []string{"help"}),
				c.checkTool(ctx, "pvesm", "Storage manager", []string{"help"}),
			},
		}
	case GroupGPU:
		return CheckGroup{
			ID:     GroupGPU,
			Name:   "Intel GPU passthrough",
			Checks: []Check{c.checkGPU(), c.checkVAInfo(ctx)},
		}
	default:
		return CheckGroup{ID: groupID, Name: groupID}
	}
}

var versionRegex = regexp.MustCompile(`(\d+\.\d+[\w.-]*)`)

// checkTool verifies a host tool exists and responds.
func (c *Checker) checkTool(ctx context.Context, name, display string, args []string) Check {
	check := Check{ID: name, Name: display}

	if _, err := c.exec.LookPath(name); err != nil {
		check.Status = StatusMissing
		check.Message = "not found in PATH"
		check.Hint = "this tool must run directly on a Proxmox VE host"
		return check
	}

	out, err := c.exec.Run(ctx, name, args...)
	if err != nil && strings.TrimSpace(out) == "" {
		// pveam/pvesm help exits non-zero on some releases; only an
		// unresolvable binary with no output counts against it.
		check.Status = StatusWarning
		check.Message = fmt.Sprintf("installed but not responding: %v", err)
		return check
	}

	check.Status = StatusOK
	check.Message = "installed"
	if m := versionRegex.FindString(out); m != "" {
		check.Message = "version " + m
	}
	return check
}

// checkGPU verifies at least one render node exists.
func (c *Checker) checkGPU() Check {
	check := Check{ID: "dri", Name: "DRM render node"}

	devices, err := gpu.Discover(c.driDir)
	if err != nil {
		check.Status = StatusMissing
		check.Message = err.Error()
		check.Hint = "enable the iGPU in BIOS and load the i915 driver on the host"
		return check
	}

	renders := gpu.RenderNodes(devices)
	if len(renders) == 0 {
		check.Status = StatusMissing
		check.Message = "card nodes present but no render node"
		check.Hint = "enable the iGPU in BIOS and load the i915 driver on the host"
		return check
	}

	paths := make([]string, len(renders))
	for i, d := range renders {
		paths[i] = d.Path
	}
	check.Status = StatusOK
	check.Message = strings.Join(paths, ", ")
	if len(renders) > 1 {
		check.Status = StatusWarning
		check.Message += " (multiple nodes; pass --device-index)"
	}
	return check
}

// checkVAInfo reports whether vainfo is available for verifying transcoding.
func (c *Checker) checkVAInfo(ctx context.Context) Check {
	check := Check{ID: "vainfo", Name: "VA-API probe"}

	if _, err := c.exec.LookPath("vainfo"); err != nil {
		check.Status = StatusWarning
		check.Message = "not installed (optional)"
		check.Hint = "apt install vainfo to verify hardware transcoding"
		return check
	}

	if _, err := c.exec.Run(ctx, "vainfo"); err != nil {
		check.Status = StatusWarning
		check.Message = "installed but failed to probe the GPU"
		return check
	}

	check.Status = StatusOK
	check.Message = "GPU responds to VA-API"
	return check
}

// HasFailures reports whether any group contains a missing or errored check.
func HasFailures(groups []CheckGroup) bool {
	for _, g := range groups {
		for _, c := range g.Checks {
			if c.Status == StatusMissing || c.Status == StatusError {
				return true
			}
		}
	}
	return false
}

package pve

import (
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mikeg91/proxmox-scripts/pkg/spec"
)

// Client drives the Proxmox container tooling on the local host.
type Client struct {
	exec      CommandExecutor
	pctPath   string
	pveamPath string
}

// NewClient creates a client using the real executor.
func NewClient() *Client {
	return NewClientWithExecutor(&RealExecutor{})
}

// NewClientWithExecutor creates a client with a custom executor (for testing).
func NewClientWithExecutor(exec CommandExecutor) *Client {
	return &Client{
		exec:      exec,
		pctPath:   "pct",
		pveamPath: "pveam",
	}
}

// CheckInstalled verifies the Proxmox tooling is available on this host.
func (c *Client) CheckInstalled() error {
	pct, err := c.exec.LookPath(c.pctPath)
	if err != nil {
		return fmt.Errorf("pct not found; this tool must run on a Proxmox VE host")
	}
	c.pctPath = pct

	pveam, err := c.exec.LookPath(c.pveamPath)
	if err != nil {
		return fmt.Errorf("pveam not found; this tool must run on a Proxmox VE host")
	}
	c.pveamPath = pveam

	return nil
}

// ExistingVMIDs returns the VMIDs of all containers on this host.
func (c *Client) ExistingVMIDs(ctx context.Context) ([]int, error) {
	out, err := c.exec.Run(ctx, c.pctPath, "list")
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	var ids []int
	for i, line := range strings.Split(out, "\n") {
		if i == 0 {
			// Header: "VMID  Status  Lock  Name"
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		id, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Create issues the container creation request. The container is explicitly
// not started: passthrough and mount configuration must land in the config
// file before first boot.
func (c *Client) Create(ctx context.Context, s *spec.ContainerSpec, templateRef string) error {
	args := []string{
		"create", strconv.Itoa(s.VMID), templateRef,
		"--hostname", s.Hostname,
		"--cores", strconv.Itoa(s.Cores),
		"--memory", strconv.Itoa(s.MemoryMB),
		"--swap", strconv.Itoa(s.SwapMB),
		"--rootfs", s.RootFS(),
		"--net0", s.NetConfig(),
		"--features", "nesting=1",
		"--start", "0",
	}

	if s.Unprivileged {
		args = append(args, "--unprivileged", "1")
	} else {
		args = append(args, "--unprivileged", "0")
	}
	if s.OnBoot {
		args = append(args, "--onboot", "1")
	}
	if s.Tags != "" {
		args = append(args, "--tags", s.Tags)
	}
	if s.RootPassword != "" {
		args = append(args, "--password", s.RootPassword)
	}

	if _, err := c.exec.Run(ctx, c.pctPath, args...); err != nil {
		return fmt.Errorf("failed to create container %d: %w", s.VMID, err)
	}
	return nil
}

// Start starts the container.
func (c *Client) Start(ctx context.Context, vmid int) error {
	if _, err := c.exec.Run(ctx, c.pctPath, "start", strconv.Itoa(vmid)); err != nil {
		return fmt.Errorf("failed to start container %d: %w", vmid, err)
	}
	return nil
}

// Stop stops the container.
func (c *Client) Stop(ctx context.Context, vmid int) error {
	if _, err := c.exec.Run(ctx, c.pctPath, "stop", strconv.Itoa(vmid)); err != nil {
		return fmt.Errorf("failed to stop container %d: %w", vmid, err)
	}
	return nil
}

// Destroy removes the container and its volumes.
func (c *Client) Destroy(ctx context.Context, vmid int) error {
	args := []string{"destroy", strconv.Itoa(vmid), "--purge"}
	if _, err := c.exec.Run(ctx, c.pctPath, args...); err != nil {
		return fmt.Errorf("failed to destroy container %d: %w", vmid, err)
	}
	return nil
}

// Exec runs a shell command inside the container and returns its output.
func (c *Client) Exec(ctx context.Context, vmid int, command string) (string, error) {
	out, err := c.exec.Run(ctx, c.pctPath, "exec", strconv.Itoa(vmid), "--", "bash", "-c", command)
	if err != nil {
		return out, err
	}
	return out, nil
}

// Push copies file content to a path inside the container by writing it
// through pct exec with a heredoc-safe encoding.
func (c *Client) Push(ctx context.Context, vmid int, destPath, content string) error {
	// base64 round trip avoids quoting issues in unit file content.
	cmd := fmt.Sprintf("mkdir -p %q && base64 -d > %q <<'EOF'\n%s\nEOF",
		pathDir(destPath), destPath, encodeBase64(content))
	if _, err := c.Exec(ctx, vmid, cmd); err != nil {
		return fmt.Errorf("failed to push %s: %w", destPath, err)
	}
	return nil
}

// Status returns the container status string ("running", "stopped", ...).
func (c *Client) Status(ctx context.Context, vmid int) (string, error) {
	out, err := c.exec.Run(ctx, c.pctPath, "status", strconv.Itoa(vmid))
	if err != nil {
		return "", fmt.Errorf("failed to get status of container %d: %w", vmid, err)
	}
	// Output: "status: running"
	parts := strings.SplitN(strings.TrimSpace(out), ":", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("unexpected pct status output: %q", out)
	}
	return strings.TrimSpace(parts[1]), nil
}

// TemplateList returns the cached template lines for a storage, one volume
// ID per entry, e.g. "local:vztmpl/debian-12-standard_12.7-1_amd64.tar.zst".
func (c *Client) TemplateList(ctx context.Context, storage string) ([]string, error) {
	out, err := c.exec.Run(ctx, c.pveamPath, "list", storage)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates on %s: %w", storage, err)
	}

	var refs []string
	for i, line := range strings.Split(out, "\n") {
		if i == 0 {
			// Header: "NAME  SIZE"
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		refs = append(refs, fields[0])
	}
	return refs, nil
}

// TemplateAvailable returns downloadable system template names.
func (c *Client) TemplateAvailable(ctx context.Context) ([]string, error) {
	out, err := c.exec.Run(ctx, c.pveamPath, "available", "--section", "system")
	if err != nil {
		return nil, fmt.Errorf("failed to query available templates: %w", err)
	}

	var names []string
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		// Lines look like: "system  debian-12-standard_12.7-1_amd64.tar.zst"
		if len(fields) != 2 {
			continue
		}
		names = append(names, fields[1])
	}
	return names, nil
}

// TemplateUpdate refreshes the template index.
func (c *Client) TemplateUpdate(ctx context.Context) error {
	if _, err := c.exec.Run(ctx, c.pveamPath, "update"); err != nil {
		return fmt.Errorf("failed to update template index: %w", err)
	}
	return nil
}

// TemplateDownload downloads a template onto a storage.
func (c *Client) TemplateDownload(ctx context.Context, storage, name string) error {
	if _, err := c.exec.Run(ctx, c.pveamPath, "download", storage, name); err != nil {
		return fmt.Errorf("failed to download template %s: %w", name, err)
	}
	return nil
}

// ConfigPath returns the host-side config file path for a container.
func ConfigPath(vmid int) string {
	return fmt.Sprintf("/etc/pve/lxc/%d.conf", vmid)
}

func pathDir(path string) string {
	return filepath.Dir(path)
}

func encodeBase64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// Package spec defines the declarative container description consumed by the
// provisioner. A ContainerSpec is constructed once (from a YAML file, CLI
// flags, or the interactive wizard) and passed to every provisioning step
// unchanged.
package spec

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DeviceMount describes a host device node passed through into the container.
type DeviceMount struct {
	HostPath  string `yaml:"host_path"`
	GuestPath string `yaml:"guest_path,omitempty"` // defaults to HostPath
	GID       int    `yaml:"gid,omitempty"`        // group owner inside the container
	Mode      string `yaml:"mode,omitempty"`       // e.g. "0660"
}

// MountPoint describes a host directory bind-mounted into the container.
type MountPoint struct {
	HostPath  string `yaml:"host_path"`
	GuestPath string `yaml:"guest_path"`
	ReadOnly  bool   `yaml:"read_only,omitempty"`
}

// ContainerSpec is the full description of a container to provision.
type ContainerSpec struct {
	VMID            int    `yaml:"vmid"`
	Hostname        string `yaml:"hostname"`
	Cores           int    `yaml:"cores"`
	MemoryMB        int    `yaml:"memory_mb"`
	SwapMB          int    `yaml:"swap_mb"`
	DiskGB          int    `yaml:"disk_gb"`
	Storage         string `yaml:"storage"`
	TemplateStorage string `yaml:"template_storage"`
	Bridge          string `yaml:"bridge"`
	OSVersion       string `yaml:"os_version"` // e.g. "debian-12"
	Unprivileged    bool   `yaml:"unprivileged"`
	OnBoot          bool   `yaml:"onboot"`
	Tags            string `yaml:"tags,omitempty"`

	// RootPassword is the container root credential. Confirmation entry is
	// the input adapter's concern; see provision.Options.ConfirmPassword.
	RootPassword string `yaml:"root_password,omitempty"`

	Profile string        `yaml:"profile,omitempty"`
	Devices []DeviceMount `yaml:"devices,omitempty"`
	Mounts  []MountPoint  `yaml:"mounts,omitempty"`
}

// Load reads a ContainerSpec from a YAML file.
func Load(path string) (*ContainerSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec file: %w", err)
	}
	var s ContainerSpec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse spec file: %w", err)
	}
	return &s, nil
}

// Save writes the spec to a YAML file. The root password is written as-is,
// so spec files containing credentials get restrictive permissions.
func (s *ContainerSpec) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal spec: %w", err)
	}
	mode := os.FileMode(0644)
	if s.RootPassword != "" {
		mode = 0600
	}
	if err := os.WriteFile(path, data, mode); err != nil {
		return fmt.Errorf("failed to write spec file: %w", err)
	}
	return nil
}

// RequestsPassthrough reports whether the spec asks for device passthrough.
func (s *ContainerSpec) RequestsPassthrough() bool {
	return len(s.Devices) > 0
}

// NetConfig returns the pct --net0 argument for this spec.
func (s *ContainerSpec) NetConfig() string {
	return fmt.Sprintf("name=eth0,bridge=%s,ip=dhcp,firewall=1", s.Bridge)
}

// RootFS returns the pct --rootfs argument for this spec.
func (s *ContainerSpec) RootFS() string {
	return fmt.Sprintf("%s:%d", s.Storage, s.DiskGB)
}

// Package profile provides the built-in container profiles. A profile bundles
// the default ContainerSpec values, APT packages, third-party repository
// configuration, and service units for one media-server workload, replacing
// per-application provisioning scripts with named presets.
package profile

import (
	"github.com/mikeg91/proxmox-scripts/pkg/spec"
)

// Category represents a grouping of related profiles.
type Category string

const (
	CategoryMedia    Category = "Media Servers"
	CategoryDownload Category = "Download Clients"
	CategorySystem   Category = "System"
)

// AptRepo describes a third-party APT repository scoped to its signing key.
type AptRepo struct {
	// Name identifies the repo, used for log output.
	Name string

	// KeyURL is the public signing key to fetch.
	KeyURL string

	// KeyringPath is where the dearmored key is written inside the container.
	KeyringPath string

	// SourcesPath is the sources list file to create.
	SourcesPath string

	// RepoLine is the deb line, with [signed-by=KeyringPath] already scoped.
	RepoLine string
}

// Unit describes a systemd unit the profile enables inside the container.
type Unit struct {
	// Name is the unit name including suffix, e.g. "plexmediaserver.service".
	Name string

	// Content holds the unit file text for units this tool installs itself.
	// Empty means the unit is shipped by the installed package.
	Content string
}

// Profile bundles everything needed to provision one workload.
type Profile struct {
	Name        string
	DisplayName string
	Description string
	Category    Category

	// RequiresGPU requests Intel GPU passthrough for hardware transcoding.
	RequiresGPU bool

	// Defaults are the spec values used when the caller does not override them.
	Defaults spec.ContainerSpec

	// EnableBackports adds the distribution backports repo before install.
	EnableBackports bool

	Repo     *AptRepo
	Packages []string

	// PreInstall commands run after repo setup, before package install.
	PreInstall []string

	// PostInstall commands run after package install, before unit enablement.
	PostInstall []string

	Units []Unit

	// HealthCheck is a command that must exit 0 once the service is up.
	HealthCheck string
}

// Registry holds all registered profiles.
// Registry is not thread-safe and should not be modified concurrently.
type Registry struct {
	Profiles   []Profile
	ByName     map[string]Profile
	ByCategory map[Category][]Profile
}

// NewRegistry creates an empty profile registry.
func NewRegistry() *Registry {
	return &Registry{
		Profiles:   make([]Profile, 0, 8),
		ByName:     make(map[string]Profile),
		ByCategory: make(map[Category][]Profile),
	}
}

// Add adds a profile to the registry.
func (r *Registry) Add(p Profile) {
	r.Profiles = append(r.Profiles, p)
	r.ByName[p.Name] = p

	if _, ok := r.ByCategory[p.Category]; !ok {
		r.ByCategory[p.Category] = make([]Profile, 0)
	}
	r.ByCategory[p.Category] = append(r.ByCategory[p.Category], p)
}

// Get returns a profile by name, or nil if not found.
func (r *Registry) Get(name string) *Profile {
	if p, ok := r.ByName[name]; ok {
		return &p
	}
	return nil
}

// Names returns all profile names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.Profiles))
	for _, p := range r.Profiles {
		names = append(names, p.Name)
	}
	return names
}

// Categories returns the categories that have at least one profile,
// in a stable display order.
func (r *Registry) Categories() []Category {
	order := []Category{CategoryMedia, CategoryDownload, CategorySystem}
	out := make([]Category, 0, len(order))
	for _, c := range order {
		if len(r.ByCategory[c]) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// ApplyDefaults fills zero-valued fields of s from the profile defaults.
// The caller's explicit values always win.
func (p *Profile) ApplyDefaults(s *spec.ContainerSpec) {
	d := p.Defaults
	if s.Hostname == "" {
		s.Hostname = d.Hostname
	}
	if s.Cores == 0 {
		s.Cores = d.Cores
	}
	if s.MemoryMB == 0 {
		s.MemoryMB = d.MemoryMB
	}
	if s.SwapMB == 0 {
		s.SwapMB = d.SwapMB
	}
	if s.DiskGB == 0 {
		s.DiskGB = d.DiskGB
	}
	if s.OSVersion == "" {
		s.OSVersion = d.OSVersion
	}
	if s.Tags == "" {
		s.Tags = d.Tags
	}
	if s.Profile == "" {
		s.Profile = p.Name
	}
}

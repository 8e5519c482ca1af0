// Package bootstrap builds the command batch executed inside a freshly
// started container: system update, repository setup, package install, unit
// enablement, and the post-start health check. The batch content is derived
// entirely from profile data.
package bootstrap

import (
	"fmt"
	"strings"

	"github.com/mikeg91/proxmox-scripts/pkg/profile"
)

// aptEnv keeps apt from prompting inside the container.
const aptEnv = "DEBIAN_FRONTEND=noninteractive"

// Command is one step of the in-container batch.
type Command struct {
	// Description is shown in progress output.
	Description string

	// Shell is the command passed to bash -c inside the container.
	Shell string
}

// UnitFile is a systemd unit the batch needs pushed into the container
// before the enable step runs.
type UnitFile struct {
	Path    string
	Content string
}

// Batch is the ordered command sequence for one profile.
type Batch struct {
	Commands []Command
	Units    []UnitFile

	// HealthCheck runs after the batch, once the services settle.
	HealthCheck string
}

// Build assembles the bootstrap batch for a profile.
func Build(p *profile.Profile) *Batch {
	b := &Batch{HealthCheck: p.HealthCheck}

	b.add("Updating package index", aptEnv+" apt-get update")
	b.add("Upgrading base system", aptEnv+" apt-get -y dist-upgrade")

	if p.EnableBackports {
		b.add("Enabling backports",
			`. /etc/os-release && echo "deb http://deb.debian.org/debian ${VERSION_CODENAME}-backports main contrib non-free non-free-firmware" > /etc/apt/sources.list.d/backports.list`)
	}

	if p.Repo != nil {
		b.add(fmt.Sprintf("Importing %s signing key", p.Repo.Name),
			fmt.Sprintf("curl -fsSL %s | gpg --dearmor -o %s", p.Repo.KeyURL, p.Repo.KeyringPath))
		b.add(fmt.Sprintf("Adding %s repository", p.Repo.Name),
			fmt.Sprintf("echo %q > %s", p.Repo.RepoLine, p.Repo.SourcesPath))
	}

	if p.EnableBackports || p.Repo != nil {
		b.add("Refreshing package index", aptEnv+" apt-get update")
	}

	for _, cmd := range p.PreInstall {
		b.add("Running pre-install step", cmd)
	}

	if len(p.Packages) > 0 {
		b.add(fmt.Sprintf("Installing %s", strings.Join(p.Packages, ", ")),
			aptEnv+" apt-get -y install "+strings.Join(p.Packages, " "))
	}

	for _, cmd := range p.PostInstall {
		b.add("Running post-install step", cmd)
	}

	for _, unit := range p.Units {
		if unit.Content != "" {
			b.Units = append(b.Units, UnitFile{
				Path:    "/etc/systemd/system/" + unit.Name,
				Content: unit.Content,
			})
			b.add("Reloading systemd", "systemctl daemon-reload")
		}
		b.add(fmt.Sprintf("Enabling %s", unit.Name),
			fmt.Sprintf("systemctl enable --now %s", unit.Name))
	}

	return b
}

func (b *Batch) add(description, shell string) {
	b.Commands = append(b.Commands, Command{Description: description, Shell: shell})
}

package profile

import (
	_ "embed"

	"github.com/mikeg91/proxmox-scripts/pkg/spec"
)

//go:embed assets/nzbget.service
var nzbgetUnit string

// baseDefaults are shared by every profile; per-profile defaults override.
func baseDefaults(hostname string, cores, memoryMB, swapMB, diskGB int) spec.ContainerSpec {
	return spec.ContainerSpec{
		Hostname:  hostname,
		Cores:     cores,
		MemoryMB:  memoryMB,
		SwapMB:    swapMB,
		DiskGB:    diskGB,
		OSVersion: "debian-12",
	}
}

// Builtin returns the registry of built-in profiles.
func Builtin() *Registry {
	r := NewRegistry()

	r.Add(Profile{
		Name:        "media-base",
		DisplayName: "Media Base",
		Description: "Bare Debian container prepared for media tooling",
		Category:    CategorySystem,
		Defaults:    baseDefaults("media", 2, 2048, 512, 8),
		Packages:    []string{"curl", "gnupg", "ca-certificates", "tzdata"},
	})

	r.Add(Profile{
		Name:        "plex",
		DisplayName: "Plex Media Server",
		Description: "Plex with Intel GPU passthrough for hardware transcoding",
		Category:    CategoryMedia,
		RequiresGPU: true,
		Defaults: func() spec.ContainerSpec {
			d := baseDefaults("plex", 3, 8192, 2048, 16)
			d.Tags = "media"
			return d
		}(),
		EnableBackports: true,
		Repo: &AptRepo{
			Name:        "plexmediaserver",
			KeyURL:      "https://downloads.plex.tv/plex-keys/PlexSign.key",
			KeyringPath: "/usr/share/keyrings/plex-archive-keyring.gpg",
			SourcesPath: "/etc/apt/sources.list.d/plexmediaserver.list",
			RepoLine:    "deb [signed-by=/usr/share/keyrings/plex-archive-keyring.gpg] https://downloads.plex.tv/repo/deb public main",
		},
		Packages: []string{"plexmediaserver", "intel-media-va-driver-non-free", "vainfo"},
		PostInstall: []string{
			// Plex needs to be in the render group to reach the DRI node.
			"usermod -aG render,video plex",
		},
		Units:       []Unit{{Name: "plexmediaserver.service"}},
		HealthCheck: "systemctl is-active --quiet plexmediaserver.service",
	})

	r.Add(Profile{
		Name:        "sabnzbd",
		DisplayName: "SABnzbd",
		Description: "SABnzbd usenet downloader with unpack tooling",
		Category:    CategoryDownload,
		Defaults: func() spec.ContainerSpec {
			d := baseDefaults("sabnzbd", 2, 4096, 1024, 12)
			d.Tags = "media"
			return d
		}(),
		EnableBackports: true,
		Packages:        []string{"sabnzbdplus", "par2", "p7zip-full", "unzip"},
		PostInstall: []string{
			// Listen beyond localhost so the web UI is reachable on the LAN.
			"sed -i 's/^host = 127.0.0.1/host = 0.0.0.0/' /etc/default/sabnzbdplus || true",
		},
		Units:       []Unit{{Name: "sabnzbdplus.service"}},
		HealthCheck: "systemctl is-active --quiet sabnzbdplus.service",
	})

	r.Add(Profile{
		Name:        "nzbget",
		DisplayName: "NZBGet",
		Description: "NZBGet usenet downloader installed from the upstream binary",
		Category:    CategoryDownload,
		Defaults: func() spec.ContainerSpec {
			d := baseDefaults("nzbget", 2, 2048, 1024, 10)
			d.Tags = "media"
			return d
		}(),
		Packages: []string{"curl", "p7zip-full", "unzip"},
		PreInstall: []string{
			"useradd --system --home-dir /opt/nzbget --shell /usr/sbin/nologin nzbget || true",
		},
		PostInstall: []string{
			"curl -fsSL -o /tmp/nzbget-latest.run https://github.com/nzbgetcom/nzbget/releases/latest/download/nzbget-latest-bin-linux.run",
			"sh /tmp/nzbget-latest.run --destdir /opt/nzbget",
			"chown -R nzbget:nzbget /opt/nzbget",
			"rm -f /tmp/nzbget-latest.run",
		},
		Units:       []Unit{{Name: "nzbget.service", Content: nzbgetUnit}},
		HealthCheck: "systemctl is-active --quiet nzbget.service",
	})

	return r
}

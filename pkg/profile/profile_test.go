package profile

import (
	"strings"
	"testing"

	"github.com/mikeg91/proxmox-scripts/pkg/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin(t *testing.T) {
	r := Builtin()

	t.Run("registers expected profiles", func(t *testing.T) {
		assert.ElementsMatch(t,
			[]string{"media-base", "plex", "sabnzbd", "nzbget"},
			r.Names(),
		)
	})

	t.Run("lookup by name", func(t *testing.T) {
		p := r.Get("plex")
		require.NotNil(t, p)
		assert.Equal(t, "Plex Media Server", p.DisplayName)
		assert.True(t, p.RequiresGPU)

		assert.Nil(t, r.Get("jellyfin"))
	})

	t.Run("categories in display order", func(t *testing.T) {
		assert.Equal(t,
			[]Category{CategoryMedia, CategoryDownload, CategorySystem},
			r.Categories(),
		)
	})

	t.Run("only plex requires gpu", func(t *testing.T) {
		for _, p := range r.Profiles {
			if p.Name == "plex" {
				continue
			}
			assert.False(t, p.RequiresGPU, "profile %s should not require GPU", p.Name)
		}
	})

	t.Run("repo lines are key scoped", func(t *testing.T) {
		for _, p := range r.Profiles {
			if p.Repo == nil {
				continue
			}
			assert.Contains(t, p.Repo.RepoLine, "signed-by="+p.Repo.KeyringPath,
				"profile %s repo line must be scoped to its keyring", p.Name)
		}
	})

	t.Run("nzbget ships its own unit", func(t *testing.T) {
		p := r.Get("nzbget")
		require.NotNil(t, p)
		require.Len(t, p.Units, 1)
		assert.Equal(t, "nzbget.service", p.Units[0].Name)
		assert.True(t, strings.Contains(p.Units[0].Content, "ExecStart=/opt/nzbget/nzbget"))
	})

	t.Run("profiles with units have a health check", func(t *testing.T) {
		for _, p := range r.Profiles {
			if len(p.Units) > 0 {
				assert.NotEmpty(t, p.HealthCheck, "profile %s", p.Name)
			}
		}
	})
}

func TestApplyDefaults(t *testing.T) {
	p := Builtin().Get("plex")

	t.Run("fills zero values", func(t *testing.T) {
		s := &spec.ContainerSpec{VMID: 100}
		p.ApplyDefaults(s)

		assert.Equal(t, "plex", s.Hostname)
		assert.Equal(t, 3, s.Cores)
		assert.Equal(t, 8192, s.MemoryMB)
		assert.Equal(t, 2048, s.SwapMB)
		assert.Equal(t, "debian-12", s.OSVersion)
		assert.Equal(t, "plex", s.Profile)
	})

	t.Run("explicit values win", func(t *testing.T) {
		s := &spec.ContainerSpec{VMID: 100, Hostname: "plex-4k", Cores: 8, MemoryMB: 16384}
		p.ApplyDefaults(s)

		assert.Equal(t, "plex-4k", s.Hostname)
		assert.Equal(t, 8, s.Cores)
		assert.Equal(t, 16384, s.MemoryMB)
	})
}

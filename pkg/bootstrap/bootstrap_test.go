package bootstrap

import (
	"strings"
	"testing"

	"github.com/mikeg91/proxmox-scripts/pkg/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shells(b *Batch) []string {
	out := make([]string, len(b.Commands))
	for i, c := range b.Commands {
		out[i] = c.Shell
	}
	return out
}

func indexOf(cmds []string, substr string) int {
	for i, c := range cmds {
		if strings.Contains(c, substr) {
			return i
		}
	}
	return -1
}

func TestBuildPlex(t *testing.T) {
	p := profile.Builtin().Get("plex")
	require.NotNil(t, p)

	b := Build(p)
	cmds := shells(b)

	t.Run("update runs first", func(t *testing.T) {
		assert.Contains(t, cmds[0], "apt-get update")
		assert.Contains(t, cmds[0], "DEBIAN_FRONTEND=noninteractive")
	})

	t.Run("key import precedes sources list", func(t *testing.T) {
		keyIdx := indexOf(cmds, "gpg --dearmor")
		srcIdx := indexOf(cmds, "sources.list.d/plexmediaserver.list")
		require.GreaterOrEqual(t, keyIdx, 0)
		require.GreaterOrEqual(t, srcIdx, 0)
		assert.Less(t, keyIdx, srcIdx)
	})

	t.Run("repo setup triggers index refresh before install", func(t *testing.T) {
		srcIdx := indexOf(cmds, "sources.list.d/plexmediaserver.list")
		installIdx := indexOf(cmds, "apt-get -y install")
		refreshIdx := -1
		for i := srcIdx + 1; i < installIdx; i++ {
			if strings.Contains(cmds[i], "apt-get update") {
				refreshIdx = i
			}
		}
		assert.GreaterOrEqual(t, refreshIdx, 0, "expected apt-get update between repo setup and install")
	})

	t.Run("install lists all packages", func(t *testing.T) {
		installIdx := indexOf(cmds, "apt-get -y install")
		require.GreaterOrEqual(t, installIdx, 0)
		assert.Contains(t, cmds[installIdx], "plexmediaserver")
		assert.Contains(t, cmds[installIdx], "intel-media-va-driver-non-free")
	})

	t.Run("unit enablement comes last", func(t *testing.T) {
		enableIdx := indexOf(cmds, "systemctl enable --now plexmediaserver.service")
		require.GreaterOrEqual(t, enableIdx, 0)
		assert.Equal(t, len(cmds)-1, enableIdx)
	})

	t.Run("health check carried over", func(t *testing.T) {
		assert.Equal(t, p.HealthCheck, b.HealthCheck)
	})

	t.Run("plex ships no unit files of its own", func(t *testing.T) {
		assert.Empty(t, b.Units)
	})
}

func TestBuildNZBGet(t *testing.T) {
	p := profile.Builtin().Get("nzbget")
	require.NotNil(t, p)

	b := Build(p)
	cmds := shells(b)

	t.Run("ships unit file and reloads systemd", func(t *testing.T) {
		require.Len(t, b.Units, 1)
		assert.Equal(t, "/etc/systemd/system/nzbget.service", b.Units[0].Path)
		assert.Contains(t, b.Units[0].Content, "ExecStart=/opt/nzbget/nzbget")

		reloadIdx := indexOf(cmds, "systemctl daemon-reload")
		enableIdx := indexOf(cmds, "systemctl enable --now nzbget.service")
		require.GreaterOrEqual(t, reloadIdx, 0)
		assert.Less(t, reloadIdx, enableIdx)
	})

	t.Run("pre-install precedes installer download", func(t *testing.T) {
		userIdx := indexOf(cmds, "useradd")
		dlIdx := indexOf(cmds, "nzbget-latest.run")
		require.GreaterOrEqual(t, userIdx, 0)
		require.GreaterOrEqual(t, dlIdx, 0)
		assert.Less(t, userIdx, dlIdx)
	})
}

func TestBuildMinimalProfile(t *testing.T) {
	p := &profile.Profile{Name: "bare", Packages: []string{"curl"}}

	b := Build(p)
	cmds := shells(b)

	// update, upgrade, install; no repo refresh without repo or backports.
	require.Len(t, cmds, 3)
	assert.Contains(t, cmds[2], "apt-get -y install curl")
	assert.Empty(t, b.HealthCheck)
}

package gpu

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeDRIDir(t *testing.T, nodes ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, node := range nodes {
		require.NoError(t, os.WriteFile(filepath.Join(dir, node), nil, 0660))
	}
	return dir
}

func TestDiscover(t *testing.T) {
	t.Run("render nodes sort first", func(t *testing.T) {
		dir := fakeDRIDir(t, "card0", "renderD128")

		devices, err := Discover(dir)
		require.NoError(t, err)
		require.Len(t, devices, 2)
		assert.Equal(t, KindRender, devices[0].Kind)
		assert.Equal(t, filepath.Join(dir, "renderD128"), devices[0].Path)
		assert.Equal(t, KindCard, devices[1].Kind)
	})

	t.Run("ignores unrelated entries", func(t *testing.T) {
		dir := fakeDRIDir(t, "renderD128", "by-path")

		devices, err := Discover(dir)
		require.NoError(t, err)
		assert.Len(t, devices, 1)
	})

	t.Run("empty dir", func(t *testing.T) {
		_, err := Discover(t.TempDir())
		assert.ErrorIs(t, err, ErrMissingDevice)
	})

	t.Run("missing dir", func(t *testing.T) {
		_, err := Discover(filepath.Join(t.TempDir(), "dri"))
		assert.ErrorIs(t, err, ErrMissingDevice)
	})
}

func TestSelect(t *testing.T) {
	single := []Device{
		{Path: "/dev/dri/card0", Kind: KindCard},
		{Path: "/dev/dri/renderD128", Kind: KindRender},
	}
	dual := []Device{
		{Path: "/dev/dri/renderD128", Kind: KindRender},
		{Path: "/dev/dri/renderD129", Kind: KindRender},
		{Path: "/dev/dri/card0", Kind: KindCard},
	}

	t.Run("auto-select with single render node", func(t *testing.T) {
		dev, err := Select(single, -1)
		require.NoError(t, err)
		assert.Equal(t, "/dev/dri/renderD128", dev.Path)
	})

	t.Run("auto-select refuses ambiguity", func(t *testing.T) {
		_, err := Select(dual, -1)
		assert.ErrorIs(t, err, ErrAmbiguousDevice)
	})

	t.Run("explicit index resolves ambiguity", func(t *testing.T) {
		dev, err := Select(dual, 1)
		require.NoError(t, err)
		assert.Equal(t, "/dev/dri/renderD129", dev.Path)
	})

	t.Run("index out of range", func(t *testing.T) {
		_, err := Select(dual, 5)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrMissingDevice)
	})

	t.Run("no render nodes", func(t *testing.T) {
		_, err := Select([]Device{{Path: "/dev/dri/card0", Kind: KindCard}}, -1)
		assert.ErrorIs(t, err, ErrMissingDevice)
	})
}

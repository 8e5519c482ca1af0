package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikeg91/proxmox-scripts/pkg/gpu"
)

func TestValidators(t *testing.T) {
	assert.Error(t, validateNotEmpty(""))
	assert.NoError(t, validateNotEmpty("local-lvm"))

	assert.Error(t, validatePositiveInt("abc"))
	assert.Error(t, validatePositiveInt("0"))
	assert.Error(t, validatePositiveInt("-3"))
	assert.NoError(t, validatePositiveInt("100"))

	assert.Error(t, validateNonNegativeInt("-1"))
	assert.NoError(t, validateNonNegativeInt("0"))

	assert.Error(t, validatePassword("abcd"))
	assert.NoError(t, validatePassword("abcde"))
}

func TestSelectDeviceWithoutPrompt(t *testing.T) {
	t.Run("no render node", func(t *testing.T) {
		devices := []gpu.Device{{Path: "/dev/dri/card0", Kind: gpu.KindCard}}

		_, err := SelectDevice(devices)
		assert.ErrorIs(t, err, gpu.ErrMissingDevice)
	})

	t.Run("single render node auto-selects", func(t *testing.T) {
		devices := []gpu.Device{
			{Path: "/dev/dri/renderD128", Kind: gpu.KindRender},
			{Path: "/dev/dri/card0", Kind: gpu.KindCard},
		}

		index, err := SelectDevice(devices)
		require.NoError(t, err)
		assert.Equal(t, 0, index)
	})
}

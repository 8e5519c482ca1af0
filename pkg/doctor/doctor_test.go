package doctor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecutor struct {
	missing   map[string]bool
	responses map[string]string
	failures  map[string]error
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{
		missing:   make(map[string]bool),
		responses: make(map[string]string),
		failures:  make(map[string]error),
	}
}

func (e *fakeExecutor) LookPath(file string) (string, error) {
	if e.missing[file] {
		return "", errors.New("executable file not found in $PATH")
	}
	return "/usr/bin/" + file, nil
}

func (e *fakeExecutor) Run(_ context.Context, name string, args ...string) (string, error) {
	key := strings.Join(append([]string{name}, args...), " ")
	if err, ok := e.failures[key]; ok {
		return "", err
	}
	return e.responses[key], nil
}

func (e *fakeExecutor) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := e.Run(ctx, name, args...)
	return []byte(out), err
}

func (e *fakeExecutor) FileExists(string) bool { return true }

func driWith(t *testing.T, nodes ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range nodes {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0660))
	}
	return dir
}

func findCheck(g CheckGroup, id string) *Check {
	for i := range g.Checks {
		if g.Checks[i].ID == id {
			return &g.Checks[i]
		}
	}
	return nil
}

func TestProxmoxGroup(t *testing.T) {
	t.Run("all tools present", func(t *testing.T) {
		fake := newFakeExecutor()
		fake.responses["pct --version"] = "pve-container 5.2.3"

		c := NewCheckerWithExecutor(fake)
		g := c.CheckGroup(context.Background(), GroupProxmox)

		pct := findCheck(g, "pct")
		require.NotNil(t, pct)
		assert.Equal(t, StatusOK, pct.Status)
		assert.Equal(t, "version 5.2.3", pct.Message)
	})

	t.Run("pct missing", func(t *testing.T) {
		fake := newFakeExecutor()
		fake.missing["pct"] = true

		c := NewCheckerWithExecutor(fake)
		g := c.CheckGroup(context.Background(), GroupProxmox)

		pct := findCheck(g, "pct")
		require.NotNil(t, pct)
		assert.Equal(t, StatusMissing, pct.Status)
		assert.NotEmpty(t, pct.Hint)
	})
}

func TestGPUGroup(t *testing.T) {
	t.Run("single render node", func(t *testing.T) {
		c := NewCheckerWithExecutor(newFakeExecutor())
		c.SetDRIDir(driWith(t, "renderD128", "card0"))

		g := c.CheckGroup(context.Background(), GroupGPU)
		dri := findCheck(g, "dri")
		require.NotNil(t, dri)
		assert.Equal(t, StatusOK, dri.Status)
		assert.Contains(t, dri.Message, "renderD128")
	})

	t.Run("multiple render nodes warn", func(t *testing.T) {
		c := NewCheckerWithExecutor(newFakeExecutor())
		c.SetDRIDir(driWith(t, "renderD128", "renderD129"))

		g := c.CheckGroup(context.Background(), GroupGPU)
		dri := findCheck(g, "dri")
		require.NotNil(t, dri)
		assert.Equal(t, StatusWarning, dri.Status)
		assert.Contains(t, dri.Message, "--device-index")
	})

	t.Run("no nodes", func(t *testing.T) {
		c := NewCheckerWithExecutor(newFakeExecutor())
		c.SetDRIDir(t.TempDir())

		g := c.CheckGroup(context.Background(), GroupGPU)
		dri := findCheck(g, "dri")
		require.NotNil(t, dri)
		assert.Equal(t, StatusMissing, dri.Status)
	})

	t.Run("vainfo optional", func(t *testing.T) {
		fake := newFakeExecutor()
		fake.missing["vainfo"] = true

		c := NewCheckerWithExecutor(fake)
		c.SetDRIDir(driWith(t, "renderD128"))

		g := c.CheckGroup(context.Background(), GroupGPU)
		va := findCheck(g, "vainfo")
		require.NotNil(t, va)
		assert.Equal(t, StatusWarning, va.Status)
	})
}

func TestCheckAllAndFailures(t *testing.T) {
	fake := newFakeExecutor()
	fake.missing["pct"] = true

	c := NewCheckerWithExecutor(fake)
	c.SetDRIDir(driWith(t, "renderD128"))

	groups := c.CheckAll(context.Background())
	require.Len(t, groups, 2)
	assert.Equal(t, GroupProxmox, groups[0].ID)
	assert.Equal(t, GroupGPU, groups[1].ID)
	assert.True(t, HasFailures(groups))

	fake.missing["pct"] = false
	groups = c.CheckAll(context.Background())
	assert.False(t, HasFailures(groups))
}

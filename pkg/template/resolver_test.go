package template

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient serves canned template inventories.
type fakeClient struct {
	cached     []string
	available  []string
	updated    bool
	downloaded []string
	listErr    error
}

func (f *fakeClient) TemplateList(_ context.Context, _ string) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.cached, nil
}

func (f *fakeClient) TemplateAvailable(_ context.Context) ([]string, error) {
	return f.available, nil
}

func (f *fakeClient) TemplateUpdate(_ context.Context) error {
	f.updated = true
	return nil
}

func (f *fakeClient) TemplateDownload(_ context.Context, storage, name string) error {
	f.downloaded = append(f.downloaded, name)
	f.cached = append(f.cached, storage+":vztmpl/"+name)
	return nil
}

func TestResolve(t *testing.T) {
	t.Run("picks newest cached match", func(t *testing.T) {
		fake := &fakeClient{cached: []string{
			"local:vztmpl/debian-12-standard_12.2-1_amd64.tar.zst",
			"local:vztmpl/debian-12-standard_12.10-1_amd64.tar.zst",
			"local:vztmpl/debian-12-standard_12.7-1_amd64.tar.zst",
			"local:vztmpl/ubuntu-24.04-standard_24.04-2_amd64.tar.zst",
		}}

		ref, err := NewResolver(fake).Resolve(context.Background(), "local", "debian-12", false)
		require.NoError(t, err)
		// 12.10 is newer than 12.7; plain lexicographic ordering would get
		// this wrong.
		assert.Equal(t, "local:vztmpl/debian-12-standard_12.10-1_amd64.tar.zst", ref.VolumeID)
		assert.Equal(t, "12.10-1", ref.Version)
	})

	t.Run("no match and download forbidden", func(t *testing.T) {
		fake := &fakeClient{cached: []string{
			"local:vztmpl/ubuntu-24.04-standard_24.04-2_amd64.tar.zst",
		}}

		_, err := NewResolver(fake).Resolve(context.Background(), "local", "debian-12", false)
		assert.ErrorIs(t, err, ErrTemplateUnavailable)
		assert.Empty(t, fake.downloaded)
	})

	t.Run("downloads when permitted", func(t *testing.T) {
		fake := &fakeClient{
			available: []string{
				"debian-12-standard_12.2-1_amd64.tar.zst",
				"debian-12-standard_12.7-1_amd64.tar.zst",
			},
		}

		ref, err := NewResolver(fake).Resolve(context.Background(), "local", "debian-12", true)
		require.NoError(t, err)
		assert.True(t, fake.updated)
		assert.Equal(t, []string{"debian-12-standard_12.7-1_amd64.tar.zst"}, fake.downloaded)
		assert.Equal(t, "local:vztmpl/debian-12-standard_12.7-1_amd64.tar.zst", ref.VolumeID)
	})

	t.Run("download index has no match either", func(t *testing.T) {
		fake := &fakeClient{available: []string{"alpine-3.20-default_20240606_amd64.tar.xz"}}

		_, err := NewResolver(fake).Resolve(context.Background(), "local", "debian-12", true)
		assert.ErrorIs(t, err, ErrTemplateUnavailable)
	})

	t.Run("list failure propagates", func(t *testing.T) {
		fake := &fakeClient{listErr: errors.New("storage offline")}

		_, err := NewResolver(fake).Resolve(context.Background(), "local", "debian-12", false)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrTemplateUnavailable)
	})
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"12.7-1", "12.2-1", 1},
		{"12.2-1", "12.10-1", -1},
		{"12.7-1", "12.7-1", 0},
		{"12.7-1", "12.7-2", -1},
		{"24.04-2", "24.04", 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, compareVersions(tt.a, tt.b), "compare(%s, %s)", tt.a, tt.b)
	}
}

func TestParseVersion(t *testing.T) {
	assert.Equal(t, "12.7-1", parseVersion("debian-12-standard_12.7-1_amd64.tar.zst"))
	assert.Equal(t, "", parseVersion("garbage"))
}

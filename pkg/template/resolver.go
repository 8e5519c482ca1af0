// Package template resolves LXC templates for a requested OS version against
// the templates cached on a Proxmox storage, optionally downloading one when
// the cache has no match.
package template

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrTemplateUnavailable is returned when no cached template matches and
// downloading was not permitted (or found nothing either).
var ErrTemplateUnavailable = errors.New("no matching container template available")

// Client is the subset of the pve client the resolver needs.
type Client interface {
	TemplateList(ctx context.Context, storage string) ([]string, error)
	TemplateAvailable(ctx context.Context) ([]string, error)
	TemplateUpdate(ctx context.Context) error
	TemplateDownload(ctx context.Context, storage, name string) error
}

// Ref identifies a resolved template.
type Ref struct {
	// VolumeID is the storage-qualified reference pct create consumes,
	// e.g. "local:vztmpl/debian-12-standard_12.7-1_amd64.tar.zst".
	VolumeID string

	// Name is the bare template file name.
	Name string

	// Version is the parsed package version, e.g. "12.7-1".
	Version string
}

// Resolver finds templates for an OS version.
type Resolver struct {
	client Client
}

// NewResolver creates a resolver backed by the given client.
func NewResolver(client Client) *Resolver {
	return &Resolver{client: client}
}

// Resolve returns the newest cached template matching osVersion (e.g.
// "debian-12") on the given storage. When none is cached and allowDownload is
// set, the template index is refreshed and the newest matching template is
// downloaded first.
func (r *Resolver) Resolve(ctx context.Context, storage, osVersion string, allowDownload bool) (*Ref, error) {
	ref, err := r.resolveCached(ctx, storage, osVersion)
	if err == nil {
		return ref, nil
	}
	if !errors.Is(err, ErrTemplateUnavailable) {
		return nil, err
	}
	if !allowDownload {
		return nil, fmt.Errorf("%w for %q on storage %q (downloads not permitted)", ErrTemplateUnavailable, osVersion, storage)
	}

	name, err := r.newestDownloadable(ctx, osVersion)
	if err != nil {
		return nil, err
	}
	if err := r.client.TemplateDownload(ctx, storage, name); err != nil {
		return nil, err
	}
	return r.resolveCached(ctx, storage, osVersion)
}

// Cached returns all cached templates matching osVersion, newest first.
func (r *Resolver) Cached(ctx context.Context, storage, osVersion string) ([]Ref, error) {
	volumes, err := r.client.TemplateList(ctx, storage)
	if err != nil {
		return nil, err
	}

	var refs []Ref
	for _, vol := range volumes {
		name := baseName(vol)
		if !matchesOS(name, osVersion) {
			continue
		}
		refs = append(refs, Ref{VolumeID: vol, Name: name, Version: parseVersion(name)})
	}

	sort.Slice(refs, func(i, j int) bool {
		return compareVersions(refs[i].Version, refs[j].Version) > 0
	})
	return refs, nil
}

func (r *Resolver) resolveCached(ctx context.Context, storage, osVersion string) (*Ref, error) {
	refs, err := r.Cached(ctx, storage, osVersion)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("%w for %q on storage %q", ErrTemplateUnavailable, osVersion, storage)
	}
	return &refs[0], nil
}

func (r *Resolver) newestDownloadable(ctx context.Context, osVersion string) (string, error) {
	if err := r.client.TemplateUpdate(ctx); err != nil {
		return "", err
	}
	names, err := r.client.TemplateAvailable(ctx)
	if err != nil {
		return "", err
	}

	var matches []string
	for _, name := range names {
		if matchesOS(name, osVersion) {
			matches = append(matches, name)
		}
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w for %q in the download index", ErrTemplateUnavailable, osVersion)
	}

	sort.Slice(matches, func(i, j int) bool {
		return compareVersions(parseVersion(matches[i]), parseVersion(matches[j])) > 0
	})
	return matches[0], nil
}

// baseName strips the "storage:vztmpl/" prefix from a volume ID.
func baseName(volumeID string) string {
	if idx := strings.LastIndex(volumeID, "/"); idx >= 0 {
		return volumeID[idx+1:]
	}
	return volumeID
}

// matchesOS reports whether a template file name is for the requested OS
// version, e.g. "debian-12-standard_12.7-1_amd64.tar.zst" matches "debian-12".
func matchesOS(name, osVersion string) bool {
	return strings.HasPrefix(name, osVersion+"-")
}

// parseVersion extracts the package version from a template file name:
// "debian-12-standard_12.7-1_amd64.tar.zst" -> "12.7-1".
func parseVersion(name string) string {
	parts := strings.Split(name, "_")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// compareVersions compares dotted/dashed versions segment by segment,
// numerically where both segments are numbers. Returns -1, 0 or 1.
func compareVersions(a, b string) int {
	as := splitVersion(a)
	bs := splitVersion(b)

	for i := 0; i < len(as) || i < len(bs); i++ {
		var av, bv string
		if i < len(as) {
			av = as[i]
		}
		if i < len(bs) {
			bv = bs[i]
		}
		if av == bv {
			continue
		}

		an, aerr := strconv.Atoi(av)
		bn, berr := strconv.Atoi(bv)
		if aerr == nil && berr == nil {
			if an < bn {
				return -1
			}
			return 1
		}
		if av < bv {
			return -1
		}
		return 1
	}
	return 0
}

func splitVersion(v string) []string {
	return strings.FieldsFunc(v, func(r rune) bool {
		return r == '.' || r == '-'
	})
}

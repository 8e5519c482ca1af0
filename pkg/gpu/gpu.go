// Package gpu discovers Intel GPU device nodes for container passthrough.
// Discovery returns the full candidate list; auto-selection happens only
// when exactly one render node exists, otherwise the caller must pick an
// explicit index.
package gpu

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultDRIDir is where the kernel exposes DRM device nodes.
const DefaultDRIDir = "/dev/dri"

// ErrMissingDevice is returned when passthrough is requested but no GPU
// device node exists on the host.
var ErrMissingDevice = errors.New("no GPU device node found")

// ErrAmbiguousDevice is returned when several render nodes exist and no
// explicit index was given.
var ErrAmbiguousDevice = errors.New("multiple GPU device nodes found, select one explicitly")

// Kind classifies a DRM device node.
type Kind string

const (
	KindRender Kind = "render" // /dev/dri/renderD*
	KindCard   Kind = "card"   // /dev/dri/card*
)

// Device is a discovered DRM device node.
type Device struct {
	Path string
	Kind Kind
}

// Discover enumerates DRM device nodes under dir (DefaultDRIDir when empty).
// Render nodes sort before card nodes, each group lexicographically.
func Discover(dir string) ([]Device, error) {
	if dir == "" {
		dir = DefaultDRIDir
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrMissingDevice, dir)
		}
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var devices []Device
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case strings.HasPrefix(name, "renderD"):
			devices = append(devices, Device{Path: filepath.Join(dir, name), Kind: KindRender})
		case strings.HasPrefix(name, "card"):
			devices = append(devices, Device{Path: filepath.Join(dir, name), Kind: KindCard})
		}
	}

	sort.Slice(devices, func(i, j int) bool {
		if devices[i].Kind != devices[j].Kind {
			return devices[i].Kind == KindRender
		}
		return devices[i].Path < devices[j].Path
	})

	if len(devices) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrMissingDevice, dir)
	}
	return devices, nil
}

// RenderNodes filters the render nodes out of a device list.
func RenderNodes(devices []Device) []Device {
	var out []Device
	for _, d := range devices {
		if d.Kind == KindRender {
			out = append(out, d)
		}
	}
	return out
}

// Select picks the render node to pass through. index < 0 means auto: allowed
// only when exactly one render node exists. An explicit index addresses the
// sorted render node list.
func Select(devices []Device, index int) (Device, error) {
	renders := RenderNodes(devices)
	if len(renders) == 0 {
		return Device{}, fmt.Errorf("%w: no render node among %d devices", ErrMissingDevice, len(devices))
	}

	if index < 0 {
		if len(renders) > 1 {
			paths := make([]string, len(renders))
			for i, d := range renders {
				paths[i] = d.Path
			}
			return Device{}, fmt.Errorf("%w: candidates %s", ErrAmbiguousDevice, strings.Join(paths, ", "))
		}
		return renders[0], nil
	}

	if index >= len(renders) {
		return Device{}, fmt.Errorf("device index %d out of range, have %d render nodes", index, len(renders))
	}
	return renders[index], nil
}

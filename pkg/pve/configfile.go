package pve

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/mikeg91/proxmox-scripts/pkg/spec"
)

// ConfigFile edits a container's host-side configuration. Passthrough and
// mount directives must be in place before the container first starts, so
// these edits always happen between pct create and pct start.
type ConfigFile struct {
	Path string
}

// NewConfigFile returns the config file for a container.
func NewConfigFile(vmid int) *ConfigFile {
	return &ConfigFile{Path: ConfigPath(vmid)}
}

var (
	devLineRegex   = regexp.MustCompile(`^dev(\d+):`)
	mountLineRegex = regexp.MustCompile(`^mp(\d+):`)
)

// AppendDevice appends a device passthrough directive, picking the next free
// dev index so repeated applies never clobber existing entries.
func (f *ConfigFile) AppendDevice(dev spec.DeviceMount) error {
	idx, err := f.nextIndex(devLineRegex)
	if err != nil {
		return err
	}

	line := fmt.Sprintf("dev%d: %s", idx, dev.HostPath)
	if dev.GuestPath != "" && dev.GuestPath != dev.HostPath {
		line += fmt.Sprintf(",path=%s", dev.GuestPath)
	}
	if dev.GID > 0 {
		line += fmt.Sprintf(",gid=%d", dev.GID)
	}
	if dev.Mode != "" {
		line += fmt.Sprintf(",mode=%s", dev.Mode)
	}

	return f.appendLine(line)
}

// AppendMount appends a bind mount directive. The read-only flag is written
// exactly as requested.
func (f *ConfigFile) AppendMount(mp spec.MountPoint) error {
	idx, err := f.nextIndex(mountLineRegex)
	if err != nil {
		return err
	}

	line := fmt.Sprintf("mp%d: %s,mp=%s", idx, mp.HostPath, mp.GuestPath)
	if mp.ReadOnly {
		line += ",ro=1"
	}

	return f.appendLine(line)
}

// DeviceCount returns the number of dev directives present.
func (f *ConfigFile) DeviceCount() (int, error) {
	return f.countMatches(devLineRegex)
}

// MountCount returns the number of mp directives present.
func (f *ConfigFile) MountCount() (int, error) {
	return f.countMatches(mountLineRegex)
}

func (f *ConfigFile) readLines() ([]string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read container config %s: %w", f.Path, err)
	}
	return strings.Split(string(data), "\n"), nil
}

// nextIndex scans existing directives and returns the first unused index.
func (f *ConfigFile) nextIndex(re *regexp.Regexp) (int, error) {
	lines, err := f.readLines()
	if err != nil {
		return 0, err
	}

	next := 0
	for _, line := range lines {
		m := re.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if idx >= next {
			next = idx + 1
		}
	}
	return next, nil
}

func (f *ConfigFile) countMatches(re *regexp.Regexp) (int, error) {
	lines, err := f.readLines()
	if err != nil {
		return 0, err
	}
	count := 0
	for _, line := range lines {
		if re.MatchString(strings.TrimSpace(line)) {
			count++
		}
	}
	return count, nil
}

func (f *ConfigFile) appendLine(line string) error {
	file, err := os.OpenFile(f.Path, os.O_APPEND|os.O_WRONLY, 0640)
	if err != nil {
		return fmt.Errorf("failed to open container config %s: %w", f.Path, err)
	}
	defer file.Close()

	if _, err := file.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("failed to append to container config %s: %w", f.Path, err)
	}
	return nil
}

package spec

import (
	"fmt"
	"regexp"
	"strings"
)

// Severity represents the severity of a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue represents a single problem found while validating a spec.
type Issue struct {
	Field    string   `json:"field,omitempty"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Result holds all validation issues for a spec.
type Result struct {
	Issues []Issue `json:"issues"`
}

// HasErrors returns true if there are any error-level issues.
func (r *Result) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ErrorCount returns the number of error-level issues.
func (r *Result) ErrorCount() int {
	count := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			count++
		}
	}
	return count
}

// WarningCount returns the number of warning-level issues.
func (r *Result) WarningCount() int {
	count := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityWarning {
			count++
		}
	}
	return count
}

func (r *Result) addError(field, message string) {
	r.Issues = append(r.Issues, Issue{Field: field, Message: message, Severity: SeverityError})
}

func (r *Result) addWarning(field, message string) {
	r.Issues = append(r.Issues, Issue{Field: field, Message: message, Severity: SeverityWarning})
}

// Error formats the result as a single error string.
func (r *Result) Error() string {
	parts := make([]string, 0, len(r.Issues))
	for _, issue := range r.Issues {
		if issue.Severity != SeverityError {
			continue
		}
		if issue.Field != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
		} else {
			parts = append(parts, issue.Message)
		}
	}
	return strings.Join(parts, "; ")
}

// hostnameRegex matches RFC 1123 hostnames.
var hostnameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?$`)

// Validate checks the spec fields and returns all issues found. It performs
// no host-side checks; VMID collision and device discovery are validated by
// the provisioner against the live host.
func (s *ContainerSpec) Validate() *Result {
	result := &Result{Issues: []Issue{}}

	// Proxmox reserves VMIDs below 100.
	if s.VMID < 100 {
		result.addError("vmid", fmt.Sprintf("vmid must be >= 100, got %d", s.VMID))
	}
	if s.Hostname == "" {
		result.addError("hostname", "hostname is required")
	} else if !hostnameRegex.MatchString(s.Hostname) {
		result.addError("hostname", fmt.Sprintf("invalid hostname %q", s.Hostname))
	}
	if s.Cores <= 0 {
		result.addError("cores", "cores must be a positive integer")
	}
	if s.MemoryMB <= 0 {
		result.addError("memory_mb", "memory must be a positive integer (MB)")
	}
	if s.SwapMB < 0 {
		result.addError("swap_mb", "swap must not be negative")
	}
	if s.DiskGB <= 0 {
		result.addError("disk_gb", "disk size must be a positive integer (GB)")
	}
	if s.Storage == "" {
		result.addError("storage", "storage pool is required")
	}
	if s.TemplateStorage == "" {
		result.addError("template_storage", "template storage is required")
	}
	if s.Bridge == "" {
		result.addError("bridge", "network bridge is required")
	}
	if s.OSVersion == "" {
		result.addError("os_version", "os version is required")
	}
	if s.RootPassword != "" && len(s.RootPassword) < 5 {
		result.addError("root_password", "root password must be at least 5 characters")
	}

	for i, dev := range s.Devices {
		if dev.HostPath == "" {
			result.addError(fmt.Sprintf("devices[%d]", i), "device host path is required")
		}
	}
	for i, mp := range s.Mounts {
		if mp.HostPath == "" {
			result.addError(fmt.Sprintf("mounts[%d]", i), "mount host path is required")
		}
		if mp.GuestPath == "" {
			result.addError(fmt.Sprintf("mounts[%d]", i), "mount guest path is required")
		}
	}

	if s.MemoryMB > 0 && s.MemoryMB < 512 {
		result.addWarning("memory_mb", "less than 512 MB is unlikely to boot a media server")
	}

	return result
}

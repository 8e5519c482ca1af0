package provision

import (
	"errors"
	"fmt"

	"github.com/mikeg91/proxmox-scripts/pkg/spec"
)

// Sentinel errors for validation failures. Environment errors reuse the
// sentinels of the packages that detect them (gpu.ErrMissingDevice,
// template.ErrTemplateUnavailable); external command failures surface as
// *pve.CommandError.
var (
	// ErrDuplicateVMID is returned when the requested container ID is
	// already in use on the host.
	ErrDuplicateVMID = errors.New("container ID already in use")

	// ErrPasswordMismatch is returned when the password confirmation does
	// not match the original entry.
	ErrPasswordMismatch = errors.New("password confirmation does not match")

	// ErrBootstrapFailed marks any non-zero exit from the in-container
	// bootstrap batch or the post-start health check.
	ErrBootstrapFailed = errors.New("bootstrap failed")
)

// ValidationError wraps spec field validation issues.
type ValidationError struct {
	Result *spec.Result
}

// Error lists the error-level issues.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid container spec: %s", e.Result.Error())
}

// BootstrapError reports a failing in-container step. The container is left
// running for inspection.
type BootstrapError struct {
	Step    string // description of the failing step
	Command string // the in-container command
	Err     error
}

// Error names the failed step.
func (e *BootstrapError) Error() string {
	return fmt.Sprintf("bootstrap step %q failed: %v", e.Step, e.Err)
}

// Unwrap returns the underlying command error.
func (e *BootstrapError) Unwrap() error {
	return e.Err
}

// Is matches ErrBootstrapFailed.
func (e *BootstrapError) Is(target error) bool {
	return target == ErrBootstrapFailed
}

package provision

import "time"

// Stage represents a provisioning stage.
type Stage string

const (
	StageValidating  Stage = "validating"
	StageDevices     Stage = "devices"
	StageTemplate    Stage = "template"
	StageCreating    Stage = "creating"
	StagePassthrough Stage = "passthrough"
	StageMounts      Stage = "mounts"
	StageStarting    Stage = "starting"
	StageBootstrap   Stage = "bootstrap"
	StageHealth      Stage = "health"
	StageComplete    Stage = "complete"
	StageCleanup     Stage = "cleanup"
	StageError       Stage = "error"
)

// String returns the string representation of the stage.
func (s Stage) String() string {
	return string(s)
}

// DisplayName returns a human-readable name for the stage.
func (s Stage) DisplayName() string {
	switch s {
	case StageValidating:
		return "Validating"
	case StageDevices:
		return "Resolving Devices"
	case StageTemplate:
		return "Resolving Template"
	case StageCreating:
		return "Creating Container"
	case StagePassthrough:
		return "Applying Passthrough"
	case StageMounts:
		return "Applying Mounts"
	case StageStarting:
		return "Starting"
	case StageBootstrap:
		return "Bootstrapping"
	case StageHealth:
		return "Health Check"
	case StageComplete:
		return "Complete"
	case StageCleanup:
		return "Cleaning Up"
	case StageError:
		return "Error"
	default:
		return string(s)
	}
}

// ProgressEvent is one provisioning progress update.
type ProgressEvent struct {
	Stage     Stage
	Message   string
	Command   string // host or in-container command being executed
	Detail    string
	Percent   int // 0-100, -1 for indeterminate
	IsError   bool
	Timestamp time.Time
}

// NewProgressEvent creates a new progress event.
func NewProgressEvent(stage Stage, message string, percent int) ProgressEvent {
	return ProgressEvent{
		Stage:     stage,
		Message:   message,
		Percent:   percent,
		Timestamp: time.Now(),
	}
}

// NewProgressEventWithCommand creates a progress event carrying the command
// being executed.
func NewProgressEventWithCommand(stage Stage, message, command string, percent int) ProgressEvent {
	e := NewProgressEvent(stage, message, percent)
	e.Command = command
	return e
}

// NewErrorEvent creates a new error progress event.
func NewErrorEvent(message string) ProgressEvent {
	return ProgressEvent{
		Stage:     StageError,
		Message:   message,
		Percent:   -1,
		IsError:   true,
		Timestamp: time.Now(),
	}
}

// ProgressCallback is called with progress updates during provisioning.
type ProgressCallback func(ProgressEvent)

// NoOpProgress is a progress callback that does nothing.
func NoOpProgress(_ ProgressEvent) {}

// ProgressTracker collects progress events for later review.
type ProgressTracker struct {
	events []ProgressEvent
}

// NewProgressTracker creates a new progress tracker.
func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{events: make([]ProgressEvent, 0)}
}

// Callback returns a ProgressCallback that records events.
func (t *ProgressTracker) Callback() ProgressCallback {
	return func(e ProgressEvent) {
		t.events = append(t.events, e)
	}
}

// Events returns all recorded events.
func (t *ProgressTracker) Events() []ProgressEvent {
	return t.events
}

// LastEvent returns the most recent event, or nil if none.
func (t *ProgressTracker) LastEvent() *ProgressEvent {
	if len(t.events) == 0 {
		return nil
	}
	return &t.events[len(t.events)-1]
}

// Stages returns the distinct stages seen, in first-seen order.
func (t *ProgressTracker) Stages() []Stage {
	seen := make(map[Stage]bool)
	var out []Stage
	for _, e := range t.events {
		if !seen[e.Stage] {
			seen[e.Stage] = true
			out = append(out, e.Stage)
		}
	}
	return out
}

// HasErrors returns true if any error events were recorded.
func (t *ProgressTracker) HasErrors() bool {
	for _, e := range t.events {
		if e.IsError {
			return true
		}
	}
	return false
}

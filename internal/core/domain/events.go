package domain

// EventKind identifies a build event type.
type EventKind string

const (
	// EventBuildStarted marks the start of a build request execution.
	EventBuildStarted EventKind = "BuildStarted"
	// EventBuildFinished marks the end of a build request execution.
	EventBuildFinished EventKind = "BuildFinished"
	// EventProjectStarted marks the start of a distinct
	// configuration+target-set execution.
	EventProjectStarted EventKind = "ProjectStarted"
	// EventProjectFinished marks the end of a project execution. It may
	// carry a forwarded property snapshot from out-of-process nodes.
	EventProjectFinished EventKind = "ProjectFinished"
	// EventTargetStarted marks the start of a target.
	EventTargetStarted EventKind = "TargetStarted"
	// EventTargetFinished marks the end of a target.
	EventTargetFinished EventKind = "TargetFinished"
	// EventTargetSkipped marks a target that did not run, either because a
	// prior result was reused or because its condition was false.
	EventTargetSkipped EventKind = "TargetSkipped"
	// EventTaskStarted marks the start of a task invocation.
	EventTaskStarted EventKind = "TaskStarted"
	// EventTaskFinished marks the end of a task invocation.
	EventTaskFinished EventKind = "TaskFinished"
	// EventTaskHostLaunch reports that a task was dispatched to an external
	// task host process. In-process tasks never emit this.
	EventTaskHostLaunch EventKind = "TaskHostLaunch"
	// EventMessage is a plain log message from a task.
	EventMessage EventKind = "Message"
	// EventWarning is a warning from a task, identified by Code.
	EventWarning EventKind = "Warning"
	// EventError is an error from a task.
	EventError EventKind = "Error"
)

// BuildEvent is one entry in the structured event stream. The engine only
// produces events; rendering belongs to the sink implementations.
type BuildEvent struct {
	Kind       EventKind         `json:"kind"`
	Submission string            `json:"submission,omitempty"`
	ConfigID   ConfigurationID   `json:"config_id,omitempty"`
	Project    string            `json:"project,omitempty"`
	Target     string            `json:"target,omitempty"`
	Task       string            `json:"task,omitempty"`
	Code       string            `json:"code,omitempty"`
	Message    string            `json:"message,omitempty"`
	Succeeded  bool              `json:"succeeded,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Critical reports whether the event survives OnlyLogCriticalEvents
// filtering: errors, warnings and the outermost build boundaries.
func (e BuildEvent) Critical() bool {
	switch e.Kind {
	case EventError, EventWarning, EventBuildStarted, EventBuildFinished:
		return true
	default:
		return false
	}
}

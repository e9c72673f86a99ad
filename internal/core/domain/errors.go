package domain

import "go.trai.ch/zerr"

var (
	// ErrAlreadyBuilding is returned when BeginBuild is called while a build
	// is already in progress.
	ErrAlreadyBuilding = zerr.New("a build is already in progress")

	// ErrNotBuilding is returned when EndBuild or a request submission is
	// attempted without a build in progress.
	ErrNotBuilding = zerr.New("no build is in progress")

	// ErrSubmissionExecuted is returned when a submission is executed twice.
	ErrSubmissionExecuted = zerr.New("submission has already been executed")

	// ErrManagerClosed is returned when operating on a disposed build manager.
	ErrManagerClosed = zerr.New("build manager has been disposed")

	// ErrTaskHostMissingName is returned when a task host configuration is
	// constructed without a task name.
	ErrTaskHostMissingName = zerr.New("task host configuration requires a task name")

	// ErrTaskHostMissingLocation is returned when a task host configuration
	// is constructed without a task location.
	ErrTaskHostMissingLocation = zerr.New("task host configuration requires a task location")

	// ErrInProcNodeDisabled is returned when a request requires the
	// in-process node but the build disabled it. Only the affected request
	// fails; sibling requests proceed.
	ErrInProcNodeDisabled = zerr.New("request requires the in-process node but it is disabled")

	// ErrNodeUnavailable is returned when no node satisfying a request's
	// affinity can be provided.
	ErrNodeUnavailable = zerr.New("no node available for the requested affinity")

	// ErrTargetAlreadyExists is returned when a project declares two targets
	// with the same name.
	ErrTargetAlreadyExists = zerr.New("target already exists")

	// ErrTargetNotFound is returned when a requested target is not declared
	// by the project.
	ErrTargetNotFound = zerr.New("target not found")

	// ErrTargetCycle is returned when target dependencies form a cycle.
	ErrTargetCycle = zerr.New("circular dependency between targets")

	// ErrUnknownTask is returned when a target invokes a task that is not
	// registered.
	ErrUnknownTask = zerr.New("unknown task")

	// ErrUnknownValueKind is returned when a task parameter value carries a
	// tag outside the closed Primitive|ItemHandle|ItemHandleArray set.
	ErrUnknownValueKind = zerr.New("unknown task value kind")

	// ErrBuildCanceled is returned for requests aborted by
	// CancelAllSubmissions.
	ErrBuildCanceled = zerr.New("build was canceled")

	// ErrBuildFailed is returned by the CLI layer when a build completes
	// with an overall failure. The event stream already explains which
	// target or task failed.
	ErrBuildFailed = zerr.New("build failed")

	// ErrProjectNotFound is returned when the project file cannot be read.
	ErrProjectNotFound = zerr.New("project file not found")

	// ErrProjectParse is returned when the project file cannot be parsed.
	ErrProjectParse = zerr.New("failed to parse project file")

	// ErrInvalidCondition is returned when a condition expression is
	// malformed.
	ErrInvalidCondition = zerr.New("invalid condition expression")

	// ErrCacheReadFailed is returned when a target cache file cannot be read.
	ErrCacheReadFailed = zerr.New("failed to read target cache entry")

	// ErrCacheWriteFailed is returned when a target cache file cannot be
	// written.
	ErrCacheWriteFailed = zerr.New("failed to write target cache entry")

	// ErrCacheCreateFailed is returned when the cache scope directory cannot
	// be created.
	ErrCacheCreateFailed = zerr.New("failed to create cache directory")

	// ErrPacketTooLarge is returned when a wire frame exceeds the maximum
	// payload size.
	ErrPacketTooLarge = zerr.New("packet exceeds maximum size")

	// ErrUnknownPacketType is returned for wire messages outside the closed
	// message set.
	ErrUnknownPacketType = zerr.New("unknown packet type")

	// ErrWorkerSpawnFailed is returned when an out-of-process worker cannot
	// be launched.
	ErrWorkerSpawnFailed = zerr.New("failed to spawn worker node")

	// ErrWorkerUnresponsive is returned when a spawned worker never becomes
	// reachable.
	ErrWorkerUnresponsive = zerr.New("worker node did not become responsive")

	// ErrWorkerExited is returned when a worker connection drops before the
	// build result arrives.
	ErrWorkerExited = zerr.New("worker node exited before returning a result")

	// ErrTaskHostExited is returned when a task host process terminates
	// before reporting its result.
	ErrTaskHostExited = zerr.New("task host exited before returning a result")
)

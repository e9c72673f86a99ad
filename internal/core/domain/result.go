package domain

// BuildResultCode is the overall outcome of a build request.
type BuildResultCode string

const (
	// BuildSuccess indicates every requested target succeeded.
	BuildSuccess BuildResultCode = "Success"
	// BuildFailure indicates at least one requested target failed, or a
	// warning was escalated to an error.
	BuildFailure BuildResultCode = "Failure"
)

// TargetResultCode is the outcome of a single target.
type TargetResultCode string

const (
	// TargetSuccess indicates the target ran and succeeded.
	TargetSuccess TargetResultCode = "Success"
	// TargetFailure indicates the target ran and failed, or a previously
	// recorded failure was replayed.
	TargetFailure TargetResultCode = "Failure"
	// TargetSkipped indicates the target did not run because its condition
	// evaluated to false.
	TargetSkipped TargetResultCode = "Skipped"
)

// TargetResult is the recorded outcome of one target execution.
//
// ConditionFalse marks a skip caused by a false condition. Such verdicts are
// never persisted to the result cache: the condition's inputs may change
// between requests, so a later request must re-evaluate rather than reuse
// the stale skip.
type TargetResult struct {
	Code           TargetResultCode `json:"code"`
	Items          []string         `json:"items,omitempty"`
	Message        string           `json:"message,omitempty"`
	ConditionFalse bool             `json:"-"`
}

// ProjectState is a property/item snapshot of a project instance.
type ProjectState struct {
	Properties map[string]string   `json:"properties,omitempty"`
	Items      map[string][]string `json:"items,omitempty"`
}

// BuildResult is the outcome of a build request.
//
// The overall result is Failure whenever any requested target failed, and
// may also be Failure due to an escalated warning while every individual
// target result still reads Success.
type BuildResult struct {
	ConfigID               ConfigurationID         `json:"config_id"`
	OverallResult          BuildResultCode         `json:"overall_result"`
	TargetResults          map[string]TargetResult `json:"target_results,omitempty"`
	ProjectStateAfterBuild *ProjectState           `json:"project_state,omitempty"`
	Exception              string                  `json:"exception,omitempty"`
}

// NewBuildResult creates an empty successful result for a configuration.
func NewBuildResult(config ConfigurationID) *BuildResult {
	return &BuildResult{
		ConfigID:      config,
		OverallResult: BuildSuccess,
		TargetResults: make(map[string]TargetResult),
	}
}

// RecordTarget stores a per-target result and folds it into the overall code.
func (r *BuildResult) RecordTarget(name string, tr TargetResult) {
	r.TargetResults[name] = tr
	if tr.Code == TargetFailure {
		r.OverallResult = BuildFailure
	}
}

// MarkOverallFailure forces the overall code to Failure without touching any
// individual target result. Used for warnings promoted to errors.
func (r *BuildResult) MarkOverallFailure() {
	r.OverallResult = BuildFailure
}

// Succeeded reports whether the overall result is Success.
func (r *BuildResult) Succeeded() bool {
	return r.OverallResult == BuildSuccess
}

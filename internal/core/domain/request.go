package domain

import (
	"slices"
	"strings"
)

// NodeAffinity constrains which node category may execute a request.
type NodeAffinity string

const (
	// AffinityAny allows the request to run on any node.
	AffinityAny NodeAffinity = "Any"
	// AffinityInProc requires the in-process node.
	AffinityInProc NodeAffinity = "InProc"
	// AffinityOutOfProc requires an out-of-process worker node.
	AffinityOutOfProc NodeAffinity = "OutOfProc"
)

// RequestFlags carry per-request options.
type RequestFlags uint8

const (
	// FlagNone requests default behavior.
	FlagNone RequestFlags = 0
	// FlagProvideProjectStateAfterBuild asks for a property/item snapshot
	// of the project instance on the build result.
	FlagProvideProjectStateAfterBuild RequestFlags = 1 << iota
)

// Has reports whether all bits of f are set.
func (r RequestFlags) Has(f RequestFlags) bool {
	return r&f == f
}

// BuildRequest is one unit of schedulable work: a configuration plus the
// targets to build on it. Requests are immutable once submitted.
type BuildRequest struct {
	ConfigID         ConfigurationID   `json:"config_id"`
	ProjectPath      string            `json:"project_path"`
	GlobalProperties map[string]string `json:"global_properties,omitempty"`
	ToolsVersion     string            `json:"tools_version,omitempty"`
	Targets          []string          `json:"targets"`
	Affinity         NodeAffinity      `json:"affinity,omitempty"`
	Flags            RequestFlags      `json:"flags,omitempty"`
	// SubmissionID is the ordinal of the submission that issued the
	// request, zero for nested requests. It attributes worker events and
	// never participates in equivalence.
	SubmissionID int `json:"submission_id,omitempty"`
}

// TargetSetKey returns an order-insensitive canonical key for the request's
// target set.
func (r *BuildRequest) TargetSetKey() string {
	targets := make([]string, len(r.Targets))
	copy(targets, r.Targets)
	slices.Sort(targets)
	targets = slices.Compact(targets)
	return strings.Join(targets, "\x00")
}

// EquivalentTo reports whether two requests address the same configuration
// and the same target set. Equivalence drives cache reuse and the
// skip-unsuccessful rules.
func (r *BuildRequest) EquivalentTo(o *BuildRequest) bool {
	if o == nil {
		return false
	}
	return r.ConfigID == o.ConfigID && r.TargetSetKey() == o.TargetSetKey()
}

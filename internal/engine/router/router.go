package router

import (
	"sync"

	"go.trai.ch/forge/internal/core/ports"
)

// Policy selects which opt-in signal authorizes in-process execution under
// multi-threaded routing.
type Policy string

const (
	// PolicyAttribute treats the non-inheritable per-type marker as the
	// single source of truth. A capability declared on the type or any base
	// is ignored for routing.
	PolicyAttribute Policy = "attribute"
	// PolicyInterface routes on the declared capability, inherited through
	// the base chain. Bases marked non-inheritable do not propagate their
	// capability to derived types.
	PolicyInterface Policy = "interface"
)

// Route is the execution locale chosen for one task invocation.
type Route string

const (
	// RouteInProcess runs the task inside the calling node's process.
	RouteInProcess Route = "InProcess"
	// RouteTaskHost dispatches the task to an isolated task-host process.
	RouteTaskHost Route = "TaskHost"
)

type decisionKey struct {
	task          string
	multiThreaded bool
}

// Router decides, per task invocation, whether the task runs in-process or
// in an isolated task host. The opt-in evaluation is performed once per task
// type and cached; the policy is fixed for the router's lifetime.
type Router struct {
	policy Policy

	mu        sync.RWMutex
	decisions map[decisionKey]Route
}

// New creates a router with the given policy. An empty policy defaults to
// PolicyAttribute.
func New(policy Policy) *Router {
	if policy == "" {
		policy = PolicyAttribute
	}
	return &Router{
		policy:    policy,
		decisions: make(map[decisionKey]Route),
	}
}

// Policy returns the opt-in policy the router was built with.
func (r *Router) Policy() Policy {
	return r.policy
}

// Route decides the execution locale for one task invocation. An explicit
// task-host request always wins; outside multi-threaded mode everything runs
// in-process; otherwise the task's declared opt-in signal is consulted under
// the configured policy.
func (r *Router) Route(desc *ports.TaskDescriptor, explicitTaskHost, multiThreaded bool) Route {
	if explicitTaskHost {
		return RouteTaskHost
	}
	if !multiThreaded {
		return RouteInProcess
	}

	key := decisionKey{task: desc.Name, multiThreaded: multiThreaded}

	r.mu.RLock()
	route, ok := r.decisions[key]
	r.mu.RUnlock()
	if ok {
		return route
	}

	route = RouteTaskHost
	if r.eligibleForInProcess(desc) {
		route = RouteInProcess
	}

	r.mu.Lock()
	r.decisions[key] = route
	r.mu.Unlock()
	return route
}

// eligibleForInProcess evaluates the opt-in signal under the router's policy.
func (r *Router) eligibleForInProcess(desc *ports.TaskDescriptor) bool {
	if r.policy == PolicyInterface {
		if desc.Capability {
			return true
		}
		for base := desc.Base; base != nil; base = base.Base {
			if base.Capability && !base.CapabilityNonInheritable {
				return true
			}
		}
		return false
	}

	// Attribute policy: the marker never inherits and the capability does
	// not authorize in-process execution on its own.
	return desc.InProcessMarker
}

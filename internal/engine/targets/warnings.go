package targets

import (
	"slices"
	"sync"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
)

// WarningPolicy reshapes warning events by code before they reach the sink.
type WarningPolicy struct {
	// AsErrors promotes matching warnings to errors. The single entry "*"
	// promotes every warning not exempted by NotAsErrors.
	AsErrors []string
	// NotAsErrors exempts codes from promotion.
	NotAsErrors []string
	// AsMessages demotes matching warnings to plain messages.
	AsMessages []string
}

func (p WarningPolicy) promotes(code string) bool {
	if slices.Contains(p.NotAsErrors, code) {
		return false
	}
	if slices.Contains(p.AsErrors, "*") {
		return true
	}
	return slices.Contains(p.AsErrors, code)
}

func (p WarningPolicy) demotes(code string) bool {
	return slices.Contains(p.AsMessages, code)
}

// promotingSink applies a WarningPolicy in front of another sink. A promoted
// warning surfaces as an error event and marks the run, so the overall result
// flips to failure without touching any individual target result.
type promotingSink struct {
	next   ports.EventSink
	policy WarningPolicy

	mu       sync.Mutex
	promoted bool
}

func newPromotingSink(next ports.EventSink, policy WarningPolicy) *promotingSink {
	return &promotingSink{next: next, policy: policy}
}

func (s *promotingSink) Publish(e domain.BuildEvent) {
	if e.Kind == domain.EventWarning {
		switch {
		case s.policy.demotes(e.Code):
			e.Kind = domain.EventMessage
		case s.policy.promotes(e.Code):
			e.Kind = domain.EventError
			s.mu.Lock()
			s.promoted = true
			s.mu.Unlock()
		}
	}
	s.next.Publish(e)
}

// Promoted reports whether any warning was escalated during the run.
func (s *promotingSink) Promoted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.promoted
}

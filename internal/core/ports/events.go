package ports

import "go.trai.ch/forge/internal/core/domain"

// EventSink consumes the structured build event stream. Implementations
// must tolerate concurrent publishes from multiple in-flight submissions.
//
//go:generate mockgen -source=events.go -destination=mocks/mock_events.go -package=mocks
type EventSink interface {
	Publish(e domain.BuildEvent)
}

package ports

import "context"

// SpanConfig collects options applied at span start.
type SpanConfig struct {
	Attributes map[string]any
}

// SpanOption configures a span at creation.
type SpanOption func(*SpanConfig)

// Span represents one traced unit of work.
//
//go:generate mockgen -source=tracer.go -destination=mocks/mock_tracer.go -package=mocks
type Span interface {
	End()
	RecordError(err error)
	SetAttribute(key string, value any)
}

// Tracer creates spans for build and target execution.
type Tracer interface {
	Start(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)
	Shutdown(ctx context.Context) error
}

package logger

import (
	"io"
	"sync"

	"github.com/muesli/termenv"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/ui/output"
	"go.trai.ch/forge/internal/ui/style"
)

// ConsoleSink renders build events to a terminal.
type ConsoleSink struct {
	mu  sync.Mutex
	out *termenv.Output
	// onlyCritical drops everything below warning severity except the
	// build-level boundary events.
	onlyCritical bool
}

// NewConsoleSink creates a sink writing to w (stderr when nil).
func NewConsoleSink(w io.Writer, onlyCritical bool) *ConsoleSink {
	return &ConsoleSink{
		out:          output.New(w),
		onlyCritical: onlyCritical,
	}
}

// Publish renders one event.
func (s *ConsoleSink) Publish(e domain.BuildEvent) {
	if s.onlyCritical && !e.Critical() {
		return
	}

	line, color := renderEvent(e)
	if line == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	styled := s.out.String(line).Foreground(termenv.RGBColor(color))
	_, _ = s.out.WriteString(styled.String() + "\n")
}

func renderEvent(e domain.BuildEvent) (string, string) {
	switch e.Kind {
	case domain.EventError:
		return style.Cross + " " + prefixed(e) + e.Message, style.Red
	case domain.EventWarning:
		return style.Warning + " " + prefixed(e) + e.Message, style.Yellow
	case domain.EventBuildStarted:
		return style.Dot + " build started", style.Iris
	case domain.EventBuildFinished:
		if e.Succeeded {
			return style.Check + " build succeeded", style.Green
		}
		return style.Cross + " build failed", style.Red
	case domain.EventProjectStarted:
		return style.Circle + " " + e.Project, style.Slate
	case domain.EventProjectFinished:
		if e.Succeeded {
			return style.Check + " " + e.Project, style.Green
		}
		return style.Cross + " " + e.Project, style.Red
	case domain.EventTargetSkipped:
		return style.Tilde + " " + e.Target + " (skipped)", style.Slate
	case domain.EventMessage:
		return "  " + e.Message, style.Slate
	case domain.EventTaskHostLaunch:
		return style.Dot + " launching task in external task host: " + e.Task, style.Iris
	default:
		return "", ""
	}
}

func prefixed(e domain.BuildEvent) string {
	if e.Code != "" {
		return e.Code + ": "
	}
	return ""
}

// MemorySink records events for inspection. Safe for concurrent publishes.
type MemorySink struct {
	mu     sync.Mutex
	events []domain.BuildEvent
}

// NewMemorySink creates an empty recording sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Publish records the event.
func (s *MemorySink) Publish(e domain.BuildEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

// Events returns a copy of everything published so far.
func (s *MemorySink) Events() []domain.BuildEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.BuildEvent, len(s.events))
	copy(out, s.events)
	return out
}

// OfKind returns the recorded events of one kind, in publish order.
func (s *MemorySink) OfKind(kind domain.EventKind) []domain.BuildEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.BuildEvent
	for _, e := range s.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Messages returns the message text of every event of the given kind.
func (s *MemorySink) Messages(kind domain.EventKind) []string {
	var out []string
	for _, e := range s.OfKind(kind) {
		out = append(out, e.Message)
	}
	return out
}

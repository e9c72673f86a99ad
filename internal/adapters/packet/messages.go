package packet

import (
	"encoding/json"
	"io"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/zerr"
)

// Message types. The set is closed: a frame carrying any other type is
// rejected at decode time.
const (
	TypeInit           = "init"
	TypeBuildRequest   = "build_request"
	TypeBuildResult    = "build_result"
	TypeEvent          = "event"
	TypeTaskHostConfig = "taskhost_config"
	TypeTaskHostResult = "taskhost_result"
	TypePing           = "ping"
	TypeShutdown       = "shutdown"
)

var knownTypes = map[string]struct{}{
	TypeInit:           {},
	TypeBuildRequest:   {},
	TypeBuildResult:    {},
	TypeEvent:          {},
	TypeTaskHostConfig: {},
	TypeTaskHostResult: {},
	TypePing:           {},
	TypeShutdown:       {},
}

// Envelope wraps every message with its type tag.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// InitPayload is the first message on a worker connection: the build
// parameters the worker needs before it can execute requests.
type InitPayload struct {
	CacheScopeDir       string   `json:"cache_scope_dir"`
	MultiThreaded       bool     `json:"multi_threaded,omitempty"`
	WarningsAsErrors    []string `json:"warnings_as_errors,omitempty"`
	WarningsNotAsErrors []string `json:"warnings_not_as_errors,omitempty"`
	WarningsAsMessages  []string `json:"warnings_as_messages,omitempty"`
}

// BuildRequestPayload asks a worker to execute one build request.
type BuildRequestPayload struct {
	Request *domain.BuildRequest `json:"request"`
	// Submission is the manager-side submission ID, carried so worker
	// events can be attributed to the right submission.
	Submission int `json:"submission"`
}

// BuildResultPayload carries the outcome of a BuildRequestPayload back.
// Error is non-empty when the worker failed before producing a result.
type BuildResultPayload struct {
	Result *domain.BuildResult `json:"result,omitempty"`
	Error  string              `json:"error,omitempty"`
}

// EventPayload streams one build event from a worker to the manager.
type EventPayload struct {
	Event domain.BuildEvent `json:"event"`
}

// TaskHostResultPayload carries a task host's outcome back to its launcher.
type TaskHostResultPayload struct {
	Succeeded bool                `json:"succeeded"`
	Outputs   []domain.ItemHandle `json:"outputs,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// Send marshals payload into an envelope of the given type and writes it as
// one frame.
func Send(w io.Writer, msgType string, payload any) error {
	if _, ok := knownTypes[msgType]; !ok {
		return zerr.With(domain.ErrUnknownPacketType, "type", msgType)
	}

	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return zerr.Wrap(err, "marshal payload")
		}
		raw = data
	}

	return WriteFrame(w, Envelope{Type: msgType, Payload: raw})
}

// Receive reads one envelope frame and validates its type against the closed
// message set.
func Receive(r io.Reader) (*Envelope, error) {
	var env Envelope
	if err := ReadFrame(r, &env); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, err
	}

	if _, ok := knownTypes[env.Type]; !ok {
		return nil, zerr.With(domain.ErrUnknownPacketType, "type", env.Type)
	}

	return &env, nil
}

// Decode unmarshals an envelope's payload into v.
func Decode(env *Envelope, v any) error {
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return zerr.With(zerr.Wrap(err, "decode payload"), "type", env.Type)
	}
	return nil
}

package ports

import "io"

// Logger is the CLI-facing diagnostic logger. It is distinct from the build
// event stream: events describe what the build did, the logger describes what
// the tool is doing.
type Logger interface {
	Info(msg string)
	Warn(msg string)
	Error(err error)

	// SetOutput redirects log output. A nil writer resets to stderr.
	SetOutput(w io.Writer)

	// SetJSON toggles machine-readable JSON output.
	SetJSON(enable bool)
}

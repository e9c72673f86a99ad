package tasks

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

// allowListedEnvVars are the system environment variables a shelled-out
// command may inherit. The build environment stays hermetic while basic
// system tools keep working.
var allowListedEnvVars = map[string]struct{}{
	"HOME": {},
	"TERM": {},
	"USER": {},
	"PATH": {},
}

// runExec shells out the Command parameter through `sh -c`. Stdout lines
// surface as message events, stderr lines as warnings. A non-zero exit fails
// the task unless IgnoreExitCode is set.
func runExec(ctx context.Context, inv *domain.TaskInvocation, tc *ports.TaskContext) (*ports.TaskOutcome, error) {
	command := stringParam(inv, tc, "Command")
	if command == "" {
		return nil, zerr.With(domain.ErrUnknownTask, "reason", "Exec requires a Command parameter")
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", command) //nolint:gosec // user provided command
	cmd.Env = execEnvironment(os.Environ())
	if dir := stringParam(inv, tc, "WorkingDir"); dir != "" {
		cmd.Dir = dir
	}

	stdout := &eventWriter{tc: tc, kind: domain.EventMessage}
	stderr := &eventWriter{tc: tc, kind: domain.EventWarning}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	_ = stdout.Close()
	_ = stderr.Close()

	if err != nil {
		if ctx.Err() != nil {
			return nil, zerr.Wrap(ctx.Err(), domain.ErrBuildCanceled.Error())
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if boolParam(inv, tc, "IgnoreExitCode") {
				return &ports.TaskOutcome{Succeeded: true}, nil
			}
			publish(tc, domain.EventError, "Exec", "",
				"command exited with code "+strconv.Itoa(exitErr.ExitCode()))
			return &ports.TaskOutcome{Succeeded: false}, nil
		}

		return nil, zerr.Wrap(err, "failed to run command")
	}

	return &ports.TaskOutcome{Succeeded: true}, nil
}

// execEnvironment filters the system environment down to the allow-list.
func execEnvironment(sysEnv []string) []string {
	result := make([]string, 0, len(allowListedEnvVars))
	for _, entry := range sysEnv {
		k, _, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if _, allowed := allowListedEnvVars[k]; allowed {
			result = append(result, entry)
		}
	}
	return result
}

// eventWriter publishes complete output lines as build events.
type eventWriter struct {
	tc   *ports.TaskContext
	kind domain.EventKind
	buf  []byte
}

func (w *eventWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)

	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.publishLine(w.buf[:i])
		w.buf = w.buf[i+1:]
	}

	return len(p), nil
}

func (w *eventWriter) Close() error {
	if len(w.buf) > 0 {
		w.publishLine(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *eventWriter) publishLine(line []byte) {
	msg := strings.TrimSuffix(string(line), "\r")
	publish(w.tc, w.kind, "Exec", "", msg)
}

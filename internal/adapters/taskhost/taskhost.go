// Package taskhost runs single task invocations in isolated helper
// processes, exchanging frames over the child's stdin/stdout.
package taskhost

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"

	"go.trai.ch/forge/internal/adapters/packet"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

// Host implements ports.TaskHost by re-executing the current binary with the
// task host run command, one process per task invocation.
type Host struct {
	executable string
	logger     ports.Logger
	sink       ports.EventSink
}

// NewHost creates a task host launcher. Events from the child stream into
// sink.
func NewHost(logger ports.Logger, sink ports.EventSink) (*Host, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to determine executable path")
	}
	return &Host{executable: exe, logger: logger, sink: sink}, nil
}

// RunTask implements ports.TaskHost.
func (h *Host) RunTask(ctx context.Context, cfg *domain.TaskHostConfig) (*ports.TaskOutcome, error) {
	cmd := exec.CommandContext(ctx, h.executable, "taskhost", "run") //nolint:gosec // our own binary
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, zerr.Wrap(err, "opening task host stdin")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, zerr.Wrap(err, "opening task host stdout")
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, zerr.Wrap(err, "starting task host")
	}

	if err := packet.Send(stdin, packet.TypeTaskHostConfig, cfg); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return nil, zerr.Wrap(err, "sending task host config")
	}
	_ = stdin.Close()

	outcome, err := h.pump(cfg, stdout)

	_ = cmd.Wait()
	if err != nil {
		return nil, err
	}
	if outcome == nil {
		if ctx.Err() != nil {
			return nil, zerr.With(domain.ErrBuildCanceled, "task", cfg.TaskName)
		}
		return nil, zerr.With(domain.ErrTaskHostExited, "task", cfg.TaskName)
	}
	return outcome, nil
}

// pump reads frames off the child until the result arrives or the stream
// ends.
func (h *Host) pump(cfg *domain.TaskHostConfig, r io.Reader) (*ports.TaskOutcome, error) {
	for {
		env, err := packet.Receive(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, nil
			}
			return nil, zerr.Wrap(err, "reading from task host")
		}

		switch env.Type {
		case packet.TypeEvent:
			var p packet.EventPayload
			if err := packet.Decode(env, &p); err != nil {
				return nil, err
			}
			if h.sink != nil {
				h.sink.Publish(p.Event)
			}

		case packet.TypeTaskHostResult:
			var p packet.TaskHostResultPayload
			if err := packet.Decode(env, &p); err != nil {
				return nil, err
			}
			if p.Error != "" {
				err := zerr.With(zerr.New("task host reported an error"), "task", cfg.TaskName)
				return nil, zerr.With(err, "cause", p.Error)
			}
			return &ports.TaskOutcome{Succeeded: p.Succeeded, Outputs: p.Outputs}, nil
		}
	}
}

// Run is the child-process side: it reads one task host config from in,
// executes the task against the given registry and writes the outcome to
// out. Nested builds are unavailable inside a task host.
func Run(ctx context.Context, in io.Reader, out io.Writer, invoker ports.TaskInvoker) error {
	env, err := packet.Receive(in)
	if err != nil {
		return zerr.Wrap(err, "reading task host config")
	}
	if env.Type != packet.TypeTaskHostConfig {
		return zerr.With(domain.ErrUnknownPacketType, "type", env.Type)
	}

	var cfg domain.TaskHostConfig
	if err := packet.Decode(env, &cfg); err != nil {
		return err
	}
	if cfg.TaskName == "" {
		return domain.ErrTaskHostMissingName
	}
	if cfg.TaskLocation == "" {
		return domain.ErrTaskHostMissingLocation
	}

	sink := &stdoutSink{out: out}
	tc := &ports.TaskContext{
		Project: domain.NewProjectInstance(cfg.ProjectPath, "", cfg.GlobalProperties),
		Sink:    sink,
	}
	inv := &domain.TaskInvocation{
		TaskName:        cfg.TaskName,
		ContinueOnError: cfg.ContinueOnError,
		Parameters:      cfg.Parameters,
	}

	outcome, err := invoker.Invoke(ctx, inv, tc)
	payload := packet.TaskHostResultPayload{}
	if err != nil {
		payload.Error = err.Error()
	} else {
		payload.Succeeded = outcome.Succeeded
		payload.Outputs = outcome.Outputs
	}
	return packet.Send(out, packet.TypeTaskHostResult, payload)
}

// stdoutSink serializes the child's events onto its stdout stream.
type stdoutSink struct {
	mu  sync.Mutex
	out io.Writer
}

func (s *stdoutSink) Publish(e domain.BuildEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = packet.Send(s.out, packet.TypeEvent, packet.EventPayload{Event: e})
}

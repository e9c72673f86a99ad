package nodes

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"go.trai.ch/forge/internal/adapters/packet"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	pollInterval    = 100 * time.Millisecond
	maxPollDuration = 5 * time.Second
)

// ProcessSpawner launches worker processes by re-executing the current
// binary with the worker serve command. Workers run in the scope's worker
// directory, never in a project directory, so finished builds leave no
// directory locks behind.
type ProcessSpawner struct {
	executable string
	cfg        ports.NodePoolConfig
}

// NewProcessSpawner creates a spawner for one build's pool configuration.
func NewProcessSpawner(cfg ports.NodePoolConfig) (*ProcessSpawner, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to determine executable path")
	}
	return &ProcessSpawner{executable: exe, cfg: cfg}, nil
}

// Spawn starts one worker process and blocks until it is responsive.
func (s *ProcessSpawner) Spawn(ctx context.Context, id string) (worker, error) {
	dir := domain.WorkerDir(s.cfg.CacheScopeDir)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return nil, zerr.Wrap(err, "failed to create worker directory")
	}

	socketPath := domain.WorkerSocketPath(s.cfg.CacheScopeDir, id)
	logPath := filepath.Join(dir, id+".log")
	//nolint:gosec // G304: logPath derives from the scope dir, not user input
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, domain.PrivateFilePerm)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to open worker log")
	}

	//nolint:gosec // G204: executable is our own binary, args are fixed
	cmd := exec.Command(s.executable, "worker", "serve", "--socket", socketPath)
	cmd.Dir = dir
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}

	if err := cmd.Start(); err != nil {
		_ = logFile.Close()
		return nil, zerr.Wrap(err, domain.ErrWorkerSpawnFailed.Error())
	}

	go func() {
		_ = cmd.Wait()
		_ = logFile.Close()
	}()

	conn, err := s.waitForWorker(ctx, socketPath)
	if err != nil {
		_ = cmd.Process.Kill()
		return nil, err
	}

	if err := s.handshake(conn); err != nil {
		_ = conn.Close()
		_ = cmd.Process.Kill()
		return nil, err
	}

	return &remoteNode{id: id, conn: conn, cmd: cmd, sink: s.cfg.Sink}, nil
}

// waitForWorker polls the socket until the worker accepts connections.
func (s *ProcessSpawner) waitForWorker(ctx context.Context, socketPath string) (net.Conn, error) {
	start := time.Now()
	for time.Since(start) < maxPollDuration {
		if conn, err := net.Dial("unix", socketPath); err == nil {
			return conn, nil
		}
		select {
		case <-ctx.Done():
			return nil, zerr.Wrap(ctx.Err(), "waiting for worker startup")
		case <-time.After(pollInterval):
		}
	}
	return nil, domain.ErrWorkerUnresponsive
}

// handshake sends the build parameters and verifies the worker answers.
func (s *ProcessSpawner) handshake(conn net.Conn) error {
	err := packet.Send(conn, packet.TypeInit, packet.InitPayload{
		CacheScopeDir:       s.cfg.CacheScopeDir,
		MultiThreaded:       s.cfg.MultiThreaded,
		WarningsAsErrors:    s.cfg.WarningsAsErrors,
		WarningsNotAsErrors: s.cfg.WarningsNotAsErrors,
		WarningsAsMessages:  s.cfg.WarningsAsMessages,
	})
	if err != nil {
		return zerr.Wrap(err, "sending worker init")
	}

	if err := packet.Send(conn, packet.TypePing, nil); err != nil {
		return zerr.Wrap(err, "pinging worker")
	}

	_ = conn.SetReadDeadline(time.Now().Add(maxPollDuration))
	defer func() { _ = conn.SetReadDeadline(time.Time{}) }()

	env, err := packet.Receive(conn)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return domain.ErrWorkerUnresponsive
		}
		return zerr.Wrap(err, domain.ErrWorkerUnresponsive.Error())
	}
	if env.Type != packet.TypePing {
		return zerr.With(domain.ErrWorkerUnresponsive, "got", env.Type)
	}
	return nil
}

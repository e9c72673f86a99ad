package nodes

import (
	"context"
	"errors"
	"io"
	"net"
	"os/exec"
	"sync"
	"time"

	"go.trai.ch/forge/internal/adapters/packet"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

// remoteNode is a live out-of-process worker. One request is on the wire at
// a time; events stream back interleaved until the result frame arrives.
type remoteNode struct {
	id   string
	conn net.Conn
	cmd  *exec.Cmd
	sink ports.EventSink

	mu sync.Mutex
}

func (n *remoteNode) ID() string { return n.id }

func (n *remoteNode) Affinity() domain.NodeAffinity { return domain.AffinityOutOfProc }

// Execute ships the request to the worker and pumps events until the result
// frame. The local run func is unused; execution happens on the worker side.
func (n *remoteNode) Execute(ctx context.Context, req *domain.BuildRequest, _ ports.LocalRunFunc) (*domain.BuildResult, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	// Cancellation unblocks the read by expiring the deadline.
	stop := context.AfterFunc(ctx, func() {
		_ = n.conn.SetReadDeadline(time.Now())
	})
	defer func() {
		stop()
		_ = n.conn.SetReadDeadline(time.Time{})
	}()

	payload := packet.BuildRequestPayload{Request: req, Submission: req.SubmissionID}
	if err := packet.Send(n.conn, packet.TypeBuildRequest, payload); err != nil {
		return nil, zerr.Wrap(err, "sending build request to worker "+n.id)
	}

	for {
		env, err := packet.Receive(n.conn)
		if err != nil {
			if ctx.Err() != nil {
				return nil, zerr.With(domain.ErrBuildCanceled, "node", n.id)
			}
			if errors.Is(err, io.EOF) {
				return nil, zerr.With(domain.ErrWorkerExited, "node", n.id)
			}
			return nil, zerr.Wrap(err, "reading from worker "+n.id)
		}

		switch env.Type {
		case packet.TypeEvent:
			var p packet.EventPayload
			if err := packet.Decode(env, &p); err != nil {
				return nil, err
			}
			if n.sink != nil {
				n.sink.Publish(p.Event)
			}

		case packet.TypeBuildResult:
			var p packet.BuildResultPayload
			if err := packet.Decode(env, &p); err != nil {
				return nil, err
			}
			if p.Error != "" {
				return nil, zerr.With(zerr.New("worker reported an execution error"), "cause", p.Error)
			}
			return p.Result, nil

		default:
			// Stray pings are harmless.
		}
	}
}

// Shutdown asks the worker to exit and closes the connection. The spawner's
// wait goroutine reaps the process.
func (n *remoteNode) Shutdown(_ context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	_ = packet.Send(n.conn, packet.TypeShutdown, nil)
	return n.conn.Close()
}

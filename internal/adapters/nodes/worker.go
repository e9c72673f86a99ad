package nodes

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"go.trai.ch/forge/internal/adapters/cache"
	"go.trai.ch/forge/internal/adapters/packet"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/forge/internal/engine/registry"
	"go.trai.ch/forge/internal/engine/router"
	"go.trai.ch/forge/internal/engine/targets"
	"go.trai.ch/zerr"
)

// Server is the worker-process side of the node protocol: it serves one
// manager connection on a unix socket, executing build requests against the
// manager's shared cache scope.
type Server struct {
	logger    ports.Logger
	evaluator ports.Evaluator
	invoker   ports.TaskInvoker
	host      ports.TaskHost
}

// NewServer creates a worker server.
func NewServer(logger ports.Logger, evaluator ports.Evaluator, invoker ports.TaskInvoker, host ports.TaskHost) *Server {
	return &Server{logger: logger, evaluator: evaluator, invoker: invoker, host: host}
}

// Serve listens on socketPath and handles the manager connection until a
// shutdown message, connection loss or context cancellation.
func (s *Server) Serve(ctx context.Context, socketPath string) error {
	if err := os.MkdirAll(filepath.Dir(socketPath), domain.DirPerm); err != nil {
		return zerr.Wrap(err, "failed to create worker directory")
	}
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return zerr.Wrap(err, "failed to remove stale socket")
	}

	lis, err := net.Listen("unix", socketPath)
	if err != nil {
		return zerr.Wrap(err, "failed to listen on worker socket")
	}
	defer func() {
		_ = lis.Close()
		_ = os.Remove(socketPath)
	}()

	if err := os.Chmod(socketPath, domain.SocketPerm); err != nil {
		return zerr.Wrap(err, "failed to set socket permissions")
	}

	go func() {
		<-ctx.Done()
		_ = lis.Close()
	}()

	conn, err := lis.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return zerr.Wrap(err, "accepting manager connection")
	}
	defer func() { _ = conn.Close() }()

	s.logger.Info("worker serving on " + socketPath)
	return s.handle(ctx, conn)
}

// session is the per-connection execution stack, built from the init
// message.
type session struct {
	cache  ports.ResultCache
	reg    *registry.Registry
	runner *targets.Runner
	sink   *wireSink
}

func (s *Server) handle(ctx context.Context, conn net.Conn) error {
	var sess *session

	for {
		env, err := packet.Receive(conn)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return err
		}

		switch env.Type {
		case packet.TypeInit:
			sess, err = s.newSession(env, conn)
			if err != nil {
				return err
			}

		case packet.TypePing:
			if err := packet.Send(conn, packet.TypePing, nil); err != nil {
				return err
			}

		case packet.TypeBuildRequest:
			if err := s.serveRequest(ctx, sess, env, conn); err != nil {
				return err
			}

		case packet.TypeShutdown:
			s.logger.Info("worker shutting down")
			return nil
		}
	}
}

func (s *Server) newSession(env *packet.Envelope, conn net.Conn) (*session, error) {
	var p packet.InitPayload
	if err := packet.Decode(env, &p); err != nil {
		return nil, err
	}

	// The worker attaches to the manager's cache scope instead of owning
	// one, so skip semantics hold across the process boundary.
	c, err := cache.Attach(p.CacheScopeDir)
	if err != nil {
		return nil, err
	}

	sink := &wireSink{conn: conn}
	return &session{
		cache: c,
		reg:   registry.New(s.evaluator),
		runner: targets.NewRunner(
			s.invoker, s.host, router.New(router.PolicyAttribute),
			c, p.MultiThreaded,
			targets.WarningPolicy{
				AsErrors:    p.WarningsAsErrors,
				NotAsErrors: p.WarningsNotAsErrors,
				AsMessages:  p.WarningsAsMessages,
			},
		),
		sink: sink,
	}, nil
}

func (s *Server) serveRequest(ctx context.Context, sess *session, env *packet.Envelope, conn net.Conn) error {
	var p packet.BuildRequestPayload
	if err := packet.Decode(env, &p); err != nil {
		return err
	}

	if sess == nil {
		return packet.Send(conn, packet.TypeBuildResult, packet.BuildResultPayload{
			Error: "worker received a request before init",
		})
	}

	sess.sink.setSubmission(p.Submission)
	result, err := sess.execute(ctx, p.Request)
	payload := packet.BuildResultPayload{Result: result}
	if err != nil {
		s.logger.Error(err)
		payload.Error = err.Error()
	}
	return packet.Send(conn, packet.TypeBuildResult, payload)
}

// execute runs one request locally. Nested project-to-project builds issued
// by tasks run on this worker too, through the shared cache scope.
func (sess *session) execute(ctx context.Context, req *domain.BuildRequest) (*domain.BuildResult, error) {
	cfg := sess.reg.GetOrCreate(req.ProjectPath, req.GlobalProperties, req.ToolsVersion)
	instance, err := sess.reg.InstanceForBuild(cfg)
	if err != nil {
		return nil, err
	}
	return sess.runner.Execute(ctx, req, instance, sess.sink, sess)
}

// BuildNested implements ports.NestedBuilder for worker-local execution.
func (sess *session) BuildNested(
	ctx context.Context,
	parent *domain.BuildRequest,
	path string,
	globalProps map[string]string,
	targetNames []string,
) (*domain.BuildResult, error) {
	props := globalProps
	if props == nil {
		props = parent.GlobalProperties
	}
	cfg := sess.reg.GetOrCreate(path, props, parent.ToolsVersion)
	nested := &domain.BuildRequest{
		ConfigID:         cfg.ID,
		ProjectPath:      cfg.ProjectPath,
		GlobalProperties: cfg.GlobalProperties,
		ToolsVersion:     cfg.ToolsVersion,
		Targets:          targetNames,
		Affinity:         domain.AffinityAny,
	}
	return sess.execute(ctx, nested)
}

// wireSink forwards build events over the manager connection, stamped with
// the submission being served. Property snapshots on project-finished
// events pass through the forwarding allow-list first.
type wireSink struct {
	mu         sync.Mutex
	conn       net.Conn
	submission string
}

// setSubmission records the submission the next events belong to. The
// manager sends one request at a time per connection, so the stamp cannot
// interleave.
func (w *wireSink) setSubmission(id int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if id == 0 {
		w.submission = ""
		return
	}
	w.submission = strconv.Itoa(id)
}

func (w *wireSink) Publish(e domain.BuildEvent) {
	if e.Kind == domain.EventProjectFinished {
		e.Properties = forwardedProperties(e.Properties)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if e.Submission == "" {
		e.Submission = w.submission
	}
	_ = packet.Send(w.conn, packet.TypeEvent, packet.EventPayload{Event: e})
}

// forwardedProperties applies the property forwarding allow-list: unset
// forwards nothing, "*" forwards everything, otherwise only the listed
// names. The filter shapes logged snapshots only.
func forwardedProperties(props map[string]string) map[string]string {
	spec := os.Getenv(domain.EnvForwardProperties)
	if spec == "" || len(props) == 0 {
		return nil
	}
	if spec == "*" {
		return props
	}

	out := make(map[string]string)
	for _, name := range strings.Split(spec, ",") {
		name = strings.TrimSpace(name)
		if v, ok := props[name]; ok {
			out[name] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Package app implements the application layer for forge: it owns the
// translation from CLI options to build manager sessions and hosts the
// worker and task host serve loops.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.trai.ch/forge/internal/adapters/logger"
	"go.trai.ch/forge/internal/adapters/nodes"
	"go.trai.ch/forge/internal/adapters/taskhost"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/forge/internal/engine/manager"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	logger    ports.Logger
	evaluator ports.Evaluator
	invoker   ports.TaskInvoker
	caches    ports.ResultCacheFactory
	pools     ports.NodePoolFactory
	tracer    ports.Tracer
}

// New creates a new App instance.
func New(
	log ports.Logger,
	evaluator ports.Evaluator,
	invoker ports.TaskInvoker,
	caches ports.ResultCacheFactory,
	pools ports.NodePoolFactory,
	tracer ports.Tracer,
) *App {
	return &App{
		logger:    log,
		evaluator: evaluator,
		invoker:   invoker,
		caches:    caches,
		pools:     pools,
		tracer:    tracer,
	}
}

// RunOptions configuration for the Run method.
type RunOptions struct {
	// Project is the project file or directory to build; empty means the
	// working directory.
	Project string
	// Properties are global properties as key=value pairs.
	Properties []string
	// MaxNodeCount bounds the total node count, in-process node included.
	MaxNodeCount int
	// MultiThreaded enables concurrent request execution.
	MultiThreaded bool
	// DisableInProc forces every request onto out-of-process workers.
	DisableInProc bool
	// NodeReuse keeps idle workers alive across sessions.
	NodeReuse bool
	// NoCache drops cached target results before building.
	NoCache bool
	// OnlyErrors reduces the event stream to warnings, errors and build
	// boundaries.
	OnlyErrors bool
	// SaveEnvironment restores the working directory and process
	// environment after the build.
	SaveEnvironment bool

	WarnAsError    []string
	NotWarnAsError []string
	WarnAsMessage  []string

	// Out receives the rendered event stream; nil means stderr.
	Out io.Writer
}

// Run executes one build of the given targets and streams its events to a
// console sink. A failed build returns domain.ErrBuildFailed; the event
// stream already names the failing target.
func (a *App) Run(ctx context.Context, targetNames []string, opts RunOptions) error {
	props, err := parseProperties(opts.Properties)
	if err != nil {
		return err
	}

	project := opts.Project
	if project == "" {
		project = "."
	}

	sink := logger.NewConsoleSink(opts.Out, opts.OnlyErrors)
	host, err := taskhost.NewHost(a.logger, sink)
	if err != nil {
		return err
	}

	m := manager.New(a.evaluator, a.invoker, a.caches, a.pools, host, a.tracer, a.logger, "")
	defer func() {
		if err := m.Close(); err != nil {
			a.logger.Error(err)
		}
	}()

	// Interrupts cancel cooperatively; a running legacy task finishes
	// naturally before the failure is reported.
	stop := context.AfterFunc(ctx, m.CancelAllSubmissions)
	defer stop()

	res, err := m.Build(manager.BuildParameters{
		MaxNodeCount:             opts.MaxNodeCount,
		EnableNodeReuse:          opts.NodeReuse,
		DisableInProcNode:        opts.DisableInProc,
		MultiThreaded:            opts.MultiThreaded,
		OnlyLogCriticalEvents:    opts.OnlyErrors,
		WarningsAsErrors:         opts.WarnAsError,
		WarningsNotAsErrors:      opts.NotWarnAsError,
		WarningsAsMessages:       opts.WarnAsMessage,
		ResetCaches:              opts.NoCache,
		SaveOperatingEnvironment: opts.SaveEnvironment,
		Sinks:                    []ports.EventSink{sink},
	}, &manager.RequestData{
		ProjectPath:      project,
		GlobalProperties: props,
		Targets:          targetNames,
	})
	if err != nil {
		return err
	}
	if res.OverallResult == domain.BuildFailure {
		return domain.ErrBuildFailed
	}
	return nil
}

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	// Cache removes the build result cache, worker state included.
	Cache bool
}

// Clean removes the on-disk state forge keeps between builds.
func (a *App) Clean(_ context.Context, opts CleanOptions) error {
	var errs error

	remove := func(path string, name string) {
		a.logger.Info(fmt.Sprintf("removing %s...", name))
		if err := os.RemoveAll(path); err != nil {
			errs = errors.Join(errs, zerr.Wrap(err, fmt.Sprintf("failed to remove %s", name)))
			return
		}
		a.logger.Info(fmt.Sprintf("removed %s", name))
	}

	if opts.Cache {
		remove(domain.DefaultCacheRoot(), "build result cache")
	}

	return errs
}

// ServeWorker runs the out-of-process worker loop on the given unix socket
// until the spawning build manager shuts it down.
func (a *App) ServeWorker(ctx context.Context, socketPath string) error {
	host, err := taskhost.NewHost(a.logger, nil)
	if err != nil {
		return err
	}
	srv := nodes.NewServer(a.logger, a.evaluator, a.invoker, host)
	return srv.Serve(ctx, socketPath)
}

// RunTaskHost executes one task invocation read from stdin and reports the
// outcome on stdout. The parent build node owns the process lifecycle.
func (a *App) RunTaskHost(ctx context.Context) error {
	return taskhost.Run(ctx, os.Stdin, os.Stdout, a.invoker)
}

func parseProperties(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	props := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, zerr.With(zerr.New("properties must be key=value pairs"), "got", pair)
		}
		props[k] = v
	}
	return props, nil
}

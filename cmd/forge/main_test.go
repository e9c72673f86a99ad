package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/forge/internal/adapters/cache"
	"go.trai.ch/forge/internal/adapters/evaluator"
	"go.trai.ch/forge/internal/adapters/logger"
	"go.trai.ch/forge/internal/adapters/nodes"
	"go.trai.ch/forge/internal/adapters/tasks"
	"go.trai.ch/forge/internal/adapters/telemetry"
	"go.trai.ch/forge/internal/app"
	"go.trai.ch/forge/internal/core/domain"
)

func testProvider() ComponentProvider {
	return func(context.Context) (*app.Components, error) {
		log := logger.New()
		log.SetOutput(io.Discard)

		a := app.New(
			log,
			evaluator.NewLoader(log),
			tasks.NewRegistry(log),
			cache.NewFactory(),
			nodes.NewFactory(log),
			telemetry.NewNoOpTracer(),
		)
		return &app.Components{App: a, Logger: log}, nil
	}
}

// TestRun_Success verifies that the run function returns 0 when the command
// succeeds.
func TestRun_Success(t *testing.T) {
	stderr := new(bytes.Buffer)

	exitCode := run(context.Background(), []string{"version"}, stderr, testProvider())
	assert.Equal(t, 0, exitCode)
}

// TestRun_InitializationError verifies that run returns 1 when component
// initialization fails.
func TestRun_InitializationError(t *testing.T) {
	provider := func(context.Context) (*app.Components, error) {
		return nil, errors.New("init failed")
	}

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, provider)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "Error: init failed")
}

// TestRun_BuildFailure verifies the silent nonzero exit for a failed build:
// the event stream already reported the failing target.
func TestRun_BuildFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, domain.ProjectFileName)
	require.NoError(t, os.WriteFile(path, []byte(`
targets:
  broken:
    tasks:
      - task: Error
        parameters:
          Text: exit check
`), 0o644))

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"build", "broken", "--project", path}, stderr, testProvider())
	assert.Equal(t, 1, exitCode)
}

// TestRun_UnknownCommand verifies that run returns 1 for unknown commands.
func TestRun_UnknownCommand(t *testing.T) {
	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"frobnicate"}, stderr, testProvider())
	assert.Equal(t, 1, exitCode)
}

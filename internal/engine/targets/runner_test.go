package targets_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/forge/internal/adapters/cache"
	"go.trai.ch/forge/internal/adapters/logger"
	"go.trai.ch/forge/internal/adapters/tasks"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/forge/internal/core/ports/mocks"
	"go.trai.ch/forge/internal/engine/router"
	"go.trai.ch/forge/internal/engine/targets"
	"go.uber.org/mock/gomock"
)

type harness struct {
	runner  *targets.Runner
	cache   ports.ResultCache
	sink    *logger.MemorySink
	project *domain.ProjectInstance
}

type harnessOptions struct {
	multiThreaded bool
	host          ports.TaskHost
	warnings      targets.WarningPolicy
}

func newHarness(t *testing.T, opts harnessOptions) *harness {
	t.Helper()

	c, err := cache.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	invoker := tasks.NewRegistry(logger.New())
	return &harness{
		runner: targets.NewRunner(
			invoker, opts.host, router.New(router.PolicyAttribute),
			c, opts.multiThreaded, opts.warnings,
		),
		cache:   c,
		sink:    logger.NewMemorySink(),
		project: domain.NewProjectInstance("/work/forge.yaml", "1.0", nil),
	}
}

func (h *harness) addTarget(t *testing.T, target *domain.Target) {
	t.Helper()
	require.NoError(t, h.project.AddTarget(target))
}

func (h *harness) execute(t *testing.T, targetNames ...string) (*domain.BuildResult, error) {
	t.Helper()
	req := &domain.BuildRequest{
		ConfigID:    1,
		ProjectPath: h.project.Path,
		Targets:     targetNames,
	}
	return h.runner.Execute(t.Context(), req, h.project, h.sink, nil)
}

func messageTask(text string) domain.TaskInvocation {
	return domain.TaskInvocation{
		TaskName:   "Message",
		Parameters: map[string]domain.TaskValue{"Text": domain.PrimitiveValue(text)},
	}
}

func errorTask(text string) domain.TaskInvocation {
	return domain.TaskInvocation{
		TaskName:   "Error",
		Parameters: map[string]domain.TaskValue{"Text": domain.PrimitiveValue(text)},
	}
}

func TestExecute_SingleTargetSucceeds(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.addTarget(t, &domain.Target{Name: "Build", Tasks: []domain.TaskInvocation{messageTask("hello")}})

	res, err := h.execute(t, "Build")
	require.NoError(t, err)
	assert.Equal(t, domain.BuildSuccess, res.OverallResult)
	assert.Equal(t, domain.TargetSuccess, res.TargetResults["Build"].Code)
	assert.Equal(t, []string{"hello"}, h.sink.Messages(domain.EventMessage))

	var kinds []domain.EventKind
	for _, e := range h.sink.Events() {
		if e.Kind != domain.EventMessage {
			kinds = append(kinds, e.Kind)
		}
	}
	assert.Equal(t, []domain.EventKind{
		domain.EventProjectStarted,
		domain.EventTargetStarted,
		domain.EventTaskStarted,
		domain.EventTaskFinished,
		domain.EventTargetFinished,
		domain.EventProjectFinished,
	}, kinds)
	require.Len(t, h.sink.OfKind(domain.EventProjectStarted), 1)
}

func TestExecute_ErrorTaskFailsBuild(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.addTarget(t, &domain.Target{Name: "Build", Tasks: []domain.TaskInvocation{errorTask("boom")}})

	res, err := h.execute(t, "Build")
	require.NoError(t, err, "a task failure is a result, not a Go error")
	assert.Equal(t, domain.BuildFailure, res.OverallResult)
	assert.Equal(t, domain.TargetFailure, res.TargetResults["Build"].Code)
	assert.Equal(t, []string{"boom"}, h.sink.Messages(domain.EventError))
}

func TestExecute_DefaultTargets(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.addTarget(t, &domain.Target{Name: "Build", Tasks: []domain.TaskInvocation{messageTask("default")}})
	h.project.DefaultTargets = []string{"Build"}

	res, err := h.execute(t)
	require.NoError(t, err)
	assert.Equal(t, domain.BuildSuccess, res.OverallResult)
	assert.Contains(t, res.TargetResults, "Build")
}

func TestExecute_DependsOnOrdering(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.addTarget(t, &domain.Target{Name: "Compile", Tasks: []domain.TaskInvocation{messageTask("compile")}})
	h.addTarget(t, &domain.Target{
		Name:      "Link",
		DependsOn: []string{"Compile"},
		Tasks:     []domain.TaskInvocation{messageTask("link")},
	})

	_, err := h.execute(t, "Link")
	require.NoError(t, err)
	assert.Equal(t, []string{"compile", "link"}, h.sink.Messages(domain.EventMessage))
}

func TestExecute_DependencyFailureStopsDependent(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.addTarget(t, &domain.Target{Name: "Compile", Tasks: []domain.TaskInvocation{errorTask("compile broke")}})
	h.addTarget(t, &domain.Target{
		Name:      "Link",
		DependsOn: []string{"Compile"},
		Tasks:     []domain.TaskInvocation{messageTask("link")},
	})

	res, err := h.execute(t, "Link")
	require.NoError(t, err)
	assert.Equal(t, domain.BuildFailure, res.OverallResult)
	assert.Equal(t, domain.TargetFailure, res.TargetResults["Compile"].Code)
	assert.Equal(t, domain.TargetFailure, res.TargetResults["Link"].Code)
	assert.Empty(t, h.sink.Messages(domain.EventMessage), "the dependent body must not run")
}

func TestExecute_BeforeAndAfterHooks(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.addTarget(t, &domain.Target{Name: "Build", Tasks: []domain.TaskInvocation{messageTask("build")}})
	h.addTarget(t, &domain.Target{
		Name:          "Prepare",
		BeforeTargets: []string{"Build"},
		Tasks:         []domain.TaskInvocation{messageTask("prepare")},
	})
	h.addTarget(t, &domain.Target{
		Name:         "Publish",
		AfterTargets: []string{"Build"},
		Tasks:        []domain.TaskInvocation{messageTask("publish")},
	})

	_, err := h.execute(t, "Build")
	require.NoError(t, err)
	assert.Equal(t, []string{"prepare", "build", "publish"}, h.sink.Messages(domain.EventMessage))
}

func TestExecute_AfterTargetsFailureFailsBuild(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.addTarget(t, &domain.Target{Name: "Build", Tasks: []domain.TaskInvocation{messageTask("build")}})
	h.addTarget(t, &domain.Target{
		Name:         "Verify",
		AfterTargets: []string{"Build"},
		Tasks:        []domain.TaskInvocation{errorTask("verify broke")},
	})

	res, err := h.execute(t, "Build")
	require.NoError(t, err)
	assert.Equal(t, domain.BuildFailure, res.OverallResult)
	assert.Equal(t, domain.TargetSuccess, res.TargetResults["Build"].Code,
		"the hooked target keeps its own verdict")
	assert.Equal(t, domain.TargetFailure, res.TargetResults["Verify"].Code)
}

func TestExecute_OnErrorChain(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.addTarget(t, &domain.Target{
		Name:    "Build",
		OnError: []string{"Cleanup"},
		Tasks:   []domain.TaskInvocation{errorTask("boom")},
	})
	h.addTarget(t, &domain.Target{Name: "Cleanup", Tasks: []domain.TaskInvocation{messageTask("cleaning up")}})

	res, err := h.execute(t, "Build")
	require.NoError(t, err)
	assert.Equal(t, domain.BuildFailure, res.OverallResult)
	assert.Equal(t, []string{"cleaning up"}, h.sink.Messages(domain.EventMessage))
}

func TestExecute_ConditionFalseSkips(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.addTarget(t, &domain.Target{
		Name:      "MaySkip",
		Condition: "'$(Run)' == 'true'",
		Tasks:     []domain.TaskInvocation{messageTask("ran")},
	})

	res, err := h.execute(t, "MaySkip")
	require.NoError(t, err)
	assert.Equal(t, domain.BuildSuccess, res.OverallResult)
	assert.Equal(t, domain.TargetSkipped, res.TargetResults["MaySkip"].Code)
	assert.True(t, res.TargetResults["MaySkip"].ConditionFalse)
	assert.Empty(t, h.sink.Messages(domain.EventMessage))
	require.Len(t, h.sink.OfKind(domain.EventTargetSkipped), 1)
}

func TestExecute_ConditionSkipReEvaluated(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.addTarget(t, &domain.Target{
		Name:      "MaySkip",
		Condition: "'$(Run)' == 'true'",
		Tasks:     []domain.TaskInvocation{messageTask("ran")},
	})

	res, err := h.execute(t, "MaySkip")
	require.NoError(t, err)
	assert.Equal(t, domain.TargetSkipped, res.TargetResults["MaySkip"].Code)

	// The skip verdict is not reused once the condition's inputs change.
	h.project.SetProperty("Run", "true")
	res, err = h.execute(t, "MaySkip")
	require.NoError(t, err)
	assert.Equal(t, domain.TargetSuccess, res.TargetResults["MaySkip"].Code)
	assert.Equal(t, []string{"ran"}, h.sink.Messages(domain.EventMessage))
}

func TestExecute_CachedSuccessReplayedAsSkip(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.addTarget(t, &domain.Target{Name: "Build", Tasks: []domain.TaskInvocation{messageTask("built")}})

	res, err := h.execute(t, "Build")
	require.NoError(t, err)
	assert.Equal(t, domain.BuildSuccess, res.OverallResult)

	res, err = h.execute(t, "Build")
	require.NoError(t, err)
	assert.Equal(t, domain.BuildSuccess, res.OverallResult)
	assert.Equal(t, []string{"built"}, h.sink.Messages(domain.EventMessage),
		"the second run must not re-execute the task")

	skips := h.sink.OfKind(domain.EventTargetSkipped)
	require.Len(t, skips, 1)
	assert.Equal(t, "target is already complete", skips[0].Message)
}

func TestExecute_CachedFailureStaysFailure(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.addTarget(t, &domain.Target{Name: "Build", Tasks: []domain.TaskInvocation{errorTask("boom")}})

	res, err := h.execute(t, "Build")
	require.NoError(t, err)
	assert.Equal(t, domain.BuildFailure, res.OverallResult)

	// An equivalent later request observes the failure instead of silently
	// skipping as success.
	res, err = h.execute(t, "Build")
	require.NoError(t, err)
	assert.Equal(t, domain.BuildFailure, res.OverallResult)
	assert.Equal(t, domain.TargetFailure, res.TargetResults["Build"].Code)
	assert.Equal(t, []string{"boom"}, h.sink.Messages(domain.EventError),
		"the failure replays without re-running the task")
}

func TestExecute_ContinueOnError(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	failing := errorTask("tolerated")
	failing.ContinueOnError = true
	h.addTarget(t, &domain.Target{
		Name:  "Build",
		Tasks: []domain.TaskInvocation{failing, messageTask("still here")},
	})

	res, err := h.execute(t, "Build")
	require.NoError(t, err)
	assert.Equal(t, domain.TargetSuccess, res.TargetResults["Build"].Code)
	assert.Equal(t, []string{"still here"}, h.sink.Messages(domain.EventMessage))
}

func TestExecute_TaskConditionSkipsTask(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	conditional := messageTask("conditional")
	conditional.Condition = "'$(Enable)' == 'true'"
	h.addTarget(t, &domain.Target{
		Name:  "Build",
		Tasks: []domain.TaskInvocation{conditional, messageTask("always")},
	})

	_, err := h.execute(t, "Build")
	require.NoError(t, err)
	assert.Equal(t, []string{"always"}, h.sink.Messages(domain.EventMessage))
}

func TestExecute_UnknownTaskFailsTarget(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.addTarget(t, &domain.Target{
		Name:  "Build",
		Tasks: []domain.TaskInvocation{{TaskName: "NoSuchTask"}},
	})

	res, err := h.execute(t, "Build")
	require.NoError(t, err)
	assert.Equal(t, domain.BuildFailure, res.OverallResult)
	assert.Equal(t, domain.TargetFailure, res.TargetResults["Build"].Code)
}

func TestExecute_UnknownEntryTarget(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	_, err := h.execute(t, "Missing")
	require.ErrorIs(t, err, domain.ErrTargetNotFound)
}

func TestExecute_CycleDetected(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.addTarget(t, &domain.Target{Name: "A", DependsOn: []string{"B"}})
	h.addTarget(t, &domain.Target{Name: "B", DependsOn: []string{"A"}})

	res, err := h.execute(t, "A")
	require.ErrorIs(t, err, domain.ErrTargetCycle)
	assert.Equal(t, domain.BuildFailure, res.OverallResult)
}

func TestExecute_WarningPromotion(t *testing.T) {
	h := newHarness(t, harnessOptions{
		warnings: targets.WarningPolicy{AsErrors: []string{"FW0001"}},
	})
	h.addTarget(t, &domain.Target{
		Name: "Build",
		Tasks: []domain.TaskInvocation{{
			TaskName: "Warning",
			Parameters: map[string]domain.TaskValue{
				"Text": domain.PrimitiveValue("promoted"),
				"Code": domain.PrimitiveValue("FW0001"),
			},
		}},
	})

	res, err := h.execute(t, "Build")
	require.NoError(t, err)
	assert.Equal(t, domain.BuildFailure, res.OverallResult,
		"a promoted warning flips the overall result")
	assert.Equal(t, domain.TargetSuccess, res.TargetResults["Build"].Code,
		"the individual target result is untouched")
	assert.Equal(t, []string{"promoted"}, h.sink.Messages(domain.EventError))
	assert.Empty(t, h.sink.OfKind(domain.EventWarning))
}

func TestExecute_WarningExemptFromPromotion(t *testing.T) {
	h := newHarness(t, harnessOptions{
		warnings: targets.WarningPolicy{
			AsErrors:    []string{"*"},
			NotAsErrors: []string{"FW0002"},
		},
	})
	h.addTarget(t, &domain.Target{
		Name: "Build",
		Tasks: []domain.TaskInvocation{{
			TaskName: "Warning",
			Parameters: map[string]domain.TaskValue{
				"Text": domain.PrimitiveValue("kept"),
				"Code": domain.PrimitiveValue("FW0002"),
			},
		}},
	})

	res, err := h.execute(t, "Build")
	require.NoError(t, err)
	assert.Equal(t, domain.BuildSuccess, res.OverallResult)
	require.Len(t, h.sink.OfKind(domain.EventWarning), 1)
}

func TestExecute_WarningDemotedToMessage(t *testing.T) {
	h := newHarness(t, harnessOptions{
		warnings: targets.WarningPolicy{AsMessages: []string{"FW0003"}},
	})
	h.addTarget(t, &domain.Target{
		Name: "Build",
		Tasks: []domain.TaskInvocation{{
			TaskName: "Warning",
			Parameters: map[string]domain.TaskValue{
				"Text": domain.PrimitiveValue("quiet"),
				"Code": domain.PrimitiveValue("FW0003"),
			},
		}},
	})

	res, err := h.execute(t, "Build")
	require.NoError(t, err)
	assert.Equal(t, domain.BuildSuccess, res.OverallResult)
	assert.Empty(t, h.sink.OfKind(domain.EventWarning))
	assert.Contains(t, h.sink.Messages(domain.EventMessage), "quiet")
}

func TestExecute_ProjectStateSnapshot(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.addTarget(t, &domain.Target{
		Name: "Build",
		Tasks: []domain.TaskInvocation{{
			TaskName: "SetProperty",
			Parameters: map[string]domain.TaskValue{
				"Name":  domain.PrimitiveValue("Built"),
				"Value": domain.PrimitiveValue("yes"),
			},
		}},
	})

	req := &domain.BuildRequest{
		ConfigID:    1,
		ProjectPath: h.project.Path,
		Targets:     []string{"Build"},
		Flags:       domain.FlagProvideProjectStateAfterBuild,
	}
	res, err := h.runner.Execute(t.Context(), req, h.project, h.sink, nil)
	require.NoError(t, err)
	require.NotNil(t, res.ProjectStateAfterBuild)
	assert.Equal(t, "yes", res.ProjectStateAfterBuild.Properties["Built"])
}

func TestExecute_TaskHostRouting(t *testing.T) {
	ctrl := gomock.NewController(t)
	host := mocks.NewMockTaskHost(ctrl)

	h := newHarness(t, harnessOptions{multiThreaded: true, host: host})
	h.addTarget(t, &domain.Target{
		Name: "Build",
		Tasks: []domain.TaskInvocation{{
			TaskName: "Exec",
			Parameters: map[string]domain.TaskValue{
				"Command": domain.PrimitiveValue("true"),
			},
		}},
	})

	host.EXPECT().
		RunTask(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, cfg *domain.TaskHostConfig) (*ports.TaskOutcome, error) {
			assert.Equal(t, "Exec", cfg.TaskName)
			return &ports.TaskOutcome{Succeeded: true}, nil
		})

	res, err := h.execute(t, "Build")
	require.NoError(t, err)
	assert.Equal(t, domain.BuildSuccess, res.OverallResult)

	launches := h.sink.OfKind(domain.EventTaskHostLaunch)
	require.Len(t, launches, 1)
	assert.Equal(t, "Exec", launches[0].Task)
}

func TestExecute_MarkedTaskStaysInProcess(t *testing.T) {
	ctrl := gomock.NewController(t)
	host := mocks.NewMockTaskHost(ctrl)

	h := newHarness(t, harnessOptions{multiThreaded: true, host: host})
	h.addTarget(t, &domain.Target{Name: "Build", Tasks: []domain.TaskInvocation{messageTask("local")}})

	res, err := h.execute(t, "Build")
	require.NoError(t, err)
	assert.Equal(t, domain.BuildSuccess, res.OverallResult)
	assert.Empty(t, h.sink.OfKind(domain.EventTaskHostLaunch),
		"in-process tasks never emit the launch notification")
}

func TestExecute_ExplicitTaskHostOverride(t *testing.T) {
	ctrl := gomock.NewController(t)
	host := mocks.NewMockTaskHost(ctrl)
	host.EXPECT().
		RunTask(gomock.Any(), gomock.Any()).
		Return(&ports.TaskOutcome{Succeeded: true}, nil)

	h := newHarness(t, harnessOptions{host: host})
	marked := messageTask("forced out")
	marked.UseTaskHost = true
	h.addTarget(t, &domain.Target{Name: "Build", Tasks: []domain.TaskInvocation{marked}})

	res, err := h.execute(t, "Build")
	require.NoError(t, err)
	assert.Equal(t, domain.BuildSuccess, res.OverallResult)
	require.Len(t, h.sink.OfKind(domain.EventTaskHostLaunch), 1)
}

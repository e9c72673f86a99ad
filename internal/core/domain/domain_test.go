package domain_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/forge/internal/core/domain"
)

func TestNewConfigurationID_Deterministic(t *testing.T) {
	props := map[string]string{"Configuration": "Debug", "Platform": "x64"}

	a := domain.NewConfigurationID("/work/forge.yaml", props, "1.0")
	b := domain.NewConfigurationID("/work/forge.yaml", map[string]string{
		"Platform":      "x64",
		"Configuration": "Debug",
	}, "1.0")

	assert.Equal(t, a, b, "identity must not depend on map iteration order")
}

func TestNewConfigurationID_Sensitivity(t *testing.T) {
	base := domain.NewConfigurationID("/work/forge.yaml", map[string]string{"A": "1"}, "1.0")

	tests := []struct {
		name  string
		path  string
		props map[string]string
		tools string
	}{
		{"different path", "/other/forge.yaml", map[string]string{"A": "1"}, "1.0"},
		{"different property value", "/work/forge.yaml", map[string]string{"A": "2"}, "1.0"},
		{"different property key", "/work/forge.yaml", map[string]string{"B": "1"}, "1.0"},
		{"extra property", "/work/forge.yaml", map[string]string{"A": "1", "B": "2"}, "1.0"},
		{"different tools version", "/work/forge.yaml", map[string]string{"A": "1"}, "2.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.NewConfigurationID(tt.path, tt.props, tt.tools)
			assert.NotEqual(t, base, got)
		})
	}
}

func TestNewConfigurationID_SeparatorInjection(t *testing.T) {
	// Adjacent key/value pairs must not collide when boundaries shift.
	a := domain.NewConfigurationID("/p", map[string]string{"ab": "c"}, "")
	b := domain.NewConfigurationID("/p", map[string]string{"a": "bc"}, "")
	assert.NotEqual(t, a, b)
}

func TestBuildRequest_TargetSetKey(t *testing.T) {
	a := &domain.BuildRequest{Targets: []string{"Build", "Test"}}
	b := &domain.BuildRequest{Targets: []string{"Test", "Build"}}
	c := &domain.BuildRequest{Targets: []string{"Build", "Build", "Test"}}

	assert.Equal(t, a.TargetSetKey(), b.TargetSetKey(), "order must not matter")
	assert.Equal(t, a.TargetSetKey(), c.TargetSetKey(), "duplicates must not matter")

	d := &domain.BuildRequest{Targets: []string{"Build"}}
	assert.NotEqual(t, a.TargetSetKey(), d.TargetSetKey())
}

func TestBuildRequest_EquivalentTo(t *testing.T) {
	a := &domain.BuildRequest{ConfigID: 1, Targets: []string{"Build", "Test"}}
	b := &domain.BuildRequest{ConfigID: 1, Targets: []string{"Test", "Build"}}
	c := &domain.BuildRequest{ConfigID: 2, Targets: []string{"Build", "Test"}}

	assert.True(t, a.EquivalentTo(b))
	assert.False(t, a.EquivalentTo(c), "different configuration is never equivalent")
	assert.False(t, a.EquivalentTo(nil))
}

func TestBuildResult_RecordTargetFoldsFailure(t *testing.T) {
	res := domain.NewBuildResult(7)
	require.True(t, res.Succeeded())

	res.RecordTarget("Prepare", domain.TargetResult{Code: domain.TargetSuccess})
	assert.True(t, res.Succeeded())

	res.RecordTarget("Build", domain.TargetResult{Code: domain.TargetFailure})
	assert.False(t, res.Succeeded())
	assert.Equal(t, domain.BuildFailure, res.OverallResult)
}

func TestBuildResult_MarkOverallFailureKeepsTargets(t *testing.T) {
	res := domain.NewBuildResult(7)
	res.RecordTarget("Build", domain.TargetResult{Code: domain.TargetSuccess})

	res.MarkOverallFailure()

	assert.False(t, res.Succeeded())
	assert.Equal(t, domain.TargetSuccess, res.TargetResults["Build"].Code,
		"escalated warnings fail the build without rewriting target verdicts")
}

func TestTargetResult_ConditionFalseNeverSerialized(t *testing.T) {
	data, err := json.Marshal(domain.TargetResult{
		Code:           domain.TargetSkipped,
		ConditionFalse: true,
	})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "ConditionFalse")

	var out domain.TargetResult
	require.NoError(t, json.Unmarshal(data, &out))
	assert.False(t, out.ConditionFalse)
}

func TestTaskValue_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		val  domain.TaskValue
	}{
		{"primitive", domain.PrimitiveValue("hello")},
		{"item", domain.ItemValue(domain.ItemHandle{
			Spec:     "src/main.c",
			Metadata: map[string]string{"Kind": "source"},
		})},
		{"item array", domain.ItemArrayValue([]domain.ItemHandle{
			{Spec: "a"}, {Spec: "b"},
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.val)
			require.NoError(t, err)

			var out domain.TaskValue
			require.NoError(t, json.Unmarshal(data, &out))
			assert.Equal(t, tt.val, out)
		})
	}
}

func TestTaskValue_RejectsUnknownKind(t *testing.T) {
	var out domain.TaskValue
	err := json.Unmarshal([]byte(`{"kind":"delegate","value":"x"}`), &out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnknownValueKind))
}

func TestTaskValue_MarshalRejectsZeroValue(t *testing.T) {
	_, err := json.Marshal(domain.TaskValue{})
	require.Error(t, err)
}

func TestNewTaskHostConfig_Validation(t *testing.T) {
	tests := []struct {
		name     string
		taskName string
		location string
		wantErr  error
	}{
		{"valid", "Exec", "/usr/lib/forge/tasks", nil},
		{"missing name", "", "/usr/lib/forge/tasks", domain.ErrTaskHostMissingName},
		{"missing location", "Exec", "", domain.ErrTaskHostMissingLocation},
		{"both missing", "", "", domain.ErrTaskHostMissingName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := domain.NewTaskHostConfig(tt.taskName, tt.location)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.taskName, cfg.TaskName)
			assert.Equal(t, tt.location, cfg.TaskLocation)
		})
	}
}

func TestProjectInstance_Properties(t *testing.T) {
	p := domain.NewProjectInstance("/work/forge.yaml", "1.0", map[string]string{"A": "1"})

	assert.Equal(t, "1", p.Property("A"))
	assert.True(t, p.HasProperty("A"))
	assert.False(t, p.HasProperty("B"))

	p.SetProperty("B", "2")
	assert.Equal(t, "2", p.Property("B"))

	p.SetProperty("B", "")
	assert.False(t, p.HasProperty("B"), "empty value removes the property")
}

func TestProjectInstance_Items(t *testing.T) {
	p := domain.NewProjectInstance("/work/forge.yaml", "1.0", nil)

	p.AddItems("Compile", "a.c", "b.c")
	p.AddItems("Compile", "c.c")

	assert.Equal(t, []string{"a.c", "b.c", "c.c"}, p.ItemValues("Compile"))
	assert.Empty(t, p.ItemValues("Other"))

	// Returned slice is a copy.
	vals := p.ItemValues("Compile")
	vals[0] = "mutated"
	assert.Equal(t, "a.c", p.ItemValues("Compile")[0])
}

func TestProjectInstance_Snapshot(t *testing.T) {
	p := domain.NewProjectInstance("/work/forge.yaml", "1.0", map[string]string{"A": "1"})
	p.AddItems("Out", "x")

	snap := p.Snapshot()
	assert.Equal(t, "1", snap.Properties["A"])
	assert.Equal(t, []string{"x"}, snap.Items["Out"])

	// Mutations after the snapshot must not leak into it.
	p.SetProperty("A", "2")
	p.AddItems("Out", "y")
	assert.Equal(t, "1", snap.Properties["A"])
	assert.Equal(t, []string{"x"}, snap.Items["Out"])
}

func TestProjectInstance_AddTargetRejectsDuplicates(t *testing.T) {
	p := domain.NewProjectInstance("/work/forge.yaml", "1.0", nil)

	require.NoError(t, p.AddTarget(&domain.Target{Name: "Build"}))
	err := p.AddTarget(&domain.Target{Name: "Build"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTargetAlreadyExists))
}

func TestProjectInstance_EntryTargets(t *testing.T) {
	p := domain.NewProjectInstance("/work/forge.yaml", "1.0", nil)
	p.DefaultTargets = []string{"Build"}

	assert.Equal(t, []string{"Test"}, p.EntryTargets([]string{"Test"}))
	assert.Equal(t, []string{"Build"}, p.EntryTargets(nil))
}

func TestRequestFlags_Has(t *testing.T) {
	var f domain.RequestFlags
	assert.False(t, f.Has(domain.FlagProvideProjectStateAfterBuild))

	f |= domain.FlagProvideProjectStateAfterBuild
	assert.True(t, f.Has(domain.FlagProvideProjectStateAfterBuild))
}

func TestBuildEvent_Critical(t *testing.T) {
	tests := []struct {
		kind domain.EventKind
		want bool
	}{
		{domain.EventError, true},
		{domain.EventWarning, true},
		{domain.EventBuildStarted, true},
		{domain.EventBuildFinished, true},
		{domain.EventMessage, false},
		{domain.EventTargetStarted, false},
		{domain.EventTaskFinished, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			e := domain.BuildEvent{Kind: tt.kind}
			assert.Equal(t, tt.want, e.Critical())
		})
	}
}

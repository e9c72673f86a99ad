package cache_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/forge/internal/adapters/cache"
	"go.trai.ch/forge/internal/core/domain"
)

func TestCache_StoreLookup(t *testing.T) {
	c, err := cache.New(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	config := domain.ConfigurationID(42)
	in := domain.TargetResult{
		Code:  domain.TargetSuccess,
		Items: []string{"out/app"},
	}
	require.NoError(t, c.Store(config, "Build", in))

	got, err := c.Lookup(config, "Build")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.TargetSuccess, got.Code)
	assert.Equal(t, []string{"out/app"}, got.Items)
}

func TestCache_FilesAreNamedByTarget(t *testing.T) {
	c, err := cache.New(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	config := domain.ConfigurationID(3)
	require.NoError(t, c.Store(config, "Build", domain.TargetResult{Code: domain.TargetSuccess}))
	require.NoError(t, c.Store(config, "pkg/compile", domain.TargetResult{Code: domain.TargetSuccess}))

	dir := filepath.Join(c.ScopeDir(), config.String())
	assert.FileExists(t, filepath.Join(dir, "Build"+domain.TargetCacheExt))

	// A separator in the target name must not escape the configuration
	// directory.
	assert.FileExists(t, filepath.Join(dir, "pkg_compile"+domain.TargetCacheExt))

	got, err := c.Lookup(config, "pkg/compile")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.TargetSuccess, got.Code)
}

func TestCache_LookupMiss(t *testing.T) {
	c, err := cache.New(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	got, err := c.Lookup(domain.ConfigurationID(1), "Missing")
	require.NoError(t, err)
	assert.Nil(t, got, "miss must be (nil, nil)")
}

func TestCache_StoresFailures(t *testing.T) {
	c, err := cache.New(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	config := domain.ConfigurationID(7)
	require.NoError(t, c.Store(config, "Compile", domain.TargetResult{
		Code:    domain.TargetFailure,
		Message: "compiler exited with code 1",
	}))

	got, err := c.Lookup(config, "Compile")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.TargetFailure, got.Code)
	assert.Equal(t, "compiler exited with code 1", got.Message)
}

func TestCache_NeverPersistsConditionSkips(t *testing.T) {
	c, err := cache.New(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	config := domain.ConfigurationID(9)
	require.NoError(t, c.Store(config, "Optional", domain.TargetResult{
		Code:           domain.TargetSkipped,
		ConditionFalse: true,
	}))

	got, err := c.Lookup(config, "Optional")
	require.NoError(t, err)
	assert.Nil(t, got, "condition skips must not be cached")
}

func TestCache_ConfigIsolation(t *testing.T) {
	c, err := cache.New(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	require.NoError(t, c.Store(domain.ConfigurationID(1), "Build", domain.TargetResult{
		Code: domain.TargetSuccess,
	}))

	got, err := c.Lookup(domain.ConfigurationID(2), "Build")
	require.NoError(t, err)
	assert.Nil(t, got, "results must be scoped per configuration")
}

func TestCache_Reset(t *testing.T) {
	c, err := cache.New(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	config := domain.ConfigurationID(5)
	require.NoError(t, c.Store(config, "Build", domain.TargetResult{Code: domain.TargetSuccess}))
	require.NoError(t, c.Reset())

	got, err := c.Lookup(config, "Build")
	require.NoError(t, err)
	assert.Nil(t, got)

	// The scope stays usable after a reset.
	require.NoError(t, c.Store(config, "Build", domain.TargetResult{Code: domain.TargetSuccess}))
	got, err = c.Lookup(config, "Build")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestCache_AttachSharesScope(t *testing.T) {
	owner, err := cache.New(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = owner.Close() }()

	config := domain.ConfigurationID(11)
	require.NoError(t, owner.Store(config, "Build", domain.TargetResult{
		Code:    domain.TargetFailure,
		Message: "failed on owner",
	}))

	attached, err := cache.Attach(owner.ScopeDir())
	require.NoError(t, err)

	got, err := attached.Lookup(config, "Build")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.TargetFailure, got.Code)

	// Closing an attached cache must leave the scope alone.
	require.NoError(t, attached.Close())
	_, err = os.Stat(owner.ScopeDir())
	assert.NoError(t, err)
}

func TestCache_CloseRemovesOwnedScope(t *testing.T) {
	root := t.TempDir()
	c, err := cache.New(root)
	require.NoError(t, err)

	scope := c.ScopeDir()
	require.NoError(t, c.Close())

	_, err = os.Stat(scope)
	assert.True(t, os.IsNotExist(err))
}

func TestCache_DistinctScopesPerBuild(t *testing.T) {
	root := t.TempDir()

	a, err := cache.New(root)
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	b, err := cache.New(root)
	require.NoError(t, err)
	defer func() { _ = b.Close() }()

	assert.NotEqual(t, a.ScopeDir(), b.ScopeDir())

	config := domain.ConfigurationID(3)
	require.NoError(t, a.Store(config, "Build", domain.TargetResult{Code: domain.TargetFailure}))

	got, err := b.Lookup(config, "Build")
	require.NoError(t, err)
	assert.Nil(t, got, "scopes must not leak between builds")
}

func TestCache_AttachRejectsMissingScope(t *testing.T) {
	_, err := cache.Attach(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

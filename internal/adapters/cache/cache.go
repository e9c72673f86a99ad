// Package cache implements the build result cache using a file-per-target
// strategy. Each build opens a fresh scope directory; workers attach to the
// manager's scope so cached verdicts are shared across process boundaries.
package cache

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

// Cache implements ports.ResultCache on the local filesystem.
type Cache struct {
	scopeDir string
	// owned marks whether Close may remove the scope directory. Workers
	// attach to a scope they do not own.
	owned bool
}

// New creates a cache with a fresh scope directory under root.
func New(root string) (*Cache, error) {
	scope := filepath.Join(root, ulid.Make().String())
	if err := os.MkdirAll(scope, domain.DirPerm); err != nil {
		return nil, zerr.Wrap(err, domain.ErrCacheCreateFailed.Error())
	}
	return &Cache{scopeDir: scope, owned: true}, nil
}

// Attach opens an existing scope directory created by another process. The
// scope is not removed on Close.
func Attach(scopeDir string) (*Cache, error) {
	info, err := os.Stat(scopeDir)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrCacheReadFailed.Error())
	}
	if !info.IsDir() {
		return nil, zerr.With(domain.ErrCacheReadFailed, "path", scopeDir)
	}
	return &Cache{scopeDir: scopeDir}, nil
}

// ScopeDir returns the scope directory shared with worker processes.
func (c *Cache) ScopeDir() string {
	return c.scopeDir
}

// Lookup retrieves the cached verdict for a target, or (nil, nil) on a miss.
func (c *Cache) Lookup(config domain.ConfigurationID, target string) (*domain.TargetResult, error) {
	//nolint:gosec // Path is constructed from trusted directory and hashed filename
	data, err := os.ReadFile(c.filename(config, target))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.Wrap(err, domain.ErrCacheReadFailed.Error())
	}

	var res domain.TargetResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, zerr.Wrap(err, domain.ErrCacheReadFailed.Error())
	}

	return &res, nil
}

// Store persists a target verdict. Skips caused by a false condition are
// never written: their inputs may change between requests, so they must be
// re-evaluated rather than replayed.
func (c *Cache) Store(config domain.ConfigurationID, target string, res domain.TargetResult) error {
	if res.ConditionFalse {
		return nil
	}

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrCacheWriteFailed.Error())
	}

	filename := c.filename(config, target)
	if err := os.MkdirAll(filepath.Dir(filename), domain.DirPerm); err != nil {
		return zerr.Wrap(err, domain.ErrCacheCreateFailed.Error())
	}

	// Write-then-rename keeps concurrent readers from seeing partial files.
	tmp := filename + ".tmp." + ulid.Make().String()
	//nolint:gosec // Path is constructed from trusted directory and hashed filename
	if err := os.WriteFile(tmp, data, domain.FilePerm); err != nil {
		return zerr.Wrap(err, domain.ErrCacheWriteFailed.Error())
	}
	if err := os.Rename(tmp, filename); err != nil {
		_ = os.Remove(tmp)
		return zerr.Wrap(err, domain.ErrCacheWriteFailed.Error())
	}

	return nil
}

// Reset discards every cached verdict in the scope.
func (c *Cache) Reset() error {
	entries, err := os.ReadDir(c.scopeDir)
	if err != nil {
		return zerr.Wrap(err, domain.ErrCacheReadFailed.Error())
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(c.scopeDir, entry.Name())); err != nil {
			return zerr.Wrap(err, domain.ErrCacheWriteFailed.Error())
		}
	}
	return nil
}

// Close removes the scope directory if this cache owns it.
func (c *Cache) Close() error {
	if !c.owned {
		return nil
	}
	if err := os.RemoveAll(c.scopeDir); err != nil {
		return zerr.Wrap(err, domain.ErrCacheWriteFailed.Error())
	}
	return nil
}

// filename places each verdict at <scope>/<config>/<target>.cache.
func (c *Cache) filename(config domain.ConfigurationID, target string) string {
	return filepath.Join(
		c.scopeDir,
		config.String(),
		sanitizeTarget(target)+domain.TargetCacheExt,
	)
}

// sanitizeTarget keeps a target-named file inside its configuration
// directory even when the target name contains a path separator.
func sanitizeTarget(target string) string {
	return strings.NewReplacer("/", "_", "\\", "_").Replace(target)
}

// Factory implements ports.ResultCacheFactory.
type Factory struct{}

// NewFactory creates a cache factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Open creates a cache with a fresh scope under root.
func (f *Factory) Open(root string) (ports.ResultCache, error) {
	return New(root)
}

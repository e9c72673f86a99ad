package ports

import "go.trai.ch/forge/internal/core/domain"

// ResultCache stores per-target build outcomes keyed by configuration
// identity and target name. One cache instance owns one scope directory;
// parallel build managers get independent scopes under the same root.
//
//go:generate mockgen -source=cache.go -destination=mocks/mock_cache.go -package=mocks
type ResultCache interface {
	// Store persists a target result. Writes are per-target atomic.
	Store(config domain.ConfigurationID, target string, res domain.TargetResult) error

	// Lookup retrieves a previously stored result. Returns nil, nil on miss.
	Lookup(config domain.ConfigurationID, target string) (*domain.TargetResult, error)

	// Reset clears this scope's entries only; other scopes are untouched.
	Reset() error

	// Close removes the scope directory and releases the cache.
	Close() error

	// ScopeDir returns this cache's scope directory.
	ScopeDir() string
}

// ResultCacheFactory opens a fresh cache scope under a physical cache root.
type ResultCacheFactory interface {
	Open(root string) (ResultCache, error)
}

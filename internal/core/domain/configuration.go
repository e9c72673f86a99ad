// Package domain contains the core domain models for the build engine:
// configurations, requests, results, project instances and build events.
package domain

import (
	"path/filepath"
	"slices"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// ConfigurationID is the stable identity of a (project path, global
// properties, tools version) tuple. Identical tuples always hash to the
// same ID; the ID keys both scheduling and the result cache.
type ConfigurationID uint64

// String returns the hex form of the ID, used in cache paths and logs.
func (id ConfigurationID) String() string {
	return strconv.FormatUint(uint64(id), 16)
}

// BuildConfiguration is a registered configuration tuple.
type BuildConfiguration struct {
	ID               ConfigurationID
	Seq              int // registry-assigned ordinal, for logging only
	ProjectPath      string
	GlobalProperties map[string]string
	ToolsVersion     string
}

// NormalizeProjectPath converts a project path into its canonical absolute
// form so that equivalent spellings of the same path share a configuration.
func NormalizeProjectPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return filepath.Clean(abs)
}

// NewConfigurationID computes the identity digest for a configuration tuple.
// Property order does not affect the result.
func NewConfigurationID(path string, globalProps map[string]string, toolsVersion string) ConfigurationID {
	d := xxhash.New()
	_, _ = d.WriteString(NormalizeProjectPath(path))
	_, _ = d.WriteString("\x00")

	keys := make([]string, 0, len(globalProps))
	for k := range globalProps {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		_, _ = d.WriteString(k)
		_, _ = d.WriteString("\x01")
		_, _ = d.WriteString(globalProps[k])
		_, _ = d.WriteString("\x00")
	}

	_, _ = d.WriteString(toolsVersion)
	return ConfigurationID(d.Sum64())
}

package manager

import (
	"os"
	"strings"

	"go.trai.ch/zerr"
)

// envSnapshot captures the ambient process state a build may mutate while
// SaveOperatingEnvironment is enabled: the working directory and the
// process environment.
type envSnapshot struct {
	wd  string
	env []string
}

func snapshotEnvironment() (*envSnapshot, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, zerr.Wrap(err, "reading working directory")
	}
	return &envSnapshot{wd: wd, env: os.Environ()}, nil
}

// restore puts the working directory and environment back to the captured
// state.
func (s *envSnapshot) restore() error {
	if err := os.Chdir(s.wd); err != nil {
		return zerr.Wrap(err, "restoring working directory")
	}
	os.Clearenv()
	for _, kv := range s.env {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		_ = os.Setenv(k, v)
	}
	return nil
}

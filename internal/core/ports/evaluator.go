// Package ports defines the core interfaces for the build engine.
package ports

import "go.trai.ch/forge/internal/core/domain"

// Evaluator turns a project description into an evaluated project instance:
// a target graph plus a property/item environment. Evaluation is treated as
// a pure function of the configuration identity.
//
//go:generate mockgen -source=evaluator.go -destination=mocks/mock_evaluator.go -package=mocks
type Evaluator interface {
	// Evaluate loads and evaluates the project at path under the given
	// global properties and tools version.
	Evaluate(path string, globalProps map[string]string, toolsVersion string) (*domain.ProjectInstance, error)
}

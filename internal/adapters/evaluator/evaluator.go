// Package evaluator loads forge.yaml project files and evaluates them into
// project instances: expanded properties, expanded items and the target graph.
package evaluator

import (
	"fmt"
	"os"
	"path/filepath"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.Evaluator using YAML project files.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Evaluate reads the project file at path and produces a fresh instance.
// Global properties override file-level properties and are immune to
// redefinition by the file. A directory path resolves to its forge.yaml.
func (l *Loader) Evaluate(path string, globalProps map[string]string, toolsVersion string) (*domain.ProjectInstance, error) {
	path, err := resolveProjectFile(path)
	if err != nil {
		return nil, err
	}

	var file ProjectFile
	if err := readAndUnmarshalYAML(path, &file); err != nil {
		return nil, err
	}

	tv := toolsVersion
	if tv == "" {
		tv = file.ToolsVersion
	}

	props := evaluateProperties(&file.Properties, globalProps)
	instance := domain.NewProjectInstance(path, tv, props)
	instance.DefaultTargets = resolveDefaultTargets(&file)

	lookup := instance.Property
	for _, itemType := range file.Items.Types {
		for _, spec := range file.Items.Specs[itemType] {
			instance.AddItems(itemType, domain.ExpandProperties(spec, lookup))
		}
	}

	for _, name := range file.Targets.Names {
		target, err := buildTarget(name, file.Targets.Targets[name])
		if err != nil {
			return nil, err
		}
		if err := instance.AddTarget(target); err != nil {
			return nil, err
		}
	}

	if err := validateTargetRefs(instance); err != nil {
		return nil, err
	}

	return instance, nil
}

// resolveProjectFile normalizes path and appends the project file name when
// path is a directory.
func resolveProjectFile(path string) (string, error) {
	path = domain.NormalizeProjectPath(path)

	info, err := os.Stat(path)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrProjectNotFound.Error()), "path", path)
	}
	if info.IsDir() {
		path = filepath.Join(path, domain.ProjectFileName)
	}
	return path, nil
}

// evaluateProperties builds the property environment. File properties are
// expanded in declaration order against the environment built so far, so
// later properties may reference earlier ones. A global property shadows the
// file definition entirely.
func evaluateProperties(fileProps *OrderedMap, globalProps map[string]string) map[string]string {
	env := make(map[string]string, len(fileProps.Keys)+len(globalProps))
	for k, v := range globalProps {
		env[k] = v
	}

	lookup := func(name string) string { return env[name] }
	for _, key := range fileProps.Keys {
		if _, global := globalProps[key]; global {
			continue
		}
		env[key] = domain.ExpandProperties(fileProps.Values[key], lookup)
	}

	return env
}

// resolveDefaultTargets falls back to the first declared target when the
// file names none.
func resolveDefaultTargets(file *ProjectFile) []string {
	if len(file.DefaultTargets) > 0 {
		return file.DefaultTargets
	}
	if len(file.Targets.Names) > 0 {
		return file.Targets.Names[:1]
	}
	return nil
}

func buildTarget(name string, dto *TargetDTO) (*domain.Target, error) {
	target := &domain.Target{
		Name:          name,
		Condition:     dto.Condition,
		DependsOn:     dto.DependsOn,
		BeforeTargets: dto.BeforeTargets,
		AfterTargets:  dto.AfterTargets,
		OnError:       dto.OnError,
	}

	for _, taskDTO := range dto.Tasks {
		if taskDTO.Task == "" {
			err := zerr.With(domain.ErrProjectParse, "target", name)
			return nil, zerr.With(err, "reason", "task entry without a task name")
		}

		params, err := convertParameters(taskDTO.Parameters)
		if err != nil {
			return nil, zerr.With(zerr.With(err, "target", name), "task", taskDTO.Task)
		}

		target.Tasks = append(target.Tasks, domain.TaskInvocation{
			TaskName:        taskDTO.Task,
			Condition:       taskDTO.Condition,
			ContinueOnError: taskDTO.ContinueOnError,
			UseTaskHost:     taskDTO.TaskHost,
			Parameters:      params,
		})
	}

	return target, nil
}

// convertParameters maps YAML parameter values onto the closed task value
// set: scalars become primitives, sequences become item arrays, and mappings
// with a spec key become single items.
func convertParameters(raw map[string]any) (map[string]domain.TaskValue, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	params := make(map[string]domain.TaskValue, len(raw))
	for key, val := range raw {
		tv, err := convertValue(val)
		if err != nil {
			return nil, zerr.With(err, "parameter", key)
		}
		params[key] = tv
	}
	return params, nil
}

func convertValue(val any) (domain.TaskValue, error) {
	switch v := val.(type) {
	case string:
		return domain.PrimitiveValue(v), nil
	case bool, int, int64, float64:
		return domain.PrimitiveValue(fmt.Sprint(v)), nil
	case []any:
		handles := make([]domain.ItemHandle, 0, len(v))
		for _, entry := range v {
			h, err := convertItemHandle(entry)
			if err != nil {
				return domain.TaskValue{}, err
			}
			handles = append(handles, h)
		}
		return domain.ItemArrayValue(handles), nil
	case map[string]any:
		h, err := convertItemHandle(v)
		if err != nil {
			return domain.TaskValue{}, err
		}
		return domain.ItemValue(h), nil
	default:
		return domain.TaskValue{}, zerr.With(domain.ErrUnknownValueKind, "go_type", fmt.Sprintf("%T", val))
	}
}

func convertItemHandle(val any) (domain.ItemHandle, error) {
	switch v := val.(type) {
	case string:
		return domain.ItemHandle{Spec: v}, nil
	case map[string]any:
		spec, ok := v["spec"].(string)
		if !ok || spec == "" {
			return domain.ItemHandle{}, zerr.With(domain.ErrProjectParse, "reason", "item entry without a spec")
		}
		handle := domain.ItemHandle{Spec: spec}
		if meta, ok := v["metadata"].(map[string]any); ok {
			handle.Metadata = make(map[string]string, len(meta))
			for mk, mv := range meta {
				handle.Metadata[mk] = fmt.Sprint(mv)
			}
		}
		return handle, nil
	default:
		return domain.ItemHandle{}, zerr.With(domain.ErrProjectParse, "reason", fmt.Sprintf("invalid item entry type %T", val))
	}
}

// validateTargetRefs checks that every static target reference points at a
// declared target. Hook references are validated too, so a typo fails at
// evaluation instead of silently never firing.
func validateTargetRefs(instance *domain.ProjectInstance) error {
	check := func(owner string, refs []string) error {
		for _, ref := range refs {
			if _, ok := instance.Target(ref); !ok {
				err := zerr.With(domain.ErrTargetNotFound, "target", ref)
				return zerr.With(err, "referenced_by", owner)
			}
		}
		return nil
	}

	for _, name := range instance.TargetOrder {
		t := instance.Targets[name]
		if err := check(name, t.DependsOn); err != nil {
			return err
		}
		if err := check(name, t.BeforeTargets); err != nil {
			return err
		}
		if err := check(name, t.AfterTargets); err != nil {
			return err
		}
		if err := check(name, t.OnError); err != nil {
			return err
		}
	}
	return nil
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
func readAndUnmarshalYAML[T any](path string, target *T) error {
	// #nosec G304 -- path is validated by caller
	data, err := os.ReadFile(path)
	if err != nil {
		return zerr.Wrap(err, domain.ErrProjectNotFound.Error())
	}

	if parseErr := yaml.Unmarshal(data, target); parseErr != nil {
		return zerr.Wrap(parseErr, domain.ErrProjectParse.Error())
	}

	return nil
}

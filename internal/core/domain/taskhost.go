package domain

import "strings"

// TaskHostConfig carries everything an isolated task-host process needs to
// execute one task invocation.
type TaskHostConfig struct {
	TaskName            string               `json:"task_name"`
	TaskLocation        string               `json:"task_location"`
	Line                int                  `json:"line,omitempty"`
	Column              int                  `json:"column,omitempty"`
	ProjectPath         string               `json:"project_path,omitempty"`
	ContinueOnError     bool                 `json:"continue_on_error,omitempty"`
	Parameters          map[string]TaskValue `json:"parameters,omitempty"`
	GlobalProperties    map[string]string    `json:"global_properties,omitempty"`
	WarningsAsErrors    []string             `json:"warnings_as_errors,omitempty"`
	WarningsNotAsErrors []string             `json:"warnings_not_as_errors,omitempty"`
	WarningsAsMessages  []string             `json:"warnings_as_messages,omitempty"`
	LogTaskInputs       bool                 `json:"log_task_inputs,omitempty"`
}

// NewTaskHostConfig validates the required fields at construction time.
// A missing task name or task location fails here, before anything reaches
// scheduling.
func NewTaskHostConfig(taskName, taskLocation string) (*TaskHostConfig, error) {
	if strings.TrimSpace(taskName) == "" {
		return nil, ErrTaskHostMissingName
	}
	if strings.TrimSpace(taskLocation) == "" {
		return nil, ErrTaskHostMissingLocation
	}
	return &TaskHostConfig{
		TaskName:     taskName,
		TaskLocation: taskLocation,
		Parameters:   make(map[string]TaskValue),
	}, nil
}

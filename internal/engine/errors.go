package engine

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateProcess = errors.New("engine: duplicate process name")
	ErrDuplicateTask    = errors.New("engine: duplicate task name")
	ErrDuplicateEvent   = errors.New("engine: duplicate event name")
	ErrUnknownTask      = errors.New("engine: unknown task")
	ErrUnknownEvent     = errors.New("engine: unknown event")
	ErrTaskAttached     = errors.New("engine: task already attached to a process")
	ErrInvalidPeriod    = errors.New("engine: period must be positive")
	ErrNotInitialized   = errors.New("engine: simulation not initialized")
	ErrStopTimeNotSet   = errors.New("engine: stop time not configured")
)

// ConfigurationError reports a model that rejected its configuration while
// the simulation was being initialized.
type ConfigurationError struct {
	Task  string
	Model string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("engine: configuring %s in task %s: %v", e.Model, e.Task, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// ExecutionError reports a model or event failure during execution.
type ExecutionError struct {
	Time  uint64
	Task  string
	Model string
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("engine: %s in task %s at t=%.4fs: %v", e.Model, e.Task, NanoToSec(e.Time), e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

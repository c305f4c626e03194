package scenario

import (
	"errors"
	"fmt"
)

// Lifecycle is the stage a scenario has reached. Stages advance strictly in
// order; Completed is terminal.
type Lifecycle int

const (
	Constructed Lifecycle = iota
	ModelsBound
	InitialConditionsSet
	LoggingWired
	Initialized
	Executing
	Completed
)

var lifecycleNames = [...]string{
	Constructed:          "constructed",
	ModelsBound:          "models-bound",
	InitialConditionsSet: "initial-conditions-set",
	LoggingWired:         "logging-wired",
	Initialized:          "initialized",
	Executing:            "executing",
	Completed:            "completed",
}

func (l Lifecycle) String() string {
	if l < 0 || int(l) >= len(lifecycleNames) {
		return fmt.Sprintf("lifecycle(%d)", int(l))
	}
	return lifecycleNames[l]
}

var (
	ErrInvalidTransition = errors.New("scenario: invalid lifecycle transition")
	ErrAlreadyCompleted  = errors.New("scenario: already completed, build a new scenario to run again")
)

// TransitionError reports an out-of-order lifecycle step.
type TransitionError struct {
	From, To Lifecycle
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("scenario: cannot move from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

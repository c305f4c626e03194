// Package scenario drives a scenario through its lifecycle: models bound,
// initial conditions configured, logging wired, engine initialized and
// executed, outputs pulled.
//
// A concrete scenario embeds *Base and implements Hooks:
//
//	type myScenario struct {
//		*scenario.Base
//	}
//
//	func (s *myScenario) ConfigureInitialConditions() error { ... }
//	func (s *myScenario) LogOutputs() error                 { ... }
//	func (s *myScenario) PullOutputs(show bool) (map[string]string, error) { ... }
package scenario

import (
	"fmt"

	"github.com/san-kum/rs1sim/internal/session"
)

// Hooks are the overridable stages of a scenario.
type Hooks interface {
	// ConfigureInitialConditions writes the initial state into the dynamics
	// model set.
	ConfigureInitialConditions() error
	// LogOutputs creates recorders and attaches them to their tasks.
	LogOutputs() error
	// PullOutputs reads the recorders after the run and renders figures.
	// With show set figures are rendered and the map is empty; otherwise
	// it maps figure names to saved artifact paths.
	PullOutputs(show bool) (map[string]string, error)
}

// Scenario is a session plus hooks, tracked through its lifecycle.
type Scenario interface {
	Hooks
	Name() string
	Session() *session.Session
	State() Lifecycle
	Advance(to Lifecycle) error
}

// Base carries the name, session and lifecycle state shared by every
// scenario.
type Base struct {
	name  string
	sess  *session.Session
	state Lifecycle
}

func NewBase(name string, s *session.Session) *Base {
	return &Base{name: name, sess: s}
}

func (b *Base) Name() string              { return b.name }
func (b *Base) Session() *session.Session { return b.sess }
func (b *Base) State() Lifecycle          { return b.state }

// Advance moves to the next lifecycle stage. Any other target is rejected.
func (b *Base) Advance(to Lifecycle) error {
	if b.state == Completed {
		return ErrAlreadyCompleted
	}
	if to != b.state+1 {
		return &TransitionError{From: b.state, To: to}
	}
	b.state = to
	return nil
}

// BindModels binds the dynamics then the FSW factory and advances to
// ModelsBound. fsw may be nil for dynamics-only scenarios.
func (b *Base) BindModels(dyn, fsw session.ModelFactory) error {
	if b.state != Constructed {
		return &TransitionError{From: b.state, To: ModelsBound}
	}
	if err := b.sess.SetDynModel(dyn); err != nil {
		return fmt.Errorf("scenario %s: %w", b.name, err)
	}
	if fsw != nil {
		if err := b.sess.SetFswModel(fsw); err != nil {
			return fmt.Errorf("scenario %s: %w", b.name, err)
		}
	}
	return b.Advance(ModelsBound)
}

// Setup runs ConfigureInitialConditions and LogOutputs on a scenario whose
// models are bound, leaving it ready to run.
func Setup(sc Scenario) error {
	if sc.State() != ModelsBound {
		return &TransitionError{From: sc.State(), To: InitialConditionsSet}
	}
	if err := sc.ConfigureInitialConditions(); err != nil {
		return fmt.Errorf("scenario %s: configure initial conditions: %w", sc.Name(), err)
	}
	if err := sc.Advance(InitialConditionsSet); err != nil {
		return err
	}
	if err := sc.LogOutputs(); err != nil {
		return fmt.Errorf("scenario %s: log outputs: %w", sc.Name(), err)
	}
	return sc.Advance(LoggingWired)
}

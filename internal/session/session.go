// Package session binds a dynamics model set and a flight-software model set
// to two rate-decoupled engine processes.
package session

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/san-kum/rs1sim/internal/engine"
)

const (
	DynamicsProcessName = "DynamicsProcess"
	FSWProcessName      = "FSWProcess"
)

var (
	// ErrPrecondition is returned by accessors used before the matching
	// binding.
	ErrPrecondition = errors.New("session: precondition violated")

	// ErrDuplicateBinding is returned when a role is bound twice.
	ErrDuplicateBinding = errors.New("session: model set already bound")

	ErrInvalidRate   = errors.New("session: rate must be positive and finite")
	ErrWrongModelSet = errors.New("session: unexpected model set type")
)

// ModelSet is a bundle of models built against one process at one rate.
// Concrete sets expose their sub-models as fields.
type ModelSet interface {
	ProcessName() string
	TaskName() string
	// Rate is the task period in seconds.
	Rate() float64
}

// ModelFactory builds a ModelSet inside a session. rate is the period in
// seconds of the process the set is bound to.
type ModelFactory interface {
	Build(s *Session, rate float64) (ModelSet, error)
}

// ModelFactoryFunc adapts a function to ModelFactory.
type ModelFactoryFunc func(s *Session, rate float64) (ModelSet, error)

func (f ModelFactoryFunc) Build(s *Session, rate float64) (ModelSet, error) {
	return f(s, rate)
}

// Session is the engine plus at most one dynamics and one FSW model set.
// It is mutated only while a scenario is being constructed.
type Session struct {
	*engine.Engine

	logger     *slog.Logger
	dynRate    float64
	fswRate    float64
	dynProcess *engine.Process
	fswProcess *engine.Process
	dynModels  ModelSet
	fswModels  ModelSet
}

type Option func(*Session)

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEngine uses an existing engine instead of a fresh one.
func WithEngine(e *engine.Engine) Option {
	return func(s *Session) {
		if e != nil {
			s.Engine = e
		}
	}
}

// New returns an unbound session. Rates are task periods in seconds.
func New(dynRate, fswRate float64, opts ...Option) (*Session, error) {
	if !validRate(dynRate) {
		return nil, fmt.Errorf("%w: dynamics rate %v", ErrInvalidRate, dynRate)
	}
	if !validRate(fswRate) {
		return nil, fmt.Errorf("%w: fsw rate %v", ErrInvalidRate, fswRate)
	}
	s := &Session{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		dynRate: dynRate,
		fswRate: fswRate,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Engine == nil {
		s.Engine = engine.New(engine.WithLogger(s.logger))
	}
	return s, nil
}

func validRate(r float64) bool {
	return r > 0 && !math.IsInf(r, 0) && !math.IsNaN(r)
}

func (s *Session) Logger() *slog.Logger { return s.logger }

// SetDynModel creates DynamicsProcess and builds the dynamics set with the
// dynamics rate. If the factory fails the process stays registered and the
// role cannot be bound again.
func (s *Session) SetDynModel(f ModelFactory) error {
	if s.dynProcess != nil {
		return fmt.Errorf("%w: dynamics", ErrDuplicateBinding)
	}
	if f == nil {
		return fmt.Errorf("%w: nil dynamics factory", ErrPrecondition)
	}
	proc, err := s.CreateNewProcess(DynamicsProcessName, engine.DefaultPriority)
	if err != nil {
		return err
	}
	s.dynProcess = proc

	ms, err := f.Build(s, s.dynRate)
	if err != nil {
		return fmt.Errorf("session: building dynamics models: %w", err)
	}
	s.dynModels = ms
	s.logger.Debug("dynamics bound", "process", proc.Name(), "task", ms.TaskName(), "rate_s", s.dynRate)
	return nil
}

// SetFswModel is the FSW counterpart of SetDynModel.
func (s *Session) SetFswModel(f ModelFactory) error {
	if s.fswProcess != nil {
		return fmt.Errorf("%w: fsw", ErrDuplicateBinding)
	}
	if f == nil {
		return fmt.Errorf("%w: nil fsw factory", ErrPrecondition)
	}
	proc, err := s.CreateNewProcess(FSWProcessName, engine.DefaultPriority)
	if err != nil {
		return err
	}
	s.fswProcess = proc

	ms, err := f.Build(s, s.fswRate)
	if err != nil {
		return fmt.Errorf("session: building fsw models: %w", err)
	}
	s.fswModels = ms
	s.logger.Debug("fsw bound", "process", proc.Name(), "task", ms.TaskName(), "rate_s", s.fswRate)
	return nil
}

// DynModel returns the bound dynamics set.
func (s *Session) DynModel() (ModelSet, error) {
	if s.dynModels == nil {
		return nil, fmt.Errorf("%w: dynamics model not yet bound", ErrPrecondition)
	}
	return s.dynModels, nil
}

// FswModel returns the bound FSW set.
func (s *Session) FswModel() (ModelSet, error) {
	if s.fswModels == nil {
		return nil, fmt.Errorf("%w: fsw model not yet bound", ErrPrecondition)
	}
	return s.fswModels, nil
}

func (s *Session) DynProcess() *engine.Process { return s.dynProcess }
func (s *Session) FswProcess() *engine.Process { return s.fswProcess }
func (s *Session) DynRate() float64            { return s.dynRate }
func (s *Session) FswRate() float64            { return s.fswRate }

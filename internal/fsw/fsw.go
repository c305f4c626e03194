// Package fsw builds the flight-software model set: inertial pointing
// guidance, MRP feedback control and the wheel torque mapping, switched by
// mode-request events.
package fsw

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/san-kum/rs1sim/internal/dynamics"
	"github.com/san-kum/rs1sim/internal/dynamo"
	"github.com/san-kum/rs1sim/internal/engine"
	"github.com/san-kum/rs1sim/internal/session"
)

const (
	GuidanceTaskName = "inertial3DPointTask"
	ControlTaskName  = "mrpFeedbackRWsTask"

	ModeStandby    = "standby"
	ModeInertial3D = "inertial3D"

	EventStandby     = "initiateStandby"
	EventInertial3D  = "initiateInertial3D"
	EventUnknownMode = "reportUnknownMode"
)

var (
	ErrNotLinked          = errors.New("fsw: input message not linked")
	ErrInvalidControlAxes = errors.New("fsw: invalid control axes")
)

// Modes lists the mode requests the FSW reacts to.
func Modes() []string {
	return []string{ModeStandby, ModeInertial3D}
}

// Models is the FSW model set.
type Models struct {
	Inertial3D    *Inertial3D
	TrackingError *AttTrackingError
	MRPFeedback   *MRPFeedback
	RWMotorTorque *RWMotorTorque

	processName string
	rate        float64
}

func (m *Models) ProcessName() string { return m.processName }
func (m *Models) TaskName() string    { return ControlTaskName }
func (m *Models) Rate() float64       { return m.rate }

// TaskNames returns the FSW tasks in execution order.
func (m *Models) TaskNames() []string {
	return []string{GuidanceTaskName, ControlTaskName}
}

// Factory builds Models. The dynamics set must already be bound: FSW
// subscribes to its navigation and wheel messages.
type Factory struct {
	Gains    Gains
	SigmaR2N dynamo.Vec3
}

func (f Factory) Build(s *session.Session, rate float64) (session.ModelSet, error) {
	ms, err := s.DynModel()
	if err != nil {
		return nil, err
	}
	dyn, err := dynamics.From(ms)
	if err != nil {
		return nil, err
	}
	proc := s.FswProcess()
	if proc == nil {
		return nil, fmt.Errorf("%w: fsw process not created", session.ErrPrecondition)
	}

	period := engine.SecToNano(rate)
	for _, t := range []struct {
		name     string
		priority int
	}{
		{GuidanceTaskName, 20},
		{ControlTaskName, 10},
	} {
		task, err := s.CreateNewTask(t.name, period)
		if err != nil {
			return nil, err
		}
		if err := proc.AddTask(task, t.priority); err != nil {
			return nil, err
		}
		if err := s.DisableTask(t.name); err != nil {
			return nil, err
		}
	}

	gains := f.Gains
	if gains == (Gains{}) {
		gains = DefaultGains()
	}

	m := &Models{
		Inertial3D:    NewInertial3D(),
		TrackingError: NewAttTrackingError(),
		MRPFeedback:   NewMRPFeedback(gains, dyn.SCObject.Hub.Inertia),
		RWMotorTorque: NewRWMotorTorque(dyn.RWStateEffector.SpinAxes()),
		processName:   proc.Name(),
		rate:          rate,
	}
	m.Inertial3D.SigmaR2N = f.SigmaR2N

	m.TrackingError.AttNavInMsg.Subscribe(dyn.SimpleNavObject.AttOutMsg)
	m.TrackingError.AttRefInMsg.Subscribe(m.Inertial3D.AttRefOutMsg)
	m.MRPFeedback.GuidInMsg.Subscribe(m.TrackingError.AttGuidOutMsg)
	m.MRPFeedback.RWSpeedsInMsg.Subscribe(dyn.RWStateEffector.SpeedOutMsg)
	m.MRPFeedback.Wheels = dyn.RWStateEffector.Wheels
	m.RWMotorTorque.VehControlInMsg.Subscribe(m.MRPFeedback.CmdTorqueOutMsg)
	dyn.RWStateEffector.CmdInMsg.Subscribe(m.RWMotorTorque.RWMotorTorqueOutMsg)

	for _, add := range []struct {
		task  string
		model engine.Model
		prio  int
	}{
		{GuidanceTaskName, m.Inertial3D, 10},
		{GuidanceTaskName, m.TrackingError, 9},
		{ControlTaskName, m.MRPFeedback, 10},
		{ControlTaskName, m.RWMotorTorque, 9},
	} {
		if err := s.AddModelToTaskWithPriority(add.task, add.model, add.prio); err != nil {
			return nil, err
		}
	}

	if err := m.createModeEvents(s.Engine, period, s.Logger()); err != nil {
		return nil, err
	}
	return m, nil
}

// createModeEvents registers one event per mode. Each firing event re-arms
// the others so the mode can be switched again later in the run.
func (m *Models) createModeEvents(e *engine.Engine, period uint64, logger *slog.Logger) error {
	events := []string{EventStandby, EventInertial3D, EventUnknownMode}
	rearm := func(fired string) engine.Action {
		return func(e *engine.Engine) error {
			for _, name := range events {
				if name != fired {
					if err := e.SetEventActive(name, true); err != nil {
						return err
					}
				}
			}
			return nil
		}
	}

	err := e.CreateNewEvent(EventStandby, period, true,
		func(e *engine.Engine) bool { return e.ModeRequest() == ModeStandby },
		func(e *engine.Engine) error {
			for _, name := range m.TaskNames() {
				if err := e.DisableTask(name); err != nil {
					return err
				}
			}
			m.RWMotorTorque.Zero(e.CurrentNanos())
			logger.Info("fsw mode", "mode", ModeStandby, "time_s", engine.NanoToSec(e.CurrentNanos()))
			return nil
		},
		rearm(EventStandby),
	)
	if err != nil {
		return err
	}

	err = e.CreateNewEvent(EventInertial3D, period, true,
		func(e *engine.Engine) bool { return e.ModeRequest() == ModeInertial3D },
		func(e *engine.Engine) error {
			for _, name := range m.TaskNames() {
				if err := e.EnableTask(name); err != nil {
					return err
				}
			}
			logger.Info("fsw mode", "mode", ModeInertial3D, "time_s", engine.NanoToSec(e.CurrentNanos()))
			return nil
		},
		rearm(EventInertial3D),
	)
	if err != nil {
		return err
	}

	return e.CreateNewEvent(EventUnknownMode, period, true,
		func(e *engine.Engine) bool {
			mode := e.ModeRequest()
			return mode != "" && mode != ModeStandby && mode != ModeInertial3D
		},
		func(e *engine.Engine) error {
			logger.Warn("unknown fsw mode request, tasks unchanged", "mode", e.ModeRequest())
			return nil
		},
		rearm(EventUnknownMode),
	)
}

// From converts a bound model set back to *Models.
func From(ms session.ModelSet) (*Models, error) {
	m, ok := ms.(*Models)
	if !ok {
		return nil, fmt.Errorf("%w: want *fsw.Models, got %T", session.ErrWrongModelSet, ms)
	}
	return m, nil
}

package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
)

// Engine is the process registry and scheduler.
type Engine struct {
	logger      *slog.Logger
	processes   []*Process
	byName      map[string]*Process
	tasks       map[string]*Task
	events      []*Event
	eventByName map[string]*Event
	modeRequest string
	now         uint64
	stopTime    uint64
	stopSet     bool
	initialized bool
	started     bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		byName:      make(map[string]*Process),
		tasks:       make(map[string]*Task),
		eventByName: make(map[string]*Event),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateNewProcess registers a process. Names are unique per engine.
func (e *Engine) CreateNewProcess(name string, priority int) (*Process, error) {
	if _, ok := e.byName[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateProcess, name)
	}
	p := &Process{name: name, priority: priority}
	e.processes = append(e.processes, p)
	sort.SliceStable(e.processes, func(i, j int) bool {
		return e.processes[i].priority > e.processes[j].priority
	})
	e.byName[name] = p
	e.logger.Debug("process created", "process", name, "priority", priority)
	return p, nil
}

// Process looks up a process by name.
func (e *Engine) Process(name string) (*Process, bool) {
	p, ok := e.byName[name]
	return p, ok
}

// Processes returns the registered processes in execution order.
func (e *Engine) Processes() []*Process {
	out := make([]*Process, len(e.processes))
	copy(out, e.processes)
	return out
}

// CreateNewTask registers an enabled task with the given period.
func (e *Engine) CreateNewTask(name string, period uint64) (*Task, error) {
	if period == 0 {
		return nil, fmt.Errorf("%w: task %s", ErrInvalidPeriod, name)
	}
	if _, ok := e.tasks[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateTask, name)
	}
	t := &Task{name: name, period: period, enabled: true}
	e.tasks[name] = t
	return t, nil
}

func (e *Engine) task(name string) (*Task, error) {
	t, ok := e.tasks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	return t, nil
}

// Task looks up a task by name.
func (e *Engine) Task(name string) (*Task, bool) {
	t, ok := e.tasks[name]
	return t, ok
}

// AddModelToTask appends a model to a task at DefaultPriority.
func (e *Engine) AddModelToTask(taskName string, m Model) error {
	return e.AddModelToTaskWithPriority(taskName, m, DefaultPriority)
}

func (e *Engine) AddModelToTaskWithPriority(taskName string, m Model, priority int) error {
	t, err := e.task(taskName)
	if err != nil {
		return err
	}
	t.add(m, priority)
	return nil
}

func (e *Engine) EnableTask(name string) error {
	t, err := e.task(name)
	if err != nil {
		return err
	}
	if t.enabled {
		return nil
	}
	t.enabled = true
	t.nextRun = e.alignNext(t.period)
	return nil
}

func (e *Engine) DisableTask(name string) error {
	t, err := e.task(name)
	if err != nil {
		return err
	}
	t.enabled = false
	return nil
}

// TaskEnabled reports whether a known task is enabled.
func (e *Engine) TaskEnabled(name string) bool {
	t, ok := e.tasks[name]
	return ok && t.enabled
}

// alignNext returns the first multiple of period not yet executed.
func (e *Engine) alignNext(period uint64) uint64 {
	if !e.started {
		return 0
	}
	return (e.now/period + 1) * period
}

// CreateNewEvent registers a periodic event.
func (e *Engine) CreateNewEvent(name string, period uint64, active bool, cond Condition, actions ...Action) error {
	if period == 0 {
		return fmt.Errorf("%w: event %s", ErrInvalidPeriod, name)
	}
	if _, ok := e.eventByName[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateEvent, name)
	}
	ev := &Event{name: name, period: period, active: active, condition: cond, actions: actions}
	e.events = append(e.events, ev)
	e.eventByName[name] = ev
	return nil
}

func (e *Engine) SetEventActive(name string, active bool) error {
	ev, ok := e.eventByName[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEvent, name)
	}
	ev.active = active
	return nil
}

// EventActive reports whether a known event is armed.
func (e *Engine) EventActive(name string) bool {
	ev, ok := e.eventByName[name]
	return ok && ev.active
}

func (e *Engine) SetModeRequest(mode string) {
	e.modeRequest = mode
}

func (e *Engine) ModeRequest() string { return e.modeRequest }

// CurrentNanos is the time of the last executed step.
func (e *Engine) CurrentNanos() uint64 { return e.now }

func (e *Engine) StopTime() uint64 { return e.stopTime }

// InitializeSimulation resets every scheduled model at t=0.
func (e *Engine) InitializeSimulation(ctx context.Context) error {
	e.now = 0
	e.started = false
	for _, p := range e.processes {
		for _, t := range p.Tasks() {
			t.nextRun = 0
			for _, tm := range t.models {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := tm.model.Reset(0); err != nil {
					return &ConfigurationError{Task: t.name, Model: tm.model.Name(), Err: err}
				}
			}
		}
	}
	for _, ev := range e.events {
		ev.nextCheck = 0
	}
	e.initialized = true
	e.logger.Debug("simulation initialized", "processes", len(e.processes), "tasks", len(e.tasks), "events", len(e.events))
	return nil
}

// ConfigureStopTime sets the absolute stop time in nanoseconds.
func (e *Engine) ConfigureStopTime(ns uint64) {
	e.stopTime = ns
	e.stopSet = true
}

// ExecuteSimulation runs until the stop time.
func (e *Engine) ExecuteSimulation(ctx context.Context) error {
	if !e.initialized {
		return ErrNotInitialized
	}
	if !e.stopSet {
		return ErrStopTimeNotSet
	}

	steps := 0
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("engine: execution interrupted at t=%.4fs: %w", NanoToSec(e.now), err)
		}

		next, ok := e.nextDue()
		if !ok || next > e.stopTime {
			break
		}
		e.now = next
		e.started = true

		if err := e.step(next); err != nil {
			return err
		}
		if err := e.checkEvents(); err != nil {
			return err
		}
		steps++
	}

	if e.now < e.stopTime {
		e.now = e.stopTime
	}
	e.logger.Debug("simulation executed", "steps", steps, "stop_time_s", NanoToSec(e.stopTime))
	return nil
}

func (e *Engine) nextDue() (uint64, bool) {
	var next uint64
	found := false
	for _, p := range e.processes {
		for _, pt := range p.tasks {
			t := pt.task
			if !t.enabled {
				continue
			}
			if !found || t.nextRun < next {
				next = t.nextRun
				found = true
			}
		}
	}
	return next, found
}

func (e *Engine) step(now uint64) error {
	for _, p := range e.processes {
		for _, pt := range p.tasks {
			t := pt.task
			if !t.enabled || t.nextRun != now {
				continue
			}
			for _, tm := range t.models {
				if err := tm.model.Update(now); err != nil {
					return &ExecutionError{Time: now, Task: t.name, Model: tm.model.Name(), Err: err}
				}
			}
			t.nextRun += t.period
		}
	}
	return nil
}

func (e *Engine) checkEvents() error {
	for _, ev := range e.events {
		if !ev.active || e.now < ev.nextCheck {
			continue
		}
		ev.nextCheck = (e.now/ev.period + 1) * ev.period
		if ev.condition != nil && !ev.condition(e) {
			continue
		}
		ev.active = false
		e.logger.Debug("event fired", "event", ev.name, "time_s", NanoToSec(e.now))
		for _, action := range ev.actions {
			if err := action(e); err != nil {
				return &ExecutionError{Time: e.now, Task: "events", Model: ev.name, Err: err}
			}
		}
	}
	return nil
}

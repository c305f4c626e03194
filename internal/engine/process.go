package engine

import "sort"

// DefaultPriority is used when no explicit ordering is wanted. Higher
// priorities run first; equal priorities keep insertion order.
const DefaultPriority = -1

// Model is a simulation module scheduled by a task.
type Model interface {
	Name() string
	// Reset puts the model into its initial state. It runs once per
	// InitializeSimulation, before any Update.
	Reset(now uint64) error
	Update(now uint64) error
}

type taskModel struct {
	model    Model
	priority int
}

// Task runs an ordered list of models at a fixed period.
type Task struct {
	name     string
	period   uint64
	enabled  bool
	nextRun  uint64
	attached bool
	models   []taskModel
}

func (t *Task) Name() string   { return t.name }
func (t *Task) Period() uint64 { return t.period }
func (t *Task) Enabled() bool  { return t.enabled }

// Models returns the scheduled models in execution order.
func (t *Task) Models() []Model {
	out := make([]Model, len(t.models))
	for i, tm := range t.models {
		out[i] = tm.model
	}
	return out
}

func (t *Task) add(m Model, priority int) {
	t.models = append(t.models, taskModel{model: m, priority: priority})
	sort.SliceStable(t.models, func(i, j int) bool {
		return t.models[i].priority > t.models[j].priority
	})
}

type processTask struct {
	task     *Task
	priority int
}

// Process is a named scheduling domain holding tasks.
type Process struct {
	name     string
	priority int
	tasks    []processTask
}

func (p *Process) Name() string  { return p.name }
func (p *Process) Priority() int { return p.priority }

// AddTask attaches a task to the process. A task belongs to exactly one
// process.
func (p *Process) AddTask(t *Task, priority int) error {
	if t.attached {
		return ErrTaskAttached
	}
	t.attached = true
	p.tasks = append(p.tasks, processTask{task: t, priority: priority})
	sort.SliceStable(p.tasks, func(i, j int) bool {
		return p.tasks[i].priority > p.tasks[j].priority
	})
	return nil
}

// Tasks returns the attached tasks in execution order.
func (p *Process) Tasks() []*Task {
	out := make([]*Task, len(p.tasks))
	for i, pt := range p.tasks {
		out[i] = pt.task
	}
	return out
}

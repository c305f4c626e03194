package engine

// Condition decides whether an event fires at the current time.
type Condition func(e *Engine) bool

// Action runs when its event fires.
type Action func(e *Engine) error

// Event is a periodic condition check. A fired event deactivates itself until
// it is re-armed with SetEventActive.
type Event struct {
	name      string
	period    uint64
	active    bool
	nextCheck uint64
	condition Condition
	actions   []Action
}

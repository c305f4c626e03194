package engine

// Recorder accumulates time-stamped samples of one message. It is a Model:
// add it to the task that should drive its sampling.
type Recorder[T any] struct {
	name       string
	source     *Message[T]
	interval   uint64
	lastSample uint64
	times      []uint64
	samples    []T
}

// Named sets the model name reported in logs and errors.
func (r *Recorder[T]) Named(name string) *Recorder[T] {
	r.name = name
	return r
}

func (r *Recorder[T]) Name() string { return r.name }

func (r *Recorder[T]) Reset(now uint64) error {
	r.times = r.times[:0]
	r.samples = r.samples[:0]
	r.lastSample = 0
	return nil
}

func (r *Recorder[T]) Update(now uint64) error {
	if !r.source.IsWritten() {
		return nil
	}
	if r.interval > 0 && len(r.times) > 0 && now-r.lastSample < r.interval {
		return nil
	}
	r.times = append(r.times, now)
	r.samples = append(r.samples, r.source.Read())
	r.lastSample = now
	return nil
}

// Times returns the sample times in nanoseconds.
func (r *Recorder[T]) Times() []uint64 { return r.times }

// Samples returns the recorded payloads, aligned with Times.
func (r *Recorder[T]) Samples() []T { return r.samples }

func (r *Recorder[T]) Len() int { return len(r.times) }

// Map projects every sample through fn.
func Map[T, U any](r *Recorder[T], fn func(T) U) []U {
	out := make([]U, len(r.samples))
	for i, s := range r.samples {
		out[i] = fn(s)
	}
	return out
}

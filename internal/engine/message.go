package engine

// Message is a single-slot output channel. Writers overwrite the payload;
// readers see the latest value.
type Message[T any] struct {
	payload     T
	written     bool
	timeWritten uint64
}

func NewMessage[T any]() *Message[T] {
	return &Message[T]{}
}

func (m *Message[T]) Write(payload T, now uint64) {
	m.payload = payload
	m.written = true
	m.timeWritten = now
}

// Read returns the latest payload, or the zero value if never written.
func (m *Message[T]) Read() T {
	return m.payload
}

func (m *Message[T]) IsWritten() bool     { return m.written }
func (m *Message[T]) TimeWritten() uint64 { return m.timeWritten }

// Recorder returns a recorder that samples the message on every task tick.
func (m *Message[T]) Recorder() *Recorder[T] {
	return &Recorder[T]{name: "recorder", source: m}
}

// RecorderEvery returns a recorder that keeps at most one sample per
// interval nanoseconds.
func (m *Message[T]) RecorderEvery(interval uint64) *Recorder[T] {
	return &Recorder[T]{name: "recorder", source: m, interval: interval}
}

// InMsg is a read-only subscription to another model's output message.
type InMsg[T any] struct {
	source *Message[T]
}

func (in *InMsg[T]) Subscribe(m *Message[T]) {
	in.source = m
}

func (in *InMsg[T]) IsLinked() bool { return in.source != nil }

// Read returns the linked payload and whether it has been written.
func (in *InMsg[T]) Read() (T, bool) {
	if in.source == nil || !in.source.written {
		var zero T
		return zero, false
	}
	return in.source.payload, true
}

package viz

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/san-kum/rs1sim/internal/engine"
	"github.com/san-kum/rs1sim/internal/logging"
	"github.com/san-kum/rs1sim/internal/spacecraft"
)

var ErrFeedNotLinked = errors.New("viz: spacecraft state input not linked")

// Frame is one visualization sample. Files hold one JSON frame per line.
type Frame struct {
	Time     float64    `json:"t"`
	RBNN     [3]float64 `json:"r_BN_N"`
	VBNN     [3]float64 `json:"v_BN_N"`
	SigmaBN  [3]float64 `json:"sigma_BN"`
	OmegaBNB [3]float64 `json:"omega_BN_B"`
	Wheels   []float64  `json:"wheels,omitempty"`
}

// Feed streams spacecraft state to a JSON lines file. It is an engine model
// added to the dynamics task. Write failures disable the feed and are
// logged; they never fail the simulation.
type Feed struct {
	ModelTag   string
	StateInMsg engine.InMsg[spacecraft.StateMsg]
	WheelInMsg engine.InMsg[spacecraft.RWSpeedMsg]
	// Every samples one frame per Every updates.
	Every int

	path   string
	file   *os.File
	w      *bufio.Writer
	enc    *json.Encoder
	count  int
	frames int
	broken bool
	logger *slog.Logger
}

// Enable opens path for writing and returns a feed subscribed to the
// spacecraft state and, when non-nil, the wheel speeds.
func Enable(path string, state *engine.Message[spacecraft.StateMsg], wheels *engine.Message[spacecraft.RWSpeedMsg], logger *slog.Logger) (*Feed, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("viz: open feed: %w", err)
	}
	w := bufio.NewWriter(f)
	feed := &Feed{
		ModelTag: "vizInterface",
		Every:    1,
		path:     path,
		file:     f,
		w:        w,
		enc:      json.NewEncoder(w),
		logger:   logger,
	}
	if state != nil {
		feed.StateInMsg.Subscribe(state)
	}
	if wheels != nil {
		feed.WheelInMsg.Subscribe(wheels)
	}
	return feed, nil
}

func (f *Feed) Name() string { return f.ModelTag }
func (f *Feed) Path() string { return f.path }

// Frames reports how many frames were written.
func (f *Feed) Frames() int { return f.frames }

func (f *Feed) Reset(now uint64) error {
	if !f.StateInMsg.IsLinked() {
		return ErrFeedNotLinked
	}
	f.count = 0
	return nil
}

func (f *Feed) Update(now uint64) error {
	if f.broken {
		return nil
	}
	every := max(f.Every, 1)
	f.count++
	if (f.count-1)%every != 0 {
		return nil
	}
	st, ok := f.StateInMsg.Read()
	if !ok {
		return nil
	}
	fr := Frame{
		Time:     engine.NanoToSec(now),
		RBNN:     st.RBNN,
		VBNN:     st.VBNN,
		SigmaBN:  st.SigmaBN,
		OmegaBNB: st.OmegaBNB,
	}
	if ws, ok := f.WheelInMsg.Read(); ok {
		fr.Wheels = append([]float64(nil), ws.WheelSpeeds...)
	}
	if err := f.enc.Encode(fr); err != nil {
		f.broken = true
		f.logger.Warn("visualization feed disabled", "path", f.path, "err", err)
		return nil
	}
	f.frames++
	return nil
}

// Close flushes and closes the file.
func (f *Feed) Close() error {
	if f.file == nil {
		return nil
	}
	ferr := f.w.Flush()
	cerr := f.file.Close()
	f.file = nil
	return errors.Join(ferr, cerr)
}

// ReadFrames loads a feed file.
func ReadFrames(path string) ([]Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("viz: open feed: %w", err)
	}
	defer file.Close()
	return DecodeFrames(file)
}

// DecodeFrames reads JSON frames until EOF.
func DecodeFrames(r io.Reader) ([]Frame, error) {
	dec := json.NewDecoder(r)
	var frames []Frame
	for {
		var fr Frame
		err := dec.Decode(&fr)
		if errors.Is(err, io.EOF) {
			return frames, nil
		}
		if err != nil {
			return frames, fmt.Errorf("viz: decode frame %d: %w", len(frames), err)
		}
		frames = append(frames, fr)
	}
}

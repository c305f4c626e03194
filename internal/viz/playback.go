package viz

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/rs1sim/internal/attitude"
	"github.com/san-kum/rs1sim/internal/dynamo"
	"github.com/san-kum/rs1sim/internal/orbit"
)

const (
	canvasWidth  = 60
	canvasHeight = 22
	trailLength  = 400
	graphWidth   = 36
)

var ErrNoFrames = errors.New("viz: feed has no frames")

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Playback replays a recorded visualization feed.
type Playback struct {
	title   string
	frames  []Frame
	head    int
	speed   int
	running bool
	help    bool
	canvas  *Canvas
	camera  *Camera
	theme   Theme
	st      styles
	planet  *Wireframe
	radius  float64
}

// NewPlayback returns a TUI model over frames. Positions are scaled by the
// planet radius (metres).
func NewPlayback(title string, frames []Frame, radius float64) (*Playback, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}
	if radius <= 0 {
		radius = orbit.REarth
	}
	th := Themes[0]
	return &Playback{
		title:   title,
		frames:  frames,
		speed:   1,
		running: true,
		canvas:  NewCanvas(canvasWidth, canvasHeight),
		camera:  NewCamera(),
		theme:   th,
		st:      newStyles(th),
		planet:  PlanetWireframe(),
		radius:  radius,
	}, nil
}

func (m *Playback) Init() tea.Cmd { return tick() }

func (m *Playback) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.head = 0
		case "[":
			m.seek(-10 * m.speed)
		case "]":
			m.seek(10 * m.speed)
		case "+", "=":
			m.speed = min(m.speed*2, 256)
		case "-", "_":
			m.speed = max(m.speed/2, 1)
		case "x":
			m.camera.RotateX(0.1)
		case "X":
			m.camera.RotateX(-0.1)
		case "y":
			m.camera.RotateY(0.1)
		case "Y":
			m.camera.RotateY(-0.1)
		case "z":
			m.camera.RotateZ(0.1)
		case "Z":
			m.camera.RotateZ(-0.1)
		case "i":
			m.camera.ZoomIn()
		case "o":
			m.camera.ZoomOut()
		case "t":
			m.theme = nextTheme(m.theme)
			m.st = newStyles(m.theme)
		case "?":
			m.help = !m.help
		}
	case TickMsg:
		if m.running {
			m.seek(m.speed)
		}
		return m, tick()
	}
	return m, nil
}

func (m *Playback) seek(delta int) {
	m.head = max(0, min(len(m.frames)-1, m.head+delta))
	if m.head == len(m.frames)-1 {
		m.running = false
	}
}

// Head returns the index of the displayed frame.
func (m *Playback) Head() int { return m.head }

func (m *Playback) scaled(v [3]float64) dynamo.Vec3 {
	return dynamo.Vec3(v).Scale(1 / m.radius)
}

func (m *Playback) draw() {
	m.canvas.Clear()
	w := &Wireframe{Edges: append([]Edge(nil), m.planet.Edges...)}
	start := max(0, m.head-trailLength)
	trail := make([]dynamo.Vec3, 0, m.head-start+1)
	for _, fr := range m.frames[start : m.head+1] {
		trail = append(trail, m.scaled(fr.RBNN))
	}
	w.AddPolyline(trail)
	cur := m.frames[m.head]
	BodyTriad(w, m.scaled(cur.RBNN), attitude.ToDCM(cur.SigmaBN), 0.4)
	Render3D(m.canvas, w, m.camera)
}

func (m *Playback) pointingHistory() []float64 {
	start := max(0, m.head-trailLength)
	out := make([]float64, 0, m.head-start+1)
	for _, fr := range m.frames[start : m.head+1] {
		out = append(out, attitude.PrincipalAngle(fr.SigmaBN)*orbit.R2D)
	}
	return out
}

func (m *Playback) View() string {
	m.draw()
	cur := m.frames[m.head]
	r := dynamo.Vec3(cur.RBNN)
	v := dynamo.Vec3(cur.VBNN)

	var s strings.Builder
	s.WriteString(m.st.header.Render(strings.ToUpper(m.title)) + "\n")
	if m.running {
		s.WriteString(m.st.status.Render(fmt.Sprintf("PLAYING x%d", m.speed)) + "\n\n")
	} else {
		s.WriteString(m.st.paused.Render("PAUSED") + "\n\n")
	}
	last := m.frames[len(m.frames)-1].Time
	frac := 0.0
	if last > 0 {
		frac = cur.Time / last
	}
	s.WriteString(m.st.row("Time", "%.1f min %s", cur.Time/60, progressBar(frac, 12)))
	s.WriteString(m.st.row("Altitude", "%.1f km", (r.Norm()-m.radius)/1000))
	s.WriteString(m.st.row("Speed", "%.3f km/s", v.Norm()/1000))
	s.WriteString(m.st.row("|ω_BN|", "%.4f deg/s", dynamo.Vec3(cur.OmegaBNB).Norm()*orbit.R2D))
	for i, ws := range cur.Wheels {
		s.WriteString(m.st.row(fmt.Sprintf("RW%d", i+1), "%.1f rpm", ws*60/(2*math.Pi)))
	}
	if hist := m.pointingHistory(); len(hist) > 1 {
		chart := asciigraph.Plot(hist, asciigraph.Height(5), asciigraph.Width(graphWidth), asciigraph.Caption("attitude angle [deg]"))
		s.WriteString("\n" + m.st.graph.Render(chart) + "\n")
	}
	s.WriteString(m.st.help.Render("SP:Pause [ ]:Seek +/-:Speed xyz:Rotate i/o:Zoom T:Theme Q:Quit"))

	main := lipgloss.JoinHorizontal(lipgloss.Top, m.st.canvas.Render(m.canvas.String()), m.st.panel.Render(s.String()))
	if m.help {
		return m.st.panel.Render(helpText) + "\n" + main
	}
	return main
}

const helpText = `Space  pause/resume
r      restart
[ ]    seek back/forward
+ -    playback speed
x y z  rotate camera (shift reverses)
i o    zoom in/out
t      cycle theme
q      quit`

// RunPlayback opens the feed file and runs the TUI until the user quits.
func RunPlayback(path string) error {
	frames, err := ReadFrames(path)
	if err != nil {
		return err
	}
	pb, err := NewPlayback(path, frames, orbit.REarth)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(pb, tea.WithAltScreen()).Run()
	return err
}

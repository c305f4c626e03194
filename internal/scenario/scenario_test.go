package scenario_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/rs1sim/internal/engine"
	"github.com/san-kum/rs1sim/internal/metrics"
	"github.com/san-kum/rs1sim/internal/scenario"
	"github.com/san-kum/rs1sim/internal/session"
)

type tickModel struct {
	resetErr  error
	updateErr error
	ticks     int
	out       *engine.Message[int]
}

func (m *tickModel) Name() string { return "tick" }

func (m *tickModel) Reset(now uint64) error {
	m.ticks = 0
	return m.resetErr
}

func (m *tickModel) Update(now uint64) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.ticks++
	m.out.Write(m.ticks, now)
	return nil
}

type tickSet struct {
	model *tickModel
	rate  float64
}

func (t *tickSet) ProcessName() string { return session.DynamicsProcessName }
func (t *tickSet) TaskName() string    { return "tickTask" }
func (t *tickSet) Rate() float64       { return t.rate }

func tickFactory(m *tickModel) session.ModelFactory {
	return session.ModelFactoryFunc(func(s *session.Session, rate float64) (session.ModelSet, error) {
		task, err := s.CreateNewTask("tickTask", engine.SecToNano(rate))
		if err != nil {
			return nil, err
		}
		if err := s.DynProcess().AddTask(task, 0); err != nil {
			return nil, err
		}
		if err := s.AddModelToTask("tickTask", m); err != nil {
			return nil, err
		}
		return &tickSet{model: m, rate: rate}, nil
	})
}

type fakeScenario struct {
	*scenario.Base
	model     *tickModel
	rec       *engine.Recorder[int]
	icErr     error
	logErr    error
	showCalls []bool
}

func (f *fakeScenario) ConfigureInitialConditions() error { return f.icErr }

func (f *fakeScenario) LogOutputs() error {
	if f.logErr != nil {
		return f.logErr
	}
	f.rec = f.model.out.Recorder()
	return f.Session().AddModelToTask("tickTask", f.rec)
}

func (f *fakeScenario) PullOutputs(show bool) (map[string]string, error) {
	f.showCalls = append(f.showCalls, show)
	if show {
		return map[string]string{}, nil
	}
	return map[string]string{"ticks": "ticks.svg"}, nil
}

func newFake() *fakeScenario {
	s, err := session.New(1, 1)
	Expect(err).NotTo(HaveOccurred())
	m := &tickModel{out: engine.NewMessage[int]()}
	f := &fakeScenario{Base: scenario.NewBase("fake", s), model: m}
	Expect(f.BindModels(tickFactory(m), nil)).To(Succeed())
	return f
}

var _ = Describe("Lifecycle", func() {
	It("names every stage", func() {
		Expect(scenario.Constructed.String()).To(Equal("constructed"))
		Expect(scenario.Completed.String()).To(Equal("completed"))
		Expect(scenario.Lifecycle(42).String()).To(Equal("lifecycle(42)"))
	})

	It("only advances one stage at a time", func() {
		s, _ := session.New(1, 1)
		b := scenario.NewBase("b", s)
		Expect(b.Advance(scenario.InitialConditionsSet)).To(MatchError(scenario.ErrInvalidTransition))
		Expect(b.Advance(scenario.ModelsBound)).To(Succeed())
		Expect(b.Advance(scenario.ModelsBound)).To(MatchError(scenario.ErrInvalidTransition))
		Expect(b.State()).To(Equal(scenario.ModelsBound))
	})
})

var _ = Describe("Setup", func() {
	It("runs both hooks in order", func() {
		f := newFake()
		Expect(f.State()).To(Equal(scenario.ModelsBound))
		Expect(scenario.Setup(f)).To(Succeed())
		Expect(f.State()).To(Equal(scenario.LoggingWired))
		Expect(f.rec).NotTo(BeNil())
	})

	It("requires bound models", func() {
		s, _ := session.New(1, 1)
		f := &fakeScenario{Base: scenario.NewBase("unbound", s)}
		Expect(scenario.Setup(f)).To(MatchError(scenario.ErrInvalidTransition))
	})

	It("propagates an initial-condition failure unchanged", func() {
		f := newFake()
		f.icErr = errors.New("no central body")
		err := scenario.Setup(f)
		Expect(err).To(MatchError(f.icErr))
		Expect(err.Error()).To(ContainSubstring("configure initial conditions"))
		Expect(f.State()).To(Equal(scenario.ModelsBound))
	})

	It("propagates a logging failure", func() {
		f := newFake()
		f.logErr = errors.New("bad recorder")
		Expect(scenario.Setup(f)).To(MatchError(f.logErr))
		Expect(f.State()).To(Equal(scenario.InitialConditionsSet))
	})
})

var _ = Describe("Runner", func() {
	var f *fakeScenario

	BeforeEach(func() {
		f = newFake()
		Expect(scenario.Setup(f)).To(Succeed())
	})

	It("refuses to run before setup", func() {
		g := newFake()
		err := scenario.RunScenario(context.Background(), g, scenario.RunOptions{})
		Expect(err).To(MatchError(scenario.ErrInvalidTransition))
	})

	It("applies the default mode and duration", func() {
		Expect(scenario.RunScenario(context.Background(), f, scenario.RunOptions{})).To(Succeed())
		eng := f.Session().Engine
		Expect(eng.ModeRequest()).To(Equal("standby"))
		Expect(eng.StopTime()).To(Equal(engine.MinToNano(10)))
		Expect(f.State()).To(Equal(scenario.Completed))
		Expect(f.rec.Len()).To(Equal(601))
	})

	It("honours explicit options", func() {
		opts := scenario.RunOptions{ModeRequest: "inertial3D", Duration: 30 * time.Second, Metrics: metrics.NewRegistry()}
		Expect(scenario.RunScenario(context.Background(), f, opts)).To(Succeed())
		Expect(f.Session().ModeRequest()).To(Equal("inertial3D"))
		Expect(f.rec.Len()).To(Equal(31))
	})

	It("does not run a completed scenario twice", func() {
		Expect(scenario.RunScenario(context.Background(), f, scenario.RunOptions{})).To(Succeed())
		err := scenario.RunScenario(context.Background(), f, scenario.RunOptions{})
		Expect(err).To(MatchError(scenario.ErrAlreadyCompleted))
		Expect(f.rec.Len()).To(Equal(601))
	})

	It("wraps initialize failures", func() {
		cause := errors.New("unbound gravity body")
		f.model.resetErr = cause
		err := scenario.RunScenario(context.Background(), f, scenario.RunOptions{})

		var execErr *scenario.ExecutionError
		Expect(errors.As(err, &execErr)).To(BeTrue())
		Expect(execErr.Stage).To(Equal("initialize"))
		var cfgErr *engine.ConfigurationError
		Expect(errors.As(err, &cfgErr)).To(BeTrue())
		Expect(err).To(MatchError(cause))
		Expect(f.State()).To(Equal(scenario.LoggingWired))
	})

	It("wraps execute failures", func() {
		f.model.updateErr = errors.New("diverged")
		err := scenario.RunScenario(context.Background(), f, scenario.RunOptions{})

		var execErr *scenario.ExecutionError
		Expect(errors.As(err, &execErr)).To(BeTrue())
		Expect(execErr.Stage).To(Equal("execute"))
		Expect(err).To(MatchError(f.model.updateErr))
		Expect(f.State()).To(Equal(scenario.Executing))
	})

	It("stops on a cancelled context", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := scenario.RunScenario(ctx, f, scenario.RunOptions{})
		Expect(err).To(MatchError(context.Canceled))
	})

	Describe("Run", func() {
		It("returns saved figures when not showing", func() {
			figs, err := scenario.Run(context.Background(), f, scenario.RunOptions{}, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(figs).To(HaveKeyWithValue("ticks", "ticks.svg"))
			Expect(f.showCalls).To(Equal([]bool{false}))
		})

		It("returns an empty map when showing", func() {
			figs, err := scenario.Run(context.Background(), f, scenario.RunOptions{}, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(figs).To(BeEmpty())
		})
	})
})

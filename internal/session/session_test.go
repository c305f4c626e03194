package session_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/rs1sim/internal/engine"
	"github.com/san-kum/rs1sim/internal/session"
)

type stubSet struct {
	process string
	task    string
	rate    float64
}

func (m *stubSet) ProcessName() string { return m.process }
func (m *stubSet) TaskName() string    { return m.task }
func (m *stubSet) Rate() float64       { return m.rate }

func stubFactory(task string, calls *int) session.ModelFactory {
	return session.ModelFactoryFunc(func(s *session.Session, rate float64) (session.ModelSet, error) {
		*calls++
		return &stubSet{task: task, rate: rate}, nil
	})
}

var _ = Describe("Session", func() {
	var (
		s     *session.Session
		calls int
	)

	BeforeEach(func() {
		var err error
		calls = 0
		s, err = session.New(0.1, 0.5)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("construction", func() {
		DescribeTable("rejects invalid rates",
			func(dyn, fsw float64) {
				_, err := session.New(dyn, fsw)
				Expect(err).To(MatchError(session.ErrInvalidRate))
			},
			Entry("zero dynamics rate", 0.0, 0.1),
			Entry("negative fsw rate", 0.1, -1.0),
			Entry("NaN", math.NaN(), 0.1),
			Entry("infinite", 0.1, math.Inf(1)),
		)

		It("reuses a supplied engine", func() {
			eng := engine.New()
			s2, err := session.New(1, 1, session.WithEngine(eng))
			Expect(err).NotTo(HaveOccurred())
			Expect(s2.Engine).To(BeIdenticalTo(eng))
		})
	})

	Describe("accessors before binding", func() {
		It("fails loudly for dynamics", func() {
			ms, err := s.DynModel()
			Expect(ms).To(BeNil())
			Expect(err).To(MatchError(session.ErrPrecondition))
			Expect(err.Error()).To(ContainSubstring("dynamics model not yet bound"))
		})

		It("fails loudly for fsw", func() {
			_, err := s.FswModel()
			Expect(err).To(MatchError(session.ErrPrecondition))
		})

		It("rejects nil factories without creating processes", func() {
			Expect(s.SetDynModel(nil)).To(MatchError(session.ErrPrecondition))
			Expect(s.SetFswModel(nil)).To(MatchError(session.ErrPrecondition))
			Expect(s.Processes()).To(BeEmpty())
			Expect(s.SetDynModel(stubFactory("dynTask", &calls))).To(Succeed())
		})

		It("has no processes", func() {
			Expect(s.DynProcess()).To(BeNil())
			Expect(s.FswProcess()).To(BeNil())
			Expect(s.Processes()).To(BeEmpty())
		})
	})

	Describe("binding both roles", func() {
		var dyn, fsw session.ModelSet

		BeforeEach(func() {
			Expect(s.SetDynModel(stubFactory("DynamicsTask", &calls))).To(Succeed())
			Expect(s.SetFswModel(stubFactory("fswTask", &calls))).To(Succeed())
			var err error
			dyn, err = s.DynModel()
			Expect(err).NotTo(HaveOccurred())
			fsw, err = s.FswModel()
			Expect(err).NotTo(HaveOccurred())
		})

		It("creates two distinct processes", func() {
			Expect(s.DynProcess().Name()).To(Equal(session.DynamicsProcessName))
			Expect(s.FswProcess().Name()).To(Equal(session.FSWProcessName))
			Expect(s.Processes()).To(HaveLen(2))
		})

		It("builds each set at its own rate", func() {
			Expect(dyn.Rate()).To(Equal(0.1))
			Expect(fsw.Rate()).To(Equal(0.5))
			Expect(s.DynRate()).To(Equal(0.1))
			Expect(s.FswRate()).To(Equal(0.5))
		})

		It("returns the exact objects the factories built", func() {
			again, _ := s.DynModel()
			Expect(again).To(BeIdenticalTo(dyn))
			Expect(dyn.TaskName()).To(Equal("DynamicsTask"))
			Expect(calls).To(Equal(2))
		})

		It("rejects a second binding without calling the factory", func() {
			err := s.SetDynModel(stubFactory("other", &calls))
			Expect(err).To(MatchError(session.ErrDuplicateBinding))
			err = s.SetFswModel(stubFactory("other", &calls))
			Expect(err).To(MatchError(session.ErrDuplicateBinding))
			Expect(calls).To(Equal(2))

			still, _ := s.DynModel()
			Expect(still).To(BeIdenticalTo(dyn))
		})
	})

	Describe("factory failure", func() {
		boom := errors.New("boom")

		BeforeEach(func() {
			err := s.SetDynModel(session.ModelFactoryFunc(func(*session.Session, float64) (session.ModelSet, error) {
				return nil, boom
			}))
			Expect(err).To(MatchError(boom))
		})

		It("leaves the role unbound", func() {
			_, err := s.DynModel()
			Expect(err).To(MatchError(session.ErrPrecondition))
		})

		It("keeps the process so a retry is a duplicate binding", func() {
			Expect(s.DynProcess()).NotTo(BeNil())
			err := s.SetDynModel(stubFactory("DynamicsTask", &calls))
			Expect(err).To(MatchError(session.ErrDuplicateBinding))
			Expect(calls).To(BeZero())
		})
	})
})

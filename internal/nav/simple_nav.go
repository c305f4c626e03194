// Package nav provides the simple navigation sensor: it republishes the true
// spacecraft state as attitude and translation navigation messages, with
// optional white noise.
package nav

import (
	"errors"
	"math/rand/v2"

	"github.com/san-kum/rs1sim/internal/attitude"
	"github.com/san-kum/rs1sim/internal/dynamo"
	"github.com/san-kum/rs1sim/internal/engine"
	"github.com/san-kum/rs1sim/internal/spacecraft"
)

var ErrStateNotLinked = errors.New("nav: spacecraft state input not linked")

// AttMsg is the attitude navigation solution.
type AttMsg struct {
	TimeTag      float64     `json:"timeTag"`
	SigmaBN      dynamo.Vec3 `json:"sigma_BN"`
	OmegaBNB     dynamo.Vec3 `json:"omega_BN_B"`
	VehSunPntBdy dynamo.Vec3 `json:"vehSunPntBdy"`
}

// TransMsg is the translational navigation solution.
type TransMsg struct {
	TimeTag    float64     `json:"timeTag"`
	RBNN       dynamo.Vec3 `json:"r_BN_N"`
	VBNN       dynamo.Vec3 `json:"v_BN_N"`
	VehAccumDV dynamo.Vec3 `json:"vehAccumDV"`
}

// Noise holds one-sigma white-noise levels. The zero value is noise-free.
type Noise struct {
	Pos  float64 `yaml:"pos" json:"pos"`
	Vel  float64 `yaml:"vel" json:"vel"`
	Att  float64 `yaml:"att" json:"att"`
	Rate float64 `yaml:"rate" json:"rate"`
	Seed uint64  `yaml:"seed" json:"seed"`
}

func (n Noise) enabled() bool {
	return n.Pos > 0 || n.Vel > 0 || n.Att > 0 || n.Rate > 0
}

type SimpleNav struct {
	ModelTag     string
	ScStateInMsg engine.InMsg[spacecraft.StateMsg]
	AttOutMsg    *engine.Message[AttMsg]
	TransOutMsg  *engine.Message[TransMsg]
	Noise        Noise
	// SunDirN is the inertial unit vector toward the Sun.
	SunDirN dynamo.Vec3

	rng *rand.Rand
}

func New() *SimpleNav {
	return &SimpleNav{
		ModelTag:    "SimpleNavigation",
		AttOutMsg:   engine.NewMessage[AttMsg](),
		TransOutMsg: engine.NewMessage[TransMsg](),
		SunDirN:     dynamo.Vec3{1, 0, 0},
	}
}

func (n *SimpleNav) Name() string { return n.ModelTag }

func (n *SimpleNav) Reset(now uint64) error {
	if !n.ScStateInMsg.IsLinked() {
		return ErrStateNotLinked
	}
	n.rng = nil
	if n.Noise.enabled() {
		n.rng = rand.New(rand.NewPCG(n.Noise.Seed, n.Noise.Seed^0x9e3779b97f4a7c15))
	}
	return nil
}

func (n *SimpleNav) Update(now uint64) error {
	st, ok := n.ScStateInMsg.Read()
	if !ok {
		return nil
	}
	tag := engine.NanoToSec(now)

	sigma := st.SigmaBN
	omega := st.OmegaBNB
	r := st.RBNN
	v := st.VBNN
	if n.rng != nil {
		sigma = attitude.Shadow(sigma.Add(n.gauss(n.Noise.Att)))
		omega = omega.Add(n.gauss(n.Noise.Rate))
		r = r.Add(n.gauss(n.Noise.Pos))
		v = v.Add(n.gauss(n.Noise.Vel))
	}

	sunB := attitude.ToDCM(sigma).MulVec(n.SunDirN.Unit())
	n.AttOutMsg.Write(AttMsg{TimeTag: tag, SigmaBN: sigma, OmegaBNB: omega, VehSunPntBdy: sunB}, now)
	n.TransOutMsg.Write(TransMsg{TimeTag: tag, RBNN: r, VBNN: v}, now)
	return nil
}

func (n *SimpleNav) gauss(std float64) dynamo.Vec3 {
	if std <= 0 {
		return dynamo.Vec3{}
	}
	return dynamo.Vec3{n.rng.NormFloat64() * std, n.rng.NormFloat64() * std, n.rng.NormFloat64() * std}
}

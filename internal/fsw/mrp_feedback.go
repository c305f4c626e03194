package fsw

import (
	"github.com/san-kum/rs1sim/internal/dynamo"
	"github.com/san-kum/rs1sim/internal/engine"
	"github.com/san-kum/rs1sim/internal/spacecraft"
)

// Gains are the MRP feedback gains. Ki < 0 disables the integral term.
type Gains struct {
	K             float64 `yaml:"k" json:"k"`
	P             float64 `yaml:"p" json:"p"`
	Ki            float64 `yaml:"ki" json:"ki"`
	IntegralLimit float64 `yaml:"integral_limit" json:"integral_limit"`
}

func DefaultGains() Gains {
	return Gains{K: 3.5, P: 30, Ki: -1, IntegralLimit: 0.2}
}

// MRPFeedback is a PD attitude controller on σ_BR with optional integral
// action and gyroscopic compensation of the wheel momentum.
type MRPFeedback struct {
	ModelTag        string
	Gains           Gains
	Inertia         dynamo.Mat3
	GuidInMsg       engine.InMsg[AttGuidMsg]
	RWSpeedsInMsg   engine.InMsg[spacecraft.RWSpeedMsg]
	Wheels          []spacecraft.WheelConfig
	CmdTorqueOutMsg *engine.Message[CmdTorqueMsg]

	integral dynamo.Vec3
	prevT    uint64
	first    bool
}

func NewMRPFeedback(g Gains, inertia dynamo.Mat3) *MRPFeedback {
	return &MRPFeedback{
		ModelTag:        "mrpFeedback",
		Gains:           g,
		Inertia:         inertia,
		CmdTorqueOutMsg: engine.NewMessage[CmdTorqueMsg](),
		first:           true,
	}
}

func (c *MRPFeedback) Name() string { return c.ModelTag }

// Reset clears the integral state.
func (c *MRPFeedback) Reset(now uint64) error {
	if !c.GuidInMsg.IsLinked() {
		return ErrNotLinked
	}
	c.integral = dynamo.Vec3{}
	c.first = true
	return nil
}

func (c *MRPFeedback) Update(now uint64) error {
	guid, ok := c.GuidInMsg.Read()
	if !ok {
		return nil
	}

	if c.first {
		c.prevT = now
		c.first = false
	}
	dt := engine.NanoToSec(now - c.prevT)
	c.prevT = now

	var z dynamo.Vec3
	if c.Gains.Ki > 0 {
		c.integral = c.integral.Add(guid.SigmaBR.Scale(c.Gains.K * dt))
		if lim := c.Gains.IntegralLimit; lim > 0 {
			for i := range c.integral {
				c.integral[i] = max(-lim, min(lim, c.integral[i]))
			}
		}
		z = c.integral.Add(c.Inertia.MulVec(guid.OmegaBRB))
	}

	omegaBN := guid.OmegaBRB.Add(guid.OmegaRNB)
	h := c.Inertia.MulVec(omegaBN)
	if speeds, ok := c.RWSpeedsInMsg.Read(); ok {
		for i, w := range c.Wheels {
			if i < len(speeds.WheelSpeeds) {
				h = h.Add(w.Axis.Unit().Scale(w.Js * speeds.WheelSpeeds[i]))
			}
		}
	}

	lr := guid.SigmaBR.Scale(c.Gains.K).
		Add(guid.OmegaBRB.Scale(c.Gains.P)).
		Add(z.Scale(c.Gains.P * c.Gains.Ki)).
		Sub(guid.OmegaRNB.Cross(h)).
		Add(c.Inertia.MulVec(omegaBN.Cross(guid.OmegaRNB).Sub(guid.DomegaRNB)))

	c.CmdTorqueOutMsg.Write(CmdTorqueMsg{TorqueRequestBody: lr.Scale(-1)}, now)
	return nil
}

// Params returns the tunable gains.
func (c *MRPFeedback) Params() map[string]float64 {
	return map[string]float64{
		"K":  c.Gains.K,
		"P":  c.Gains.P,
		"Ki": c.Gains.Ki,
	}
}

// SetParam adjusts one gain.
func (c *MRPFeedback) SetParam(name string, value float64) {
	switch name {
	case "K":
		c.Gains.K = value
	case "P":
		c.Gains.P = value
	case "Ki":
		c.Gains.Ki = value
	}
}

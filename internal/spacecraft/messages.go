package spacecraft

import "github.com/san-kum/rs1sim/internal/dynamo"

// StateMsg is the true translational and rotational state of the hub.
type StateMsg struct {
	RBNN     dynamo.Vec3 `json:"r_BN_N"`
	VBNN     dynamo.Vec3 `json:"v_BN_N"`
	SigmaBN  dynamo.Vec3 `json:"sigma_BN"`
	OmegaBNB dynamo.Vec3 `json:"omega_BN_B"`
}

// RWCmdMsg carries one motor torque per wheel, in N·m.
type RWCmdMsg struct {
	MotorTorque []float64 `json:"motorTorque"`
}

// RWSpeedMsg carries wheel speeds relative to the hub, in rad/s.
type RWSpeedMsg struct {
	WheelSpeeds []float64 `json:"wheelSpeeds"`
}

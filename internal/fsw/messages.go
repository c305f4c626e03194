package fsw

import "github.com/san-kum/rs1sim/internal/dynamo"

// AttRefMsg is a reference attitude R relative to N.
type AttRefMsg struct {
	SigmaRN   dynamo.Vec3 `json:"sigma_RN"`
	OmegaRNN  dynamo.Vec3 `json:"omega_RN_N"`
	DomegaRNN dynamo.Vec3 `json:"domega_RN_N"`
}

// AttGuidMsg is the attitude tracking error of B relative to R.
type AttGuidMsg struct {
	SigmaBR   dynamo.Vec3 `json:"sigma_BR"`
	OmegaBRB  dynamo.Vec3 `json:"omega_BR_B"`
	OmegaRNB  dynamo.Vec3 `json:"omega_RN_B"`
	DomegaRNB dynamo.Vec3 `json:"domega_RN_B"`
}

// CmdTorqueMsg is a body-frame torque request.
type CmdTorqueMsg struct {
	TorqueRequestBody dynamo.Vec3 `json:"torqueRequestBody"`
}

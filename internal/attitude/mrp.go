// Package attitude holds Modified Rodrigues Parameter (MRP) kinematics.
//
// All MRPs returned by this package are on the short rotation set
// (|σ| <= 1).
package attitude

import (
	"math"

	"github.com/san-kum/rs1sim/internal/dynamo"
)

// Shadow returns the short-set MRP describing the same attitude.
func Shadow(s dynamo.Vec3) dynamo.Vec3 {
	s2 := s.Dot(s)
	if s2 <= 1 {
		return s
	}
	return s.Scale(-1 / s2)
}

// ToDCM returns the direction cosine matrix [BN] for σ_BN.
func ToDCM(s dynamo.Vec3) dynamo.Mat3 {
	s2 := s.Dot(s)
	st := dynamo.Tilde(s)
	st2 := st.Mul(st)
	d := (1 + s2) * (1 + s2)
	return dynamo.Identity3().Add(st2.Scale(8 / d)).Add(st.Scale(-4 * (1 - s2) / d))
}

// FromDCM extracts the short-set MRP from a rotation matrix using the
// Sheppard quaternion method.
func FromDCM(c dynamo.Mat3) dynamo.Vec3 {
	tr := c[0][0] + c[1][1] + c[2][2]
	b2 := [4]float64{
		(1 + tr) / 4,
		(1 + 2*c[0][0] - tr) / 4,
		(1 + 2*c[1][1] - tr) / 4,
		(1 + 2*c[2][2] - tr) / 4,
	}
	i := 0
	for k := 1; k < 4; k++ {
		if b2[k] > b2[i] {
			i = k
		}
	}

	var q [4]float64
	switch i {
	case 0:
		q[0] = math.Sqrt(b2[0])
		q[1] = (c[1][2] - c[2][1]) / (4 * q[0])
		q[2] = (c[2][0] - c[0][2]) / (4 * q[0])
		q[3] = (c[0][1] - c[1][0]) / (4 * q[0])
	case 1:
		q[1] = math.Sqrt(b2[1])
		q[0] = (c[1][2] - c[2][1]) / (4 * q[1])
		q[2] = (c[0][1] + c[1][0]) / (4 * q[1])
		q[3] = (c[2][0] + c[0][2]) / (4 * q[1])
	case 2:
		q[2] = math.Sqrt(b2[2])
		q[0] = (c[2][0] - c[0][2]) / (4 * q[2])
		q[1] = (c[0][1] + c[1][0]) / (4 * q[2])
		q[3] = (c[1][2] + c[2][1]) / (4 * q[2])
	case 3:
		q[3] = math.Sqrt(b2[3])
		q[0] = (c[0][1] - c[1][0]) / (4 * q[3])
		q[1] = (c[2][0] + c[0][2]) / (4 * q[3])
		q[2] = (c[1][2] + c[2][1]) / (4 * q[3])
	}
	if q[0] < 0 {
		q = [4]float64{-q[0], -q[1], -q[2], -q[3]}
	}
	return dynamo.Vec3{q[1], q[2], q[3]}.Scale(1 / (1 + q[0]))
}

// BMat is the MRP kinematic matrix: σ' = ¼ B(σ) ω.
func BMat(s dynamo.Vec3) dynamo.Mat3 {
	s2 := s.Dot(s)
	var outer dynamo.Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			outer[i][j] = s[i] * s[j]
		}
	}
	return dynamo.Identity3().Scale(1 - s2).Add(dynamo.Tilde(s).Scale(2)).Add(outer.Scale(2))
}

// Rate returns dσ/dt for body rate ω expressed in the body frame.
func Rate(s, omega dynamo.Vec3) dynamo.Vec3 {
	return BMat(s).MulVec(omega).Scale(0.25)
}

// Sub returns σ_BR given σ_BN and σ_RN.
func Sub(sBN, sRN dynamo.Vec3) dynamo.Vec3 {
	return FromDCM(ToDCM(sBN).Mul(ToDCM(sRN).Transpose()))
}

// Add returns σ_BN given σ_BR and σ_RN.
func Add(sBR, sRN dynamo.Vec3) dynamo.Vec3 {
	return FromDCM(ToDCM(sBR).Mul(ToDCM(sRN)))
}

// PrincipalAngle returns the principal rotation angle in radians.
func PrincipalAngle(s dynamo.Vec3) float64 {
	return 4 * math.Atan(Shadow(s).Norm())
}

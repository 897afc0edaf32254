// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lie

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Branch thresholds for Logmap. Compile-time constants to avoid math.Abs.
const (
	nearlyOne         = 1.0 - 1e-10
	nearlyNegativeOne = -1.0 + 1e-10
	twoPi             = 2 * math.Pi
)

// Quaternion is the chart for unit quaternions representing 3D rotations.
//
// The group element is a quat.Number with unit norm; the tangent space is ℝ³
// (the rotation vector 𝛚 = angle·axis). Unit quaternions double-cover the
// rotation group: 𝐪 and -𝐪 act as the same rotation, so
// 𝙴𝚡𝚙𝚖𝚊𝚙(𝙻𝚘𝚐𝚖𝚊𝚙(𝐪)) recovers 𝐪 only up to sign. This is a property of the
// representation, not an error, and downstream code must compare rotations
// by action rather than by component.
type Quaternion struct{}

var _ Chart[quat.Number] = Quaternion{}

// Dim returns 3, the dimension of the rotation Lie algebra 𝖘𝖔(3).
func (Quaternion) Dim() int { return 3 }

// Expmap maps a rotation vector 𝛚 to a unit quaternion.
// The zero vector maps to the exact group identity with no trigonometric
// round-off; otherwise angle = ‖𝛚‖ and axis = 𝛚/‖𝛚‖.
func (c Quaternion) Expmap(omega []float64) quat.Number {
	angle := math.Sqrt(omega[0]*omega[0] + omega[1]*omega[1] + omega[2]*omega[2])
	if angle == 0 {
		return quat.Number{Real: 1}
	}
	inv := 1 / angle
	return c.ExpmapAngleAxis(angle, []float64{omega[0] * inv, omega[1] * inv, omega[2] * inv})
}

// ExpmapAngleAxis maps an explicit angle/axis decomposition to a unit
// quaternion, for callers that already hold one. The axis must be unit norm.
func (Quaternion) ExpmapAngleAxis(angle float64, axis []float64) quat.Number {
	half := 0.5 * angle
	s := math.Sin(half)
	return quat.Number{
		Real: math.Cos(half),
		Imag: s * axis[0],
		Jmag: s * axis[1],
		Kmag: s * axis[2],
	}
}

// Logmap maps a unit quaternion to its rotation vector.
//
// Three regimes keep the map total and numerically stable:
//   - 𝐪ʷ near +1: angle/sin(angle/2) degenerates to 0/0, so use its
//     second-order Taylor expansion 2 - ⅔(𝐪ʷ-1) instead.
//   - 𝐪ʷ near -1: the rotation angle is 0 (mod 2π) in the double-cover sense
//     and the inverse is ill-conditioned; return the zero vector.
//   - otherwise angle = 2·acos(𝐪ʷ), re-branched into [-π,π] so the result
//     varies continuously as 𝐪 crosses the half-turn boundary, scaled onto
//     the vector part by angle/√(1-𝐪ʷ²).
func (Quaternion) Logmap(q quat.Number) []float64 {
	w := q.Real
	switch {
	case w > nearlyOne:
		k := 2 - 2*(w-1)/3
		return []float64{k * q.Imag, k * q.Jmag, k * q.Kmag}
	case w < nearlyNegativeOne:
		return []float64{0, 0, 0}
	default:
		angle := 2 * math.Acos(w)
		// Convert to [-π,π] to keep the tangent vector continuous.
		if angle > math.Pi {
			angle -= twoPi
		} else if angle < -math.Pi {
			angle += twoPi
		}
		k := angle / math.Sqrt(1-w*w)
		return []float64{k * q.Imag, k * q.Jmag, k * q.Kmag}
	}
}

// Retract composes a tangent correction onto a basepoint rotation.
func (c Quaternion) Retract(base quat.Number, v []float64) quat.Number {
	return quat.Mul(base, c.Expmap(v))
}

// Local expresses g in the chart centred at base.
func (c Quaternion) Local(base, g quat.Number) []float64 {
	return c.Logmap(quat.Mul(quat.Conj(base), g))
}

// QuatVec adapts the Quaternion chart to variables stored as a flat
// (w,x,y,z) coordinate vector.
type QuatVec struct{}

var _ Retraction = QuatVec{}

func (QuatVec) AmbientDim() int { return 4 }
func (QuatVec) TangentDim() int { return 3 }

// Retract applies dx to the stored quaternion and renormalises the result so
// accumulated round-off never drifts the estimate off the unit sphere.
func (QuatVec) Retract(x, dx []float64) []float64 {
	q := Quaternion{}.Retract(quat.Number{Real: x[0], Imag: x[1], Jmag: x[2], Kmag: x[3]}, dx)
	n := 1 / math.Sqrt(q.Real*q.Real+q.Imag*q.Imag+q.Jmag*q.Jmag+q.Kmag*q.Kmag)
	return []float64{n * q.Real, n * q.Imag, n * q.Jmag, n * q.Kmag}
}

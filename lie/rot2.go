// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lie

import "math"

// Rot2 is the chart for planar rotations SO(2).
//
// The group element stores (cos θ, sin θ) rather than the bare angle, so
// composition never needs angle wrapping; Logmap recovers θ ∈ (-π,π] through
// atan2, which handles the wrap-around boundary exactly.
type Rot2 struct{}

// Angle2 is a planar rotation stored by its cosine and sine.
type Angle2 struct {
	C, S float64
}

var _ Chart[Angle2] = Rot2{}

// Dim returns 1, the dimension of 𝖘𝖔(2).
func (Rot2) Dim() int { return 1 }

// Expmap maps the 1-vector [θ] to a planar rotation.
// The zero vector maps to the exact identity.
func (Rot2) Expmap(v []float64) Angle2 {
	if v[0] == 0 {
		return Angle2{C: 1}
	}
	return Angle2{C: math.Cos(v[0]), S: math.Sin(v[0])}
}

// Logmap recovers the rotation angle in (-π,π].
func (Rot2) Logmap(g Angle2) []float64 {
	return []float64{math.Atan2(g.S, g.C)}
}

// Retract composes a tangent correction onto a basepoint rotation.
func (c Rot2) Retract(base Angle2, v []float64) Angle2 {
	e := c.Expmap(v)
	return Angle2{C: base.C*e.C - base.S*e.S, S: base.S*e.C + base.C*e.S}
}

// Local expresses g in the chart centred at base.
func (c Rot2) Local(base, g Angle2) []float64 {
	// base⁻¹∘g with base⁻¹ = (c, -s)
	return c.Logmap(Angle2{C: base.C*g.C + base.S*g.S, S: base.C*g.S - base.S*g.C})
}

// Rot2Vec adapts the Rot2 chart to variables stored as a flat (cos,sin)
// coordinate vector.
type Rot2Vec struct{}

var _ Retraction = Rot2Vec{}

func (Rot2Vec) AmbientDim() int { return 2 }
func (Rot2Vec) TangentDim() int { return 1 }

func (Rot2Vec) Retract(x, dx []float64) []float64 {
	g := Rot2{}.Retract(Angle2{C: x[0], S: x[1]}, dx)
	n := 1 / math.Hypot(g.C, g.S)
	return []float64{n * g.C, n * g.S}
}

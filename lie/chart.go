// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lie provides local charts for Lie-group-valued optimization variables.
//
// A chart is the pair of exponential and logarithm maps between a group G and
// its tangent space (the Lie algebra) at the identity, together with the
// retraction that composes a tangent correction onto an arbitrary basepoint.
// It lets an optimizer treat a manifold-valued variable (e.g. a unit
// quaternion orientation) as a local vector space around the current estimate:
// linearize in tangent coordinates, solve, then retract the correction back
// onto the group.
//
// All charts are stateless value types and all operations are total pure
// functions: they never fail for valid inputs and are safe for concurrent use.
package lie

// Chart defines the local coordinates of a Lie group G.
//
// The maps must satisfy 𝙻𝚘𝚐𝚖𝚊𝚙(𝙴𝚡𝚙𝚖𝚊𝚙(𝐯)) = 𝐯 for every tangent vector 𝐯
// within the injectivity radius of G, and 𝙴𝚡𝚙𝚖𝚊𝚙(𝙻𝚘𝚐𝚖𝚊𝚙(𝐠)) = 𝐠 up to any
// covering ambiguity of the chosen representation (see Quaternion).
type Chart[G any] interface {
	// Dim is the tangent-space dimension, which may be smaller than the
	// dimension of the storage representation of G.
	Dim() int
	// Expmap maps a tangent vector of length Dim to a group element.
	Expmap(v []float64) G
	// Logmap maps a group element to a tangent vector of length Dim.
	Logmap(g G) []float64
	// Retract composes a tangent correction onto a basepoint: 𝐠 ∘ 𝙴𝚡𝚙𝚖𝚊𝚙(𝐯).
	Retract(base G, v []float64) G
	// Local expresses g in the chart centred at base: 𝙻𝚘𝚐𝚖𝚊𝚙(𝐛𝐚𝐬𝐞⁻¹ ∘ 𝐠).
	Local(base, g G) []float64
}

// Retraction applies a chart retraction to a variable stored as a flat
// coordinate vector, as the sqp driver stores every variable. AmbientDim is
// the storage length of x, TangentDim the length of the correction dx.
type Retraction interface {
	AmbientDim() int
	TangentDim() int
	Retract(x, dx []float64) []float64
}

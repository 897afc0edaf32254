// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqp

import "gonum.org/v1/gonum/mat"

// Term is one matrix block of a GaussianFactor, keyed by the variable the
// block multiplies.
type Term struct {
	Key string
	A   *mat.Dense
}

// GaussianFactor is a linearized factor ∑ₖ 𝐀ₖ𝐱ₖ = 𝐛 with a scalar noise
// sigma. Sigma > 0 marks a soft cost row weighted by 1/𝛔; Sigma == 0 marks a
// hard equality row that the downstream solver must satisfy exactly.
//
// Factors are transient: they are recreated from the nonlinear problem at
// every linearization point and own no state beyond it.
type GaussianFactor struct {
	Terms []Term
	B     *mat.VecDense
	Sigma float64
}

// Rows returns the number of scalar rows of the factor.
func (f *GaussianFactor) Rows() int { return f.B.Len() }

// Equals reports whether both factors reference the same keys in the same
// order with blocks, right-hand sides and sigmas equal within tol.
func (f *GaussianFactor) Equals(o *GaussianFactor, tol float64) bool {
	if f == nil || o == nil {
		return f == o
	}
	if len(f.Terms) != len(o.Terms) {
		return false
	}
	for i, t := range f.Terms {
		u := o.Terms[i]
		if t.Key != u.Key || !mat.EqualApprox(t.A, u.A, tol) {
			return false
		}
	}
	d := f.Sigma - o.Sigma
	if d < -tol || d > tol {
		return false
	}
	return mat.EqualApprox(f.B, o.B, tol)
}

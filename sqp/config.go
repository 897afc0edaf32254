// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sqp implements the per-iteration core of equality-constrained
// Sequential Quadratic Programming over possibly manifold-valued variables.
//
// A Constraint wraps a nonlinear equality 𝒈(𝐱) = 0 together with its gradient
// and linearizes it at the current estimate into a pair of Gaussian factors:
// a soft cost factor coupling the primal variables to a Lagrange-multiplier
// variable, and a hard constraint factor encoding the first-order Taylor
// expansion of 𝒈. A Solver closes the loop: it assembles the linearized
// factors into one KKT system, solves it, and retracts each variable through
// its manifold chart.
//
// Everything in this package is pure: constraints are immutable after
// construction and safe to linearize concurrently against different
// configurations.
package sqp

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrMissingKey reports a lookup of a variable key absent from a Config.
// The core never supplies default values.
var ErrMissingKey = errors.New("missing variable key")

// Config maps variable keys to their current vector values. It represents a
// snapshot of the primal (or, separately, multiplier) estimate and is never
// mutated by this core within a call.
type Config map[string]*mat.VecDense

// Insert binds the given values to key and returns the Config for chaining.
func (c Config) Insert(key string, values ...float64) Config {
	v := make([]float64, len(values))
	copy(v, values)
	c[key] = mat.NewVecDense(len(v), v)
	return c
}

// At returns the value bound to key, or ErrMissingKey.
func (c Config) At(key string) (*mat.VecDense, error) {
	v, ok := c[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingKey, key)
	}
	return v, nil
}

// Clone deep-copies the configuration.
func (c Config) Clone() Config {
	o := make(Config, len(c))
	for k, v := range c {
		o[k] = mat.VecDenseCopyOf(v)
	}
	return o
}

// Equals reports whether both configurations bind the same keys to values
// equal within tol.
func (c Config) Equals(o Config, tol float64) bool {
	if len(c) != len(o) {
		return false
	}
	for k, v := range c {
		w, ok := o[k]
		if !ok || !mat.EqualApprox(v, w, tol) {
			return false
		}
	}
	return true
}

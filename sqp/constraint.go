// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqp

import (
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// ErrDimension reports a shape inconsistent with the declared constraint
// dimension at linearization time. It is a fatal precondition violation: the
// linearization is aborted rather than producing a malformed factor.
var ErrDimension = errors.New("dimension mismatch")

// Evaluation evaluates a constraint function and its gradient.
//   - 𝒈(𝐱) : values of the bound variables → ℝᵖ
//   - 𝒈′(𝐱) : one p×dim Jacobian block per bound variable
type Evaluation struct {
	Function func(values []*mat.VecDense) *mat.VecDense
	Jacobian func(values []*mat.VecDense) []*mat.Dense
}

// Constraint represents one nonlinear equality 𝒈(𝐱) = 0 over N primal
// variables, coupled to a Lagrange-multiplier variable whose dimension always
// equals the constraint dimension p.
//
// A Constraint is immutable after construction and reused across all SQP
// iterations; ErrorVector and Linearize never mutate it.
type Constraint struct {
	keys []string
	dim  int
	mul  string
	eval Evaluation
}

// NewConstraint creates an equality constraint of arity len(keys).
//
// The caller is responsible for registering a multiplier variable of
// dimension p with the surrounding graph; this core checks the bound
// multiplier value against p at linearization time but does not itself
// manage variable registration.
func NewConstraint(eval Evaluation, p int, multiplierKey string, keys ...string) (c *Constraint, err error) {
	switch {
	case p <= 0:
		err = errors.New("constraint dimension must be greater than 0")
	case eval.Function == nil:
		err = errors.New("constraint function is required")
	case eval.Jacobian == nil:
		err = errors.New("constraint jacobian is required")
	case multiplierKey == "":
		err = errors.New("multiplier key is required")
	case len(keys) == 0:
		err = errors.New("at least one variable key is required")
	}
	if err != nil {
		return
	}
	for i, k := range keys {
		if k == "" {
			return nil, fmt.Errorf("empty variable key at %d", i)
		}
		if slices.Contains(keys[:i], k) {
			return nil, fmt.Errorf("duplicate variable key %q", k)
		}
	}
	return &Constraint{keys: slices.Clone(keys), dim: p, mul: multiplierKey, eval: eval}, nil
}

// Unary creates a single-variable equality constraint from typed closures.
func Unary(key string,
	g func(x *mat.VecDense) *mat.VecDense,
	jac func(x *mat.VecDense) *mat.Dense,
	p int, multiplierKey string) (*Constraint, error) {
	return NewConstraint(Evaluation{
		Function: func(v []*mat.VecDense) *mat.VecDense { return g(v[0]) },
		Jacobian: func(v []*mat.VecDense) []*mat.Dense { return []*mat.Dense{jac(v[0])} },
	}, p, multiplierKey, key)
}

// Binary creates a two-variable equality constraint from typed closures.
func Binary(key1, key2 string,
	g func(x1, x2 *mat.VecDense) *mat.VecDense,
	jac func(x1, x2 *mat.VecDense) (*mat.Dense, *mat.Dense),
	p int, multiplierKey string) (*Constraint, error) {
	return NewConstraint(Evaluation{
		Function: func(v []*mat.VecDense) *mat.VecDense { return g(v[0], v[1]) },
		Jacobian: func(v []*mat.VecDense) []*mat.Dense {
			a1, a2 := jac(v[0], v[1])
			return []*mat.Dense{a1, a2}
		},
	}, p, multiplierKey, key1, key2)
}

// Ternary creates a three-variable equality constraint from typed closures.
func Ternary(key1, key2, key3 string,
	g func(x1, x2, x3 *mat.VecDense) *mat.VecDense,
	jac func(x1, x2, x3 *mat.VecDense) (*mat.Dense, *mat.Dense, *mat.Dense),
	p int, multiplierKey string) (*Constraint, error) {
	return NewConstraint(Evaluation{
		Function: func(v []*mat.VecDense) *mat.VecDense { return g(v[0], v[1], v[2]) },
		Jacobian: func(v []*mat.VecDense) []*mat.Dense {
			a1, a2, a3 := jac(v[0], v[1], v[2])
			return []*mat.Dense{a1, a2, a3}
		},
	}, p, multiplierKey, key1, key2, key3)
}

// Keys returns the primal variable keys in construction order.
func (c *Constraint) Keys() []string { return slices.Clone(c.keys) }

// Dim returns the constraint dimension p.
func (c *Constraint) Dim() int { return c.dim }

// MultiplierKey returns the key of the coupled Lagrange-multiplier variable.
func (c *Constraint) MultiplierKey() string { return c.mul }

// values resolves the bound variables in declaration order.
func (c *Constraint) values(cfg Config) ([]*mat.VecDense, error) {
	vals := make([]*mat.VecDense, len(c.keys))
	for i, k := range c.keys {
		v, err := cfg.At(k)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

// ErrorVector evaluates the p-dimensional residual 𝒈(𝐱) at the values bound
// to this constraint's keys; the optimizer drives it to zero at convergence.
func (c *Constraint) ErrorVector(cfg Config) (*mat.VecDense, error) {
	vals, err := c.values(cfg)
	if err != nil {
		return nil, err
	}
	g := c.eval.Function(vals)
	if g.Len() != c.dim {
		return nil, fmt.Errorf("%w: residual length %d, want constraint dimension %d", ErrDimension, g.Len(), c.dim)
	}
	return g, nil
}

// Linearize expands the constraint at the point given by primal into a pair
// of Gaussian factors for one SQP step.
//
// The cost factor encodes the stationarity of the Lagrangian
// ℒ(𝐱,𝛌) = 𝒇(𝐱) + 𝛌ᵀ𝒈(𝐱) with respect to 𝐱 at the linearization point: per
// primal key the block 𝚍𝚒𝚊𝚐(𝛌)·𝐆ₖ, a unit-precision identity block on the
// multiplier key, and a zero right-hand side.
//
// The constraint factor encodes the first-order Taylor expansion
// 𝐆·𝚍𝐱 = -𝒈(𝐱) as hard equality rows (Sigma 0): per primal key the raw
// Jacobian block and right-hand side -𝒈.
func (c *Constraint) Linearize(primal, multipliers Config) (cost, constraint *GaussianFactor, err error) {
	vals, err := c.values(primal)
	if err != nil {
		return nil, nil, err
	}
	g := c.eval.Function(vals)
	if g.Len() != c.dim {
		return nil, nil, fmt.Errorf("%w: residual length %d, want constraint dimension %d", ErrDimension, g.Len(), c.dim)
	}
	jacs := c.eval.Jacobian(vals)
	if len(jacs) != len(c.keys) {
		return nil, nil, fmt.Errorf("%w: %d jacobian blocks for %d variables", ErrDimension, len(jacs), len(c.keys))
	}
	for i, a := range jacs {
		if r, _ := a.Dims(); r != c.dim {
			return nil, nil, fmt.Errorf("%w: jacobian block %q has %d rows, want %d", ErrDimension, c.keys[i], r, c.dim)
		}
	}
	lambda, err := multipliers.At(c.mul)
	if err != nil {
		return nil, nil, err
	}
	if lambda.Len() != c.dim {
		return nil, nil, fmt.Errorf("%w: multiplier %q has length %d, want %d", ErrDimension, c.mul, lambda.Len(), c.dim)
	}

	p := c.dim
	costTerms := make([]Term, len(c.keys)+1)
	hardTerms := make([]Term, len(c.keys))
	for i, jac := range jacs {
		_, cols := jac.Dims()
		scaled := mat.NewDense(p, cols, nil)
		for r := 0; r < p; r++ {
			lr := lambda.AtVec(r)
			for j := 0; j < cols; j++ {
				scaled.Set(r, j, lr*jac.At(r, j))
			}
		}
		costTerms[i] = Term{Key: c.keys[i], A: scaled}
		hardTerms[i] = Term{Key: c.keys[i], A: mat.DenseCopyOf(jac)}
	}
	eye := mat.NewDense(p, p, nil)
	for r := 0; r < p; r++ {
		eye.Set(r, r, 1)
	}
	costTerms[len(c.keys)] = Term{Key: c.mul, A: eye}

	neg := mat.NewVecDense(p, nil)
	neg.ScaleVec(-1, g)

	cost = &GaussianFactor{Terms: costTerms, B: mat.NewVecDense(p, nil), Sigma: 1}
	constraint = &GaussianFactor{Terms: hardTerms, B: neg, Sigma: 0}
	return cost, constraint, nil
}

// Equals reports whether both constraints reference identical primal keys in
// the same order, the same constraint dimension and the same multiplier key.
// The constraint and gradient functions are assumed equal when these match,
// per the caller's construction discipline; tol is accepted for symmetry
// with factor comparison and is not used by the structural checks.
func (c *Constraint) Equals(o *Constraint, tol float64) bool {
	_ = tol
	if c == nil || o == nil {
		return c == o
	}
	return c.dim == o.dim && c.mul == o.mul && slices.Equal(c.keys, o.keys)
}

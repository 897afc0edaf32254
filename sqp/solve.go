// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sqp

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/curioloop/manifold/lie"
)

// Termination specifies the stopping criteria for the SQP iteration.
type Termination struct {
	// The iteration stops when the number of iterations exceeds the limit.
	MaxIterations int
	// The iteration stops when the solved correction norm ‖𝐳ₖ‖ < 𝚍𝚡𝚝𝚘𝚕.
	XDiffTolerance float64
}

// Problem specifies an equality-constrained estimation problem for the SQP
// driver: minimize 𝒇(𝐱) subject to 𝒈ⱼ(𝐱) = 0 for every constraint j, where 𝐱
// may include manifold-valued variables.
type Problem struct {
	// Constraints are the nonlinear equality constraints.
	Constraints []*Constraint
	// Soft linearizes the objective 𝒇 at the current estimate into soft cost
	// factors. Optional: a nil Soft solves a pure feasibility problem.
	Soft func(primal Config) []*GaussianFactor
	// Charts maps variable keys to the retraction applied to their
	// corrections. Unregistered variables are treated as Euclidean.
	Charts map[string]lie.Retraction
	// Stop condition.
	Stop Termination
}

// New validates the problem and creates an SQP solver for it.
func (p *Problem) New() (solver *Solver, err error) {
	switch {
	case len(p.Constraints) == 0:
		err = errors.New("at least one constraint is required")
	case p.Stop.MaxIterations <= 0:
		err = errors.New("max iterations must be greater than 0")
	case !(p.Stop.XDiffTolerance > 0):
		err = errors.New("correction tolerance must be greater than 0")
	}
	if err != nil {
		return
	}
	for i, c := range p.Constraints {
		if c == nil {
			return nil, fmt.Errorf("constraint error at %d", i)
		}
	}
	charts := make(map[string]lie.Retraction, len(p.Charts))
	for k, r := range p.Charts {
		if r == nil {
			return nil, fmt.Errorf("chart error at %q", k)
		}
		charts[k] = r
	}
	return &Solver{
		cons:   append([]*Constraint(nil), p.Constraints...),
		soft:   p.Soft,
		charts: charts,
		stop:   p.Stop,
	}, nil
}

// Solver runs SQP iterations: linearize every constraint, solve the
// assembled KKT system for the tangent-space corrections, retract each
// primal variable through its chart and update the multipliers directly.
type Solver struct {
	cons   []*Constraint
	soft   func(Config) []*GaussianFactor
	charts map[string]lie.Retraction
	stop   Termination
}

// Result contains the final state of the optimization process.
type Result struct {
	OK          bool   // Whether the iteration converged.
	X           Config // Final primal estimate.
	Multipliers Config // Final multiplier estimate.
	Summary
}

// Summary contains a summary of the optimization process.
type Summary struct {
	NumIter int // Number of iterations performed.
}

// span is the column range assigned to one variable in the KKT system.
type span struct {
	key      string
	off, dim int
}

// Fit runs the optimization from the given primal and multiplier estimates.
// The inputs are not mutated; the returned Result holds the updated copies.
func (s *Solver) Fit(primal, multipliers Config) (*Result, error) {
	x := primal.Clone()
	lam := multipliers.Clone()
	res := &Result{X: x, Multipliers: lam}

	for iter := 1; iter <= s.stop.MaxIterations; iter++ {
		res.NumIter = iter

		var soft, hard []*GaussianFactor
		if s.soft != nil {
			for _, f := range s.soft(x) {
				if f.Sigma == 0 {
					hard = append(hard, f)
				} else {
					soft = append(soft, f)
				}
			}
		}
		for _, c := range s.cons {
			cf, hf, err := c.Linearize(x, lam)
			if err != nil {
				return nil, err
			}
			soft = append(soft, cf)
			hard = append(hard, hf)
		}

		z, cols, err := s.solveStep(soft, hard, x, lam)
		if err != nil {
			return nil, err
		}

		for _, c := range cols {
			dx := z[c.off : c.off+c.dim]
			if v, ok := x[c.key]; ok {
				if r, ok := s.charts[c.key]; ok {
					y := r.Retract(v.RawVector().Data, dx)
					x[c.key] = mat.NewVecDense(len(y), y)
				} else {
					for i, d := range dx {
						v.SetVec(i, v.AtVec(i)+d)
					}
				}
				continue
			}
			// Multiplier space is Euclidean.
			v := lam[c.key]
			for i, d := range dx {
				v.SetVec(i, v.AtVec(i)+d)
			}
		}

		if floats.Norm(z, 2) < s.stop.XDiffTolerance {
			res.OK = true
			break
		}
	}
	return res, nil
}

// solveStep assembles and solves one KKT system
//
//	⎡𝐀ᵀ𝐀  𝐇ᵀ⎤⎡𝐳⎤   ⎡𝐀ᵀ𝐛⎤
//	⎣𝐇    𝟎 ⎦⎣𝛎⎦ = ⎣𝐛ₕ ⎦
//
// where 𝐀,𝐛 stack the soft rows weighted by 1/𝛔 and 𝐇,𝐛ₕ stack the hard
// equality rows. It returns the correction 𝐳 and the column layout.
func (s *Solver) solveStep(soft, hard []*GaussianFactor, x, lam Config) ([]float64, []span, error) {
	index := make(map[string]int)
	var cols []span
	n := 0
	bind := func(key string) error {
		if _, ok := index[key]; ok {
			return nil
		}
		v, ok := x[key]
		if !ok {
			if v, ok = lam[key]; !ok {
				return fmt.Errorf("%w: %q", ErrMissingKey, key)
			}
		}
		dim := v.Len()
		if r, ok := s.charts[key]; ok {
			if v.Len() != r.AmbientDim() {
				return fmt.Errorf("%w: variable %q has length %d, chart ambient dimension %d",
					ErrDimension, key, v.Len(), r.AmbientDim())
			}
			dim = r.TangentDim()
		}
		index[key] = len(cols)
		cols = append(cols, span{key: key, off: n, dim: dim})
		n += dim
		return nil
	}

	ms, mh := 0, 0
	for _, f := range soft {
		ms += f.Rows()
		for _, t := range f.Terms {
			if err := bind(t.Key); err != nil {
				return nil, nil, err
			}
		}
	}
	for _, f := range hard {
		mh += f.Rows()
		for _, t := range f.Terms {
			if err := bind(t.Key); err != nil {
				return nil, nil, err
			}
		}
	}

	fill := func(a *mat.Dense, b *mat.VecDense, factors []*GaussianFactor, weighted bool) error {
		row := 0
		for _, f := range factors {
			w := 1.0
			if weighted {
				w = 1 / f.Sigma
			}
			p := f.Rows()
			for _, t := range f.Terms {
				c := cols[index[t.Key]]
				if _, tc := t.A.Dims(); tc != c.dim {
					return fmt.Errorf("%w: block %q has %d columns, variable dimension %d",
						ErrDimension, t.Key, tc, c.dim)
				}
				for r := 0; r < p; r++ {
					for j := 0; j < c.dim; j++ {
						a.Set(row+r, c.off+j, w*t.A.At(r, j))
					}
				}
			}
			for r := 0; r < p; r++ {
				b.SetVec(row+r, w*f.B.AtVec(r))
			}
			row += p
		}
		return nil
	}

	a := mat.NewDense(ms, n, nil)
	bs := mat.NewVecDense(ms, nil)
	if err := fill(a, bs, soft, true); err != nil {
		return nil, nil, err
	}
	h := mat.NewDense(mh, n, nil)
	bh := mat.NewVecDense(mh, nil)
	if err := fill(h, bh, hard, false); err != nil {
		return nil, nil, err
	}

	dim := n + mh
	kkt := mat.NewDense(dim, dim, nil)
	var ata mat.Dense
	ata.Mul(a.T(), a)
	kkt.Slice(0, n, 0, n).(*mat.Dense).Copy(&ata)
	kkt.Slice(0, n, n, dim).(*mat.Dense).Copy(h.T())
	kkt.Slice(n, dim, 0, n).(*mat.Dense).Copy(h)

	rhs := mat.NewVecDense(dim, nil)
	var atb mat.VecDense
	atb.MulVec(a.T(), bs)
	rhs.SliceVec(0, n).(*mat.VecDense).CopyVec(&atb)
	rhs.SliceVec(n, dim).(*mat.VecDense).CopyVec(bh)

	var sol mat.VecDense
	if err := sol.SolveVec(kkt, rhs); err != nil {
		return nil, nil, fmt.Errorf("kkt solve: %w", err)
	}

	z := make([]float64, n)
	for i := range z {
		z[i] = sol.AtVec(i)
	}
	return z, cols, nil
}

// Package numdiff approximates Jacobians by finite differences.
//
// It exists to cross-check the analytic gradients supplied with nonlinear
// constraints: the SQP linearization is only exact when the user Jacobian is,
// so tests compare it against a finite-difference approximation.
//
// # Reference:
//
//   - https://en.wikipedia.org/wiki/Finite_difference
package numdiff

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	sqrtEps = math.Sqrt(math.Nextafter(1, 2) - 1)
	cubeEps = math.Pow(math.Nextafter(1, 2)-1, float64(1)/3)
)

type Method int

const (
	// Forward uses the first order accuracy forward difference.
	Forward Method = iota
	// Central uses the second order accuracy central difference.
	Central
)

// Jacobian approximates the M×N Jacobian of a vector function.
type Jacobian struct {
	N, M int
	// Func evaluates y = 𝒇(x) with x an n-vector; the result is stored in
	// the m-vector y.
	Func func(x, y []float64)
	// Finite difference method to use.
	Method Method
	// Relative step size used to compute the absolute step size as
	// h = RelStep × sign(x₀) × max(1, |x₀|). Selected automatically when 0:
	// √ε for Forward, ∛ε for Central.
	RelStep float64
}

// At computes the Jacobian at x0 into dst, which is allocated when nil.
func (j *Jacobian) At(x0 []float64, dst *mat.Dense) (*mat.Dense, error) {
	switch {
	case j.N <= 0 || j.M <= 0:
		return nil, errors.New("negative dimensions")
	case j.Method != Forward && j.Method != Central:
		return nil, errors.New("unknown method")
	case j.Func == nil:
		return nil, errors.New("function is required")
	case len(x0) != j.N:
		return nil, errors.New("invalid x0 dimensions")
	}
	if dst == nil {
		dst = mat.NewDense(j.M, j.N, nil)
	} else if r, c := dst.Dims(); r != j.M || c != j.N {
		return nil, errors.New("invalid dst dimensions")
	}

	rel := j.RelStep
	if rel == 0 {
		if j.Method == Central {
			rel = cubeEps
		} else {
			rel = sqrtEps
		}
	}

	x := make([]float64, j.N)
	copy(x, x0)
	y1 := make([]float64, j.M)
	y2 := make([]float64, j.M)
	if j.Method == Forward {
		j.Func(x, y1)
	}

	for i := 0; i < j.N; i++ {
		h := rel * math.Max(1, math.Abs(x0[i]))
		if math.Signbit(x0[i]) {
			h = -h
		}
		switch j.Method {
		case Forward:
			x[i] = x0[i] + h
			j.Func(x, y2)
			// Recompute the exact step: x₀+h may not be representable.
			d := 1 / (x[i] - x0[i])
			for r := 0; r < j.M; r++ {
				dst.Set(r, i, (y2[r]-y1[r])*d)
			}
		case Central:
			x[i] = x0[i] - h
			j.Func(x, y1)
			lo := x[i]
			x[i] = x0[i] + h
			j.Func(x, y2)
			d := 1 / (x[i] - lo)
			for r := 0; r < j.M; r++ {
				dst.Set(r, i, (y2[r]-y1[r])*d)
			}
		}
		x[i] = x0[i]
	}
	return dst, nil
}

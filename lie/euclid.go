// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lie

// Rn is the trivial chart on Euclidean space ℝⁿ: Expmap and Logmap are the
// identity and retraction is vector addition. It lets the optimizer treat
// Euclidean and manifold-valued variables uniformly.
type Rn struct {
	N int
}

var (
	_ Chart[[]float64] = Rn{}
	_ Retraction       = Rn{}
)

func (c Rn) Dim() int { return c.N }

func (c Rn) Expmap(v []float64) []float64 {
	g := make([]float64, c.N)
	copy(g, v)
	return g
}

func (c Rn) Logmap(g []float64) []float64 {
	v := make([]float64, c.N)
	copy(v, g)
	return v
}

func (c Rn) Retract(base, v []float64) []float64 {
	g := make([]float64, c.N)
	for i := range g {
		g[i] = base[i] + v[i]
	}
	return g
}

func (c Rn) Local(base, g []float64) []float64 {
	v := make([]float64, c.N)
	for i := range v {
		v[i] = g[i] - base[i]
	}
	return v
}

func (c Rn) AmbientDim() int { return c.N }
func (c Rn) TangentDim() int { return c.N }

// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lie

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/num/quat"
)

func almostEqual(a, b []float64, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

func quatEqual(a, b quat.Number, tol float64) bool {
	return math.Abs(a.Real-b.Real) <= tol &&
		math.Abs(a.Imag-b.Imag) <= tol &&
		math.Abs(a.Jmag-b.Jmag) <= tol &&
		math.Abs(a.Kmag-b.Kmag) <= tol
}

func TestQuaternionExpmapIdentity(t *testing.T) {
	q := Quaternion{}.Expmap([]float64{0, 0, 0})
	// Exact identity: no trigonometric round-off allowed.
	if q != (quat.Number{Real: 1}) {
		t.Fatalf("Expmap(0) = %v, want exact identity", q)
	}
}

func TestQuaternionExpmapAngleAxis(t *testing.T) {
	c := Quaternion{}
	axis := []float64{0, 0, 1}
	for _, angle := range []float64{1e-8, 0.3, math.Pi / 2, math.Pi - 1e-6, 2.5} {
		a := c.ExpmapAngleAxis(angle, axis)
		b := c.Expmap([]float64{0, 0, angle})
		if !quatEqual(a, b, 1e-15) {
			t.Fatalf("angle %v: ExpmapAngleAxis %v != Expmap %v", angle, a, b)
		}
	}
}

// Logmap(Expmap(v)) = v for ‖v‖ < π.
func TestQuaternionLogmapRoundTrip(t *testing.T) {
	c := Quaternion{}
	cases := [][]float64{
		{0, 0, 0},
		{1e-12, 0, 0},
		{1e-7, -2e-7, 3e-7},
		{0.1, 0.2, 0.3},
		{-1.2, 0.4, 0.9},
		{0, 0, math.Pi - 1e-9},
		{math.Pi - 1e-3, 0, 0},
		{-2.0, 1.5, 1.0},
	}
	for _, v := range cases {
		got := c.Logmap(c.Expmap(v))
		if !almostEqual(got, v, 1e-9) {
			t.Fatalf("Logmap(Expmap(%v)) = %v", v, got)
		}
	}
}

// Expmap(Logmap(q)) = q up to the double-cover sign: q and -q represent the
// same rotation, so recovering the antipode is correct behaviour.
func TestQuaternionDoubleCover(t *testing.T) {
	c := Quaternion{}
	cases := []quat.Number{
		{Real: 1},
		{Real: math.Cos(0.4), Kmag: math.Sin(0.4)},
		{Real: math.Cos(1.5), Imag: math.Sin(1.5)},
		{Real: -math.Cos(0.3), Jmag: math.Sin(0.3)}, // w < 0 branch
		{Real: 0, Imag: 1},                          // half turn, w = 0
	}
	for _, q := range cases {
		r := c.Expmap(c.Logmap(q))
		neg := quat.Number{Real: -q.Real, Imag: -q.Imag, Jmag: -q.Jmag, Kmag: -q.Kmag}
		if !quatEqual(r, q, 1e-9) && !quatEqual(r, neg, 1e-9) {
			t.Fatalf("Expmap(Logmap(%v)) = %v, want ±q", q, r)
		}
	}
}

// The exact antipodal point is a defined branch, not a failure.
func TestQuaternionLogmapAntipodal(t *testing.T) {
	got := Quaternion{}.Logmap(quat.Number{Real: -1})
	if !almostEqual(got, []float64{0, 0, 0}, 0) {
		t.Fatalf("Logmap(-1) = %v, want zero vector", got)
	}
}

// Logmap must vary continuously as the group element crosses the angle = π
// boundary. On the cut locus the tangent ±π·axis is identified with its
// negative, so continuity is measured on the represented rotation and on the
// tangent norm, which re-branching into [-π,π] keeps bounded by π.
func TestQuaternionLogmapContinuity(t *testing.T) {
	c := Quaternion{}
	axis := []float64{0, 1, 0}
	angles := []float64{math.Pi - 1e-4, math.Pi - 5e-5, math.Pi, math.Pi + 5e-5, math.Pi + 1e-4}
	prev := c.Logmap(c.ExpmapAngleAxis(angles[0], axis))
	for _, angle := range angles[1:] {
		cur := c.Logmap(c.ExpmapAngleAxis(angle, axis))
		dn := math.Abs(math.Abs(cur[1]) - math.Abs(prev[1]))
		if dn > 1e-3 {
			t.Fatalf("norm discontinuity at angle %v: |Δ| = %v", angle, dn)
		}
		if math.Abs(cur[1]) > math.Pi+1e-12 {
			t.Fatalf("angle %v: tangent %v left the [-π,π] branch", angle, cur)
		}
		prev = cur
	}
	// Past π the branch flips to the equivalent negative representative.
	v := c.Logmap(c.ExpmapAngleAxis(math.Pi+1e-4, axis))
	if v[1] > 0 {
		t.Fatalf("angle π+ε maps to %v, want negative branch", v)
	}
}

// Crossing the antipodal point w = -1 (rotation angle 0 mod 2π) the
// re-branched Logmap passes continuously through the zero vector; without
// the [-π,π] conversion it would jump by ≈4π.
func TestQuaternionLogmapAntipodalCrossing(t *testing.T) {
	c := Quaternion{}
	axis := []float64{0, 1, 0}
	prev := c.Logmap(c.ExpmapAngleAxis(twoPi-1e-4, axis))
	for _, angle := range []float64{twoPi - 5e-5, twoPi + 5e-5, twoPi + 1e-4} {
		cur := c.Logmap(c.ExpmapAngleAxis(angle, axis))
		if step := math.Abs(cur[1] - prev[1]); step > 1e-3 {
			t.Fatalf("discontinuity at angle %v: |Δ| = %v", angle, step)
		}
		prev = cur
	}
}

func TestQuaternionRetractLocal(t *testing.T) {
	c := Quaternion{}
	base := c.Expmap([]float64{0.3, -0.2, 0.5})
	v := []float64{0.05, 0.1, -0.04}
	got := c.Local(base, c.Retract(base, v))
	if !almostEqual(got, v, 1e-12) {
		t.Fatalf("Local(base, Retract(base, %v)) = %v", v, got)
	}
}

func TestQuatVecRetract(t *testing.T) {
	x := []float64{1, 0, 0, 0}
	dx := []float64{0, 0, 0.2}
	y := QuatVec{}.Retract(x, dx)
	want := Quaternion{}.Expmap(dx)
	if !almostEqual(y, []float64{want.Real, want.Imag, want.Jmag, want.Kmag}, 1e-15) {
		t.Fatalf("Retract = %v", y)
	}
	norm := math.Sqrt(y[0]*y[0] + y[1]*y[1] + y[2]*y[2] + y[3]*y[3])
	if math.Abs(norm-1) > 1e-15 {
		t.Fatalf("retracted quaternion not unit: %v", norm)
	}
}

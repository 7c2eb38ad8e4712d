// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package kernel provides the geometric predicates and constructions on
// weighted points used by the regular triangulation and the exuder.
package kernel

import (
	"errors"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// WeightedPoint is a point with a weight interpreted as a squared radius.
type WeightedPoint struct {
	P r3.Vector
	W float64
}

// Point returns a WeightedPoint of weight zero.
func Point(x, y, z float64) WeightedPoint {
	return WeightedPoint{P: r3.Vector{X: x, Y: y, Z: z}}
}

// Orient returns (b-a)·((c-a)×(d-a)). It is positive when a, b, c, d form a
// positively oriented tetrahedron and zero when they are coplanar.
func Orient(a, b, c, d r3.Vector) float64 {
	return b.Sub(a).Dot(c.Sub(a).Cross(d.Sub(a)))
}

// SquaredDistance returns |a-b|².
func SquaredDistance(a, b r3.Vector) float64 {
	return a.Sub(b).Norm2()
}

// Orthosphere returns the center and the weight of the sphere orthogonal to
// the four weighted points. ok is false when the points are coplanar.
func Orthosphere(p [4]WeightedPoint) (center r3.Vector, weight float64, ok bool) {
	// |p_i - z|² - w_i = w_z for all i, minus the first equation:
	// 2 (p_i - p_0)·z = |p_i|² - |p_0|² - w_i + w_0.
	a := make([]float64, 0, 9)
	b := make([]float64, 0, 3)
	n0 := p[0].P.Norm2()
	for i := 1; i < 4; i++ {
		d := p[i].P.Sub(p[0].P)
		a = append(a, 2*d.X, 2*d.Y, 2*d.Z)
		b = append(b, p[i].P.Norm2()-n0-p[i].W+p[0].W)
	}

	z, err := solve(3, a, b)
	if err != nil {
		return r3.Vector{}, 0, false
	}
	center = r3.Vector{X: z[0], Y: z[1], Z: z[2]}
	return center, SquaredDistance(center, p[0].P) - p[0].W, true
}

// CriticalSquaredRadius returns the weight at which a point centered at t
// becomes orthogonal to the orthosphere of the cell: any larger weight puts
// it in conflict with the cell. It returns +Inf for degenerate cells.
func CriticalSquaredRadius(cell [4]WeightedPoint, t r3.Vector) float64 {
	z, wz, ok := Orthosphere(cell)
	if !ok {
		return math.Inf(1)
	}
	return SquaredDistance(t, z) - wz
}

// PowerTest returns the power of p with respect to the orthosphere of the
// cell. It is negative when p is in conflict with the cell.
func PowerTest(cell [4]WeightedPoint, p WeightedPoint) float64 {
	return CriticalSquaredRadius(cell, p.P) - p.W
}

// CoplanarPowerTest returns the power of p with respect to the orthocircle of
// the triangle abc, measured in the plane of the triangle. p is expected to
// lie in that plane. A negative result means conflict. It returns +Inf for
// degenerate triangles.
func CoplanarPowerTest(a, b, c, p WeightedPoint) float64 {
	u := b.P.Sub(a.P)
	v := c.P.Sub(a.P)
	// z - a = s u + t v with 2 u·(z-a) = |u|² - w_b + w_a and the same for v.
	uu, uv, vv := u.Dot(u), u.Dot(v), v.Dot(v)
	st, err := solve(2,
		[]float64{2 * uu, 2 * uv, 2 * uv, 2 * vv},
		[]float64{uu - b.W + a.W, vv - c.W + a.W})
	if err != nil {
		return math.Inf(1)
	}
	za := u.Mul(st[0]).Add(v.Mul(st[1]))
	wz := za.Norm2() - a.W
	z := a.P.Add(za)
	return SquaredDistance(p.P, z) - wz - p.W
}

var errDegenerate = errors.New("kernel: degenerate system")

// solve returns x with A x = b for the n×n row-major matrix A.
// Ill-conditioned systems are accepted; slivers are ill-conditioned by nature.
func solve(n int, a, b []float64) ([]float64, error) {
	var x mat.VecDense
	err := x.SolveVec(mat.NewDense(n, n, a), mat.NewVecDense(n, b))
	if err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, errDegenerate
		}
	}
	out := make([]float64, n)
	for i := range n {
		out[i] = x.AtVec(i)
		if math.IsNaN(out[i]) || math.IsInf(out[i], 0) {
			return nil, errDegenerate
		}
	}
	return out, nil
}

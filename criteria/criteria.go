// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package criteria implements tetrahedron quality measures used to detect
// slivers. Higher values are better; degenerate tetrahedra score zero.
package criteria

import (
	"math"

	"github.com/golang/geo/r3"
)

// Criterion evaluates the quality of a tetrahedron.
type Criterion interface {
	// Value returns the quality of the tetrahedron abcd. It does not depend
	// on the orientation of the tetrahedron.
	Value(a, b, c, d r3.Vector) float64
	// DefaultBound is the quality under which a tetrahedron is a sliver.
	DefaultBound() float64
	// MaxValue is an upper bound of Value.
	MaxValue() float64
}

// MinDihedralAngle measures the smallest dihedral angle, in degrees.
type MinDihedralAngle struct{}

var _ Criterion = MinDihedralAngle{}

func (MinDihedralAngle) DefaultBound() float64 { return 12 }

func (MinDihedralAngle) MaxValue() float64 { return 180 }

func (MinDihedralAngle) Value(a, b, c, d r3.Vector) float64 {
	p := [4]r3.Vector{a, b, c, d}
	minAngle := math.Inf(1)
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			k, l := otherTwo(i, j)
			angle := DihedralAngle(p[i], p[j], p[k], p[l])
			minAngle = math.Min(minAngle, angle)
		}
	}
	return minAngle
}

// DihedralAngle returns the angle in degrees between the faces abc and abd
// along the edge ab. It returns zero for degenerate faces.
func DihedralAngle(a, b, c, d r3.Vector) float64 {
	e := b.Sub(a)
	n1 := e.Cross(c.Sub(a))
	n2 := e.Cross(d.Sub(a))
	l := n1.Norm() * n2.Norm()
	if l == 0 {
		return 0
	}
	cos := math.Max(-1, math.Min(1, n1.Dot(n2)/l))
	return math.Acos(cos) * 180 / math.Pi
}

// RadiusRatio measures 3·inradius/circumradius, which is 1 for the regular
// tetrahedron.
type RadiusRatio struct{}

var _ Criterion = RadiusRatio{}

func (RadiusRatio) DefaultBound() float64 { return 0.25 }

func (RadiusRatio) MaxValue() float64 { return 1 }

func (RadiusRatio) Value(a, b, c, d r3.Vector) float64 {
	u, v, w := b.Sub(a), c.Sub(a), d.Sub(a)
	det := u.Dot(v.Cross(w))
	if det == 0 {
		return 0
	}
	// Circumcenter relative to a.
	o := v.Cross(w).Mul(u.Norm2()).
		Add(w.Cross(u).Mul(v.Norm2())).
		Add(u.Cross(v).Mul(w.Norm2())).
		Mul(1 / (2 * det))
	circumradius := o.Norm()

	area := triangleArea(b, c, d) + triangleArea(a, c, d) +
		triangleArea(a, b, d) + triangleArea(a, b, c)
	if area == 0 || circumradius == 0 {
		return 0
	}
	inradius := math.Abs(det) / 2 / area // 3V / A with V = |det|/6
	return math.Min(1, 3*inradius/circumradius)
}

func triangleArea(a, b, c r3.Vector) float64 {
	return b.Sub(a).Cross(c.Sub(a)).Norm() / 2
}

func otherTwo(i, j int) (int, int) {
	var out [2]int
	n := 0
	for k := 0; k < 4; k++ {
		if k != i && k != j {
			out[n] = k
			n++
		}
	}
	return out[0], out[1]
}

// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package criteria

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
)

var (
	regular = [4]r3.Vector{
		{X: 1, Y: 1, Z: 1},
		{X: 1, Y: -1, Z: -1},
		{X: -1, Y: 1, Z: -1},
		{X: -1, Y: -1, Z: 1},
	}
	sliver = [4]r3.Vector{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: 0},
		{X: 1, Y: 1, Z: 0.01},
	}
	flat = [4]r3.Vector{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: 0},
		{X: 1, Y: 1, Z: 0},
	}
)

func TestCriteria_Values(t *testing.T) {
	regularAngle := math.Acos(1.0/3) * 180 / math.Pi
	tests := []struct {
		name    string
		crit    Criterion
		tet     [4]r3.Vector
		want    float64
		epsilon float64
	}{
		{"dihedral regular", MinDihedralAngle{}, regular, regularAngle, 1e-9},
		{"dihedral flat", MinDihedralAngle{}, flat, 0, 1e-9},
		{"ratio regular", RadiusRatio{}, regular, 1, 1e-9},
		{"ratio flat", RadiusRatio{}, flat, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.crit.Value(tt.tet[0], tt.tet[1], tt.tet[2], tt.tet[3])
			if math.Abs(got-tt.want) > tt.epsilon {
				t.Errorf("%T.Value(%v) = %v, want %v", tt.crit, tt.tet, got, tt.want)
			}
		})
	}
}

func TestCriteria_SliverBelowDefaultBound(t *testing.T) {
	for _, crit := range []Criterion{MinDihedralAngle{}, RadiusRatio{}} {
		got := crit.Value(sliver[0], sliver[1], sliver[2], sliver[3])
		if got >= crit.DefaultBound() {
			t.Errorf("%T.Value(sliver) = %v, want < %v", crit, got, crit.DefaultBound())
		}
		if got < 0 || got > crit.MaxValue() {
			t.Errorf("%T.Value(sliver) = %v, want in [0 %v]", crit, got, crit.MaxValue())
		}
	}
}

func TestCriteria_OrientationIndependent(t *testing.T) {
	for _, crit := range []Criterion{MinDihedralAngle{}, RadiusRatio{}} {
		a := crit.Value(sliver[0], sliver[1], sliver[2], sliver[3])
		b := crit.Value(sliver[1], sliver[0], sliver[2], sliver[3])
		if math.Abs(a-b) > 1e-9 {
			t.Errorf("%T.Value differs with orientation: %v vs %v", crit, a, b)
		}
	}
}

func TestDihedralAngle(t *testing.T) {
	a := r3.Vector{}
	b := r3.Vector{X: 1}
	c := r3.Vector{Y: 1}
	d := r3.Vector{Z: 1}
	if got := DihedralAngle(a, b, c, d); math.Abs(got-90) > 1e-9 {
		t.Errorf("DihedralAngle(right corner) = %v, want 90", got)
	}
	if got := DihedralAngle(a, a, c, d); got != 0 {
		t.Errorf("DihedralAngle(degenerate edge) = %v, want 0", got)
	}
}

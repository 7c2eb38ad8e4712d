// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package exuder

import (
	"fmt"
	"math"
	"slices"

	"github.com/2dChan/exuder/kernel"
	"github.com/2dChan/exuder/regular"
)

const ratioTolerance = 1e-8

// checkPreStar panics unless the pre-star computed for v at weight wp.W has
// the facets of the conflict zone of wp that face a finite cell.
func (e *Exuder) checkPreStar(pre *preStar, wp kernel.WeightedPoint, v regular.VertexID) {
	if pre == nil {
		panic("checkPreStar: no pre-star recorded")
	}
	zone, _ := e.tr.FindConflicts(wp, e.tr.VertexCell(v), nil)
	want := make(map[[3]regular.VertexID]bool)
	for _, f := range zone.Boundary {
		if e.tr.IsInfinite(e.tr.MirrorFacet(f).Cell) {
			continue
		}
		want[e.tr.SortedFacetVertices(f)] = true
	}

	keys := pre.Keys()
	if len(keys) != len(want) {
		panic(fmt.Sprintf("checkPreStar: %d facets, conflict zone has %d", len(keys), len(want)))
	}
	for _, f := range keys {
		if !want[e.tr.SortedFacetVertices(f)] {
			panic(fmt.Sprintf("checkPreStar: facet %v is not on the conflict zone boundary", f))
		}
	}
}

// checkRatios panics unless values are the qualities of the cells that v
// at weight wp.W would have in the complex.
func (e *Exuder) checkRatios(values map[regular.Facet]float64, wp kernel.WeightedPoint, v regular.VertexID) {
	zone, _ := e.tr.FindConflicts(wp, e.tr.VertexCell(v), nil)
	var want []float64
	for _, f := range zone.Boundary {
		if !e.c.IsCellInComplex(f.Cell) {
			continue
		}
		t := e.tr.FacetVertices(f)
		a, b, c := e.tr.Point(t[0]).P, e.tr.Point(t[1]).P, e.tr.Point(t[2]).P
		want = append(want, e.opts.Criterion.Value(wp.P, a, b, c))
	}
	got := make([]float64, 0, len(values))
	for _, x := range values {
		got = append(got, x)
	}

	if len(got) != len(want) {
		panic(fmt.Sprintf("checkRatios: %d values, expected %d", len(got), len(want)))
	}
	slices.Sort(got)
	slices.Sort(want)
	for i := range got {
		if math.Abs(got[i]-want[i]) > ratioTolerance {
			panic(fmt.Sprintf("checkRatios: value %v, expected %v", got[i], want[i]))
		}
	}
}

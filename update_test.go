// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package exuder

import (
	"testing"

	"github.com/2dChan/exuder/complex"
	"github.com/2dChan/exuder/regular"
	"github.com/2dChan/exuder/utils"
)

// pumpable returns a vertex of a queued cell whose best weight, computed as
// worker, improves it.
func pumpable(t *testing.T, e *Exuder, worker int) (regular.VertexID, float64) {
	t.Helper()
	for _, c := range e.queue.Cells() {
		for _, v := range e.tr.CellVertices(c) {
			w, _ := e.bestWeight(v, worker)
			e.strategy.UnlockAll(worker)
			if w > e.tr.Point(v).W {
				return v, w
			}
		}
	}
	t.Fatalf("no pumpable vertex")
	return regular.NoVertex, 0
}

func TestUpdateMesh(t *testing.T) {
	c := mustNewComplex(t, 200, 15)
	e := mustNewExuder(t, c)
	e.init(defaultBound)

	old, weight := pumpable(t, e, 0)
	wp := e.tr.Point(old)
	wp.W = weight
	zone, _ := e.tr.FindConflicts(wp, e.tr.VertexCell(old), nil)
	dim, index := c.Dimension(old), c.Index(old)
	numFacets := c.NumFacets()

	nv, locked := e.updateMesh(wp, old, 0)
	if !locked {
		t.Fatalf("updateMesh(...) locked = false, want true")
	}
	if nv == regular.NoVertex {
		t.Fatalf("updateMesh(...) = NoVertex, want new vertex")
	}
	mustBeValid(t, c)

	if got := len(e.tr.IncidentCells(nv)); got != len(zone.Boundary) {
		t.Errorf("star of new vertex has %d cells, want %d", got, len(zone.Boundary))
	}
	if !e.tr.IsHidden(old) {
		t.Errorf("IsHidden(%d) = false, want true", old)
	}
	if got := c.Dimension(old); got != -1 {
		t.Errorf("Dimension(%d) = %d after pump, want -1", old, got)
	}
	if got, gotIndex := c.Dimension(nv), c.Index(nv); got != dim || gotIndex != index {
		t.Errorf("new vertex dimension, index = %d, %d, want %d, %d", got, gotIndex, dim, index)
	}
	if got := e.tr.Point(nv); got != wp {
		t.Errorf("Point(%d) = %v, want %v", nv, got, wp)
	}
	if dim == 3 && c.NumFacets() != numFacets {
		t.Errorf("NumFacets() = %d after pumping an inner vertex, want %d", c.NumFacets(), numFacets)
	}
	for _, cell := range zone.Cells {
		if e.queue.Contains(cell) && !c.IsCellInComplex(cell) {
			t.Errorf("destroyed cell %d still queued", cell)
		}
	}
}

// mustNewHullComplex meshes n random points with the domain bounded by their
// convex hull, so that hull vertices are complex vertices.
func mustNewHullComplex(t *testing.T, n int, seed int64) *complex.Complex {
	t.Helper()
	points := utils.GenerateRandomPoints(n, seed)
	tr, err := regular.NewTriangulation(utils.Weighted(points))
	if err != nil {
		t.Fatalf("regular.NewTriangulation(...) error = %v, want nil", err)
	}
	d, err := complex.NewConvexDomain(points, 1)
	if err != nil {
		t.Fatalf("complex.NewConvexDomain(...) error = %v, want nil", err)
	}
	c, err := complex.Build(tr, d)
	if err != nil {
		t.Fatalf("complex.Build(...) error = %v, want nil", err)
	}
	return c
}

func TestUpdateMesh_HullVertex(t *testing.T) {
	c := mustNewHullComplex(t, 200, 0)
	e := mustNewExuder(t, c)
	e.init(defaultBound)

	hull := e.tr.AdjacentVertices(regular.Infinite)
	for _, old := range hull[:min(5, len(hull))] {
		dim := c.Dimension(old)
		if dim < 0 {
			t.Fatalf("Dimension(%d) = %d for a hull vertex, want a complex vertex", old, dim)
		}
		numVertices := e.tr.NumVertices()
		wp := e.tr.Point(old)
		wp.W += 1e-4

		nv, locked := e.updateMesh(wp, old, 0)
		if !locked || nv == regular.NoVertex {
			t.Fatalf("updateMesh(%d) = %d, %v, want a new vertex", old, nv, locked)
		}
		if !e.tr.IsHidden(old) {
			t.Errorf("IsHidden(%d) = false after pumping a hull vertex, want true", old)
		}
		if got := e.tr.NumVertices(); got != numVertices {
			t.Errorf("NumVertices() = %d after pumping, want %d", got, numVertices)
		}
		if got := c.Dimension(nv); got != dim {
			t.Errorf("Dimension(%d) = %d, want %d", nv, got, dim)
		}
		mustBeValid(t, c)
	}
}

func TestExude_HullComplex(t *testing.T) {
	c := mustNewHullComplex(t, 200, 1)
	e := mustNewExuder(t, c)
	if got := e.Exude(defaultBound, nil); got == TimeLimitReached {
		t.Fatalf("Exude(...) = %v, want no time limit", got)
	}
	mustBeValid(t, c)
}

func TestCoversStar(t *testing.T) {
	tests := []struct {
		name       string
		zone, star []regular.CellID
		want       bool
	}{
		{"covered", []regular.CellID{1, 2, 3, 4}, []regular.CellID{2, 4}, true},
		{"missing cell", []regular.CellID{1, 2}, []regular.CellID{2, 5}, false},
		{"empty zone", nil, []regular.CellID{1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := coversStar(tt.zone, tt.star); got != tt.want {
				t.Errorf("coversStar(%v, %v) = %v, want %v", tt.zone, tt.star, got, tt.want)
			}
		})
	}
}

func TestUpdateMesh_NotInConflict(t *testing.T) {
	c := mustNewComplex(t, 50, 16)
	e := mustNewExuder(t, c)
	v := e.tr.Vertices()[0]
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("updateMesh(...) with a lighter point did not panic")
		}
	}()
	wp := e.tr.Point(v)
	wp.W = -1
	e.updateMesh(wp, v, 0)
}

func TestOppositeEdge(t *testing.T) {
	c := mustNewComplex(t, 30, 0)
	e := mustNewExuder(t, c)
	id := c.Cells()[0]
	vertices := e.tr.CellVertices(id)
	f := regular.Facet{Cell: id, Index: 0}

	ed, ok := e.oppositeEdge(f, vertices[1])
	if !ok {
		t.Fatalf("oppositeEdge(f, %d) ok = false, want true", vertices[1])
	}
	want := edge{vertices[2], vertices[3]}
	if want[0] > want[1] {
		want[0], want[1] = want[1], want[0]
	}
	if ed != want {
		t.Errorf("oppositeEdge(f, %d) = %v, want %v", vertices[1], ed, want)
	}
	if _, ok := e.oppositeEdge(f, vertices[0]); ok {
		t.Errorf("oppositeEdge(f, %d) ok = true for the opposite vertex, want false", vertices[0])
	}
}

// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package regular

import (
	"github.com/2dChan/exuder/kernel"
	"github.com/pkg/errors"
)

const regularityTolerance = 1e-9

// Validate checks the combinatorial and geometric consistency of the
// triangulation: neighbour reciprocity, vertex to cell pointers, positive
// orientation of finite cells, distinct vertex positions, convexity of the
// hull and local regularity of every facet.
func (tr *Triangulation) Validate() error {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	s := tr.bbox().Size()
	scale := max(1, s.X, s.Y, s.Z)
	live := 0
	for i := range tr.cells {
		c := CellID(i)
		if tr.cells[c].free {
			continue
		}
		live++
		if err := tr.validateCell(c, scale); err != nil {
			return errors.Wrapf(err, "regular: cell %d", c)
		}
	}
	if live != tr.numCells {
		return errors.Errorf("regular: %d live cells, counted %d", live, tr.numCells)
	}

	finite := 0
	for i := 1; i < len(tr.vertices); i++ {
		v := VertexID(i)
		if tr.vertices[v].hidden {
			continue
		}
		finite++
		c := tr.vertices[v].cell
		if c < 0 || int(c) >= len(tr.cells) || tr.cells[c].free {
			return errors.Errorf("regular: vertex %d points to dead cell %d", v, c)
		}
		if !tr.hasVertex(c, v) {
			return errors.Errorf("regular: vertex %d not in its cell %d", v, c)
		}
	}
	if finite != tr.numFinite {
		return errors.Errorf("regular: %d visible vertices, counted %d", finite, tr.numFinite)
	}
	return nil
}

func (tr *Triangulation) validateCell(c CellID, scale float64) error {
	cl := tr.cells[c]
	for i, n := range cl.n {
		if n < 0 || int(n) >= len(tr.cells) || tr.cells[n].free {
			return errors.Errorf("neighbor %d is dead", i)
		}
		back := -1
		for j, m := range tr.cells[n].n {
			if m == c {
				back = j
			}
		}
		if back < 0 {
			return errors.Errorf("neighbor %d does not point back", i)
		}
		if tr.sortedFacetVertices(Facet{c, i}) != tr.sortedFacetVertices(Facet{n, back}) {
			return errors.Errorf("facet %d differs from its mirror", i)
		}
	}
	if k := tr.infiniteIndex(c); k >= 0 {
		return tr.validateHull(c, k, scale)
	}

	p := tr.weightedPoints(c)
	if o := kernel.Orient(p[0].P, p[1].P, p[2].P, p[3].P); o < -tr.eps*scale*scale*scale {
		return errors.Errorf("negative orientation %v", o)
	}
	for i := range 4 {
		for j := i + 1; j < 4; j++ {
			if kernel.SquaredDistance(p[i].P, p[j].P) <= tr.eps*tr.eps*scale*scale {
				return errors.Errorf("vertices %d and %d coincide", cl.v[i], cl.v[j])
			}
		}
	}
	for i, n := range cl.n {
		if tr.infiniteIndex(n) >= 0 {
			continue
		}
		opp := tr.cells[n].v[tr.neighborIndex(n, c)]
		if pw := kernel.PowerTest(p, tr.vertices[opp].point); pw < -regularityTolerance*scale*scale {
			return errors.Errorf("facet %d is not regular: power %v", i, pw)
		}
	}
	return nil
}

// validateHull checks the hull facet of the infinite cell c: the finite cell
// behind it lies strictly inside, and no adjacent hull facet bends outwards.
// Coplanar adjacent facets must be regular in their plane.
func (tr *Triangulation) validateHull(c CellID, k int, scale float64) error {
	tol := tr.eps * scale * scale * scale
	cl := tr.cells[c]

	inner := cl.n[k]
	opp := tr.cells[inner].v[tr.neighborIndex(inner, c)]
	if o := tr.orientReplaced(c, k, tr.vertices[opp].point.P); o >= -tol {
		return errors.Errorf("cell %d behind the hull facet is flat: orientation %v", inner, o)
	}

	var f [3]kernel.WeightedPoint
	for i, v := range tr.facetVertices(Facet{c, k}) {
		f[i] = tr.vertices[v].point
	}
	for i, n := range cl.n {
		if i == k {
			continue
		}
		q := tr.vertices[tr.cells[n].v[tr.neighborIndex(n, c)]].point
		o := tr.orientReplaced(c, k, q.P)
		if o > tol {
			return errors.Errorf("hull is not convex at neighbor %d: orientation %v", i, o)
		}
		if o < -tol {
			continue
		}
		if pw := kernel.CoplanarPowerTest(f[0], f[1], f[2], q); pw < -regularityTolerance*scale*scale {
			return errors.Errorf("coplanar hull facets at neighbor %d are not regular: power %v", i, pw)
		}
	}
	return nil
}

func (tr *Triangulation) hasVertex(c CellID, v VertexID) bool {
	for _, u := range tr.cells[c].v {
		if u == v {
			return true
		}
	}
	return false
}

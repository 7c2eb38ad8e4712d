// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package regular

import (
	"math"

	"github.com/2dChan/exuder/kernel"
	"github.com/golang/geo/r3"
)

// Conflicts describes the conflict zone of a weighted point.
type Conflicts struct {
	// Cells are the cells in conflict with the point.
	Cells []CellID
	// Boundary are the facets of the zone seen from inside.
	Boundary []Facet
	// Internal are the facets shared by two cells of the zone, each once.
	Internal []Facet
}

// LockFunc is called on every cell visited by FindConflicts with the points
// of its finite vertices. Returning false aborts the search.
type LockFunc func(c CellID, points []r3.Vector) bool

// Locate returns a cell containing p, or an infinite cell whose hull facet is
// visible from p.
func (tr *Triangulation) Locate(p r3.Vector) CellID {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return tr.locate(p, tr.last)
}

func (tr *Triangulation) locate(p r3.Vector, start CellID) CellID {
	if start < 0 || int(start) >= len(tr.cells) || tr.cells[start].free {
		start = tr.anyCell()
	}
	c := start
	prev := NoCell
	maxSteps := 4*tr.numCells + 16
	for steps := 0; steps < maxSteps; steps++ {
		if k := tr.infiniteIndex(c); k >= 0 {
			if tr.orientReplaced(c, k, p) >= 0 {
				return c
			}
			prev, c = c, tr.cells[c].n[k]
			continue
		}
		next := NoCell
		for r := range 4 {
			j := (r + steps) & 3
			n := tr.cells[c].n[j]
			if n == prev {
				continue
			}
			if tr.orientReplaced(c, j, p) < 0 {
				next = n
				break
			}
		}
		if next == NoCell {
			return c
		}
		prev, c = c, next
	}
	// The walk cycles only on degenerate inputs.
	return tr.scanLocate(p)
}

func (tr *Triangulation) scanLocate(p r3.Vector) CellID {
	for i := range tr.cells {
		c := CellID(i)
		if tr.cells[c].free || tr.infiniteIndex(c) >= 0 {
			continue
		}
		inside := true
		for j := range 4 {
			if tr.orientReplaced(c, j, p) < 0 {
				inside = false
				break
			}
		}
		if inside {
			return c
		}
	}
	for i := range tr.cells {
		c := CellID(i)
		if k := tr.infiniteIndex(c); !tr.cells[c].free && k >= 0 && tr.orientReplaced(c, k, p) >= 0 {
			return c
		}
	}
	return tr.anyCell()
}

func (tr *Triangulation) anyCell() CellID {
	for i := range tr.cells {
		if !tr.cells[i].free {
			return CellID(i)
		}
	}
	panic("anyCell: empty triangulation")
}

// orientReplaced returns the orientation of c with its vertex j replaced by p.
// The other three vertices must be finite.
func (tr *Triangulation) orientReplaced(c CellID, j int, p r3.Vector) float64 {
	var q [4]r3.Vector
	for i, v := range tr.cells[c].v {
		if i == j {
			q[i] = p
			continue
		}
		q[i] = tr.vertices[v].point.P
	}
	return kernel.Orient(q[0], q[1], q[2], q[3])
}

// hullSide returns the orientation of the hull facet of the infinite cell c
// against p, or 0 when p lies within rounding of the facet plane. A point at a
// hull vertex is always coplanar.
func (tr *Triangulation) hullSide(c CellID, k int, p r3.Vector) float64 {
	o := tr.orientReplaced(c, k, p)
	l := 0.0
	for _, v := range tr.facetVertices(Facet{c, k}) {
		l = max(l, kernel.SquaredDistance(tr.vertices[v].point.P, p))
	}
	if math.Abs(o) <= tr.eps*l*math.Sqrt(l) {
		return 0
	}
	return o
}

func (tr *Triangulation) inConflict(c CellID, p kernel.WeightedPoint) bool {
	k := tr.infiniteIndex(c)
	if k < 0 {
		return kernel.PowerTest(tr.weightedPoints(c), p) < 0
	}
	if o := tr.hullSide(c, k, p.P); o != 0 {
		return o > 0
	}
	var f [3]kernel.WeightedPoint
	for i, v := range tr.facetVertices(Facet{c, k}) {
		f[i] = tr.vertices[v].point
	}
	return kernel.CoplanarPowerTest(f[0], f[1], f[2], p) < 0
}

// FindConflicts computes the conflict zone of p starting from seed. The zone
// is empty when seed is not in conflict with p. If lock is not nil it is
// called on every visited cell, and a refusal returns ok=false with an empty
// zone.
func (tr *Triangulation) FindConflicts(p kernel.WeightedPoint, seed CellID, lock LockFunc) (zone Conflicts, ok bool) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	tr.checkCell(seed)
	return tr.findConflicts(p, seed, lock)
}

func (tr *Triangulation) findConflicts(p kernel.WeightedPoint, seed CellID, lock LockFunc) (Conflicts, bool) {
	if lock != nil && !lock(seed, tr.cellPoints(seed)) {
		return Conflicts{}, false
	}
	if !tr.inConflict(seed, p) {
		return Conflicts{}, true
	}

	in := map[CellID]bool{seed: true}
	zone := Conflicts{Cells: []CellID{seed}}
	for i := 0; i < len(zone.Cells); i++ {
		for _, n := range tr.cells[zone.Cells[i]].n {
			if _, seen := in[n]; seen {
				continue
			}
			if lock != nil && !lock(n, tr.cellPoints(n)) {
				return Conflicts{}, false
			}
			conflict := tr.inConflict(n, p)
			in[n] = conflict
			if conflict {
				zone.Cells = append(zone.Cells, n)
			}
		}
	}

	for _, c := range zone.Cells {
		for i, n := range tr.cells[c].n {
			switch {
			case !in[n]:
				zone.Boundary = append(zone.Boundary, Facet{c, i})
			case c < n:
				zone.Internal = append(zone.Internal, Facet{c, i})
			}
		}
	}
	return zone, true
}

// InsertInHole replaces the cells of zone by the star of a new vertex at p
// over the boundary facets. The freed cells have their erase counter
// incremented. Vertices of the zone left without cells become hidden.
// It returns NoVertex when zone is empty.
func (tr *Triangulation) InsertInHole(p kernel.WeightedPoint, zone Conflicts) VertexID {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	for _, c := range zone.Cells {
		tr.checkCell(c)
	}
	return tr.insertInHole(p, zone)
}

func (tr *Triangulation) insertInHole(p kernel.WeightedPoint, zone Conflicts) VertexID {
	if len(zone.Cells) == 0 {
		return NoVertex
	}

	nv := tr.newVertex(p)
	star := make([]CellID, 0, len(zone.Boundary))
	for _, f := range zone.Boundary {
		old := tr.cells[f.Cell]
		v := old.v
		v[f.Index] = nv
		nc := tr.newCell(v)

		out := old.n[f.Index]
		tr.cells[nc].n[f.Index] = out
		tr.cells[out].n[tr.neighborIndex(out, f.Cell)] = nc
		star = append(star, nc)
	}
	tr.pairFacets(star, func(c CellID, i int) bool { return tr.cells[c].v[i] == nv })

	zoneVertices := map[VertexID]bool{}
	for _, c := range zone.Cells {
		for _, v := range tr.cells[c].v {
			zoneVertices[v] = true
		}
		tr.freeCell(c)
	}
	for _, c := range star {
		for _, v := range tr.cells[c].v {
			tr.vertices[v].cell = c
			delete(zoneVertices, v)
		}
	}
	for v := range zoneVertices {
		if v == Infinite {
			panic("insertInHole: zone swallows the infinite vertex")
		}
		tr.vertices[v].hidden = true
		tr.vertices[v].cell = NoCell
		tr.numFinite--
	}
	tr.last = star[0]
	return nv
}

// Insert adds p to the triangulation, walking from seed. It returns NoVertex
// when p is hidden.
func (tr *Triangulation) Insert(p kernel.WeightedPoint, seed CellID) VertexID {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.insertFrom(p, seed)
}

func (tr *Triangulation) insert(p kernel.WeightedPoint) VertexID {
	return tr.insertFrom(p, tr.last)
}

func (tr *Triangulation) insertFrom(p kernel.WeightedPoint, seed CellID) VertexID {
	c := tr.locate(p.P, seed)
	zone, _ := tr.findConflicts(p, c, nil)
	return tr.insertInHole(p, zone)
}

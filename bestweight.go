// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package exuder

import (
	"math"

	"github.com/2dChan/exuder/doublemap"
	"github.com/2dChan/exuder/kernel"
	"github.com/2dChan/exuder/regular"
	"github.com/golang/geo/r3"
)

// preStar maps the facets bounding the star of a pumped vertex, seen from
// inside the star, to the critical radius of the cell beyond them.
type preStar = doublemap.Map[regular.Facet]

// bestWeight returns the weight of v that maximizes the worst quality of
// the cells v would be incident to, or zero if no weight improves it.
// locked is false when worker could not claim the cells it had to read.
func (e *Exuder) bestWeight(v regular.VertexID, worker int) (weight float64, locked bool) {
	vp := e.tr.Point(v)
	pre, values, locked := e.initPreStar(v, vp.P, worker)
	if !locked {
		return 0, false
	}

	var preCopy *preStar
	var valuesCopy map[regular.Facet]float64

	worst := minValue(values)
	best := 0.0
	limit := e.sqDelta * e.closestSquaredDistance(v)

	// canFlip is false once expanding the star would flip a surface facet.
	canFlip := true
	for canFlip && !pre.Empty() {
		link, criticalR, _ := pre.Front()
		if criticalR >= limit || e.c.IsFacetInComplex(link) {
			break
		}

		add := e.tr.MirrorFacet(link).Cell
		if !e.strategy.TryLockRegion(worker, e.tr.CellPoints(add)) {
			return 0, false
		}
		canFlip = e.expandPreStar(add, v, vp.P, pre, values)
		if !canFlip {
			break
		}

		m := minValue(values)
		if m <= worst {
			continue
		}
		worst = m
		nextR := limit
		if _, r, ok := pre.Front(); ok {
			nextR = r
		}
		best = math.Min((criticalR+nextR)/2, limit)
		if e.onImprove != nil {
			e.onImprove(v, best, worst)
		}
		if e.opts.DebugChecks {
			preCopy = pre.Clone()
			valuesCopy = make(map[regular.Facet]float64, len(values))
			for f, x := range values {
				valuesCopy[f] = x
			}
		}
	}

	if e.opts.DebugChecks && best > vp.W {
		wp := kernel.WeightedPoint{P: vp.P, W: best}
		e.checkPreStar(preCopy, wp, v)
		e.checkRatios(valuesCopy, wp, v)
	}
	return best, true
}

// initPreStar builds the pre-star of v from its incident cells and the
// quality of those in the complex, keyed by the facet opposite v.
func (e *Exuder) initPreStar(v regular.VertexID, p r3.Vector, worker int) (*preStar, map[regular.Facet]float64, bool) {
	if !e.strategy.TryLockRegion(worker, []r3.Vector{p}) {
		return nil, nil, false
	}
	incident := e.tr.IncidentCells(v)
	for _, c := range incident {
		if !e.strategy.TryLockRegion(worker, e.tr.CellPoints(c)) {
			return nil, nil, false
		}
	}

	pre := doublemap.New[regular.Facet]()
	values := make(map[regular.Facet]float64)
	for _, c := range incident {
		f := regular.Facet{Cell: c, Index: e.tr.IndexOf(c, v)}
		if e.c.IsCellInComplex(c) {
			values[f] = e.cellValue(c)
		}

		// Infinite cells have an infinite critical radius.
		opposite := e.tr.MirrorFacet(f).Cell
		if e.tr.IsInfinite(opposite) {
			continue
		}
		pre.Insert(f, e.criticalRadius(p, opposite))
	}
	return pre, values, true
}

// expandPreStar adds the cell beyond the front facet to the star of the
// pumped vertex at p. It returns false when the expansion would flip a
// surface facet.
func (e *Exuder) expandPreStar(add regular.CellID, v regular.VertexID, p r3.Vector, pre *preStar, values map[regular.Facet]float64) bool {
	start, _, _ := pre.Front()
	pre.PopFront()
	inComplex := e.c.IsCellInComplex(add)
	if inComplex {
		delete(values, start)
	}

	startMirror := e.tr.MirrorFacet(start)
	if startMirror.Cell != add {
		panic("expandPreStar: front facet does not face the added cell")
	}
	vertices := e.tr.CellVertices(add)
	for i := range 4 {
		if i == startMirror.Index {
			continue
		}
		current := regular.Facet{Cell: add, Index: i}
		mirror := e.tr.MirrorFacet(current)

		// Two facets of the star face the same cell: it closes on itself.
		if pre.Erase(mirror) {
			if e.c.IsFacetInComplex(mirror) {
				return false
			}
			if inComplex {
				delete(values, mirror)
			}
			continue
		}

		if mirror.Cell == start.Cell || e.tr.HasVertex(mirror.Cell, v) {
			panic("expandPreStar: star reached a cell of the pumped vertex")
		}
		if !e.tr.IsInfinite(mirror.Cell) {
			pre.Insert(current, e.criticalRadius(p, mirror.Cell))
		}
		if inComplex {
			if _, ok := values[current]; !ok {
				a := e.tr.Point(vertices[(i+1)&3]).P
				b := e.tr.Point(vertices[(i+2)&3]).P
				c := e.tr.Point(vertices[(i+3)&3]).P
				values[current] = e.opts.Criterion.Value(p, a, b, c)
			}
		}
	}
	return true
}

// criticalRadius returns the weight at which a point at p starts to conflict
// with the finite cell c.
func (e *Exuder) criticalRadius(p r3.Vector, c regular.CellID) float64 {
	cell, ok := e.tr.CellWeightedPoints(c)
	if !ok {
		panic("criticalRadius: infinite cell")
	}
	return kernel.CriticalSquaredRadius(cell, p)
}

// closestSquaredDistance returns the squared distance from v to its nearest
// finite neighbour.
func (e *Exuder) closestSquaredDistance(v regular.VertexID) float64 {
	p := e.tr.Point(v).P
	d := math.MaxFloat64
	for _, u := range e.tr.AdjacentVertices(v) {
		d = math.Min(d, kernel.SquaredDistance(p, e.tr.Point(u).P))
	}
	return d
}

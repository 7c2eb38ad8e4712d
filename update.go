// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package exuder

import (
	"github.com/2dChan/exuder/complex"
	"github.com/2dChan/exuder/kernel"
	"github.com/2dChan/exuder/regular"
	"github.com/golang/geo/r3"
)

// facetTags are the complex tags of a conflict zone boundary facet: its
// surface patch and the subdomain of the cell inside the zone.
type facetTags struct {
	patch     complex.SurfacePatch
	subdomain complex.Subdomain
}

type edge [2]regular.VertexID

// updateMesh replaces old by the heavier point wp and restores the complex
// around it. locked is false when worker could not claim the conflict zone;
// nothing was changed then.
func (e *Exuder) updateMesh(wp kernel.WeightedPoint, old regular.VertexID, worker int) (regular.VertexID, bool) {
	lock := func(_ regular.CellID, points []r3.Vector) bool {
		return e.strategy.TryLockRegion(worker, points)
	}
	zone, ok := e.tr.FindConflicts(wp, e.tr.VertexCell(old), lock)
	if !ok {
		return regular.NoVertex, false
	}
	if !coversStar(zone.Cells, e.tr.IncidentCells(old)) {
		panic("updateMesh: conflict zone misses cells incident to the pumped vertex")
	}

	outside := e.boundaryFacetsFromOutside(zone.Boundary)
	umbrella := e.umbrella(zone.Internal, old)
	zoneVertices := map[regular.VertexID]bool{}
	for _, c := range zone.Cells {
		for _, v := range e.tr.CellVertices(c) {
			zoneVertices[v] = true
		}
	}

	e.strategy.DropWork(zone.Cells)
	for _, c := range zone.Cells {
		e.c.RemoveCell(c)
	}
	for _, f := range zone.Boundary {
		e.c.RemoveFacet(f)
	}
	for _, f := range zone.Internal {
		e.c.RemoveFacet(f)
	}

	dim := e.c.Dimension(old)
	index := e.c.Index(old)
	nv := e.tr.InsertInHole(wp, zone)
	if nv == regular.NoVertex {
		panic("updateMesh: pumped point is hidden")
	}
	e.c.SetDimension(nv, dim)
	e.c.SetIndex(nv, index)
	for v := range zoneVertices {
		if v != regular.Infinite && e.tr.IsHidden(v) {
			e.c.ForgetVertex(v)
		}
	}

	e.restoreCellsAndBoundaryFacets(outside, nv)
	e.restoreInternalFacets(umbrella, nv)
	return nv, true
}

// coversStar reports whether every cell of star is in zone. The pumped vertex
// is hidden by InsertInHole only then.
func coversStar(zone, star []regular.CellID) bool {
	in := make(map[regular.CellID]bool, len(zone))
	for _, c := range zone {
		in[c] = true
	}
	for _, c := range star {
		if !in[c] {
			return false
		}
	}
	return true
}

// boundaryFacetsFromOutside maps the mirror of every boundary facet, which
// survives the update, to the tags the new cell behind it must get.
func (e *Exuder) boundaryFacetsFromOutside(boundary []regular.Facet) map[regular.Facet]facetTags {
	out := make(map[regular.Facet]facetTags, len(boundary))
	for _, f := range boundary {
		out[e.tr.MirrorFacet(f)] = facetTags{
			patch:     e.c.SurfacePatch(f),
			subdomain: e.c.Subdomain(f.Cell),
		}
	}
	return out
}

// umbrella maps the edge opposite v of every surface facet incident to v to
// the facet's patch.
func (e *Exuder) umbrella(internal []regular.Facet, v regular.VertexID) map[edge]complex.SurfacePatch {
	out := make(map[edge]complex.SurfacePatch)
	for _, f := range internal {
		patch := e.c.SurfacePatch(f)
		if patch == 0 {
			continue
		}
		ed, ok := e.oppositeEdge(f, v)
		if !ok {
			continue
		}
		out[ed] = patch
	}
	return out
}

// oppositeEdge returns the two vertices of f other than v, in ascending
// order. ok is false when v is not a vertex of f.
func (e *Exuder) oppositeEdge(f regular.Facet, v regular.VertexID) (ed edge, ok bool) {
	n := 0
	for _, u := range e.tr.FacetVertices(f) {
		if u == v {
			ok = true
			continue
		}
		if n == 2 {
			return edge{}, false
		}
		ed[n] = u
		n++
	}
	if !ok {
		return edge{}, false
	}
	if ed[0] > ed[1] {
		ed[0], ed[1] = ed[1], ed[0]
	}
	return ed, true
}

func (e *Exuder) restoreCellsAndBoundaryFacets(outside map[regular.Facet]facetTags, nv regular.VertexID) {
	cells := e.tr.IncidentCells(nv)
	if len(cells) != len(outside) {
		panic("restoreCellsAndBoundaryFacets: star size differs from the zone boundary")
	}
	for _, c := range cells {
		f := regular.Facet{Cell: c, Index: e.tr.IndexOf(c, nv)}
		tags, ok := outside[e.tr.MirrorFacet(f)]
		if !ok {
			panic("restoreCellsAndBoundaryFacets: new cell faces no boundary facet")
		}
		if tags.patch != 0 {
			e.c.AddFacet(f, tags.patch)
		}
		if tags.subdomain == 0 {
			continue
		}
		e.c.AddCell(c, tags.subdomain)
		if value := e.cellValue(c); value < e.bound {
			e.strategy.EnqueueWork(c, value)
		}
	}
}

func (e *Exuder) restoreInternalFacets(umbrella map[edge]complex.SurfacePatch, nv regular.VertexID) {
	for _, f := range e.tr.IncidentFacets(nv) {
		ed, ok := e.oppositeEdge(f, nv)
		if !ok {
			panic("restoreInternalFacets: facet misses the new vertex")
		}
		if patch, ok := umbrella[ed]; ok {
			e.c.AddFacet(f, patch)
		}
	}
}

// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package regular implements a 3D regular (weighted Delaunay) triangulation.
//
// Vertices and cells live in arenas and are addressed by stable indices.
// Vertex 0 is the infinite vertex: every facet of the convex hull is shared
// with an infinite cell. A Facet is the value pair (cell, index of the vertex
// opposite the facet).
package regular

import (
	"sort"
	"sync"

	"github.com/2dChan/exuder/kernel"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

const (
	defaultEps = 1e-12
)

// VertexID indexes a vertex of a Triangulation.
type VertexID int

// CellID indexes a cell of a Triangulation.
type CellID int

const (
	// Infinite is the vertex shared by all cells outside the convex hull.
	Infinite VertexID = 0
	// NoVertex is returned when an inserted point is hidden.
	NoVertex VertexID = -1
	// NoCell marks a missing cell.
	NoCell CellID = -1
)

// Facet is the triangle of Cell opposite to its vertex Index.
type Facet struct {
	Cell  CellID
	Index int
}

type vertex struct {
	point  kernel.WeightedPoint
	cell   CellID
	hidden bool
}

type cell struct {
	v     [4]VertexID
	n     [4]CellID
	erase uint32
	free  bool
}

// Triangulation is a regular triangulation of weighted points in R³.
//
// All methods are safe for concurrent use. Readers see a consistent arena per
// call; callers that combine several calls and mutate concurrently must
// exclude each other on the regions they touch (see FindConflicts).
type Triangulation struct {
	mu        sync.RWMutex
	vertices  []vertex
	cells     []cell
	free      []CellID
	numFinite int
	numCells  int
	last      CellID
	eps       float64
}

type TriangulationOptions struct {
	Eps float64
}

type TriangulationOption func(*TriangulationOptions) error

// WithEps sets the tolerance used to pick the initial tetrahedron and to
// validate the triangulation.
func WithEps(eps float64) TriangulationOption {
	return func(o *TriangulationOptions) error {
		if eps <= 0 {
			return errors.New("WithEps: eps must be positive")
		}
		o.Eps = eps
		return nil
	}
}

// NewTriangulation builds the regular triangulation of points. Points that
// are hidden by heavier neighbours are not part of the result.
func NewTriangulation(points []kernel.WeightedPoint, setters ...TriangulationOption) (*Triangulation, error) {
	opts := TriangulationOptions{
		Eps: defaultEps,
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, errors.Wrap(err, "regular: invalid option")
		}
	}

	if len(points) < 4 {
		return nil,
			errors.New("regular: insufficient points for triangulation (minimum 4 required)")
	}
	first, ok := initialTetrahedron(points, opts.Eps)
	if !ok {
		return nil, errors.New("regular: points are coplanar")
	}

	tr := &Triangulation{eps: opts.Eps}
	tr.init(points[first[0]], points[first[1]], points[first[2]], points[first[3]])

	used := map[int]bool{first[0]: true, first[1]: true, first[2]: true, first[3]: true}
	for i, p := range points {
		if used[i] {
			continue
		}
		tr.insert(p)
	}
	return tr, nil
}

// initialTetrahedron returns the indices of four affinely independent points.
func initialTetrahedron(points []kernel.WeightedPoint, eps float64) ([4]int, bool) {
	var out [4]int
	p0 := points[0].P
	i1 := -1
	for i := 1; i < len(points); i++ {
		if kernel.SquaredDistance(points[i].P, p0) > eps*eps {
			i1 = i
			break
		}
	}
	if i1 < 0 {
		return out, false
	}
	p1 := points[i1].P
	i2 := -1
	for i := i1 + 1; i < len(points); i++ {
		if p1.Sub(p0).Cross(points[i].P.Sub(p0)).Norm() > eps {
			i2 = i
			break
		}
	}
	if i2 < 0 {
		return out, false
	}
	p2 := points[i2].P
	for i := i2 + 1; i < len(points); i++ {
		if o := kernel.Orient(p0, p1, p2, points[i].P); o > eps || o < -eps {
			return [4]int{0, i1, i2, i}, true
		}
	}
	return out, false
}

func (tr *Triangulation) init(a, b, c, d kernel.WeightedPoint) {
	tr.vertices = append(tr.vertices, vertex{cell: NoCell})
	va := tr.newVertex(a)
	vb := tr.newVertex(b)
	vc := tr.newVertex(c)
	vd := tr.newVertex(d)
	if kernel.Orient(a.P, b.P, c.P, d.P) < 0 {
		vc, vd = vd, vc
	}

	c0 := tr.newCell([4]VertexID{va, vb, vc, vd})
	cells := []CellID{c0}
	for i := range 4 {
		v := tr.cells[c0].v
		v[i] = Infinite
		// Keep the infinite cell positively oriented when the infinite
		// vertex is seen as a point beyond the hull facet.
		j, k := (i+1)&3, (i+2)&3
		v[j], v[k] = v[k], v[j]
		cells = append(cells, tr.newCell(v))
	}
	tr.pairFacets(cells, func(CellID, int) bool { return false })
	for _, c := range cells {
		for _, v := range tr.cells[c].v {
			tr.vertices[v].cell = c
		}
	}
	tr.last = c0
}

func (tr *Triangulation) newVertex(p kernel.WeightedPoint) VertexID {
	tr.vertices = append(tr.vertices, vertex{point: p, cell: NoCell})
	tr.numFinite++
	return VertexID(len(tr.vertices) - 1)
}

func (tr *Triangulation) newCell(v [4]VertexID) CellID {
	tr.numCells++
	nb := [4]CellID{NoCell, NoCell, NoCell, NoCell}
	if n := len(tr.free); n > 0 {
		id := tr.free[n-1]
		tr.free = tr.free[:n-1]
		c := &tr.cells[id]
		c.v, c.n, c.free = v, nb, false
		return id
	}
	tr.cells = append(tr.cells, cell{v: v, n: nb})
	return CellID(len(tr.cells) - 1)
}

func (tr *Triangulation) freeCell(id CellID) {
	c := &tr.cells[id]
	c.free = true
	c.erase++
	c.n = [4]CellID{NoCell, NoCell, NoCell, NoCell}
	tr.free = append(tr.free, id)
	tr.numCells--
}

// pairFacets links the facets of cells that share the same three vertices.
// Facets for which skip returns true are left alone.
func (tr *Triangulation) pairFacets(cells []CellID, skip func(CellID, int) bool) {
	open := make(map[[3]VertexID]Facet, 2*len(cells))
	for _, c := range cells {
		for i := range 4 {
			if skip(c, i) {
				continue
			}
			key := tr.sortedFacetVertices(Facet{c, i})
			if f, ok := open[key]; ok {
				tr.cells[c].n[i] = f.Cell
				tr.cells[f.Cell].n[f.Index] = c
				delete(open, key)
				continue
			}
			open[key] = Facet{c, i}
		}
	}
	if len(open) != 0 {
		panic("pairFacets: unmatched facets")
	}
}

func (tr *Triangulation) facetVertices(f Facet) [3]VertexID {
	v := tr.cells[f.Cell].v
	return [3]VertexID{v[(f.Index+1)&3], v[(f.Index+2)&3], v[(f.Index+3)&3]}
}

func (tr *Triangulation) sortedFacetVertices(f Facet) [3]VertexID {
	t := tr.facetVertices(f)
	if t[0] > t[1] {
		t[0], t[1] = t[1], t[0]
	}
	if t[1] > t[2] {
		t[1], t[2] = t[2], t[1]
	}
	if t[0] > t[1] {
		t[0], t[1] = t[1], t[0]
	}
	return t
}

func (tr *Triangulation) indexOf(c CellID, v VertexID) int {
	for i, u := range tr.cells[c].v {
		if u == v {
			return i
		}
	}
	panic("IndexOf: vertex not in cell")
}

func (tr *Triangulation) neighborIndex(c, n CellID) int {
	for i, u := range tr.cells[c].n {
		if u == n {
			return i
		}
	}
	panic("neighborIndex: cells are not adjacent")
}

func (tr *Triangulation) infiniteIndex(c CellID) int {
	for i, v := range tr.cells[c].v {
		if v == Infinite {
			return i
		}
	}
	return -1
}

func (tr *Triangulation) mirrorFacet(f Facet) Facet {
	n := tr.cells[f.Cell].n[f.Index]
	return Facet{n, tr.neighborIndex(n, f.Cell)}
}

func (tr *Triangulation) weightedPoints(c CellID) [4]kernel.WeightedPoint {
	var p [4]kernel.WeightedPoint
	for i, v := range tr.cells[c].v {
		p[i] = tr.vertices[v].point
	}
	return p
}

func (tr *Triangulation) cellPoints(c CellID) []r3.Vector {
	out := make([]r3.Vector, 0, 4)
	for _, v := range tr.cells[c].v {
		if v != Infinite {
			out = append(out, tr.vertices[v].point.P)
		}
	}
	return out
}

func (tr *Triangulation) checkCell(c CellID) {
	if c < 0 || int(c) >= len(tr.cells) || tr.cells[c].free {
		panic("checkCell: invalid cell")
	}
}

func (tr *Triangulation) checkVertex(v VertexID) {
	if v < 0 || int(v) >= len(tr.vertices) || tr.vertices[v].hidden {
		panic("checkVertex: invalid vertex")
	}
}

// NumVertices returns the number of finite vertices that are not hidden.
func (tr *Triangulation) NumVertices() int {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return tr.numFinite
}

// NumCells returns the number of cells, infinite cells included.
func (tr *Triangulation) NumCells() int {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return tr.numCells
}

// Vertices returns the finite vertices that are not hidden, in ascending order.
func (tr *Triangulation) Vertices() []VertexID {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	out := make([]VertexID, 0, tr.numFinite)
	for i := 1; i < len(tr.vertices); i++ {
		if !tr.vertices[i].hidden {
			out = append(out, VertexID(i))
		}
	}
	return out
}

// FiniteCells returns the cells without the infinite vertex, in ascending order.
func (tr *Triangulation) FiniteCells() []CellID {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	out := make([]CellID, 0, tr.numCells)
	for i := range tr.cells {
		if !tr.cells[i].free && tr.infiniteIndex(CellID(i)) < 0 {
			out = append(out, CellID(i))
		}
	}
	return out
}

// Point returns the weighted point of v.
func (tr *Triangulation) Point(v VertexID) kernel.WeightedPoint {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return tr.vertices[v].point
}

// IsHidden reports whether v was removed by the insertion of a heavier point.
func (tr *Triangulation) IsHidden(v VertexID) bool {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return tr.vertices[v].hidden
}

// VertexCell returns a cell incident to v.
func (tr *Triangulation) VertexCell(v VertexID) CellID {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	tr.checkVertex(v)
	return tr.vertices[v].cell
}

// CellVertex returns the i-th vertex of c.
func (tr *Triangulation) CellVertex(c CellID, i int) VertexID {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	tr.checkCell(c)
	return tr.cells[c].v[i]
}

// CellVertices returns the four vertices of c.
func (tr *Triangulation) CellVertices(c CellID) [4]VertexID {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	tr.checkCell(c)
	return tr.cells[c].v
}

// CellNeighbor returns the cell sharing the facet of c opposite to vertex i.
func (tr *Triangulation) CellNeighbor(c CellID, i int) CellID {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	tr.checkCell(c)
	return tr.cells[c].n[i]
}

// CellPoints returns the points of the finite vertices of c.
func (tr *Triangulation) CellPoints(c CellID) []r3.Vector {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	tr.checkCell(c)
	return tr.cellPoints(c)
}

// CellWeightedPoints returns the weighted points of c. ok is false for
// infinite cells.
func (tr *Triangulation) CellWeightedPoints(c CellID) (p [4]kernel.WeightedPoint, ok bool) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	tr.checkCell(c)
	if tr.infiniteIndex(c) >= 0 {
		return p, false
	}
	return tr.weightedPoints(c), true
}

// IndexOf returns the index of v in c. It panics if v is not a vertex of c.
func (tr *Triangulation) IndexOf(c CellID, v VertexID) int {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	tr.checkCell(c)
	return tr.indexOf(c, v)
}

// HasVertex reports whether v is a vertex of c.
func (tr *Triangulation) HasVertex(c CellID, v VertexID) bool {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	tr.checkCell(c)
	return tr.hasVertex(c, v)
}

// IsInfinite reports whether c has the infinite vertex.
func (tr *Triangulation) IsInfinite(c CellID) bool {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	tr.checkCell(c)
	return tr.infiniteIndex(c) >= 0
}

// IsValidCell reports whether c is a live cell.
func (tr *Triangulation) IsValidCell(c CellID) bool {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return c >= 0 && int(c) < len(tr.cells) && !tr.cells[c].free
}

// EraseCounter returns the number of times the slot of c was freed. A task
// holding a stale counter refers to a cell that no longer exists.
func (tr *Triangulation) EraseCounter(c CellID) uint32 {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return tr.cells[c].erase
}

// CurrentCell returns the vertices of c and the points of its finite
// vertices, provided the slot of c is live and its erase counter is erase.
func (tr *Triangulation) CurrentCell(c CellID, erase uint32) (v [4]VertexID, points []r3.Vector, ok bool) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	if c < 0 || int(c) >= len(tr.cells) || tr.cells[c].free || tr.cells[c].erase != erase {
		return v, nil, false
	}
	return tr.cells[c].v, tr.cellPoints(c), true
}

// MirrorFacet returns f seen from the neighbouring cell.
func (tr *Triangulation) MirrorFacet(f Facet) Facet {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	tr.checkCell(f.Cell)
	return tr.mirrorFacet(f)
}

// FacetVertices returns the vertices of f in the order (i+1, i+2, i+3) mod 4.
func (tr *Triangulation) FacetVertices(f Facet) [3]VertexID {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	tr.checkCell(f.Cell)
	return tr.facetVertices(f)
}

// SortedFacetVertices returns the vertices of f in ascending order. Both sides
// of a facet give the same result.
func (tr *Triangulation) SortedFacetVertices(f Facet) [3]VertexID {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	tr.checkCell(f.Cell)
	return tr.sortedFacetVertices(f)
}

// IncidentCells returns the cells incident to v.
func (tr *Triangulation) IncidentCells(v VertexID) []CellID {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	tr.checkVertex(v)
	return tr.incidentCells(v)
}

func (tr *Triangulation) incidentCells(v VertexID) []CellID {
	start := tr.vertices[v].cell
	visited := map[CellID]bool{start: true}
	out := []CellID{start}
	for i := 0; i < len(out); i++ {
		c := out[i]
		k := tr.indexOf(c, v)
		for j, n := range tr.cells[c].n {
			if j == k || visited[n] {
				continue
			}
			visited[n] = true
			out = append(out, n)
		}
	}
	return out
}

// IncidentFacets returns the facets having v as a vertex, each facet once.
func (tr *Triangulation) IncidentFacets(v VertexID) []Facet {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	tr.checkVertex(v)
	var out []Facet
	for _, c := range tr.incidentCells(v) {
		k := tr.indexOf(c, v)
		for j, n := range tr.cells[c].n {
			if j != k && c < n {
				out = append(out, Facet{c, j})
			}
		}
	}
	return out
}

// AdjacentVertices returns the finite vertices sharing an edge with v, in
// ascending order.
func (tr *Triangulation) AdjacentVertices(v VertexID) []VertexID {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	tr.checkVertex(v)
	seen := map[VertexID]bool{}
	for _, c := range tr.incidentCells(v) {
		for _, u := range tr.cells[c].v {
			if u != v && u != Infinite {
				seen[u] = true
			}
		}
	}
	out := make([]VertexID, 0, len(seen))
	for u := range seen {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Bbox returns the bounding box of the finite vertices.
func (tr *Triangulation) Bbox() kernel.Box {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return tr.bbox()
}

func (tr *Triangulation) bbox() kernel.Box {
	b := kernel.EmptyBox()
	for i := 1; i < len(tr.vertices); i++ {
		if !tr.vertices[i].hidden {
			b = b.Extend(tr.vertices[i].point.P)
		}
	}
	return b
}

// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package complex implements the mesh complex of a regular triangulation: the
// cells that belong to the meshed domain with their subdomain, the facets on
// its surfaces with their patch, and the dimension and index of the vertices.
package complex

import (
	"sort"
	"sync"

	"github.com/2dChan/exuder/kernel"
	"github.com/2dChan/exuder/regular"
	"github.com/pkg/errors"
)

// Subdomain labels a region of the domain. Zero is outside.
type Subdomain int

// SurfacePatch labels a surface between two subdomains. Zero is no surface.
type SurfacePatch int

// FacetKey identifies a facet by its vertices in ascending order.
type FacetKey [3]regular.VertexID

// PatchBetween returns the patch of the surface separating subdomains a and b.
func PatchBetween(a, b Subdomain) SurfacePatch {
	if a > b {
		a, b = b, a
	}
	return SurfacePatch(int(a)<<16 | int(b))
}

// Complex is a subset of the cells and facets of a triangulation.
// It is safe for concurrent use.
type Complex struct {
	mu     sync.RWMutex
	tr     *regular.Triangulation
	cells  map[regular.CellID]Subdomain
	facets map[FacetKey]SurfacePatch
	dim    map[regular.VertexID]int
	index  map[regular.VertexID]int
}

// New returns an empty complex over tr.
func New(tr *regular.Triangulation) *Complex {
	return &Complex{
		tr:     tr,
		cells:  make(map[regular.CellID]Subdomain),
		facets: make(map[FacetKey]SurfacePatch),
		dim:    make(map[regular.VertexID]int),
		index:  make(map[regular.VertexID]int),
	}
}

// Build returns the complex of the finite cells of tr whose centroid lies in
// domain. Facets between different subdomains become surface facets, and
// their vertices get dimension 2. Other vertices of the complex get
// dimension 3 and the index of their subdomain.
func Build(tr *regular.Triangulation, domain Domain) (*Complex, error) {
	if tr == nil {
		return nil, errors.New("complex: nil triangulation")
	}
	if domain == nil {
		return nil, errors.New("complex: nil domain")
	}

	c := New(tr)
	for _, id := range tr.FiniteCells() {
		pts := tr.CellPoints(id)
		centroid := pts[0].Add(pts[1]).Add(pts[2]).Add(pts[3]).Mul(0.25)
		if s := domain.Subdomain(centroid); s != 0 {
			c.cells[id] = s
		}
	}
	if len(c.cells) == 0 {
		return nil, errors.New("complex: no cell inside the domain")
	}

	for _, id := range c.Cells() {
		s := c.cells[id]
		for i := range 4 {
			m := tr.MirrorFacet(regular.Facet{Cell: id, Index: i})
			other := c.cells[m.Cell]
			if other == s {
				continue
			}
			c.facets[FacetKey(tr.SortedFacetVertices(m))] = PatchBetween(s, other)
		}
		for _, v := range tr.CellVertices(id) {
			if _, ok := c.dim[v]; !ok {
				c.dim[v] = 3
				c.index[v] = int(s)
			}
		}
	}
	for key, patch := range c.facets {
		for _, v := range key {
			c.dim[v] = 2
			c.index[v] = int(patch)
		}
	}
	return c, nil
}

// Triangulation returns the triangulation the complex lives in.
func (c *Complex) Triangulation() *regular.Triangulation {
	return c.tr
}

// IsCellInComplex reports whether cell belongs to the complex.
func (c *Complex) IsCellInComplex(cell regular.CellID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.cells[cell]
	return ok
}

// Subdomain returns the subdomain of cell, or zero if it is not in the complex.
func (c *Complex) Subdomain(cell regular.CellID) Subdomain {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cells[cell]
}

// AddCell adds cell to the complex in subdomain s. It panics if s is zero.
func (c *Complex) AddCell(cell regular.CellID, s Subdomain) {
	if s == 0 {
		panic("AddCell: subdomain must be non-zero")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cells[cell] = s
}

// RemoveCell removes cell from the complex.
func (c *Complex) RemoveCell(cell regular.CellID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cells, cell)
}

// Key returns the key of f. Both sides of a facet have the same key.
func (c *Complex) Key(f regular.Facet) FacetKey {
	return FacetKey(c.tr.SortedFacetVertices(f))
}

// IsFacetInComplex reports whether f is a surface facet.
func (c *Complex) IsFacetInComplex(f regular.Facet) bool {
	key := c.Key(f)
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.facets[key]
	return ok
}

// SurfacePatch returns the patch of f, or zero if it is not in the complex.
func (c *Complex) SurfacePatch(f regular.Facet) SurfacePatch {
	key := c.Key(f)
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.facets[key]
}

// AddFacet adds f to the complex on patch p. It panics if p is zero.
func (c *Complex) AddFacet(f regular.Facet, p SurfacePatch) {
	if p == 0 {
		panic("AddFacet: patch must be non-zero")
	}
	key := c.Key(f)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.facets[key] = p
}

// RemoveFacet removes f from the complex.
func (c *Complex) RemoveFacet(f regular.Facet) {
	key := c.Key(f)
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.facets, key)
}

// Dimension returns the dimension of the domain feature v lies on: 3 inside
// a subdomain, 2 on a surface, -1 when unknown.
func (c *Complex) Dimension(v regular.VertexID) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if d, ok := c.dim[v]; ok {
		return d
	}
	return -1
}

// Index returns the index of the domain feature v lies on.
func (c *Complex) Index(v regular.VertexID) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index[v]
}

func (c *Complex) SetDimension(v regular.VertexID, d int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dim[v] = d
}

func (c *Complex) SetIndex(v regular.VertexID, index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index[v] = index
}

// ForgetVertex drops the dimension and index of v.
func (c *Complex) ForgetVertex(v regular.VertexID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.dim, v)
	delete(c.index, v)
}

// Cells returns the cells of the complex in ascending order.
func (c *Complex) Cells() []regular.CellID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]regular.CellID, 0, len(c.cells))
	for id := range c.cells {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Facets returns the keys of the surface facets in ascending order.
func (c *Complex) Facets() []FacetKey {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]FacetKey, 0, len(c.facets))
	for key := range c.facets {
		out = append(out, key)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		if a[1] != b[1] {
			return a[1] < b[1]
		}
		return a[2] < b[2]
	})
	return out
}

func (c *Complex) NumCells() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cells)
}

func (c *Complex) NumFacets() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.facets)
}

// Bbox returns the bounding box of the vertices of the complex cells.
func (c *Complex) Bbox() kernel.Box {
	b := kernel.EmptyBox()
	for _, id := range c.Cells() {
		for _, p := range c.tr.CellPoints(id) {
			b = b.Extend(p)
		}
	}
	return b
}

// Validate checks that every cell of the complex is a live finite cell and
// that surface facets separate cells of different subdomains.
func (c *Complex) Validate() error {
	for _, id := range c.Cells() {
		if !c.tr.IsValidCell(id) {
			return errors.Errorf("complex: cell %d is dead", id)
		}
		if c.tr.IsInfinite(id) {
			return errors.Errorf("complex: cell %d is infinite", id)
		}
	}
	for _, id := range c.Cells() {
		s := c.Subdomain(id)
		for i := range 4 {
			f := regular.Facet{Cell: id, Index: i}
			other := c.Subdomain(c.tr.MirrorFacet(f).Cell)
			if got := c.IsFacetInComplex(f); got != (other != s) {
				return errors.Wrapf(errSurfaceMismatch, "complex: facet %v between subdomains %d and %d", f, s, other)
			}
		}
	}
	return nil
}

var errSurfaceMismatch = errors.New("surface facet does not separate subdomains")

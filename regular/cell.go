// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package regular

import (
	"fmt"

	"github.com/2dChan/exuder/kernel"
)

// Cell is a view structure for accessing a cell of a Triangulation.
// A view is invalidated when its cell is removed by an insertion.
type Cell struct {
	id CellID
	tr *Triangulation
}

// Cell returns the view of cell id.
// It returns an error if id does not name a live cell.
func (tr *Triangulation) Cell(id CellID) (Cell, error) {
	if !tr.IsValidCell(id) {
		return Cell{}, fmt.Errorf("Cell: cell %d does not exist", id)
	}
	return Cell{id: id, tr: tr}, nil
}

// ID returns the index of the cell in the Triangulation.
func (c Cell) ID() CellID {
	return c.id
}

// IsInfinite reports whether the cell has the infinite vertex.
func (c Cell) IsInfinite() bool {
	return c.tr.IsInfinite(c.id)
}

// Vertex returns the vertex at the specified index.
// It returns an error if the index is out of range.
func (c Cell) Vertex(i int) (VertexID, error) {
	if i < 0 || i >= 4 {
		return NoVertex, fmt.Errorf("Vertex: index %d out of range [0 4)", i)
	}
	return c.tr.CellVertex(c.id, i), nil
}

// Point returns the weighted point of the vertex at the specified index.
// It returns an error if the index is out of range or names the infinite
// vertex.
func (c Cell) Point(i int) (kernel.WeightedPoint, error) {
	v, err := c.Vertex(i)
	if err != nil {
		return kernel.WeightedPoint{}, err
	}
	if v == Infinite {
		return kernel.WeightedPoint{}, fmt.Errorf("Point: vertex %d is infinite", i)
	}
	return c.tr.Point(v), nil
}

// Neighbor returns the cell sharing the facet opposite the vertex at the
// specified index.
// It returns an error if the index is out of range.
func (c Cell) Neighbor(i int) (Cell, error) {
	if i < 0 || i >= 4 {
		return Cell{}, fmt.Errorf("Neighbor: index %d out of range [0 4)", i)
	}
	return c.tr.Cell(c.tr.CellNeighbor(c.id, i))
}

// Facet returns the facet opposite the vertex at the specified index.
func (c Cell) Facet(i int) Facet {
	return Facet{Cell: c.id, Index: i}
}

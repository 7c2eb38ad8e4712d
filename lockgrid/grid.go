// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package lockgrid implements a spatial lock grid: a bounding box split into
// n³ cells, each owned by at most one worker at a time. Locks are only ever
// tried, never waited for.
package lockgrid

import (
	"errors"
	"math"
	"sync/atomic"

	"github.com/2dChan/exuder/kernel"
	"github.com/golang/geo/r3"
)

const DefaultResolution = 50

// Grid is a spatial lock grid. Worker ids range over 1..workers.
type Grid struct {
	box    kernel.Box
	n      int
	inv    r3.Vector
	owners []atomic.Int32
	held   [][]int
}

// New returns a grid of resolution³ cells over box for the given number of
// workers.
func New(box kernel.Box, resolution, workers int) (*Grid, error) {
	if box.IsEmpty() {
		return nil, errors.New("lockgrid: empty bounding box")
	}
	if resolution < 1 {
		return nil, errors.New("lockgrid: resolution must be positive")
	}
	if workers < 1 {
		return nil, errors.New("lockgrid: at least one worker required")
	}

	size := box.Size()
	inv := func(s float64) float64 {
		if s <= 0 {
			return 0
		}
		return float64(resolution) / s
	}
	return &Grid{
		box:    box,
		n:      resolution,
		inv:    r3.Vector{X: inv(size.X), Y: inv(size.Y), Z: inv(size.Z)},
		owners: make([]atomic.Int32, resolution*resolution*resolution),
		held:   make([][]int, workers+1),
	}, nil
}

// Resolution returns the number of cells per axis.
func (g *Grid) Resolution() int {
	return g.n
}

// CellIndex returns the grid cell of p. Points outside the box are clamped
// to the nearest border cell.
func (g *Grid) CellIndex(p r3.Vector) int {
	axis := func(v, lo, inv float64) int {
		i := int(math.Floor((v - lo) * inv))
		return max(0, min(g.n-1, i))
	}
	i := axis(p.X, g.box.Min.X, g.inv.X)
	j := axis(p.Y, g.box.Min.Y, g.inv.Y)
	k := axis(p.Z, g.box.Min.Z, g.inv.Z)
	return (k*g.n+j)*g.n + i
}

func (g *Grid) checkWorker(worker int) {
	if worker < 1 || worker >= len(g.held) {
		panic("checkWorker: worker out of range")
	}
}

// TryLock locks the grid cell of p for worker. It succeeds if the cell is
// free or already owned by worker.
func (g *Grid) TryLock(worker int, p r3.Vector) bool {
	g.checkWorker(worker)
	return g.tryLockCell(worker, g.CellIndex(p))
}

func (g *Grid) tryLockCell(worker, cell int) bool {
	owner := &g.owners[cell]
	if owner.Load() == int32(worker) {
		return true
	}
	if !owner.CompareAndSwap(0, int32(worker)) {
		return false
	}
	g.held[worker] = append(g.held[worker], cell)
	return true
}

// TryLockPoints locks the grid cells of all points for worker. On failure
// the cells locked so far stay held until UnlockAll.
func (g *Grid) TryLockPoints(worker int, points []r3.Vector) bool {
	g.checkWorker(worker)
	for _, p := range points {
		if !g.tryLockCell(worker, g.CellIndex(p)) {
			return false
		}
	}
	return true
}

// IsLockedBy reports whether the grid cell of p is owned by worker.
func (g *Grid) IsLockedBy(worker int, p r3.Vector) bool {
	return g.owners[g.CellIndex(p)].Load() == int32(worker)
}

// NumHeld returns the number of cells owned by worker.
func (g *Grid) NumHeld(worker int) int {
	g.checkWorker(worker)
	return len(g.held[worker])
}

// UnlockAll releases every cell owned by worker.
func (g *Grid) UnlockAll(worker int) {
	g.checkWorker(worker)
	for _, cell := range g.held[worker] {
		g.owners[cell].Store(0)
	}
	g.held[worker] = g.held[worker][:0]
}

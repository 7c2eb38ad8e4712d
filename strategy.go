// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package exuder

import (
	"github.com/2dChan/exuder/lockgrid"
	"github.com/2dChan/exuder/regular"
	"github.com/golang/geo/r3"
)

// LockingStrategy is what differs between sequential and parallel
// exudation: how a region of space is claimed before it is read and
// mutated, and where cells that need work go.
type LockingStrategy interface {
	// TryLockRegion claims the points for worker without blocking.
	TryLockRegion(worker int, points []r3.Vector) bool
	// UnlockAll releases every claim of worker.
	UnlockAll(worker int)
	// EnqueueWork schedules cell, of quality value, for pumping.
	EnqueueWork(c regular.CellID, value float64)
	// DropWork unschedules cells that are about to be destroyed.
	DropWork(cells []regular.CellID)
}

type sequentialStrategy struct {
	queue *tetQueue
}

var _ LockingStrategy = (*sequentialStrategy)(nil)

func (s *sequentialStrategy) TryLockRegion(int, []r3.Vector) bool { return true }

func (s *sequentialStrategy) UnlockAll(int) {}

func (s *sequentialStrategy) EnqueueWork(c regular.CellID, value float64) {
	s.queue.Insert(c, value)
}

func (s *sequentialStrategy) DropWork(cells []regular.CellID) {
	for _, c := range cells {
		s.queue.Erase(c)
	}
}

type parallelStrategy struct {
	tr   *regular.Triangulation
	grid *lockgrid.Grid
	work *workBuffer
}

var _ LockingStrategy = (*parallelStrategy)(nil)

func (s *parallelStrategy) TryLockRegion(worker int, points []r3.Vector) bool {
	return s.grid.TryLockPoints(worker, points)
}

func (s *parallelStrategy) UnlockAll(worker int) {
	s.grid.UnlockAll(worker)
}

func (s *parallelStrategy) EnqueueWork(c regular.CellID, value float64) {
	s.work.push(task{cell: c, erase: s.tr.EraseCounter(c), value: value})
}

// DropWork is a no-op: tasks of destroyed cells see a stale erase counter.
func (s *parallelStrategy) DropWork([]regular.CellID) {}

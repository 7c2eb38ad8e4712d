// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package exuder

import (
	"sort"
	"testing"

	"github.com/2dChan/exuder/regular"
	"github.com/google/go-cmp/cmp"
)

func TestTetQueue(t *testing.T) {
	q := &tetQueue{}
	if !q.Empty() {
		t.Fatalf("Empty() = false on a new queue, want true")
	}
	q.Insert(5, 10)
	q.Insert(7, 2)
	q.Insert(9, 6)
	if q.Insert(7, 1) {
		t.Errorf("Insert(7, 1) = true for a queued cell, want false")
	}

	c, value, ok := q.Front()
	if !ok || c != 7 || value != 2 {
		t.Errorf("Front() = %v, %v, %v, want 7, 2, true", c, value, ok)
	}
	if !q.Erase(9) || q.Contains(9) {
		t.Errorf("Erase(9) did not remove the cell")
	}
	q.PopFront()

	cells := q.Cells()
	sort.Slice(cells, func(i, j int) bool { return cells[i] < cells[j] })
	if diff := cmp.Diff([]regular.CellID{5}, cells); diff != "" {
		t.Errorf("Cells() mismatch (-want +got):\n%s", diff)
	}
	q.Clear()
	if q.Len() != 0 {
		t.Errorf("Len() = %d after Clear, want 0", q.Len())
	}
}

func TestSequentialStrategy(t *testing.T) {
	q := &tetQueue{}
	s := &sequentialStrategy{queue: q}
	if !s.TryLockRegion(0, nil) {
		t.Errorf("TryLockRegion(0, nil) = false, want true")
	}
	s.EnqueueWork(1, 3)
	s.EnqueueWork(2, 4)
	s.DropWork([]regular.CellID{1, 8})
	if diff := cmp.Diff([]regular.CellID{2}, q.Cells()); diff != "" {
		t.Errorf("queue mismatch (-want +got):\n%s", diff)
	}
	s.UnlockAll(0)
}

func TestParallelStrategy(t *testing.T) {
	c := mustNewComplex(t, 50, 0)
	e := mustNewExuder(t, c, WithParallel(2))
	s := e.strategy
	cell := c.Cells()[0]
	points := e.tr.CellPoints(cell)

	if !s.TryLockRegion(1, points) {
		t.Fatalf("TryLockRegion(1, ...) = false, want true")
	}
	if s.TryLockRegion(2, points) {
		t.Errorf("TryLockRegion(2, ...) = true on a region of worker 1, want false")
	}
	s.UnlockAll(1)
	s.UnlockAll(2)
	if !s.TryLockRegion(2, points) {
		t.Errorf("TryLockRegion(2, ...) = false after UnlockAll, want true")
	}
	s.UnlockAll(2)

	s.EnqueueWork(cell, 3)
	s.DropWork([]regular.CellID{cell})
	got, ok := e.work.pop()
	want := task{cell: cell, erase: e.tr.EraseCounter(cell), value: 3}
	if !ok || got != want {
		t.Errorf("pop() = %v, %v, want %v, true", got, ok, want)
	}
}

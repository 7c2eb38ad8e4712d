// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package exuder

import (
	"sync"

	"github.com/2dChan/exuder/doublemap"
	"github.com/2dChan/exuder/regular"
)

// tetQueue holds the complex cells still to be improved, worst first.
// It carries its own mutex: it is the only shared container not covered by
// the lock grid.
type tetQueue struct {
	mu sync.Mutex
	m  doublemap.Map[regular.CellID]
}

func (q *tetQueue) Insert(c regular.CellID, value float64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.m.Insert(c, value)
}

func (q *tetQueue) Erase(c regular.CellID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.m.Erase(c)
}

func (q *tetQueue) Front() (regular.CellID, float64, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.m.Front()
}

func (q *tetQueue) PopFront() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.m.PopFront()
}

func (q *tetQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.m.Len()
}

func (q *tetQueue) Empty() bool {
	return q.Len() == 0
}

func (q *tetQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.m.Clear()
}

func (q *tetQueue) Contains(c regular.CellID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.m.Contains(c)
}

func (q *tetQueue) Cells() []regular.CellID {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.m.Keys()
}

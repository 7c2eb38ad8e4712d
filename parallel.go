// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package exuder

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/2dChan/exuder/doublemap"
	"github.com/2dChan/exuder/regular"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// task asks a worker to pump the vertices of cell, starting from vertex
// next. erase is the erase counter of cell when the task was made.
type task struct {
	cell  regular.CellID
	erase uint32
	value float64
	next  int
}

// workBuffer is the shared priority queue of parallel exudation. pending
// counts the tasks pushed and not yet done, so that workers know when the
// pass is over even while the buffer is momentarily empty.
type workBuffer struct {
	mu      sync.Mutex
	tasks   doublemap.Map[task]
	pending atomic.Int64
}

func newWorkBuffer() *workBuffer {
	return &workBuffer{}
}

func (b *workBuffer) push(t task) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tasks.Insert(t, t.value) {
		b.pending.Add(1)
	}
}

func (b *workBuffer) pop() (task, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, _, ok := b.tasks.Front()
	if ok {
		b.tasks.PopFront()
	}
	return t, ok
}

func (b *workBuffer) done() {
	b.pending.Add(-1)
}

func (b *workBuffer) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tasks.Len()
}

// runParallel drains the queue into the work buffer and runs the workers
// until no task is left. A panic in a worker stops the others and is raised
// again on the calling goroutine.
func (e *Exuder) runParallel(visitor Visitor) {
	for _, c := range e.queue.Cells() {
		value := e.cellValue(c)
		e.work.push(task{cell: c, erase: e.tr.EraseCounter(c), value: value})
	}
	e.queue.Clear()

	var visitMu sync.Mutex
	visit := func() {
		visitMu.Lock()
		defer visitMu.Unlock()
		visitor.AfterCellPumped(e.work.len())
	}

	var started, failed atomic.Bool
	var g errgroup.Group
	for worker := 1; worker <= e.opts.Workers; worker++ {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					failed.Store(true)
					err = errors.Errorf("worker %d: %v", worker, r)
				}
			}()
			for !started.Load() {
				runtime.Gosched()
			}
			for e.work.pending.Load() > 0 && !failed.Load() {
				t, ok := e.work.pop()
				if !ok {
					runtime.Gosched()
					continue
				}
				e.runTask(t, worker)
				e.work.done()
				visit()
			}
			return nil
		})
	}
	started.Store(true)
	if err := g.Wait(); err != nil {
		panic(err)
	}
}

// runTask pumps the first pumpable vertex of the task's cell. On contention
// the task goes back to the buffer at the vertex that failed.
func (e *Exuder) runTask(t task, worker int) {
	defer e.strategy.UnlockAll(worker)

	if e.isTimeLimitReached() {
		e.stats.dropped.Add(1)
		return
	}
	vertices, points, ok := e.tr.CurrentCell(t.cell, t.erase)
	if !ok {
		e.stats.stale.Add(1)
		return
	}
	if !e.strategy.TryLockRegion(worker, points) {
		e.stats.early.Add(1)
		e.requeue(t, worker)
		return
	}
	// The cell may have been destroyed before its region was ours.
	if _, _, ok := e.tr.CurrentCell(t.cell, t.erase); !ok {
		e.stats.stale.Add(1)
		return
	}

	for i := t.next; i < 4; i++ {
		v := vertices[i]
		if !e.opts.PumpOnSurfaces && e.c.Dimension(v) <= 2 {
			continue
		}
		e.stats.treated.Add(1)
		pumped, locked := e.pumpVertex(v, worker)
		if !locked {
			e.stats.late.Add(1)
			t.next = i
			e.requeue(t, worker)
			return
		}
		if pumped {
			e.stats.pumped.Add(1)
			return
		}
		e.stats.ignored.Add(1)
	}
}

func (e *Exuder) requeue(t task, worker int) {
	e.strategy.UnlockAll(worker)
	e.work.push(t)
	runtime.Gosched()
}

// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package exuder removes slivers from a 3D mesh by pumping vertex weights in
// its regular triangulation.
//
// A sliver is a flat tetrahedron whose four vertices lie close to a common
// circle. Increasing the weight of one of its vertices, without moving it,
// changes the regular triangulation around that vertex. The exuder picks for
// each vertex the weight that maximizes the worst quality of its incident
// tetrahedra, provided the change flips no surface facet of the mesh.
package exuder

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/2dChan/exuder/complex"
	"github.com/2dChan/exuder/lockgrid"
	"github.com/2dChan/exuder/regular"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Status is the outcome of an exudation run.
type Status int

const (
	// BoundReached means every cell of the complex has a quality at or
	// above the bound.
	BoundReached Status = iota
	// CantImproveAnymore means some cells are below the bound and none of
	// their vertices can be pumped.
	CantImproveAnymore
	// TimeLimitReached means the run stopped on its time limit.
	TimeLimitReached
)

func (s Status) String() string {
	switch s {
	case BoundReached:
		return "BOUND_REACHED"
	case CantImproveAnymore:
		return "CANT_IMPROVE_ANYMORE"
	case TimeLimitReached:
		return "TIME_LIMIT_REACHED"
	}
	return "UNKNOWN"
}

type counters struct {
	pumped  atomic.Int64
	ignored atomic.Int64
	treated atomic.Int64
	early   atomic.Int64
	late    atomic.Int64
	stale   atomic.Int64
	dropped atomic.Int64
}

func (c *counters) reset() {
	for _, n := range []*atomic.Int64{&c.pumped, &c.ignored, &c.treated, &c.early, &c.late, &c.stale, &c.dropped} {
		n.Store(0)
	}
}

// Exuder pumps the vertices of a mesh complex.
// An Exuder is not safe for concurrent use; parallelism is internal.
type Exuder struct {
	c    *complex.Complex
	tr   *regular.Triangulation
	opts Options
	log  logrus.FieldLogger

	sqDelta float64
	bound   float64

	queue    *tetQueue
	strategy LockingStrategy
	work     *workBuffer
	grid     *lockgrid.Grid

	stats   counters
	passes  int
	start   time.Time
	elapsed time.Duration

	// onImprove observes every improvement of the best weight.
	onImprove func(v regular.VertexID, weight, worst float64)
}

// New returns an Exuder of c.
func New(c *complex.Complex, setters ...Option) (*Exuder, error) {
	if c == nil || c.Triangulation() == nil {
		return nil, errors.New("exuder: nil complex")
	}
	opts := defaultOptions()
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, errors.Wrap(err, "exuder: invalid option")
		}
	}
	if opts.DebugChecks && opts.Workers > 0 {
		return nil, errors.New("exuder: debug checks require sequential mode")
	}

	e := &Exuder{
		c:       c,
		tr:      c.Triangulation(),
		opts:    opts,
		log:     opts.Logger,
		sqDelta: opts.Delta * opts.Delta,
		queue:   &tetQueue{},
	}
	if opts.Workers == 0 {
		e.strategy = &sequentialStrategy{queue: e.queue}
		return e, nil
	}

	grid, err := lockgrid.New(e.tr.Bbox(), opts.LockGridResolution, opts.Workers)
	if err != nil {
		return nil, errors.Wrap(err, "exuder: lock grid")
	}
	e.grid = grid
	e.work = newWorkBuffer()
	e.strategy = &parallelStrategy{tr: e.tr, grid: grid, work: e.work}
	return e, nil
}

// Exude pumps vertices until every cell of the complex has a quality of at
// least bound, no more cell can be improved, or the time limit is reached.
// A non-positive bound stands for the maximum value of the criterion.
// visitor may be nil.
//
// Each pass drains the queue once. Unless WithMaxPasses(1) is set, the queue
// is refilled from the complex and drained again while the previous pass
// pumped a vertex.
func (e *Exuder) Exude(bound float64, visitor Visitor) Status {
	if visitor == nil {
		visitor = NullVisitor{}
	}
	e.init(bound)
	e.stats.reset()
	e.passes = 0
	e.start = time.Now()

	log := e.log.WithFields(logrus.Fields{
		"bound":   e.bound,
		"workers": e.opts.Workers,
	})
	log.WithField("cells", e.queue.Len()).Debug("exuding")

	for e.passes < e.opts.MaxPasses && !e.queue.Empty() {
		before := e.stats.pumped.Load()
		if e.opts.Workers > 0 {
			e.runParallel(visitor)
		} else {
			e.runSequential(visitor)
		}
		e.passes++

		log.WithFields(logrus.Fields{
			"pass":    e.passes,
			"pumped":  e.stats.pumped.Load() - before,
			"ignored": e.stats.ignored.Load(),
		}).Debug("pass done")
		if e.isTimeLimitReached() || e.stats.pumped.Load() == before {
			break
		}
		e.initQueue()
	}
	e.elapsed = time.Since(e.start)

	status := CantImproveAnymore
	switch {
	case e.isTimeLimitReached():
		status = TimeLimitReached
	case e.checkSliverBound():
		status = BoundReached
	}
	log.WithFields(logrus.Fields{
		"status":  status,
		"pumped":  e.stats.pumped.Load(),
		"ignored": e.stats.ignored.Load(),
		"passes":  e.passes,
		"elapsed": e.elapsed,
	}).Info("exudation done")
	return status
}

func (e *Exuder) init(bound float64) {
	if bound > 0 {
		e.bound = bound
	} else {
		e.bound = e.opts.Criterion.MaxValue()
	}
	e.initQueue()
}

func (e *Exuder) initQueue() {
	e.queue.Clear()
	for _, c := range e.c.Cells() {
		if value := e.cellValue(c); value < e.bound {
			e.queue.Insert(c, value)
		}
	}
}

func (e *Exuder) runSequential(visitor Visitor) {
	for !e.queue.Empty() && !e.isTimeLimitReached() {
		c, _, _ := e.queue.Front()
		vertices := e.tr.CellVertices(c)

		pumped := false
		for _, v := range vertices {
			if !e.opts.PumpOnSurfaces && e.c.Dimension(v) <= 2 {
				continue
			}
			e.stats.treated.Add(1)
			if ok, _ := e.pumpVertex(v, 0); ok {
				e.stats.pumped.Add(1)
				pumped = true
				break
			}
			e.stats.ignored.Add(1)
		}

		// A cell none of whose vertices can be pumped is left as is.
		if !pumped {
			e.queue.PopFront()
		}
		visitor.AfterCellPumped(e.queue.Len())
	}
}

func (e *Exuder) isTimeLimitReached() bool {
	return e.opts.TimeLimit > 0 && time.Since(e.start) > e.opts.TimeLimit
}

// checkSliverBound reports whether every cell of the complex has a quality
// of at least the bound.
func (e *Exuder) checkSliverBound() bool {
	for _, c := range e.c.Cells() {
		if e.cellValue(c) < e.bound {
			return false
		}
	}
	return true
}

func (e *Exuder) cellValue(c regular.CellID) float64 {
	p := e.tr.CellPoints(c)
	return e.opts.Criterion.Value(p[0], p[1], p[2], p[3])
}

// pumpVertex pumps v to its best weight. locked is false when worker could
// not claim the region around v; nothing was changed then.
func (e *Exuder) pumpVertex(v regular.VertexID, worker int) (pumped, locked bool) {
	weight, locked := e.bestWeight(v, worker)
	if !locked {
		return false, false
	}
	wp := e.tr.Point(v)
	if weight <= wp.W {
		return false, true
	}
	wp.W = weight
	if _, locked := e.updateMesh(wp, v, worker); !locked {
		return false, false
	}
	return true, true
}

func minValue(values map[regular.Facet]float64) float64 {
	m := math.Inf(1)
	for _, v := range values {
		m = math.Min(m, v)
	}
	return m
}

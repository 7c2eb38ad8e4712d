// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package exuder

import (
	"fmt"
	"testing"
	"time"

	"github.com/2dChan/exuder/complex"
	"github.com/2dChan/exuder/criteria"
	"github.com/2dChan/exuder/kernel"
	"github.com/2dChan/exuder/regular"
	"github.com/2dChan/exuder/utils"
	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
)

var (
	unitBox      = kernel.Box{Max: r3.Vector{X: 1, Y: 1, Z: 1}}
	defaultBound = criteria.MinDihedralAngle{}.DefaultBound()
)

// mustNewComplex meshes n random points of the unit box, padded so that the
// box is away from the convex hull.
func mustNewComplex(t testing.TB, n int, seed int64) *complex.Complex {
	t.Helper()
	points := append(utils.GenerateRandomPoints(n, seed), utils.PaddingShell(unitBox, 0.5, 5, seed)...)
	tr, err := regular.NewTriangulation(utils.Weighted(points))
	if err != nil {
		t.Fatalf("regular.NewTriangulation(...) error = %v, want nil", err)
	}
	c, err := complex.Build(tr, complex.BoxDomain{Box: unitBox, Index: 1})
	if err != nil {
		t.Fatalf("complex.Build(...) error = %v, want nil", err)
	}
	return c
}

func mustNewExuder(t testing.TB, c *complex.Complex, setters ...Option) *Exuder {
	t.Helper()
	e, err := New(c, setters...)
	if err != nil {
		t.Fatalf("New(...) error = %v, want nil", err)
	}
	return e
}

func mustBeValid(t *testing.T, c *complex.Complex) {
	t.Helper()
	if err := c.Triangulation().Validate(); err != nil {
		t.Fatalf("tr.Validate() = %v, want nil", err)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("c.Validate() = %v, want nil", err)
	}
}

// Options

func TestOptions(t *testing.T) {
	tests := []struct {
		name    string
		opt     Option
		wantErr bool
	}{
		{"delta", WithDelta(0.3), false},
		{"delta one", WithDelta(1), false},
		{"delta zero", WithDelta(0), true},
		{"delta above one", WithDelta(1.5), true},
		{"time limit", WithTimeLimit(time.Second), false},
		{"no time limit", WithTimeLimit(0), false},
		{"criterion", WithCriterion(criteria.RadiusRatio{}), false},
		{"nil criterion", WithCriterion(nil), true},
		{"pump on surfaces", WithPumpOnSurfaces(false), false},
		{"parallel", WithParallel(4), false},
		{"parallel zero", WithParallel(0), true},
		{"resolution", WithLockGridResolution(10), false},
		{"resolution zero", WithLockGridResolution(0), true},
		{"passes", WithMaxPasses(3), false},
		{"passes zero", WithMaxPasses(0), true},
		{"debug checks", WithDebugChecks(true), false},
		{"nil logger", WithLogger(nil), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := defaultOptions()
			err := tt.opt(&opts)
			if (err != nil) != tt.wantErr {
				errValMsg := "nil"
				if tt.wantErr {
					errValMsg = "non-nil"
				}
				t.Errorf("opt(...) error = %v, want %v", err, errValMsg)
			}
		})
	}
}

func TestNew_Errors(t *testing.T) {
	c := mustNewComplex(t, 30, 0)
	tests := []struct {
		name    string
		c       *complex.Complex
		setters []Option
	}{
		{"nil complex", nil, nil},
		{"invalid option", c, []Option{WithDelta(-1)}},
		{"parallel debug checks", c, []Option{WithParallel(2), WithDebugChecks(true)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.c, tt.setters...); err == nil {
				t.Errorf("New(...) error = nil, want non-nil")
			}
		})
	}
}

func TestStatus_String(t *testing.T) {
	tests := []struct {
		s    Status
		want string
	}{
		{BoundReached, "BOUND_REACHED"},
		{CantImproveAnymore, "CANT_IMPROVE_ANYMORE"},
		{TimeLimitReached, "TIME_LIMIT_REACHED"},
		{Status(42), "UNKNOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.s.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// Exude

func TestExude_Improves(t *testing.T) {
	for _, seed := range []int64{0, 1, 2} {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			c := mustNewComplex(t, 300, seed)
			crit := criteria.MinDihedralAngle{}
			bound := crit.DefaultBound()
			before := Quality(c, crit, bound)

			e := mustNewExuder(t, c)
			status := e.Exude(bound, nil)
			if status == TimeLimitReached {
				t.Fatalf("Exude(...) = %v, want no time limit", status)
			}
			mustBeValid(t, c)

			r := e.Report()
			if r.Pumped == 0 {
				t.Errorf("Report().Pumped = 0, want > 0")
			}
			if r.Quality.Min < before.Min {
				t.Errorf("min quality = %v, want >= %v", r.Quality.Min, before.Min)
			}
			if (status == BoundReached) != (r.Quality.BelowBound == 0) {
				t.Errorf("status %v with %d cells below bound", status, r.Quality.BelowBound)
			}
		})
	}
}

func TestExude_QueueInComplex(t *testing.T) {
	c := mustNewComplex(t, 200, 3)
	e := mustNewExuder(t, c)
	calls := 0
	visitor := VisitorFunc(func(cellsLeft int) {
		calls++
		cells := e.queue.Cells()
		if len(cells) != cellsLeft {
			t.Fatalf("cellsLeft = %d, queue holds %d", cellsLeft, len(cells))
		}
		seen := map[regular.CellID]bool{}
		for _, cell := range cells {
			if seen[cell] {
				t.Fatalf("cell %d queued twice", cell)
			}
			seen[cell] = true
			if !c.IsCellInComplex(cell) {
				t.Fatalf("queued cell %d is not in the complex", cell)
			}
		}
	})
	e.Exude(defaultBound, visitor)
	if calls == 0 {
		t.Errorf("visitor calls = 0, want > 0")
	}
}

func TestExude_MinQualityNeverDecreases(t *testing.T) {
	c := mustNewComplex(t, 200, 4)
	crit := criteria.MinDihedralAngle{}
	e := mustNewExuder(t, c, WithMaxPasses(1))
	prev := Quality(c, crit, 0).Min
	for pass := range 4 {
		e.Exude(crit.DefaultBound(), nil)
		got := Quality(c, crit, 0).Min
		if got < prev {
			t.Fatalf("pass %d: min quality = %v, want >= %v", pass, got, prev)
		}
		prev = got
	}
}

func TestExude_Idempotent(t *testing.T) {
	const maxPasses = 1000
	c := mustNewComplex(t, 200, 5)
	bound := criteria.MinDihedralAngle{}.DefaultBound()
	e := mustNewExuder(t, c, WithMaxPasses(maxPasses))
	first := e.Exude(bound, nil)
	if e.Report().Passes >= maxPasses {
		t.Skipf("exudation did not settle in %d passes", maxPasses)
	}
	cells := c.Cells()

	second := e.Exude(bound, nil)
	if second != first {
		t.Errorf("second Exude(...) = %v, want %v", second, first)
	}
	if got := e.Report().Pumped; got != 0 {
		t.Errorf("second run Pumped = %d, want 0", got)
	}
	if diff := cmp.Diff(cells, c.Cells()); diff != "" {
		t.Errorf("second run changed the complex (-before +after):\n%s", diff)
	}
}

func TestExude_TimeLimit(t *testing.T) {
	c := mustNewComplex(t, 200, 6)
	e := mustNewExuder(t, c, WithTimeLimit(time.Nanosecond))
	if got := e.Exude(0, nil); got != TimeLimitReached {
		t.Errorf("Exude(...) = %v, want %v", got, TimeLimitReached)
	}
	mustBeValid(t, c)
}

func TestExude_Visitor(t *testing.T) {
	c := mustNewComplex(t, 150, 7)
	e := mustNewExuder(t, c)
	var left []int
	e.Exude(defaultBound, VisitorFunc(func(cellsLeft int) { left = append(left, cellsLeft) }))
	if len(left) == 0 {
		t.Fatalf("visitor calls = 0, want > 0")
	}
	if last := left[len(left)-1]; last != 0 {
		t.Errorf("last cellsLeft = %d, want 0", last)
	}
}

func TestExude_KeepsSurfaceVertices(t *testing.T) {
	c := mustNewComplex(t, 200, 8)
	e := mustNewExuder(t, c, WithPumpOnSurfaces(false))
	e.onImprove = func(v regular.VertexID, _, _ float64) {
		if d := c.Dimension(v); d != 3 {
			t.Errorf("vertex %d of dimension %d pumped", v, d)
		}
	}
	e.Exude(defaultBound, nil)
	mustBeValid(t, c)
}

func TestExude_RadiusRatio(t *testing.T) {
	c := mustNewComplex(t, 200, 9)
	crit := criteria.RadiusRatio{}
	before := Quality(c, crit, crit.DefaultBound())
	e := mustNewExuder(t, c, WithCriterion(crit))
	e.Exude(crit.DefaultBound(), nil)
	mustBeValid(t, c)
	if got := e.Report().Quality.Min; got < before.Min {
		t.Errorf("min quality = %v, want >= %v", got, before.Min)
	}
}

func TestExude_DebugChecks(t *testing.T) {
	c := mustNewComplex(t, 120, 10)
	e := mustNewExuder(t, c, WithDebugChecks(true))
	e.Exude(defaultBound, nil)
	mustBeValid(t, c)
}

// A single sliver whose four facets are all on the surface cannot be
// improved: every expansion of a vertex star either leaves its quality
// unchanged or crosses the surface.
func TestExude_LoneSliver(t *testing.T) {
	const h = 0.05
	sliver := []r3.Vector{
		{X: 1, Z: h}, {X: -1, Z: h}, {Y: 1, Z: -h}, {Y: -1, Z: -h},
	}
	box := kernel.Box{Min: r3.Vector{X: -1, Y: -1, Z: -1}, Max: r3.Vector{X: 1, Y: 1, Z: 1}}
	points := append(sliver, utils.PaddingShell(box, 0.5, 4, 0)...)
	tr, err := regular.NewTriangulation(utils.Weighted(points))
	if err != nil {
		t.Fatalf("regular.NewTriangulation(...) error = %v, want nil", err)
	}

	c := complex.New(tr)
	found := false
	for _, id := range tr.FiniteCells() {
		inner := true
		for _, p := range tr.CellPoints(id) {
			inner = inner && p.Norm() < 1.01
		}
		if !inner {
			continue
		}
		found = true
		c.AddCell(id, 1)
		for i := range 4 {
			c.AddFacet(regular.Facet{Cell: id, Index: i}, complex.PatchBetween(1, 0))
		}
		for _, v := range tr.CellVertices(id) {
			c.SetDimension(v, 2)
			c.SetIndex(v, int(complex.PatchBetween(1, 0)))
		}
	}
	if !found {
		t.Fatalf("sliver is not a cell of the triangulation")
	}

	e := mustNewExuder(t, c)
	if got := e.Exude(0, nil); got != CantImproveAnymore {
		t.Errorf("Exude(...) = %v, want %v", got, CantImproveAnymore)
	}
	r := e.Report()
	if r.Pumped != 0 {
		t.Errorf("Report().Pumped = %d, want 0", r.Pumped)
	}
	if r.Treated != 4 {
		t.Errorf("Report().Treated = %d, want 4", r.Treated)
	}
	mustBeValid(t, c)
}

func TestQuality_Empty(t *testing.T) {
	c := mustNewComplex(t, 30, 0)
	empty := complex.New(c.Triangulation())
	if diff := cmp.Diff(QualitySummary{}, Quality(empty, criteria.MinDihedralAngle{}, 12)); diff != "" {
		t.Errorf("Quality(...) mismatch (-want +got):\n%s", diff)
	}
}

func TestReport(t *testing.T) {
	c := mustNewComplex(t, 200, 11)
	e := mustNewExuder(t, c)
	e.Exude(defaultBound, nil)
	r := e.Report()
	if r.Pumped+r.Ignored != r.Treated {
		t.Errorf("pumped %d + ignored %d != treated %d", r.Pumped, r.Ignored, r.Treated)
	}
	if r.Passes == 0 {
		t.Errorf("Report().Passes = 0, want > 0")
	}
	q := r.Quality
	if q.Cells != c.NumCells() {
		t.Errorf("Quality.Cells = %d, want %d", q.Cells, c.NumCells())
	}
	if q.Min > q.P10 || q.P10 > q.Median {
		t.Errorf("Quality min %v, p10 %v, median %v out of order", q.Min, q.P10, q.Median)
	}
	if q.BelowBound > q.Cells {
		t.Errorf("Quality.BelowBound = %d, want <= %d", q.BelowBound, q.Cells)
	}
}

func BenchmarkExude(b *testing.B) {
	for _, n := range []int{200, 1000} {
		b.Run(fmt.Sprintf("n=%d", n), func(b *testing.B) {
			for b.Loop() {
				b.StopTimer()
				c := mustNewComplex(b, n, 0)
				e := mustNewExuder(b, c)
				b.StartTimer()
				e.Exude(criteria.MinDihedralAngle{}.DefaultBound(), nil)
			}
		})
	}
}

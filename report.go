// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package exuder

import (
	"slices"
	"time"

	"github.com/2dChan/exuder/complex"
	"github.com/2dChan/exuder/criteria"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Report describes the last run of Exude.
type Report struct {
	Pumped  int64
	Ignored int64
	// Treated counts pump attempts, retried ones included.
	Treated int64
	Passes  int

	// Parallel mode only.
	EarlyWithdrawals int64
	LateWithdrawals  int64
	LockRetries      int64
	StaleTasks       int64
	DroppedTasks     int64

	Elapsed time.Duration
	Quality QualitySummary
}

// QualitySummary sums up the quality of the cells of a complex.
type QualitySummary struct {
	Cells      int
	Min        float64
	Mean       float64
	Median     float64
	P10        float64
	BelowBound int
}

// Report returns the counters of the last run and the current quality of
// the complex.
func (e *Exuder) Report() Report {
	early, late := e.stats.early.Load(), e.stats.late.Load()
	return Report{
		Pumped:           e.stats.pumped.Load(),
		Ignored:          e.stats.ignored.Load(),
		Treated:          e.stats.treated.Load(),
		Passes:           e.passes,
		EarlyWithdrawals: early,
		LateWithdrawals:  late,
		LockRetries:      early + late,
		StaleTasks:       e.stats.stale.Load(),
		DroppedTasks:     e.stats.dropped.Load(),
		Elapsed:          e.elapsed,
		Quality:          Quality(e.c, e.opts.Criterion, e.bound),
	}
}

// Quality computes the quality summary of the cells of c under crit.
func Quality(c *complex.Complex, crit criteria.Criterion, bound float64) QualitySummary {
	tr := c.Triangulation()
	cells := c.Cells()
	if len(cells) == 0 {
		return QualitySummary{}
	}

	values := make([]float64, len(cells))
	below := 0
	for i, cell := range cells {
		p := tr.CellPoints(cell)
		values[i] = crit.Value(p[0], p[1], p[2], p[3])
		if values[i] < bound {
			below++
		}
	}
	slices.Sort(values)
	return QualitySummary{
		Cells:      len(values),
		Min:        floats.Min(values),
		Mean:       stat.Mean(values, nil),
		Median:     stat.Quantile(0.5, stat.Empirical, values, nil),
		P10:        stat.Quantile(0.1, stat.Empirical, values, nil),
		BelowBound: below,
	}
}

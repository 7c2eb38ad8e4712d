// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package exuder

import (
	"errors"
	"io"
	"time"

	"github.com/2dChan/exuder/criteria"
	"github.com/2dChan/exuder/lockgrid"
	"github.com/sirupsen/logrus"
)

const (
	defaultDelta     = 0.45
	defaultMaxPasses = 16
)

type Options struct {
	// Delta bounds pumping: a vertex weight never exceeds Delta² times the
	// squared distance to its nearest neighbour.
	Delta     float64
	TimeLimit time.Duration
	Criterion criteria.Criterion
	// PumpOnSurfaces allows pumping vertices of dimension 2 or less.
	PumpOnSurfaces     bool
	Workers            int
	LockGridResolution int
	MaxPasses          int
	DebugChecks        bool
	Logger             logrus.FieldLogger
}

type Option func(*Options) error

func defaultOptions() Options {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	return Options{
		Delta:              defaultDelta,
		Criterion:          criteria.MinDihedralAngle{},
		PumpOnSurfaces:     true,
		LockGridResolution: lockgrid.DefaultResolution,
		MaxPasses:          defaultMaxPasses,
		Logger:             discard,
	}
}

func WithDelta(d float64) Option {
	return func(o *Options) error {
		if d <= 0 || d > 1 {
			return errors.New("WithDelta: delta must be in (0 1]")
		}
		o.Delta = d
		return nil
	}
}

// WithTimeLimit stops exudation once d has elapsed. A non-positive d
// disables the limit.
func WithTimeLimit(d time.Duration) Option {
	return func(o *Options) error {
		o.TimeLimit = d
		return nil
	}
}

func WithCriterion(c criteria.Criterion) Option {
	return func(o *Options) error {
		if c == nil {
			return errors.New("WithCriterion: nil criterion")
		}
		o.Criterion = c
		return nil
	}
}

func WithPumpOnSurfaces(pump bool) Option {
	return func(o *Options) error {
		o.PumpOnSurfaces = pump
		return nil
	}
}

// WithParallel runs exudation on the given number of workers.
func WithParallel(workers int) Option {
	return func(o *Options) error {
		if workers < 1 {
			return errors.New("WithParallel: at least one worker required")
		}
		o.Workers = workers
		return nil
	}
}

func WithLockGridResolution(n int) Option {
	return func(o *Options) error {
		if n < 1 {
			return errors.New("WithLockGridResolution: resolution must be positive")
		}
		o.LockGridResolution = n
		return nil
	}
}

// WithMaxPasses bounds the number of sweeps over the mesh. A sweep that
// pumps nothing ends exudation earlier. With n = 1 the queue is drained
// once, cells improved late in the sweep are not revisited.
func WithMaxPasses(n int) Option {
	return func(o *Options) error {
		if n < 1 {
			return errors.New("WithMaxPasses: at least one pass required")
		}
		o.MaxPasses = n
		return nil
	}
}

// WithDebugChecks cross-checks every accepted weight against an independent
// conflict zone computation and panics on mismatch. Sequential mode only.
func WithDebugChecks(check bool) Option {
	return func(o *Options) error {
		o.DebugChecks = check
		return nil
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(o *Options) error {
		if l == nil {
			return errors.New("WithLogger: nil logger")
		}
		o.Logger = l
		return nil
	}
}

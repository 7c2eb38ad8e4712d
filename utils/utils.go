// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package utils provides utility functions for generating point sets for
// triangulations and exudation runs.

package utils

import (
	"math/rand"

	"github.com/2dChan/exuder/kernel"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// GenerateRandomPoints generates cnt random points in the unit cube.
// The seed parameter ensures reproducibility.
func GenerateRandomPoints(cnt int, seed int64) []r3.Vector {
	//nolint:gosec
	random := rand.New(rand.NewSource(seed))
	points := make([]r3.Vector, cnt)

	for i := range cnt {
		points[i] = r3.Vector{
			X: random.Float64(),
			Y: random.Float64(),
			Z: random.Float64(),
		}
	}

	return points
}

// GenerateSpacedPoints generates up to cnt random points in the unit cube no
// two of which are closer than minDist. It gives up after a bounded number of
// rejected candidates, so fewer points may be returned.
func GenerateSpacedPoints(cnt int, minDist float64, seed int64) []r3.Vector {
	//nolint:gosec
	random := rand.New(rand.NewSource(seed))
	next := func() r3.Vector {
		return r3.Vector{X: random.Float64(), Y: random.Float64(), Z: random.Float64()}
	}
	if cnt <= 0 {
		return nil
	}

	first := next()
	points := []r3.Vector{first}
	tree := kdtree.New(kdtree.Points{{first.X, first.Y, first.Z}}, false)
	sqMin := minDist * minDist
	for rejected := 0; len(points) < cnt && rejected < 100*cnt; {
		p := next()
		q := kdtree.Point{p.X, p.Y, p.Z}
		if _, sqDist := tree.Nearest(q); sqDist < sqMin {
			rejected++
			continue
		}
		tree.Insert(q, false)
		points = append(points, p)
	}
	return points
}

// PaddingShell returns an n×n grid of points on each face of box enlarged
// by margin, jittered by a tenth of the grid spacing. Triangulating it
// together with points inside box keeps those points away from the convex
// hull. It panics if n < 2.
func PaddingShell(box kernel.Box, margin float64, n int, seed int64) []r3.Vector {
	if n < 2 {
		panic("PaddingShell: n must be at least 2")
	}
	lo := box.Min.Sub(r3.Vector{X: margin, Y: margin, Z: margin})
	hi := box.Max.Add(r3.Vector{X: margin, Y: margin, Z: margin})
	size := hi.Sub(lo)

	seen := map[r3.Vector]bool{}
	var out []r3.Vector
	add := func(p r3.Vector) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for i := range n {
		for j := range n {
			u := float64(i) / float64(n-1)
			v := float64(j) / float64(n-1)
			for _, side := range []float64{0, 1} {
				add(r3.Vector{X: lo.X + side*size.X, Y: lo.Y + u*size.Y, Z: lo.Z + v*size.Z})
				add(r3.Vector{X: lo.X + u*size.X, Y: lo.Y + side*size.Y, Z: lo.Z + v*size.Z})
				add(r3.Vector{X: lo.X + u*size.X, Y: lo.Y + v*size.Y, Z: lo.Z + side*size.Z})
			}
		}
	}

	//nolint:gosec
	random := rand.New(rand.NewSource(seed))
	jitter := 0.1 * max(size.X, size.Y, size.Z) / float64(n-1)
	for i := range out {
		out[i] = out[i].Add(r3.Vector{
			X: (random.Float64()*2 - 1) * jitter,
			Y: (random.Float64()*2 - 1) * jitter,
			Z: (random.Float64()*2 - 1) * jitter,
		})
	}
	return out
}

// Weighted returns the points with weight zero.
func Weighted(points []r3.Vector) []kernel.WeightedPoint {
	out := make([]kernel.WeightedPoint, len(points))
	for i, p := range points {
		out[i] = kernel.WeightedPoint{P: p}
	}
	return out
}

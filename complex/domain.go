// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package complex

import (
	"github.com/2dChan/exuder/kernel"
	"github.com/golang/geo/r3"
	"github.com/markus-wa/quickhull-go/v2"
	"github.com/pkg/errors"
)

const defaultHullEps = 1e-12

// Domain classifies points of space into subdomains. Zero is outside.
type Domain interface {
	Subdomain(p r3.Vector) Subdomain
}

// BoxDomain is an axis aligned box labelled Index.
type BoxDomain struct {
	Box   kernel.Box
	Index Subdomain
}

var _ Domain = BoxDomain{}

func (d BoxDomain) Subdomain(p r3.Vector) Subdomain {
	if d.Box.Contains(p) {
		return d.Index
	}
	return 0
}

type plane struct {
	n r3.Vector
	d float64
}

// ConvexDomain is the convex hull of a point set labelled Index.
type ConvexDomain struct {
	planes []plane
	index  Subdomain
	eps    float64
}

var _ Domain = (*ConvexDomain)(nil)

// NewConvexDomain returns the domain bounded by the convex hull of points.
func NewConvexDomain(points []r3.Vector, index Subdomain) (*ConvexDomain, error) {
	if len(points) < 4 {
		return nil, errors.New("complex: insufficient points for a convex domain (minimum 4 required)")
	}
	if index == 0 {
		return nil, errors.New("complex: convex domain index must be non-zero")
	}

	var centroid r3.Vector
	box := kernel.EmptyBox()
	for _, p := range points {
		centroid = centroid.Add(p)
		box = box.Extend(p)
	}
	centroid = centroid.Mul(1 / float64(len(points)))
	size := box.Size()
	scale := max(size.X, size.Y, size.Z)

	qh := new(quickhull.QuickHull)
	ch := qh.ConvexHull(points, true, true, defaultHullEps)
	if len(ch.Indices) < 12 || len(ch.Indices)%3 != 0 {
		return nil, errors.Errorf("complex: degenerate hull with %d indices", len(ch.Indices))
	}

	d := &ConvexDomain{index: index, eps: 1e-9 * scale}
	for i := 0; i < len(ch.Indices); i += 3 {
		a := points[ch.Indices[i]]
		b := points[ch.Indices[i+1]]
		c := points[ch.Indices[i+2]]
		n := b.Sub(a).Cross(c.Sub(a))
		if n.Norm() == 0 {
			continue
		}
		n = n.Normalize()
		if n.Dot(centroid.Sub(a)) > 0 {
			n = n.Mul(-1)
		}
		d.planes = append(d.planes, plane{n: n, d: n.Dot(a)})
	}
	return d, nil
}

// Subdomain returns the index of the domain if p lies in the closed hull.
func (d *ConvexDomain) Subdomain(p r3.Vector) Subdomain {
	for _, pl := range d.planes {
		if pl.n.Dot(p)-pl.d > d.eps {
			return 0
		}
	}
	return d.index
}

// NumPlanes returns the number of hull facets bounding the domain.
func (d *ConvexDomain) NumPlanes() int {
	return len(d.planes)
}

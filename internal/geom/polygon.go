package geom

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Polygon is a sight region backed by an orb polygon. The first ring is the
// outer boundary; any further rings are holes. Points on the boundary count
// as inside.
type Polygon struct {
	poly  orb.Polygon
	bound orb.Bound
}

// NewPolygon builds a single-ring polygon from vertices in order.
// Fewer than three vertices yield a polygon that contains nothing.
func NewPolygon(pts [][2]float64) *Polygon {
	ring := make(orb.Ring, 0, len(pts)+1)
	for _, p := range pts {
		ring = append(ring, orb.Point{p[0], p[1]})
	}
	if len(ring) > 0 && !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return FromOrb(orb.Polygon{ring})
}

// FromOrb wraps an existing orb polygon.
func FromOrb(p orb.Polygon) *Polygon {
	if len(p) == 0 || len(p[0]) < 4 {
		return &Polygon{}
	}
	return &Polygon{poly: p, bound: p.Bound()}
}

// Rect is an axis-aligned rectangular region.
func Rect(x0, y0, x1, y1 float64) *Polygon {
	b := orb.Bound{Min: orb.Point{x0, y0}, Max: orb.Point{x1, y1}}
	return FromOrb(b.ToPolygon())
}

func (p *Polygon) Contains(x, y float64) bool {
	if p == nil || p.poly == nil {
		return false
	}
	pt := orb.Point{x, y}
	if !p.bound.Contains(pt) {
		return false
	}
	return planar.PolygonContains(p.poly, pt)
}

// Empty reports whether p can contain any point.
func (p *Polygon) Empty() bool {
	return p == nil || p.poly == nil
}

// Vertices returns the outer ring, closing point omitted.
func (p *Polygon) Vertices() [][2]float64 {
	if p.Empty() {
		return nil
	}
	ring := p.poly[0]
	out := make([][2]float64, 0, len(ring)-1)
	for _, pt := range ring[:len(ring)-1] {
		out = append(out, [2]float64{pt[0], pt[1]})
	}
	return out
}

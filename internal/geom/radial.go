package geom

import (
	"math"

	"github.com/paulmach/orb"
)

const defaultSegments = 48

// Cone describes an emission: origin, reach and an optional facing arc.
// Angle is the arc width in degrees (0 or >= 360 means all around).
// Rotation is the facing in degrees, 0 pointing toward +y.
type Cone struct {
	X, Y     float64
	Radius   float64
	Angle    float64
	Rotation float64
}

// RadialBuilder produces sight regions for an unobstructed scene. It stands in
// for the host's wall-aware polygon computation: line of sight is the whole
// scene rectangle, field of view a circle or sector clipped to nothing else.
type RadialBuilder struct {
	Width    float64
	Height   float64
	Segments int
}

// LOS returns the line-of-sight region for an emitter at (x, y). Emitters
// outside the scene see nothing.
func (b RadialBuilder) LOS(x, y float64) *Polygon {
	scene := Rect(0, 0, b.Width, b.Height)
	if !scene.Contains(x, y) {
		return &Polygon{}
	}
	return scene
}

// FOV returns the field-of-view region for c.
func (b RadialBuilder) FOV(c Cone) *Polygon {
	if c.Radius <= 0 {
		return &Polygon{}
	}
	n := b.Segments
	if n < 8 {
		n = defaultSegments
	}
	// Circumscribe so every point at exactly Radius is inside.
	r := c.Radius / math.Cos(math.Pi/float64(n))

	if c.Angle <= 0 || c.Angle >= 360 {
		ring := make(orb.Ring, 0, n+1)
		for i := 0; i < n; i++ {
			a := 2 * math.Pi * float64(i) / float64(n)
			ring = append(ring, orb.Point{c.X + r*math.Cos(a), c.Y + r*math.Sin(a)})
		}
		ring = append(ring, ring[0])
		return FromOrb(orb.Polygon{ring})
	}

	facing := (c.Rotation + 90) * math.Pi / 180
	half := c.Angle * math.Pi / 360
	steps := int(math.Ceil(float64(n) * c.Angle / 360))
	if steps < 2 {
		steps = 2
	}
	r = c.Radius / math.Cos(half/float64(steps))

	ring := make(orb.Ring, 0, steps+3)
	ring = append(ring, orb.Point{c.X, c.Y})
	for i := 0; i <= steps; i++ {
		a := facing - half + 2*half*float64(i)/float64(steps)
		ring = append(ring, orb.Point{c.X + r*math.Cos(a), c.Y + r*math.Sin(a)})
	}
	ring = append(ring, ring[0])
	return FromOrb(orb.Polygon{ring})
}

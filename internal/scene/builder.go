package scene

import (
	"github.com/pointofvision/server/internal/geom"
	"github.com/pointofvision/server/internal/vision"
)

// Builder turns an emission origin into sight regions. Hosts with wall-aware
// polygon computation plug their own implementation in here.
type Builder interface {
	Sight(x, y float64, e Emission) vision.Sight
	Light(x, y float64, e Emission) vision.Region
}

// RadialSights builds regions for a scene without walls.
type RadialSights struct {
	geom.RadialBuilder
}

func (b RadialSights) Sight(x, y float64, e Emission) vision.Sight {
	return vision.Sight{
		LOS: b.LOS(x, y),
		FOV: b.FOV(cone(x, y, e)),
	}
}

func (b RadialSights) Light(x, y float64, e Emission) vision.Region {
	return b.FOV(cone(x, y, e))
}

func cone(x, y float64, e Emission) geom.Cone {
	return geom.Cone{X: x, Y: y, Radius: e.Radius(), Angle: e.Angle, Rotation: e.Rotation}
}

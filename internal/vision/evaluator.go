package vision

// Region is a polygonal visibility area. Containment is owned by the region's
// implementation; the evaluator only generates probe coordinates.
type Region interface {
	Contains(x, y float64) bool
}

// Sight is the pair of regions one vision source contributes.
// LOS is the wall-aware coarse region, FOV the range/angle-limited one.
type Sight struct {
	LOS Region
	FOV Region
}

// ProbeOffsets returns the nine offsets tested for every token regardless of
// its own sampling mode: center, then left, right, top, bottom mids, then
// corners. The set matches the host's visibility probe exactly, including the
// unnudged y on the top-left corner.
func ProbeOffsets(w, h float64) [9][2]float64 {
	hw, hh := w/2, h/2
	return [9][2]float64{
		{0, 0},
		{-hw + Epsilon, 0},
		{hw, 0},
		{0, -hh + Epsilon},
		{0, hh},
		{-hw + Epsilon, -hh},
		{-hw + Epsilon, hh},
		{hw, hh},
		{hw, -hh + Epsilon},
	}
}

// probes returns the absolute probe points for box.
func probes(box BoundingBox) [9][2]float64 {
	pts := ProbeOffsets(box.Width, box.Height)
	for i := range pts {
		pts[i][0] += box.CenterX
		pts[i][1] += box.CenterY
	}
	return pts
}

// IsVisible reports whether any probe point of box is visible.
//
// With no vision source on the scene only a privileged observer sees anything.
// Otherwise a probe must fall inside some LOS region, and then, unless global
// illumination is on, inside some FOV region of either a vision source or a
// light source.
func IsVisible(box BoundingBox, sights []Sight, lights []Region, globalIllumination, privileged bool) bool {
	if len(sights) == 0 {
		return privileged
	}
	pts := probes(box)
	return evaluate(pts[:], sights, lights, globalIllumination)
}

// IsCenterVisible is the single-point test used when expanded checks are off.
func IsCenterVisible(box BoundingBox, sights []Sight, lights []Region, globalIllumination, privileged bool) bool {
	if len(sights) == 0 {
		return privileged
	}
	return evaluate([][2]float64{{box.CenterX, box.CenterY}}, sights, lights, globalIllumination)
}

func evaluate(pts [][2]float64, sights []Sight, lights []Region, globalIllumination bool) bool {
	inLOS := false
	for _, s := range sights {
		if anyInside(s.LOS, pts) {
			inLOS = true
			break
		}
	}
	if !inLOS {
		return false
	}

	if globalIllumination {
		return true
	}

	for _, s := range sights {
		if anyInside(s.FOV, pts) {
			return true
		}
	}
	for _, l := range lights {
		if anyInside(l, pts) {
			return true
		}
	}
	return false
}

func anyInside(r Region, pts [][2]float64) bool {
	if r == nil {
		return false
	}
	for _, p := range pts {
		if r.Contains(p[0], p[1]) {
			return true
		}
	}
	return false
}

package scene

import (
	"slices"

	"github.com/pointofvision/server/internal/vision"
)

// Emission holds the parameters a source emits with. Auxiliary sample-point
// sources copy these from the token's primary source unchanged.
type Emission struct {
	Dim       float64
	Bright    float64
	Angle     float64
	Rotation  float64
	Color     string
	Alpha     float64
	Darkness  float64
	Type      string
	Animation string
	Seed      int64
	Z         int
}

// Radius is the reach of the emission: the larger of dim and bright.
func (e Emission) Radius() float64 {
	return max(e.Dim, e.Bright)
}

// Token is the scene document for one game piece.
type Token struct {
	ID     string
	Name   string
	X      float64 // top-left corner
	Y      float64
	Width  float64
	Height float64
	Hidden bool
	Sight  bool
	Vision Emission
	Owners []string

	// PovFlag is the per-token sampling override; nil means world default.
	PovFlag *int
}

func (t *Token) Center() (float64, float64) {
	return t.X + t.Width/2, t.Y + t.Height/2
}

func (t *Token) Box() vision.BoundingBox {
	cx, cy := t.Center()
	return vision.BoundingBox{CenterX: cx, CenterY: cy, Width: t.Width, Height: t.Height}
}

func (t *Token) OwnedBy(userID string) bool {
	return slices.Contains(t.Owners, userID)
}

func (t *Token) clone() *Token {
	c := *t
	c.Owners = slices.Clone(t.Owners)
	if t.PovFlag != nil {
		v := *t.PovFlag
		c.PovFlag = &v
	}
	return &c
}

// SourceID is the primary vision source key of a token. Auxiliary sources
// are keyed SourceID + "-" + slot.
func SourceID(tokenID string) string {
	return "Token." + tokenID
}

// User is the observer a canvas renders for.
type User struct {
	ID string
	GM bool
}

// Light is an ambient light placed on the scene.
type Light struct {
	ID string
	X  float64
	Y  float64
	Emission
}

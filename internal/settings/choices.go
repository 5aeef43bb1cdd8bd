package settings

import (
	"github.com/pointofvision/server/internal/i18n"
	"github.com/pointofvision/server/internal/vision"
)

// Choice is one entry of a select list. Group is empty for top-level entries.
type Choice struct {
	Value int
	Label string
	Group string
}

var (
	cornerModes = []vision.Mode{
		vision.ModeTopLeft, vision.ModeTopRight, vision.ModeBottomLeft,
		vision.ModeBottomRight, vision.ModeAllCornersAndCenter,
	}
	midpointModes = []vision.Mode{
		vision.ModeTop, vision.ModeBottom, vision.ModeLeft,
		vision.ModeRight, vision.ModeAllMidsAndCenter,
	}
)

// TokenConfigChoices is the override list shown on the token config form,
// in display order. The first entry (ModeUnset) names the current world default.
func (s *Store) TokenConfigChoices(lang string) []Choice {
	p := i18n.NewPrinter(lang)
	def := s.Snapshot().DefaultMode

	out := make([]Choice, 0, 2+len(cornerModes)+len(midpointModes))
	out = append(out,
		Choice{Value: int(vision.ModeUnset), Label: p.Text(i18n.KeyDefaultChoice, p.ModeLabel(def))},
		Choice{Value: int(vision.ModeCenter), Label: p.Text(i18n.KeyHostDefault, p.ModeLabel(vision.ModeCenter))},
	)
	corners := p.Text(i18n.KeyGroupCorners)
	for _, m := range cornerModes {
		out = append(out, Choice{Value: int(m), Label: p.ModeLabel(m), Group: corners})
	}
	mids := p.Text(i18n.KeyGroupMidpoints)
	for _, m := range midpointModes {
		out = append(out, Choice{Value: int(m), Label: p.ModeLabel(m), Group: mids})
	}
	return out
}

// WorldChoices lists the modes allowed as world default.
func WorldChoices(lang string) []Choice {
	p := i18n.NewPrinter(lang)
	modes := []vision.Mode{vision.ModeCenter, vision.ModeAllCornersAndCenter, vision.ModeAllMidsAndCenter}
	out := make([]Choice, len(modes))
	for i, m := range modes {
		out[i] = Choice{Value: int(m), Label: p.ModeLabel(m)}
	}
	return out
}

package scene

import (
	"fmt"

	"github.com/pointofvision/server/internal/vision"
)

// TokenVisible reports whether a token is visible on a user's canvas.
func (s *Scene) TokenVisible(userID, tokenID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.canvases[userID]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownUser, userID)
	}
	tok, ok := s.tokens[tokenID]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownToken, tokenID)
	}
	return s.tokenVisible(c, tok, s.settings.Snapshot()), nil
}

// VisibleTokens returns the ids of every token visible to a user, in order.
func (s *Scene) VisibleTokens(userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.canvases[userID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUser, userID)
	}
	set := s.settings.Snapshot()
	var out []string
	for _, id := range s.tokenIDsLocked() {
		if s.tokenVisible(c, s.tokens[id], set) {
			out = append(out, id)
		}
	}
	return out, nil
}

// tokenVisible runs the bypass checks in order (hidden, token vision off,
// controlled, own source) before probing geometry. With expanded checks off
// only the token center is probed.
func (s *Scene) tokenVisible(c *canvas, tok *Token, set vision.Settings) bool {
	gm := c.user.GM
	if tok.Hidden {
		return gm
	}
	if !s.tokenVision {
		return true
	}
	if c.controls(tok.ID) {
		return true
	}
	if c.sources.Has(SourceID(tok.ID)) {
		return true
	}

	box := tok.Box()
	if box.Validate() != nil {
		return false
	}
	sights := c.sources.Sights()
	lights := s.lightRegions()
	if !set.ExpandVisibility {
		return vision.IsCenterVisible(box, sights, lights, s.globalLight, gm)
	}
	return vision.IsVisible(box, sights, lights, s.globalLight, gm)
}

package scene

import (
	"fmt"
	"strconv"

	"github.com/pointofvision/server/internal/core/event"
	"github.com/pointofvision/server/internal/vision"
	"go.uber.org/zap"
)

// UpdateOptions control a source rebuild.
type UpdateOptions struct {
	Defer       bool // skip the draw + refresh step; caller refreshes later
	Deleted     bool // the token is being removed
	NoUpdateFog bool // never update fog exploration for this refresh
}

// UpdateSource rebuilds one token's vision sources on one user's canvas.
func (s *Scene) UpdateSource(userID, tokenID string, opts UpdateOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.canvases[userID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownUser, userID)
	}
	return s.updateSource(c, tokenID, opts)
}

// UpdateSourceAll rebuilds a token's sources on every canvas. Every canvas is
// attempted; the first error is returned.
func (s *Scene) UpdateSourceAll(tokenID string, opts UpdateOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var first error
	for _, c := range s.canvases {
		if err := s.updateSource(c, tokenID, opts); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (s *Scene) updateSource(c *canvas, tokenID string, opts UpdateOptions) error {
	key := SourceID(tokenID)
	tok := s.tokens[tokenID]
	if opts.Deleted {
		tok = nil
	}

	if tok != nil {
		if err := tok.Box().Validate(); err != nil {
			c.sources.DeleteFamily(tokenID)
			s.log.Error("token 幾何資料無效",
				zap.String("token", tokenID),
				zap.Error(err),
			)
			return fmt.Errorf("update source %s: %w", tokenID, err)
		}
	}

	primary := s.updatePrimary(c, tok, tokenID)
	if primary == nil {
		// Nothing to update.
		if !opts.Defer && opts.Deleted {
			event.Emit(s.bus, event.SightRefreshRequested{UserID: c.user.ID})
		}
		return nil
	}

	c.sources.DeleteFamily(tokenID)

	set := s.settings.Snapshot()
	mode := set.EffectiveMode(tok.PovFlag)
	pts, err := set.Calculator().Points(tok.Box(), mode)
	if err != nil || len(pts) == 0 {
		s.log.Error("無效的取樣模式，改用中心點",
			zap.String("token", tokenID),
			zap.Int("mode", int(mode)),
			zap.Error(err),
		)
		pts = []vision.SamplePoint{{X: primary.X, Y: primary.Y, Slot: int(vision.ModeCenter)}}
	}

	keys := make([]string, 0, len(pts))
	for i, p := range pts {
		k := key
		if i > 0 {
			k = key + "-" + strconv.Itoa(p.Slot)
		}
		c.sources.Set(&Source{
			Key:      k,
			TokenID:  tokenID,
			X:        p.X,
			Y:        p.Y,
			Slot:     p.Slot,
			Emission: primary.Emission,
			Sight:    s.builder.Sight(p.X, p.Y, primary.Emission),
		})
		keys = append(keys, k)
	}

	s.log.Debug("視覺來源已重建",
		zap.String("user", c.user.ID),
		zap.String("token", tokenID),
		zap.Stringer("mode", mode),
		zap.Int("sources", len(keys)),
	)

	if !opts.Defer {
		event.Emit(s.bus, event.SourcesRebuilt{UserID: c.user.ID, TokenID: tokenID, Keys: keys})
		event.Emit(s.bus, event.SightRefreshRequested{UserID: c.user.ID, NoUpdateFog: opts.NoUpdateFog})
	}
	return nil
}

// updatePrimary is the host's own single-source update: the token emits from
// its center when it is a vision source for this canvas, otherwise all of its
// sources are dropped.
func (s *Scene) updatePrimary(c *canvas, tok *Token, tokenID string) *Source {
	if tok == nil || !s.isVisionSource(c, tok) {
		c.sources.DeleteFamily(tokenID)
		return nil
	}
	cx, cy := tok.Center()
	src := &Source{
		Key:      SourceID(tokenID),
		TokenID:  tokenID,
		X:        cx,
		Y:        cy,
		Emission: tok.Vision,
		Sight:    s.builder.Sight(cx, cy, tok.Vision),
	}
	c.sources.Set(src)
	return src
}

// isVisionSource decides whether tok emits vision on c. Controlled tokens
// always do; otherwise players see through the tokens they own. GMs see
// through nothing they have not selected.
func (s *Scene) isVisionSource(c *canvas, tok *Token) bool {
	if !s.tokenVision || !tok.Sight {
		return false
	}
	if c.controls(tok.ID) {
		return true
	}
	return !c.user.GM && tok.OwnedBy(c.user.ID)
}

package scene

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/pointofvision/server/internal/core/event"
	"github.com/pointofvision/server/internal/vision"
	"go.uber.org/zap"
)

var (
	ErrUnknownToken = errors.New("unknown token")
	ErrUnknownUser  = errors.New("unknown user")
	ErrNotOwner     = errors.New("user does not own token")
)

// SettingsSource hands out the current world settings snapshot.
type SettingsSource interface {
	Snapshot() vision.Settings
}

// Options are the scene-level flags read by the visibility test.
type Options struct {
	GlobalLight bool
	TokenVision bool
}

// Scene holds token and light documents plus one canvas per user. The
// read-write lock serializes source rebuilds against visibility reads.
type Scene struct {
	mu          sync.RWMutex
	tokens      map[string]*Token
	lights      map[string]*litArea
	canvases    map[string]*canvas
	globalLight bool
	tokenVision bool

	builder  Builder
	settings SettingsSource
	bus      *event.Bus
	log      *zap.Logger
}

type litArea struct {
	light  Light
	region vision.Region
}

// canvas is one user's view: its own active vision sources and selection.
type canvas struct {
	user       User
	sources    *SourceSet
	controlled map[string]struct{}
}

func (c *canvas) controls(tokenID string) bool {
	_, ok := c.controlled[tokenID]
	return ok
}

func New(opts Options, b Builder, settings SettingsSource, bus *event.Bus, log *zap.Logger) *Scene {
	return &Scene{
		tokens:      make(map[string]*Token),
		lights:      make(map[string]*litArea),
		canvases:    make(map[string]*canvas),
		globalLight: opts.GlobalLight,
		tokenVision: opts.TokenVision,
		builder:     b,
		settings:    settings,
		bus:         bus,
		log:         log,
	}
}

// AddUser opens a canvas for u. Re-adding a user keeps their sources.
func (s *Scene) AddUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.canvases[u.ID]; ok {
		c.user = u
		return
	}
	s.canvases[u.ID] = &canvas{
		user:       u,
		sources:    NewSourceSet(),
		controlled: make(map[string]struct{}),
	}
}

// Users lists canvas owners ordered by ID.
func (s *Scene) Users() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]User, 0, len(s.canvases))
	for _, c := range s.canvases {
		out = append(out, c.user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AddToken places or replaces a token document.
func (s *Scene) AddToken(t Token) error {
	if t.ID == "" {
		return errors.New("add token: empty id")
	}
	s.mu.Lock()
	s.tokens[t.ID] = t.clone()
	s.mu.Unlock()
	event.Emit(s.bus, event.TokenUpdated{TokenID: t.ID})
	return nil
}

// Token returns a copy of the token document.
func (s *Scene) Token(id string) (Token, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokens[id]
	if !ok {
		return Token{}, false
	}
	return *t.clone(), true
}

// TokenIDs lists token ids in lexical order.
func (s *Scene) TokenIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokenIDsLocked()
}

func (s *Scene) tokenIDsLocked() []string {
	ids := make([]string, 0, len(s.tokens))
	for id := range s.tokens {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// MoveToken sets the top-left corner of a token.
func (s *Scene) MoveToken(id string, x, y float64) error {
	return s.mutateToken(id, func(t *Token) {
		t.X, t.Y = x, y
	})
}

// SetTokenFlag replaces the per-token sampling override. nil clears it.
func (s *Scene) SetTokenFlag(id string, flag *int) error {
	return s.mutateToken(id, func(t *Token) {
		if flag == nil {
			t.PovFlag = nil
			return
		}
		v := *flag
		t.PovFlag = &v
	})
}

func (s *Scene) SetHidden(id string, hidden bool) error {
	return s.mutateToken(id, func(t *Token) {
		t.Hidden = hidden
	})
}

func (s *Scene) mutateToken(id string, fn func(*Token)) error {
	s.mu.Lock()
	t, ok := s.tokens[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownToken, id)
	}
	fn(t)
	s.mu.Unlock()
	event.Emit(s.bus, event.TokenUpdated{TokenID: id})
	return nil
}

// DeleteToken removes a token document. Its sources are torn down when the
// deletion is processed.
func (s *Scene) DeleteToken(id string) error {
	s.mu.Lock()
	if _, ok := s.tokens[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownToken, id)
	}
	delete(s.tokens, id)
	for _, c := range s.canvases {
		delete(c.controlled, id)
	}
	s.mu.Unlock()
	event.Emit(s.bus, event.TokenUpdated{TokenID: id, Deleted: true})
	return nil
}

// Control selects or releases a token on a user's canvas. Players may only
// control tokens they own.
func (s *Scene) Control(userID, tokenID string, on bool) error {
	s.mu.Lock()
	c, ok := s.canvases[userID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownUser, userID)
	}
	t, ok := s.tokens[tokenID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownToken, tokenID)
	}
	if on && !c.user.GM && !t.OwnedBy(userID) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s controls %s", ErrNotOwner, userID, tokenID)
	}
	if on {
		c.controlled[tokenID] = struct{}{}
	} else {
		delete(c.controlled, tokenID)
	}
	s.mu.Unlock()
	event.Emit(s.bus, event.TokenUpdated{TokenID: tokenID})
	return nil
}

// AddLight places or replaces an ambient light and builds its region.
func (s *Scene) AddLight(l Light) {
	s.mu.Lock()
	s.lights[l.ID] = &litArea{light: l, region: s.builder.Light(l.X, l.Y, l.Emission)}
	s.mu.Unlock()
	s.requestRefreshAll(false)
}

// Lights returns the ambient lights ordered by id.
func (s *Scene) Lights() []Light {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Light, 0, len(s.lights))
	for _, la := range s.lights {
		out = append(out, la.light)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Scene) RemoveLight(id string) {
	s.mu.Lock()
	delete(s.lights, id)
	s.mu.Unlock()
	s.requestRefreshAll(false)
}

func (s *Scene) SetGlobalLight(on bool) {
	s.mu.Lock()
	s.globalLight = on
	s.mu.Unlock()
	s.requestRefreshAll(false)
}

// SetTokenVision toggles token vision for the scene. Every token's sources
// depend on it, so every token is marked updated.
func (s *Scene) SetTokenVision(on bool) {
	s.mu.Lock()
	s.tokenVision = on
	ids := s.tokenIDsLocked()
	s.mu.Unlock()
	for _, id := range ids {
		event.Emit(s.bus, event.TokenUpdated{TokenID: id})
	}
}

// Sources returns a copy of a user's active vision sources ordered by key.
func (s *Scene) Sources(userID string) ([]Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.canvases[userID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUser, userID)
	}
	out := make([]Source, 0, c.sources.Len())
	for _, k := range c.sources.Keys() {
		src, _ := c.sources.Get(k)
		out = append(out, *src)
	}
	return out, nil
}

func (s *Scene) requestRefreshAll(noUpdateFog bool) {
	for _, u := range s.Users() {
		event.Emit(s.bus, event.SightRefreshRequested{UserID: u.ID, NoUpdateFog: noUpdateFog})
	}
}

// lightRegions returns light regions ordered by light id.
func (s *Scene) lightRegions() []vision.Region {
	ids := make([]string, 0, len(s.lights))
	for id := range s.lights {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]vision.Region, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.lights[id].region)
	}
	return out
}

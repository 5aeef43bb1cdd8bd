package system

import (
	"sort"
	"time"

	"github.com/pointofvision/server/internal/core/event"
	coresys "github.com/pointofvision/server/internal/core/system"
	"github.com/pointofvision/server/internal/scene"
	"github.com/pointofvision/server/internal/settings"
	"go.uber.org/zap"
)

// VisibilitySystem 維護每位觀察者（GM 與玩家）已知的 token 集合，
// 比對本次可見集合後發出進出視野事件（VisibilityChanged）。
// Phase 2（PostUpdate），在視覺來源重建之後執行。
//
// 只重算收到 SightRefreshRequested 的使用者；token 變動、世界設定變更或首次執行時全部重算。
type VisibilitySystem struct {
	scene *scene.Scene
	bus   *event.Bus
	log   *zap.Logger

	known map[string]map[string]struct{} // user id -> visible token ids
	dirty map[string]struct{}
	all   bool
}

func NewVisibilitySystem(sc *scene.Scene, bus *event.Bus, log *zap.Logger) *VisibilitySystem {
	s := &VisibilitySystem{
		scene: sc,
		bus:   bus,
		log:   log,
		known: make(map[string]map[string]struct{}),
		dirty: make(map[string]struct{}),
		all:   true,
	}
	event.Subscribe(bus, s.onRefresh)
	event.Subscribe(bus, s.onTokenUpdated)
	event.Subscribe(bus, s.onSettingsChanged)
	return s
}

func (s *VisibilitySystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *VisibilitySystem) onRefresh(e event.SightRefreshRequested) {
	s.dirty[e.UserID] = struct{}{}
}

// 任何 token 變動都可能影響所有人的可見集合。
func (s *VisibilitySystem) onTokenUpdated(_ event.TokenUpdated) {
	s.all = true
}

func (s *VisibilitySystem) onSettingsChanged(e event.SettingsChanged) {
	if e.Key == settings.KeyExpandVisibility || e.Key == settings.KeyPov {
		s.all = true
	}
}

func (s *VisibilitySystem) Update(_ time.Duration) {
	if !s.all && len(s.dirty) == 0 {
		return
	}
	for _, u := range s.scene.Users() {
		if _, ok := s.dirty[u.ID]; !s.all && !ok {
			continue
		}
		s.refreshUser(u.ID)
	}
	s.all = false
	clear(s.dirty)
}

func (s *VisibilitySystem) refreshUser(userID string) {
	ids, err := s.scene.VisibleTokens(userID)
	if err != nil {
		s.log.Warn("可見性計算失敗", zap.String("user", userID), zap.Error(err))
		return
	}

	prev := s.known[userID]
	cur := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		cur[id] = struct{}{}
		if _, ok := prev[id]; !ok {
			// 新進入視野
			event.Emit(s.bus, event.VisibilityChanged{UserID: userID, TokenID: id, Visible: true})
			s.log.Debug("token 進入視野", zap.String("user", userID), zap.String("token", id))
		}
	}

	// 離開視野（或已刪除）
	gone := make([]string, 0)
	for id := range prev {
		if _, ok := cur[id]; !ok {
			gone = append(gone, id)
		}
	}
	sort.Strings(gone)
	for _, id := range gone {
		event.Emit(s.bus, event.VisibilityChanged{UserID: userID, TokenID: id, Visible: false})
		s.log.Debug("token 離開視野", zap.String("user", userID), zap.String("token", id))
	}

	s.known[userID] = cur
}

// Known returns the tokens userID currently sees, in order.
func (s *VisibilitySystem) Known(userID string) []string {
	out := make([]string, 0, len(s.known[userID]))
	for id := range s.known[userID] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

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

// SourceSystem rebuilds vision sources for tokens updated since the last
// tick. Phase 1 (Update).
type SourceSystem struct {
	scene   *scene.Scene
	log     *zap.Logger
	pending map[string]struct{}
}

func NewSourceSystem(sc *scene.Scene, bus *event.Bus, log *zap.Logger) *SourceSystem {
	s := &SourceSystem{scene: sc, log: log, pending: make(map[string]struct{})}
	event.Subscribe(bus, s.onTokenUpdated)
	event.Subscribe(bus, s.onSettingsChanged)
	return s
}

func (s *SourceSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *SourceSystem) onTokenUpdated(e event.TokenUpdated) {
	s.pending[e.TokenID] = struct{}{}
}

// A new world default moves the points of every token without a flag.
func (s *SourceSystem) onSettingsChanged(e event.SettingsChanged) {
	if e.Key != settings.KeyPov {
		return
	}
	for _, id := range s.scene.TokenIDs() {
		s.pending[id] = struct{}{}
	}
}

func (s *SourceSystem) Update(_ time.Duration) {
	if len(s.pending) == 0 {
		return
	}
	ids := make([]string, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// The document state at rebuild time decides; a token deleted and
	// re-added within one tick is rebuilt, not torn down.
	for _, id := range ids {
		_, exists := s.scene.Token(id)
		if err := s.scene.UpdateSourceAll(id, scene.UpdateOptions{Deleted: !exists}); err != nil {
			s.log.Warn("視覺來源重建失敗", zap.String("token", id), zap.Error(err))
		}
	}
	clear(s.pending)
}

package system

import (
	"context"
	"time"

	"github.com/pointofvision/server/internal/core/event"
	coresys "github.com/pointofvision/server/internal/core/system"
	"github.com/pointofvision/server/internal/persist"
	"go.uber.org/zap"
)

// VisibilityWriter stores batches of visibility transitions.
type VisibilityWriter interface {
	WriteBatch(ctx context.Context, entries []persist.VisibilityEntry) error
}

// PersistenceSystem buffers VisibilityChanged events and writes them out
// every interval ticks. Phase 4 (Persist).
type PersistenceSystem struct {
	writer    VisibilityWriter
	log       *zap.Logger
	buf       []persist.VisibilityEntry
	tickCount int
	interval  int // flush every N ticks
}

func NewPersistenceSystem(w VisibilityWriter, bus *event.Bus, log *zap.Logger, intervalTicks int) *PersistenceSystem {
	s := &PersistenceSystem{
		writer:   w,
		log:      log,
		interval: intervalTicks,
	}
	event.Subscribe(bus, func(e event.VisibilityChanged) {
		s.buf = append(s.buf, persist.VisibilityEntry{UserID: e.UserID, TokenID: e.TokenID, Visible: e.Visible})
	})
	return s
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.Flush()
}

// Flush writes everything buffered now. Called on shutdown as well.
// A failed batch stays buffered for the next attempt.
func (s *PersistenceSystem) Flush() {
	if len(s.buf) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.writer.WriteBatch(ctx, s.buf); err != nil {
		s.log.Error("可見性紀錄寫入失敗", zap.Int("筆數", len(s.buf)), zap.Error(err))
		return
	}
	s.log.Debug("可見性紀錄寫入完成", zap.Int("筆數", len(s.buf)))
	s.buf = s.buf[:0]
}

// Pending reports how many entries wait for the next flush.
func (s *PersistenceSystem) Pending() int { return len(s.buf) }

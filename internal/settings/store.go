// Package settings owns the world-wide point of vision settings and the
// per-token sampling override flags. The core only ever sees snapshots.
package settings

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/pointofvision/server/internal/core/event"
	"github.com/pointofvision/server/internal/vision"
	"go.uber.org/zap"
)

// World setting keys as stored and announced.
const (
	KeyPov              = "pov"
	KeyExpandVisibility = "expandVisibility"
)

var ErrInvalidWorldMode = errors.New("world default must be center, all corners or all midpoints")

// WorldRepo persists world settings as key/value strings.
type WorldRepo interface {
	LoadWorldSettings(ctx context.Context) (map[string]string, error)
	SaveWorldSetting(ctx context.Context, key, value string) error
}

// Store holds the current settings snapshot. Reads are lock-free.
type Store struct {
	cur  atomic.Pointer[vision.Settings]
	repo WorldRepo // nil keeps changes in memory
	bus  *event.Bus
	log  *zap.Logger

	writeMu sync.Mutex // serializes read-modify-write of cur

	mu    sync.Mutex
	hooks []func(key string, s vision.Settings)
}

func NewStore(initial vision.Settings, repo WorldRepo, bus *event.Bus, log *zap.Logger) *Store {
	s := &Store{repo: repo, bus: bus, log: log}
	s.cur.Store(&initial)
	return s
}

// Snapshot returns the settings in effect now.
func (s *Store) Snapshot() vision.Settings {
	return *s.cur.Load()
}

// OnChange registers fn to run after every applied change.
func (s *Store) OnChange(fn func(key string, s vision.Settings)) {
	s.mu.Lock()
	s.hooks = append(s.hooks, fn)
	s.mu.Unlock()
}

// Restore overlays persisted world settings on the current snapshot.
// Unparseable or out-of-range values are skipped with a warning.
func (s *Store) Restore(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	kv, err := s.repo.LoadWorldSettings(ctx)
	if err != nil {
		return fmt.Errorf("load world settings: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	next := s.Snapshot()
	if v, ok := kv[KeyPov]; ok {
		m, err := vision.ParseMode(v)
		if err != nil || !m.WorldChoice() {
			s.log.Warn("略過無效的世界預設視點", zap.String("value", v))
		} else {
			next.DefaultMode = m
		}
	}
	if v, ok := kv[KeyExpandVisibility]; ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			s.log.Warn("略過無效的擴展可見性設定", zap.String("value", v))
		} else {
			next.ExpandVisibility = b
		}
	}
	s.cur.Store(&next)
	return nil
}

// SetDefaultMode changes the world default. Only the three world choices
// are accepted.
func (s *Store) SetDefaultMode(ctx context.Context, m vision.Mode) error {
	if !m.WorldChoice() {
		return fmt.Errorf("%w: %s", ErrInvalidWorldMode, m)
	}
	return s.apply(ctx, KeyPov, strconv.Itoa(int(m)), func(v *vision.Settings) {
		v.DefaultMode = m
	})
}

func (s *Store) SetExpandVisibility(ctx context.Context, on bool) error {
	return s.apply(ctx, KeyExpandVisibility, strconv.FormatBool(on), func(v *vision.Settings) {
		v.ExpandVisibility = on
	})
}

func (s *Store) apply(ctx context.Context, key, value string, fn func(*vision.Settings)) error {
	s.writeMu.Lock()
	if s.repo != nil {
		if err := s.repo.SaveWorldSetting(ctx, key, value); err != nil {
			s.writeMu.Unlock()
			return fmt.Errorf("save world setting %s: %w", key, err)
		}
	}
	next := s.Snapshot()
	fn(&next)
	s.cur.Store(&next)
	s.writeMu.Unlock()

	s.log.Info("世界設定已變更", zap.String("key", key), zap.String("value", value))

	s.mu.Lock()
	hooks := slices.Clone(s.hooks)
	s.mu.Unlock()
	for _, h := range hooks {
		h(key, next)
	}
	if s.bus != nil {
		event.Emit(s.bus, event.SettingsChanged{Key: key})
	}
	return nil
}

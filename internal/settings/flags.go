package settings

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/pointofvision/server/internal/vision"
	"go.uber.org/zap"
)

// FlagStore persists per-token sampling overrides. A nil flag means unset.
type FlagStore interface {
	Flag(ctx context.Context, tokenID string) (*int, error)
	SetFlag(ctx context.Context, tokenID string, mode int) error
	UnsetFlag(ctx context.Context, tokenID string) error
	All(ctx context.Context) (map[string]int, error)
}

// FlagSink receives flag changes for the live scene.
type FlagSink interface {
	SetTokenFlag(tokenID string, flag *int) error
}

// TokenChange is the subset of a token update this package cares about.
// Pov is nil when the update does not touch the override.
type TokenChange struct {
	Pov *int
}

// TokenFlags applies token config form submissions.
type TokenFlags struct {
	store FlagStore
	sink  FlagSink
	log   *zap.Logger
}

func NewTokenFlags(store FlagStore, sink FlagSink, log *zap.Logger) *TokenFlags {
	return &TokenFlags{store: store, sink: sink, log: log}
}

// PreUpdateToken stores the override carried by change before the token
// update lands. ModeUnset clears the flag; any other code must be a valid mode.
func (t *TokenFlags) PreUpdateToken(ctx context.Context, tokenID string, change TokenChange) error {
	if change.Pov == nil {
		return nil
	}
	code := *change.Pov
	if vision.Mode(code) == vision.ModeUnset {
		if err := t.store.UnsetFlag(ctx, tokenID); err != nil {
			return fmt.Errorf("unset pov flag %s: %w", tokenID, err)
		}
		t.log.Debug("token 視點旗標已清除", zap.String("token", tokenID))
		return t.push(tokenID, nil)
	}
	if !vision.Mode(code).Valid() {
		return fmt.Errorf("pov flag %s: %w: %d", tokenID, vision.ErrUnknownMode, code)
	}
	if err := t.store.SetFlag(ctx, tokenID, code); err != nil {
		return fmt.Errorf("set pov flag %s: %w", tokenID, err)
	}
	t.log.Debug("token 視點旗標已設定", zap.String("token", tokenID), zap.Int("mode", code))
	return t.push(tokenID, &code)
}

// Restore loads stored flags for tokenIDs into the sink in one read and
// returns how many tokens carried one. Flags of tokens not in the scene are
// left in the store.
func (t *TokenFlags) Restore(ctx context.Context, tokenIDs []string) (int, error) {
	all, err := t.store.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("load pov flags: %w", err)
	}
	n := 0
	for _, id := range tokenIDs {
		v, ok := all[id]
		if !ok {
			continue
		}
		if err := t.push(id, &v); err != nil {
			return n, err
		}
		n++
	}
	if skipped := len(all) - n; skipped > 0 {
		t.log.Debug("略過場景外的視點旗標", zap.Int("筆數", skipped))
	}
	return n, nil
}

func (t *TokenFlags) push(tokenID string, flag *int) error {
	if t.sink == nil {
		return nil
	}
	return t.sink.SetTokenFlag(tokenID, flag)
}

// MemoryFlagStore keeps flags in process memory.
type MemoryFlagStore struct {
	mu    sync.RWMutex
	flags map[string]int
}

func NewMemoryFlagStore() *MemoryFlagStore {
	return &MemoryFlagStore{flags: make(map[string]int)}
}

func (m *MemoryFlagStore) Flag(_ context.Context, tokenID string) (*int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.flags[tokenID]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (m *MemoryFlagStore) SetFlag(_ context.Context, tokenID string, mode int) error {
	m.mu.Lock()
	m.flags[tokenID] = mode
	m.mu.Unlock()
	return nil
}

func (m *MemoryFlagStore) UnsetFlag(_ context.Context, tokenID string) error {
	m.mu.Lock()
	delete(m.flags, tokenID)
	m.mu.Unlock()
	return nil
}

func (m *MemoryFlagStore) All(_ context.Context) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.flags), nil
}

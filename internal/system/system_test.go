package system

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pointofvision/server/internal/core/event"
	coresys "github.com/pointofvision/server/internal/core/system"
	"github.com/pointofvision/server/internal/geom"
	"github.com/pointofvision/server/internal/persist"
	"github.com/pointofvision/server/internal/scene"
	"github.com/pointofvision/server/internal/settings"
	"github.com/pointofvision/server/internal/vision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memWriter struct {
	batches [][]persist.VisibilityEntry
	err     error
}

func (m *memWriter) WriteBatch(_ context.Context, entries []persist.VisibilityEntry) error {
	if m.err != nil {
		return m.err
	}
	m.batches = append(m.batches, append([]persist.VisibilityEntry(nil), entries...))
	return nil
}

type harness struct {
	bus     *event.Bus
	scene   *scene.Scene
	store   *settings.Store
	vis     *VisibilitySystem
	persist *PersistenceSystem
	writer  *memWriter
	runner  *coresys.Runner
	changes []event.VisibilityChanged
}

func newHarness(t *testing.T, set vision.Settings) *harness {
	t.Helper()
	bus := event.NewBus()
	store := settings.NewStore(set, nil, bus, zap.NewNop())
	sc := scene.New(scene.Options{TokenVision: true},
		scene.RadialSights{RadialBuilder: geom.RadialBuilder{Width: 1000, Height: 1000}},
		store, bus, zap.NewNop())
	sc.AddUser(scene.User{ID: "gm", GM: true})
	sc.AddUser(scene.User{ID: "alice"})

	h := &harness{bus: bus, scene: sc, store: store, writer: &memWriter{}, runner: coresys.NewRunner()}
	h.vis = NewVisibilitySystem(sc, bus, zap.NewNop())
	h.persist = NewPersistenceSystem(h.writer, bus, zap.NewNop(), 1)
	h.runner.Register(h.persist)
	h.runner.Register(h.vis)
	h.runner.Register(NewSourceSystem(sc, bus, zap.NewNop()))
	h.runner.Register(NewEventDispatchSystem(bus))
	event.Subscribe(bus, func(e event.VisibilityChanged) { h.changes = append(h.changes, e) })
	return h
}

// tick runs one tick and returns the visibility changes delivered in it.
func (h *harness) tick() []event.VisibilityChanged {
	h.changes = nil
	h.runner.Tick(100 * time.Millisecond)
	return h.changes
}

func hero() scene.Token {
	return scene.Token{
		ID: "hero", X: 100, Y: 100, Width: 50, Height: 50,
		Sight:  true,
		Vision: scene.Emission{Dim: 100},
		Owners: []string{"alice"},
	}
}

func orc() scene.Token {
	return scene.Token{ID: "orc", X: 240, Y: 100, Width: 50, Height: 50}
}

func TestSourcesBuiltOnFirstTick(t *testing.T) {
	h := newHarness(t, vision.DefaultSettings())
	require.NoError(t, h.scene.AddToken(hero()))

	h.tick()
	srcs, err := h.scene.Sources("alice")
	require.NoError(t, err)
	assert.Len(t, srcs, 5)
	assert.Equal(t, []string{"hero"}, h.vis.Known("alice"))
}

func TestVisibilityDiffing(t *testing.T) {
	h := newHarness(t, vision.Settings{DefaultMode: vision.ModeCenter, ExpandVisibility: true})
	require.NoError(t, h.scene.AddToken(hero()))
	require.NoError(t, h.scene.AddToken(orc()))

	h.tick()
	assert.Equal(t, []string{"hero"}, h.vis.Known("alice"))
	assert.Equal(t, []string{"hero", "orc"}, h.vis.Known("gm"), "GM without sources sees all")

	// Changes emitted in tick 1 are delivered in tick 2.
	got := h.tick()
	assert.ElementsMatch(t, []event.VisibilityChanged{
		{UserID: "gm", TokenID: "hero", Visible: true},
		{UserID: "gm", TokenID: "orc", Visible: true},
		{UserID: "alice", TokenID: "hero", Visible: true},
	}, got)

	// Move the orc into reach: alice gains it once.
	require.NoError(t, h.scene.MoveToken("orc", 200, 100))
	h.tick()
	assert.Equal(t, []string{"hero", "orc"}, h.vis.Known("alice"))
	assert.Equal(t, []event.VisibilityChanged{{UserID: "alice", TokenID: "orc", Visible: true}}, h.tick())
	assert.Empty(t, h.tick())

	// Deleting it conceals it everywhere.
	require.NoError(t, h.scene.DeleteToken("orc"))
	h.tick()
	assert.ElementsMatch(t, []event.VisibilityChanged{
		{UserID: "gm", TokenID: "orc", Visible: false},
		{UserID: "alice", TokenID: "orc", Visible: false},
	}, h.tick())
	assert.Equal(t, []string{"hero"}, h.vis.Known("alice"))
}

func TestWorldDefaultChangeRebuildsSources(t *testing.T) {
	h := newHarness(t, vision.Settings{DefaultMode: vision.ModeCenter, ExpandVisibility: true})
	require.NoError(t, h.scene.AddToken(hero()))
	require.NoError(t, h.scene.AddToken(orc()))
	h.tick()
	require.Equal(t, []string{"hero"}, h.vis.Known("alice"))

	require.NoError(t, h.store.SetDefaultMode(context.Background(), vision.ModeAllMidsAndCenter))
	h.tick()

	srcs, err := h.scene.Sources("alice")
	require.NoError(t, err)
	assert.Len(t, srcs, 5)
	assert.Equal(t, []string{"hero", "orc"}, h.vis.Known("alice"))
}

func TestExpandVisibilityChangeRecomputes(t *testing.T) {
	h := newHarness(t, vision.Settings{DefaultMode: vision.ModeAllMidsAndCenter, ExpandVisibility: true})
	require.NoError(t, h.scene.AddToken(hero()))
	require.NoError(t, h.scene.AddToken(orc()))
	h.tick()
	require.Equal(t, []string{"hero", "orc"}, h.vis.Known("alice"))

	require.NoError(t, h.store.SetExpandVisibility(context.Background(), false))
	h.tick()
	assert.Equal(t, []string{"hero"}, h.vis.Known("alice"), "orc center is out of reach")
}

func TestPersistenceFlushesTransitions(t *testing.T) {
	h := newHarness(t, vision.DefaultSettings())
	require.NoError(t, h.scene.AddToken(hero()))

	h.tick()
	h.tick()
	require.Len(t, h.writer.batches, 1)
	assert.ElementsMatch(t, []persist.VisibilityEntry{
		{UserID: "gm", TokenID: "hero", Visible: true},
		{UserID: "alice", TokenID: "hero", Visible: true},
	}, h.writer.batches[0])
	assert.Zero(t, h.persist.Pending())
}

func TestPersistenceKeepsFailedBatch(t *testing.T) {
	bus := event.NewBus()
	w := &memWriter{err: errors.New("db down")}
	s := NewPersistenceSystem(w, bus, zap.NewNop(), 3)

	event.Emit(bus, event.VisibilityChanged{UserID: "alice", TokenID: "hero", Visible: true})
	bus.SwapBuffers()
	bus.DispatchAll()

	s.Update(0)
	s.Update(0)
	assert.Equal(t, 1, s.Pending(), "not flushed before the interval")
	s.Update(0)
	assert.Equal(t, 1, s.Pending(), "kept after a failed write")

	w.err = nil
	s.Flush()
	assert.Zero(t, s.Pending())
	assert.Len(t, w.batches, 1)
}

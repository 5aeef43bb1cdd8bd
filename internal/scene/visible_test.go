package scene

import (
	"testing"

	"github.com/pointofvision/server/internal/vision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// orc sits so its left edge is 90 units right of hero's right edge midpoint.
func orc() Token {
	return Token{ID: "orc", X: 240, Y: 100, Width: 50, Height: 50, Owners: []string{"bob"}}
}

func visible(t *testing.T, sc *Scene, user, token string) bool {
	t.Helper()
	ok, err := sc.TokenVisible(user, token)
	require.NoError(t, err)
	return ok
}

func setup(t *testing.T, set vision.Settings) *fixture {
	t.Helper()
	f := newFixture(t, set)
	require.NoError(t, f.scene.AddToken(hero()))
	require.NoError(t, f.scene.AddToken(orc()))
	require.NoError(t, f.scene.UpdateSourceAll("hero", UpdateOptions{}))
	require.NoError(t, f.scene.UpdateSourceAll("orc", UpdateOptions{}))
	return f
}

func TestTokenVisibleMultiPointSources(t *testing.T) {
	// hero emits from (125,125) only; the orc's nearest probe (240.01,125)
	// is 115 away, out of the 100 radius.
	f := setup(t, vision.Settings{DefaultMode: vision.ModeCenter, ExpandVisibility: true})
	assert.False(t, visible(t, f.scene, "alice", "orc"))

	// Mid-point sources put one at (150,125), 90 away from the probe.
	f = setup(t, vision.Settings{DefaultMode: vision.ModeAllMidsAndCenter, ExpandVisibility: true})
	assert.True(t, visible(t, f.scene, "alice", "orc"))
}

func TestTokenVisibleExpandToggle(t *testing.T) {
	// Orc center (265,125) is 115 from hero's right mid source; its left
	// probe is 90 away.
	f := setup(t, vision.Settings{DefaultMode: vision.ModeAllMidsAndCenter, ExpandVisibility: false})
	assert.False(t, visible(t, f.scene, "alice", "orc"))

	f = setup(t, vision.Settings{DefaultMode: vision.ModeAllMidsAndCenter, ExpandVisibility: true})
	assert.True(t, visible(t, f.scene, "alice", "orc"))
}

func TestTokenVisibleBypasses(t *testing.T) {
	f := setup(t, vision.Settings{DefaultMode: vision.ModeCenter, ExpandVisibility: true})

	assert.True(t, visible(t, f.scene, "alice", "hero"), "own source")
	assert.False(t, visible(t, f.scene, "bob", "hero"), "no sources, not privileged")

	require.NoError(t, f.scene.Control("bob", "orc", true))
	assert.True(t, visible(t, f.scene, "bob", "orc"), "controlled")

	require.NoError(t, f.scene.SetHidden("hero", true))
	assert.False(t, visible(t, f.scene, "alice", "hero"), "hidden beats own source")
	assert.True(t, visible(t, f.scene, "gm", "hero"))
	require.NoError(t, f.scene.SetHidden("hero", false))

	f.scene.SetTokenVision(false)
	assert.True(t, visible(t, f.scene, "bob", "hero"))
	assert.True(t, visible(t, f.scene, "alice", "orc"))
}

func TestTokenVisiblePrivilegedObserver(t *testing.T) {
	f := setup(t, vision.DefaultSettings())

	srcs, err := f.scene.Sources("gm")
	require.NoError(t, err)
	require.Empty(t, srcs)
	assert.True(t, visible(t, f.scene, "gm", "orc"))
	assert.True(t, visible(t, f.scene, "gm", "hero"))

	// Once the GM sees through a token the geometry applies to them too.
	require.NoError(t, f.scene.Control("gm", "hero", true))
	require.NoError(t, f.scene.UpdateSource("gm", "hero", UpdateOptions{}))
	require.NoError(t, f.scene.MoveToken("orc", 800, 800))
	assert.False(t, visible(t, f.scene, "gm", "orc"))
}

func TestTokenVisibleGlobalLight(t *testing.T) {
	f := setup(t, vision.Settings{DefaultMode: vision.ModeCenter, ExpandVisibility: true})
	require.False(t, visible(t, f.scene, "alice", "orc"))

	f.scene.SetGlobalLight(true)
	assert.True(t, visible(t, f.scene, "alice", "orc"), "line of sight is enough")
	assert.False(t, visible(t, f.scene, "bob", "hero"), "still needs a source")
}

func TestTokenVisibleLightOnly(t *testing.T) {
	f := newFixture(t, vision.Settings{DefaultMode: vision.ModeCenter, ExpandVisibility: true})
	blind := hero()
	blind.Vision = Emission{}
	require.NoError(t, f.scene.AddToken(blind))
	require.NoError(t, f.scene.AddToken(orc()))
	require.NoError(t, f.scene.UpdateSourceAll("hero", UpdateOptions{}))
	require.False(t, visible(t, f.scene, "alice", "orc"))

	f.scene.AddLight(Light{ID: "torch", X: 300, Y: 160, Emission: Emission{Dim: 20}})
	assert.True(t, visible(t, f.scene, "alice", "orc"), "corner (290,150) is lit")
	require.Len(t, f.scene.Lights(), 1)

	f.scene.RemoveLight("torch")
	assert.False(t, visible(t, f.scene, "alice", "orc"))
}

func TestVisibleTokens(t *testing.T) {
	f := setup(t, vision.Settings{DefaultMode: vision.ModeAllMidsAndCenter, ExpandVisibility: true})

	ids, err := f.scene.VisibleTokens("alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"hero", "orc"}, ids)

	ids, err = f.scene.VisibleTokens("bob")
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = f.scene.VisibleTokens("carol")
	assert.ErrorIs(t, err, ErrUnknownUser)
}

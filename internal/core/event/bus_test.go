package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusDeliversNextTick(t *testing.T) {
	b := NewBus()
	var got []TokenUpdated
	Subscribe(b, func(e TokenUpdated) { got = append(got, e) })

	Emit(b, TokenUpdated{TokenID: "a"})
	assert.Equal(t, 1, b.Pending())

	b.DispatchAll()
	assert.Empty(t, got, "not visible before swap")

	b.SwapBuffers()
	assert.Zero(t, b.Pending())
	b.DispatchAll()
	assert.Equal(t, []TokenUpdated{{TokenID: "a"}}, got)

	b.SwapBuffers()
	b.DispatchAll()
	assert.Len(t, got, 1, "front buffer cleared after the next swap")
}

func TestBusTypedRouting(t *testing.T) {
	b := NewBus()
	var tokens, refreshes int
	Subscribe(b, func(TokenUpdated) { tokens++ })
	Subscribe(b, func(SightRefreshRequested) { refreshes++ })

	Emit(b, TokenUpdated{TokenID: "a"})
	Emit(b, SightRefreshRequested{UserID: "u"})
	Emit(b, SightRefreshRequested{UserID: "v"})
	b.SwapBuffers()
	b.DispatchAll()

	assert.Equal(t, 1, tokens)
	assert.Equal(t, 2, refreshes)
}

func TestBusEmitFromHandler(t *testing.T) {
	b := NewBus()
	var changed int
	Subscribe(b, func(e TokenUpdated) {
		Emit(b, VisibilityChanged{TokenID: e.TokenID})
	})
	Subscribe(b, func(VisibilityChanged) { changed++ })

	Emit(b, TokenUpdated{TokenID: "a"})
	b.SwapBuffers()
	b.DispatchAll()
	assert.Zero(t, changed)

	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, 1, changed)
}

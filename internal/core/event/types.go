package event

// TokenUpdated is emitted when a token document changes geometry, sight or
// sampling override, or is deleted.
type TokenUpdated struct {
	TokenID string
	Deleted bool
}

// SourcesRebuilt is emitted after a token's vision sources were replaced on
// one user's canvas (the draw step).
type SourcesRebuilt struct {
	UserID  string
	TokenID string
	Keys    []string
}

// SightRefreshRequested asks for a visibility recompute of one user's canvas.
type SightRefreshRequested struct {
	UserID      string
	NoUpdateFog bool
}

// VisibilityChanged reports a token entering or leaving a user's view.
type VisibilityChanged struct {
	UserID  string
	TokenID string
	Visible bool
}

// SettingsChanged is emitted when a world setting snapshot is replaced.
type SettingsChanged struct {
	Key string
}

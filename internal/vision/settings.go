package vision

// Settings is the world-wide configuration snapshot handed to the core on
// each call. The settings collaborator owns updates.
type Settings struct {
	DefaultMode        Mode
	ExpandVisibility   bool
	CorrectBottomRight bool
}

// DefaultSettings mirrors the shipped world defaults.
func DefaultSettings() Settings {
	return Settings{
		DefaultMode:      ModeAllCornersAndCenter,
		ExpandVisibility: true,
	}
}

// Calculator returns the point calculator configured by s.
func (s Settings) Calculator() Calculator {
	return Calculator{CorrectBottomRight: s.CorrectBottomRight}
}

// EffectiveMode resolves a token's override against the world default.
func (s Settings) EffectiveMode(override *int) Mode {
	return ResolveMode(override, s.DefaultMode)
}

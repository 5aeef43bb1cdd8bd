package vision

import (
	"fmt"
	"strconv"
)

// Mode selects which point(s) of a token's footprint emit and receive vision.
// Codes are persisted in token flags and world settings; never renumber.
type Mode int

const (
	ModeCenter              Mode = 0
	ModeTopLeft             Mode = 1
	ModeTopRight            Mode = 2
	ModeBottomLeft          Mode = 3
	ModeBottomRight         Mode = 4
	ModeAllCornersAndCenter Mode = 5
	ModeTop                 Mode = 6
	ModeBottom              Mode = 7
	ModeLeft                Mode = 8
	ModeRight               Mode = 9
	ModeAllMidsAndCenter    Mode = 10
)

// ModeUnset is what the token config form submits for "use world default".
const ModeUnset Mode = -1

var modeNames = [...]string{
	ModeCenter:              "center",
	ModeTopLeft:             "top_left",
	ModeTopRight:            "top_right",
	ModeBottomLeft:          "bottom_left",
	ModeBottomRight:         "bottom_right",
	ModeAllCornersAndCenter: "all_corners_and_center",
	ModeTop:                 "top",
	ModeBottom:              "bottom",
	ModeLeft:                "left",
	ModeRight:               "right",
	ModeAllMidsAndCenter:    "all_mids_and_center",
}

// Valid reports whether m is one of the eleven sampling modes.
func (m Mode) Valid() bool {
	return m >= ModeCenter && m <= ModeAllMidsAndCenter
}

// Multi reports whether m expands to more than one point.
func (m Mode) Multi() bool {
	return m == ModeAllCornersAndCenter || m == ModeAllMidsAndCenter
}

// WorldChoice reports whether m may be used as the world-wide default.
func (m Mode) WorldChoice() bool {
	return m == ModeCenter || m == ModeAllCornersAndCenter || m == ModeAllMidsAndCenter
}

func (m Mode) String() string {
	if m.Valid() {
		return modeNames[m]
	}
	if m == ModeUnset {
		return "unset"
	}
	return "mode(" + strconv.Itoa(int(m)) + ")"
}

// ParseMode accepts either a mode name ("top_left") or its integer code ("1").
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if name == s {
			return Mode(i), nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || !Mode(n).Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
	return Mode(n), nil
}

// ResolveMode returns the per-token override when one is set, otherwise the
// world default. An out-of-range override is passed through unchanged so the
// calculator reports it.
func ResolveMode(override *int, worldDefault Mode) Mode {
	if override == nil || Mode(*override) == ModeUnset {
		return worldDefault
	}
	return Mode(*override)
}

// Expand lists the single-point modes a mode is made of, center first.
// Single-point modes expand to themselves.
func (m Mode) Expand() []Mode {
	if !m.Multi() {
		return []Mode{m}
	}
	// The four rules preceding a multi mode are its members.
	out := make([]Mode, 0, 5)
	out = append(out, ModeCenter)
	for c := m - 4; c < m; c++ {
		out = append(out, c)
	}
	return out
}

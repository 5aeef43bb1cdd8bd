package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseDispatch   Phase = iota // 0: swap + deliver last tick's events
	PhaseUpdate                  // 1: rebuild vision sources for changed tokens
	PhasePostUpdate              // 2: recompute per-user visibility
	PhaseOutput                  // 3: report changes to the host
	PhasePersist                 // 4: flush dirty token flags
)

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}

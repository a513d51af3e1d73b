package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: external input
	PhasePreUpdate               // 1: deliver last tick's events
	PhaseUpdate                  // 2: behavior updates
	PhasePostUpdate              // 3: late logic reading settled transforms
	PhasePersist                 // 4: autosave
	PhaseCleanup                 // 5: sweep destroyed entities and behaviors
)

var phaseNames = [...]string{"input", "pre_update", "update", "post_update", "persist", "cleanup"}

func (p Phase) String() string {
	if p >= 0 && int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// System is the interface every frame system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}

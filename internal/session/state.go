package session

import (
	"github.com/2beens/repcoach/internal/metabolic"
)

const (
	DefaultInitialCountdown = 5
	DefaultRestPeriod       = 30
)

type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseStarting   Phase = "starting"
	PhaseCountdown  Phase = "countdown"
	PhaseExercising Phase = "exercising"
	PhasePaused     Phase = "paused"
	PhaseResting    Phase = "resting"
	PhaseComplete   Phase = "complete"
	PhaseAbandoned  Phase = "abandoned"
)

func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseAbandoned
}

// Ticking reports whether the one second clock runs in this phase.
func (p Phase) Ticking() bool {
	return p == PhaseCountdown || p == PhaseExercising || p == PhaseResting
}

// Config holds the session tuning values and the user's basal metabolic rate.
type Config struct {
	InitialCountdown int
	RestPeriod       int
	BMR              float64
}

func DefaultConfig() Config {
	return Config{
		InitialCountdown: DefaultInitialCountdown,
		RestPeriod:       DefaultRestPeriod,
		BMR:              metabolic.FallbackBMR,
	}
}

type BreakdownEntry struct {
	MoveID   string `json:"moveId"`
	MoveName string `json:"moveName"`
	Result   string `json:"result"`
}

// Summary is assembled once, when the session completes.
type Summary struct {
	PlanID          string           `json:"planId"`
	PlanName        string           `json:"planName"`
	Reps            int              `json:"reps"`
	DurationSeconds int              `json:"durationSeconds"`
	Calories        int              `json:"calories"`
	Breakdown       []BreakdownEntry `json:"breakdown"`
}

// State of one workout attempt. It is only changed by Apply.
type State struct {
	Phase     Phase `json:"phase"`
	MoveIndex int   `json:"moveIndex"`
	// Set is 1-based.
	Set            int  `json:"set"`
	Countdown      int  `json:"countdown"`
	ElapsedSeconds int  `json:"elapsedSeconds"`
	Reps           int  `json:"reps"`
	HoldSeconds    int  `json:"holdSeconds"`
	FormValid      bool `json:"formValid"`

	TotalReps    int              `json:"totalReps"`
	Calories     float64          `json:"calories"`
	SetsFinished int              `json:"setsFinished"`
	Breakdown    []BreakdownEntry `json:"breakdown,omitempty"`

	// Err is set while starting failed; a new Start clears it.
	Err     error    `json:"-"`
	Summary *Summary `json:"summary,omitempty"`
}

func NewState() State {
	return State{
		Phase: PhaseIdle,
		Set:   1,
	}
}

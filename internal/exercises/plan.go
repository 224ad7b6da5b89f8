package exercises

import "fmt"

const (
	DefaultSets        = 1
	DefaultTargetReps  = 10
	DefaultHoldSeconds = 30
)

// PlanItem is one move of a plan together with its set count and target.
type PlanItem struct {
	MoveID      string `toml:"move" json:"moveId"`
	Sets        int    `toml:"sets" json:"sets"`
	Reps        int    `toml:"reps" json:"reps,omitempty"`
	HoldSeconds int    `toml:"hold_seconds" json:"holdSeconds,omitempty"`

	Move Move `toml:"-" json:"move"`
}

func (i PlanItem) TotalSets() int {
	if i.Sets <= 0 {
		return DefaultSets
	}
	return i.Sets
}

// Target is the rep count, or hold seconds for timed moves, that finishes a set.
func (i PlanItem) Target() int {
	if i.Move.IsHold() {
		if i.HoldSeconds <= 0 {
			return DefaultHoldSeconds
		}
		return i.HoldSeconds
	}
	if i.Reps <= 0 {
		return DefaultTargetReps
	}
	return i.Reps
}

// Result formats the completed move for the workout breakdown, e.g. "3x12"
// or "3x30s".
func (i PlanItem) Result() string {
	if i.Move.IsHold() {
		return fmt.Sprintf("%dx%ds", i.TotalSets(), i.Target())
	}
	return fmt.Sprintf("%dx%d", i.TotalSets(), i.Target())
}

// Plan is an ordered list of moves. A plan without items stands for its own
// single move, described by the flat MoveID/Sets/Reps/HoldSeconds fields.
type Plan struct {
	ID          string     `toml:"id" json:"id"`
	Name        string     `toml:"name" json:"name"`
	Description string     `toml:"description" json:"description,omitempty"`
	Difficulty  Difficulty `toml:"difficulty" json:"difficulty"`
	Items       []PlanItem `toml:"items" json:"items,omitempty"`

	MoveID      string `toml:"move" json:"moveId,omitempty"`
	Sets        int    `toml:"sets" json:"sets,omitempty"`
	Reps        int    `toml:"reps" json:"reps,omitempty"`
	HoldSeconds int    `toml:"hold_seconds" json:"holdSeconds,omitempty"`
	Move        Move   `toml:"-" json:"-"`
}

// Sequence returns the moves to perform, in order.
func (p Plan) Sequence() []PlanItem {
	if len(p.Items) > 0 {
		return p.Items
	}
	return []PlanItem{{
		MoveID:      p.MoveID,
		Sets:        p.Sets,
		Reps:        p.Reps,
		HoldSeconds: p.HoldSeconds,
		Move:        p.Move,
	}}
}

func (p Plan) Len() int {
	return len(p.Sequence())
}

// Item returns the plan item at idx, clamped to the last one.
func (p Plan) Item(idx int) PlanItem {
	seq := p.Sequence()
	if idx < 0 {
		idx = 0
	}
	if idx >= len(seq) {
		idx = len(seq) - 1
	}
	return seq[idx]
}

// TotalSets sums the set counts of every move in the plan.
func (p Plan) TotalSets() int {
	total := 0
	for _, item := range p.Sequence() {
		total += item.TotalSets()
	}
	return total
}

// SingleMovePlan wraps a move into a plan of its own.
func SingleMovePlan(move Move, sets, target int) Plan {
	p := Plan{
		ID:         move.ID,
		Name:       move.Name,
		Difficulty: move.Difficulty,
		MoveID:     move.ID,
		Sets:       sets,
		Move:       move,
	}
	if move.IsHold() {
		p.HoldSeconds = target
	} else {
		p.Reps = target
	}
	return p
}

package exercises

import (
	"math/rand"
)

const (
	QuickStartSuggestions = 3
	QuickStartSets        = 3
	QuickStartReps        = 10
	QuickStartHoldSeconds = 30
)

// QuickStart suggests up to n random single-move plans suited to the
// user's fitness level. Each suggestion is 3 sets of 10 reps (30s holds).
func QuickStart(c *Catalog, level Difficulty, n int, rnd *rand.Rand) []Plan {
	if n <= 0 {
		n = QuickStartSuggestions
	}

	moves := c.MovesFor(level)
	rnd.Shuffle(len(moves), func(i, j int) {
		moves[i], moves[j] = moves[j], moves[i]
	})
	if len(moves) > n {
		moves = moves[:n]
	}

	plans := make([]Plan, 0, len(moves))
	for _, m := range moves {
		target := QuickStartReps
		if m.IsHold() {
			target = QuickStartHoldSeconds
		}
		plans = append(plans, SingleMovePlan(m, QuickStartSets, target))
	}
	return plans
}

package exercises

import (
	"fmt"
	"strings"
)

type Difficulty string

const (
	Beginner     Difficulty = "Beginner"
	Intermediate Difficulty = "Intermediate"
	Advanced     Difficulty = "Advanced"
)

func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "beginner":
		return Beginner, nil
	case "intermediate":
		return Intermediate, nil
	case "advanced":
		return Advanced, nil
	default:
		return "", fmt.Errorf("unknown fitness level: %q", s)
	}
}

func (d Difficulty) rank() int {
	switch d {
	case Beginner:
		return 1
	case Intermediate:
		return 2
	case Advanced:
		return 3
	default:
		return 0
	}
}

// Allows reports whether a user at fitness level d should be offered a move
// of the given difficulty. Unknown levels are treated as advanced.
func (d Difficulty) Allows(moveDifficulty Difficulty) bool {
	if d.rank() == 0 {
		return true
	}
	return moveDifficulty.rank() <= d.rank()
}

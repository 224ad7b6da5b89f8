package exercises

import (
	"errors"
	"fmt"
	"strings"

	"github.com/2beens/repcoach/internal/pose"
)

type Kind string

const (
	KindNone Kind = ""
	KindReps Kind = "reps"
	KindHold Kind = "hold"
)

type HoldPhase string

const (
	HoldUp   HoldPhase = "up"
	HoldDown HoldPhase = "down"
)

var ErrInvalidMove = errors.New("invalid move")

// TrackingRule tells the evaluator how to judge a move from three control
// joints: the angle at the middle joint is compared with Up and Down.
type TrackingRule struct {
	Kind      Kind         `toml:"kind" json:"kind"`
	Joints    []pose.Joint `toml:"joints" json:"joints,omitempty"`
	Up        float64      `toml:"up" json:"up"`
	Down      float64      `toml:"down" json:"down"`
	HoldPhase HoldPhase    `toml:"hold_phase" json:"holdPhase,omitempty"`
}

// ControlJoints returns the three joints defining the tracked angle. ok is
// false when the rule has no usable joint configuration.
func (r TrackingRule) ControlJoints() (joints [3]pose.Joint, ok bool) {
	if r.Kind == KindNone || len(r.Joints) != 3 {
		return joints, false
	}
	copy(joints[:], r.Joints)
	return joints, true
}

type Move struct {
	ID          string       `toml:"id" json:"id"`
	Name        string       `toml:"name" json:"name"`
	Description string       `toml:"description" json:"description,omitempty"`
	Difficulty  Difficulty   `toml:"difficulty" json:"difficulty"`
	Category    string       `toml:"category" json:"category,omitempty"`
	MET         float64      `toml:"met" json:"met"`
	Tracking    TrackingRule `toml:"tracking" json:"tracking"`
}

func (m Move) IsHold() bool {
	return m.Tracking.Kind == KindHold
}

// Validate checks the static invariants of a move. A move without any
// control joints is valid here; the evaluator treats it as untrackable.
func (m Move) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidMove)
	}
	if m.MET < 0 {
		return fmt.Errorf("%w: %s: negative met value", ErrInvalidMove, m.ID)
	}

	rule := m.Tracking
	switch rule.Kind {
	case KindNone, KindReps, KindHold:
	default:
		return fmt.Errorf("%w: %s: unknown tracking kind %q", ErrInvalidMove, m.ID, rule.Kind)
	}

	if len(rule.Joints) == 0 {
		return nil
	}
	if len(rule.Joints) != 3 {
		return fmt.Errorf("%w: %s: need exactly 3 control joints, got %d", ErrInvalidMove, m.ID, len(rule.Joints))
	}
	for _, j := range rule.Joints {
		if !j.Valid() {
			return fmt.Errorf("%w: %s: unknown joint %q", ErrInvalidMove, m.ID, j)
		}
	}
	if rule.Up <= rule.Down {
		return fmt.Errorf("%w: %s: up threshold %.0f must be above down %.0f", ErrInvalidMove, m.ID, rule.Up, rule.Down)
	}
	if rule.Kind == KindHold && rule.HoldPhase != HoldUp && rule.HoldPhase != HoldDown {
		return fmt.Errorf("%w: %s: hold phase must be up or down", ErrInvalidMove, m.ID)
	}
	return nil
}

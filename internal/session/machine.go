package session

import (
	"math"
	"slices"

	"github.com/2beens/repcoach/internal/exercises"
	"github.com/2beens/repcoach/internal/metabolic"
)

// Apply is the session transition function. It never mutates its input
// and returns the next state together with the effects to carry out.
// Events that do not apply to the current phase leave the state unchanged.
func Apply(cfg Config, plan exercises.Plan, s State, ev Event) (State, []Effect) {
	if s.Phase.Terminal() {
		return s, nil
	}

	switch ev := ev.(type) {
	case Start:
		if s.Phase == PhaseIdle || (s.Phase == PhaseStarting && s.Err != nil) {
			s.Phase = PhaseStarting
			s.Err = nil
			return s, []Effect{AcquireResources{}}
		}
	case CameraReady:
		if s.Phase == PhaseStarting && s.Err == nil {
			s.Phase = PhaseCountdown
			s.Countdown = cfg.InitialCountdown
			if s.Countdown <= 0 {
				return beginSet(s)
			}
		}
	case StartFailed:
		if s.Phase == PhaseStarting {
			s.Err = ev.Err
		}
	case Tick:
		return tick(cfg, plan, s)
	case RepCompleted:
		if s.Phase == PhaseExercising {
			s.Reps++
			if targetReached(plan, s) {
				return finishSet(cfg, plan, s)
			}
		}
	case FormChanged:
		if s.Phase == PhaseExercising {
			s.FormValid = ev.Valid
		}
	case Pause:
		if s.Phase == PhaseExercising {
			s.Phase = PhasePaused
		}
	case Resume:
		if s.Phase == PhasePaused {
			s.Phase = PhaseExercising
		}
	case FinishSet:
		if s.Phase == PhaseExercising {
			return finishSet(cfg, plan, s)
		}
	case Abandon:
		s.Phase = PhaseAbandoned
		s.Countdown = 0
		return s, []Effect{ReleaseResources{}}
	}
	return s, nil
}

func tick(cfg Config, plan exercises.Plan, s State) (State, []Effect) {
	switch s.Phase {
	case PhaseCountdown:
		s.Countdown--
		if s.Countdown <= 0 {
			return beginSet(s)
		}
	case PhaseExercising:
		item := plan.Item(s.MoveIndex)
		s.ElapsedSeconds++
		s.Calories += metabolic.CalorieRate(cfg.BMR, item.Move.MET)
		if item.Move.IsHold() && s.FormValid {
			s.HoldSeconds++
		}
		if targetReached(plan, s) {
			return finishSet(cfg, plan, s)
		}
	case PhaseResting:
		s.ElapsedSeconds++
		s.Countdown--
		if s.Countdown <= 0 {
			return nextSet(plan, s)
		}
	}
	return s, nil
}

func targetReached(plan exercises.Plan, s State) bool {
	item := plan.Item(s.MoveIndex)
	if item.Move.IsHold() {
		return s.HoldSeconds >= item.Target()
	}
	return s.Reps >= item.Target()
}

// beginSet enters exercising with fresh per-set counters.
func beginSet(s State) (State, []Effect) {
	s.Phase = PhaseExercising
	s.Countdown = 0
	s.Reps = 0
	s.HoldSeconds = 0
	s.FormValid = false
	return s, []Effect{ResetEvaluator{MoveIndex: s.MoveIndex}}
}

// finishSet credits the current set, whether its target was reached or it
// was finished by hand, and moves on to rest or completion.
func finishSet(cfg Config, plan exercises.Plan, s State) (State, []Effect) {
	item := plan.Item(s.MoveIndex)
	if !item.Move.IsHold() {
		s.TotalReps += s.Reps
	}
	s.SetsFinished++
	effects := []Effect{SetFinished{
		MoveIndex:   s.MoveIndex,
		Set:         s.Set,
		Reps:        s.Reps,
		HoldSeconds: s.HoldSeconds,
	}}

	lastSet := s.Set >= item.TotalSets()
	if lastSet {
		s.Breakdown = append(slices.Clip(s.Breakdown), BreakdownEntry{
			MoveID:   item.Move.ID,
			MoveName: item.Move.Name,
			Result:   item.Result(),
		})
	}

	if lastSet && s.MoveIndex >= plan.Len()-1 {
		s.Phase = PhaseComplete
		s.Countdown = 0
		summary := assembleSummary(plan, s)
		s.Summary = &summary
		return s, append(effects, Persist{Summary: summary}, ReleaseResources{})
	}

	s.Phase = PhaseResting
	s.Countdown = cfg.RestPeriod
	if s.Countdown <= 0 {
		next, more := nextSet(plan, s)
		return next, append(effects, more...)
	}
	return s, effects
}

func nextSet(plan exercises.Plan, s State) (State, []Effect) {
	if s.Set >= plan.Item(s.MoveIndex).TotalSets() {
		s.MoveIndex++
		s.Set = 1
	} else {
		s.Set++
	}
	return beginSet(s)
}

func assembleSummary(plan exercises.Plan, s State) Summary {
	return Summary{
		PlanID:          plan.ID,
		PlanName:        plan.Name,
		Reps:            s.TotalReps,
		DurationSeconds: s.ElapsedSeconds,
		Calories:        int(math.Round(s.Calories)),
		Breakdown:       slices.Clone(s.Breakdown),
	}
}

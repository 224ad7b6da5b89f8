package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/repcoach/internal/session"

	log "github.com/sirupsen/logrus"
)

// Recorder writes sessions into the history tables. It is a session.Sink
// and a session.StartRecorder.
type Recorder struct {
	repo *Repo
}

var (
	_ session.Sink          = (*Recorder)(nil)
	_ session.StartRecorder = (*Recorder)(nil)
)

func NewRecorder(repo *Repo) *Recorder {
	return &Recorder{
		repo: repo,
	}
}

func (r *Recorder) RecordStart(ctx context.Context, sessionID, userID, planID string, at time.Time) error {
	if _, err := r.repo.AddEvent(ctx, NewSessionStartEvent(sessionID, userID, planID, at)); err != nil {
		return fmt.Errorf("add session start event: %w", err)
	}
	return nil
}

func (r *Recorder) RecordWorkout(ctx context.Context, workout session.Workout) error {
	id, err := r.repo.AddWorkout(ctx, workout)
	if errors.Is(err, ErrWorkoutExists) {
		log.Warnf("workout for session %s already recorded", workout.SessionID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("add workout: %w", err)
	}

	finish := NewSessionFinishEvent(
		workout.SessionID, workout.UserID, workout.FinishedAt,
		workout.Summary.Calories, workout.Summary.Reps,
	)
	if _, err := r.repo.AddEvent(ctx, finish); err != nil {
		return fmt.Errorf("add session finish event: %w", err)
	}

	log.Debugf("workout %d recorded for session %s", id, workout.SessionID)
	return nil
}

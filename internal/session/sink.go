package session

import (
	"context"
	"time"

	"go.uber.org/multierr"
)

// Workout is a completed session as handed to persistence.
type Workout struct {
	SessionID  string    `json:"sessionId"`
	UserID     string    `json:"userId"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Summary    Summary   `json:"summary"`
}

// Sink persists completed workouts.
type Sink interface {
	RecordWorkout(ctx context.Context, workout Workout) error
}

// StartRecorder is implemented by sinks that also want to know when a
// session gets going.
type StartRecorder interface {
	RecordStart(ctx context.Context, sessionID, userID, planID string, at time.Time) error
}

// MultiSink fans a workout out to every sink and combines their errors.
type MultiSink []Sink

func (m MultiSink) RecordWorkout(ctx context.Context, workout Workout) error {
	var err error
	for _, s := range m {
		err = multierr.Append(err, s.RecordWorkout(ctx, workout))
	}
	return err
}

func (m MultiSink) RecordStart(ctx context.Context, sessionID, userID, planID string, at time.Time) error {
	var err error
	for _, s := range m {
		if sr, ok := s.(StartRecorder); ok {
			err = multierr.Append(err, sr.RecordStart(ctx, sessionID, userID, planID, at))
		}
	}
	return err
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, workout Workout) error

func (f SinkFunc) RecordWorkout(ctx context.Context, workout Workout) error {
	return f(ctx, workout)
}

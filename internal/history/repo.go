package history

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/repcoach/internal/db"
	"github.com/2beens/repcoach/internal/session"
	"github.com/2beens/repcoach/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

//go:embed schema.sql
var Schema string

// postgres default name for the UNIQUE on workout.session_id
const workoutSessionUniqueKey = "workout_session_id_key"

// ErrWorkoutExists is returned when a session's workout is stored twice.
var ErrWorkoutExists = errors.New("workout already recorded")

// WorkoutRecord is a stored workout row.
type WorkoutRecord struct {
	ID              int                      `json:"id"`
	SessionID       string                   `json:"sessionId"`
	UserID          string                   `json:"userId"`
	PlanID          string                   `json:"planId"`
	PlanName        string                   `json:"planName"`
	Reps            int                      `json:"reps"`
	DurationSeconds int                      `json:"durationSeconds"`
	Calories        int                      `json:"calories"`
	Breakdown       []session.BreakdownEntry `json:"breakdown"`
	StartedAt       time.Time                `json:"startedAt"`
	FinishedAt      time.Time                `json:"finishedAt"`
}

type Repo struct {
	db db.Querier
}

func NewRepo(db db.Querier) *Repo {
	return &Repo{
		db: db,
	}
}

// Migrate creates the history tables if they are missing.
func (r *Repo) Migrate(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.history.migrate")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	_, err = r.db.Exec(ctx, Schema)
	return err
}

func (r *Repo) AddWorkout(ctx context.Context, workout session.Workout) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.history.workout.add")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("session", workout.SessionID))

	breakdown := workout.Summary.Breakdown
	if breakdown == nil {
		breakdown = []session.BreakdownEntry{}
	}
	breakdownJson, err := json.Marshal(breakdown)
	if err != nil {
		return -1, fmt.Errorf("marshal breakdown: %w", err)
	}

	var id int
	err = r.db.QueryRow(ctx, `
		INSERT INTO workout (
			session_id, user_id, plan_id, plan_name,
			reps, duration_seconds, calories, breakdown,
			started_at, finished_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`,
		workout.SessionID, workout.UserID, workout.Summary.PlanID, workout.Summary.PlanName,
		workout.Summary.Reps, workout.Summary.DurationSeconds, workout.Summary.Calories, breakdownJson,
		workout.StartedAt, workout.FinishedAt,
	).Scan(&id)
	if isUniqueViolation(err, workoutSessionUniqueKey) {
		return -1, ErrWorkoutExists
	}
	if err != nil {
		return -1, err
	}
	return id, nil
}

// ListWorkouts returns a user's workouts, newest first. Page is 1-based.
func (r *Repo) ListWorkouts(ctx context.Context, userID string, page, size int) (_ []*WorkoutRecord, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.history.workout.list")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.Int("page", page), attribute.Int("size", size))

	if page < 1 || size < 1 {
		return nil, fmt.Errorf("invalid page [%d] or size [%d]", page, size)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, session_id, user_id, plan_id, plan_name,
		       reps, duration_seconds, calories, breakdown,
		       started_at, finished_at
		FROM workout
		WHERE user_id = $1
		ORDER BY finished_at DESC
		LIMIT $2 OFFSET $3;
	`, userID, size, size*(page-1))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workouts := make([]*WorkoutRecord, 0)
	for rows.Next() {
		w := &WorkoutRecord{}
		var breakdownJson []byte
		if err := rows.Scan(
			&w.ID, &w.SessionID, &w.UserID, &w.PlanID, &w.PlanName,
			&w.Reps, &w.DurationSeconds, &w.Calories, &breakdownJson,
			&w.StartedAt, &w.FinishedAt,
		); err != nil {
			return nil, err
		}
		if len(breakdownJson) > 0 {
			if err := json.Unmarshal(breakdownJson, &w.Breakdown); err != nil {
				return nil, fmt.Errorf("workout %d: unmarshal breakdown: %w", w.ID, err)
			}
		}
		workouts = append(workouts, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return workouts, nil
}

func (r *Repo) CountWorkouts(ctx context.Context, userID string) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.history.workout.count")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	var count int
	if err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM workout WHERE user_id = $1;
	`, userID).Scan(&count); err != nil {
		return -1, err
	}
	return count, nil
}

func (r *Repo) AddEvent(ctx context.Context, event Event) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.history.events.add")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("type", event.Type.String()))

	if !event.Type.IsValid() {
		return -1, fmt.Errorf("invalid event type: %s", event.Type)
	}

	var id int
	err = r.db.QueryRow(ctx, `
		INSERT INTO workout_event (session_id, user_id, type, data, timestamp)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`,
		event.SessionID,
		event.UserID,
		event.Type,
		event.Data,
		event.Timestamp,
	).Scan(&id)
	if err != nil {
		return -1, err
	}
	return id, nil
}

// ListEvents returns the events of one session in the order they happened.
func (r *Repo) ListEvents(ctx context.Context, sessionID string) (_ []*Event, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.history.events.list")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	rows, err := r.db.Query(ctx, `
		SELECT id, session_id, user_id, type, data, timestamp
		FROM workout_event
		WHERE session_id = $1
		ORDER BY timestamp ASC;
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*Event, 0)
	for rows.Next() {
		e := &Event{}
		if err := rows.Scan(&e.ID, &e.SessionID, &e.UserID, &e.Type, &e.Data, &e.Timestamp); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

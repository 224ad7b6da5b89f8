package history

import (
	"strconv"
	"time"
)

// EventType can be one of:
//   - session_started
//   - session_finished
type EventType string

const (
	EventTypeSessionStarted  EventType = "session_started"
	EventTypeSessionFinished EventType = "session_finished"
)

func (et EventType) String() string {
	return string(et)
}

func (et EventType) IsValid() bool {
	switch et {
	case EventTypeSessionStarted, EventTypeSessionFinished:
		return true
	default:
		return false
	}
}

// Event is a point in a session's life, stored next to the finished
// workouts so a session that never completed still leaves a trace.
type Event struct {
	ID        int               `json:"id"`
	SessionID string            `json:"sessionId"`
	UserID    string            `json:"userId"`
	Type      EventType         `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Data      map[string]string `json:"data"`
}

func NewSessionStartEvent(sessionID, userID, planID string, at time.Time) Event {
	return Event{
		SessionID: sessionID,
		UserID:    userID,
		Type:      EventTypeSessionStarted,
		Timestamp: at,
		Data: map[string]string{
			"plan": planID,
		},
	}
}

func NewSessionFinishEvent(sessionID, userID string, at time.Time, calories, reps int) Event {
	return Event{
		SessionID: sessionID,
		UserID:    userID,
		Type:      EventTypeSessionFinished,
		Timestamp: at,
		Data: map[string]string{
			"calories": strconv.Itoa(calories),
			"reps":     strconv.Itoa(reps),
		},
	}
}

package test

import (
	"context"
	"net/http"
	"time"

	"github.com/2beens/repcoach/internal/history"
	"github.com/2beens/repcoach/internal/profile"
	"github.com/2beens/repcoach/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type startSessionResponse struct {
	SessionID string           `json:"sessionId"`
	LiveURL   string           `json:"liveUrl"`
	Snapshot  session.Snapshot `json:"snapshot"`
}

type workoutsPage struct {
	Workouts []history.WorkoutRecord `json:"workouts"`
	Total    int                     `json:"total"`
}

func (s *IntegrationTestSuite) TestSession_ReplayedSquats() {
	t := s.T()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	user := newTestUser()
	doRegister(ctx, t, s.httpClient, user)
	login := doLogin(ctx, t, s.httpClient, user)

	resp := doJSON(ctx, t, s.httpClient, "POST", "/sessions", login.Token, map[string]string{"planId": "squat"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var started startSessionResponse
	decodeBody(t, resp, &started)
	require.NotEmpty(t, started.SessionID)
	assert.Equal(t, "/live/sessions/"+started.SessionID, started.LiveURL)

	// the device runs one session at a time
	resp = doJSON(ctx, t, s.httpClient, "POST", "/sessions", login.Token, map[string]string{"planId": "squat"})
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var snap session.Snapshot
	require.Eventually(t, func() bool {
		status, err := getJSON(ctx, s.httpClient, "/sessions/"+started.SessionID, login.Token, &snap)
		return err == nil && status == http.StatusOK && snap.State.Phase.Terminal()
	}, 45*time.Second, 250*time.Millisecond)

	require.Equal(t, session.PhaseComplete, snap.State.Phase)
	require.NotNil(t, snap.State.Summary)
	assert.Equal(t, 10, snap.State.Summary.Reps)
	assert.Equal(t, "squat", snap.State.Summary.PlanID)

	// other users cannot see the session
	other := newTestUser()
	doRegister(ctx, t, s.httpClient, other)
	otherLogin := doLogin(ctx, t, s.httpClient, other)
	resp = doJSON(ctx, t, s.httpClient, "GET", "/sessions/"+started.SessionID, otherLogin.Token, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var page workoutsPage
	require.Eventually(t, func() bool {
		status, err := getJSON(ctx, s.httpClient, "/history/page/1/size/10", login.Token, &page)
		return err == nil && status == http.StatusOK && page.Total == 1
	}, 5*time.Second, 100*time.Millisecond)
	require.Len(t, page.Workouts, 1)
	assert.Equal(t, started.SessionID, page.Workouts[0].SessionID)
	assert.Equal(t, 10, page.Workouts[0].Reps)

	var events []history.Event
	resp = doJSON(ctx, t, s.httpClient, "GET", "/history/sessions/"+started.SessionID+"/events", login.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &events)
	require.Len(t, events, 2)
	assert.Equal(t, history.EventTypeSessionStarted, events[0].Type)
	assert.Equal(t, history.EventTypeSessionFinished, events[1].Type)

	var fitness profile.FitnessData
	resp = doJSON(ctx, t, s.httpClient, "GET", "/profile/me/fitness", login.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &fitness)
	assert.NotEmpty(t, fitness.History)
}

package coach_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/2beens/repcoach/internal/auth"
	"github.com/2beens/repcoach/internal/camera"
	"github.com/2beens/repcoach/internal/coach"
	"github.com/2beens/repcoach/internal/evaluator"
	"github.com/2beens/repcoach/internal/exercises"
	"github.com/2beens/repcoach/internal/session"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func serve(router *mux.Router, method, path, body, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if userID != "" {
		req = req.WithContext(auth.WithSession(req.Context(), &auth.LoginSession{
			Token:     "tkn",
			UserID:    userID,
			CreatedAt: time.Now(),
		}))
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestHandler_SessionLifecycle(t *testing.T) {
	ctrl := gomock.NewController(t)
	catalog, err := exercises.DefaultCatalog()
	require.NoError(t, err)
	rec := squatRecording(t, catalog, 1)

	det := NewMockdetector(ctrl)
	det.EXPECT().Initialize(gomock.Any()).Return(nil)
	det.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	det.EXPECT().Stop().AnyTimes()

	snaps, observer := snapshotChan()
	manager := coach.NewManager(coach.ManagerParams{
		Catalog:         catalog,
		Camera:          camera.NewExclusive("replay", camera.NewReplay(rec)),
		Detector:        det,
		Config:          session.Config{InitialCountdown: 0, RestPeriod: 0},
		EvaluatorConfig: evaluator.DefaultConfig(),
		Observers:       []session.StateHandler{observer},
		TickInterval:    10 * time.Millisecond,
	})
	defer manager.Shutdown()

	router := mux.NewRouter()
	coach.NewHandler(manager).SetupRoutes(router)

	rr := serve(router, "POST", "/sessions", `{"planId":"squat"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	rr = serve(router, "POST", "/sessions", `{}`, "user-1")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = serve(router, "POST", "/sessions", `{"planId":"moonwalk"}`, "user-1")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(router, "POST", "/sessions", `{"planId":"squat"}`, "user-1")
	require.Equal(t, http.StatusCreated, rr.Code)
	var started struct {
		SessionID string `json:"sessionId"`
		LiveURL   string `json:"liveUrl"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &started))
	require.NotEmpty(t, started.SessionID)
	assert.Equal(t, "/live/sessions/"+started.SessionID, started.LiveURL)
	waitForPhase(t, snaps, session.PhaseExercising)

	rr = serve(router, "POST", "/sessions", `{"planId":"plank"}`, "user-2")
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = serve(router, "GET", "/sessions/"+started.SessionID, "", "user-1")
	require.Equal(t, http.StatusOK, rr.Code)
	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	assert.Equal(t, "squat", snap.PlanID)

	rr = serve(router, "GET", "/sessions/"+started.SessionID, "", "user-2")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(router, "POST", "/sessions/"+started.SessionID+"/dance", "", "user-1")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(router, "POST", "/sessions/"+started.SessionID+"/finish-set", "", "user-1")
	assert.Equal(t, http.StatusAccepted, rr.Code)
	waitForPhase(t, snaps, session.PhaseComplete)

	require.Eventually(t, func() bool { return manager.Active() == 0 }, 5*time.Second, 10*time.Millisecond)
	rr = serve(router, "POST", "/sessions/"+started.SessionID+"/pause", "", "user-1")
	assert.Equal(t, http.StatusGone, rr.Code)
}

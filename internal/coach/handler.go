package coach

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2beens/repcoach/internal/auth"
	"github.com/2beens/repcoach/internal/exercises"
	"github.com/2beens/repcoach/internal/session"
	"github.com/2beens/repcoach/internal/telemetry/tracing"
	"github.com/2beens/repcoach/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

type Handler struct {
	manager *Manager
}

func NewHandler(manager *Manager) *Handler {
	return &Handler{
		manager: manager,
	}
}

func (h *Handler) SetupRoutes(mainRouter *mux.Router) {
	mainRouter.HandleFunc("/sessions", h.HandleStart).Methods("POST", "OPTIONS").Name("session-new")
	mainRouter.HandleFunc("/sessions/{id}", h.HandleGet).Methods("GET", "OPTIONS").Name("session-get")
	mainRouter.HandleFunc("/sessions/{id}/{action}", h.HandleControl).Methods("POST", "OPTIONS").Name("session-control")
}

type startRequest struct {
	PlanID string `json:"planId"`
}

type startResponse struct {
	SessionID string           `json:"sessionId"`
	LiveURL   string           `json:"liveUrl"`
	Snapshot  session.Snapshot `json:"snapshot"`
}

func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "coachHandler.start")
	defer span.End()

	loginSession, ok := auth.SessionFromContext(ctx)
	if !ok {
		http.Error(w, "no session", http.StatusUnauthorized)
		return
	}

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlanID == "" {
		http.Error(w, "planId missing", http.StatusBadRequest)
		return
	}

	snap, err := h.manager.StartSession(ctx, loginSession.UserID, req.PlanID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(w, "start session", err)
		return
	}

	pkg.WriteJSON(w, http.StatusCreated, startResponse{
		SessionID: snap.SessionID,
		LiveURL:   "/live/sessions/" + snap.SessionID,
		Snapshot:  snap,
	})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	loginSession, ok := auth.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "no session", http.StatusUnauthorized)
		return
	}

	snap, err := h.manager.Snapshot(mux.Vars(r)["id"], loginSession.UserID)
	if err != nil {
		writeError(w, "get session", err)
		return
	}
	pkg.WriteJSON(w, http.StatusOK, snap)
}

func (h *Handler) HandleControl(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "coachHandler.control")
	defer span.End()

	loginSession, ok := auth.SessionFromContext(ctx)
	if !ok {
		http.Error(w, "no session", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	if err := h.manager.Control(ctx, vars["id"], loginSession.UserID, vars["action"]); err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeError(w, "control session", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, exercises.ErrPlanNotFound):
		http.Error(w, "plan not found", http.StatusNotFound)
	case errors.Is(err, ErrSessionNotFound):
		http.Error(w, "session not found", http.StatusNotFound)
	case errors.Is(err, ErrUnknownAction):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrBusy):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, session.ErrSessionOver):
		http.Error(w, "session is over", http.StatusGone)
	default:
		log.Errorf("%s: %s", op, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

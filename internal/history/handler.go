package history

import (
	"net/http"
	"strconv"

	"github.com/2beens/repcoach/internal/auth"
	"github.com/2beens/repcoach/internal/telemetry/tracing"
	"github.com/2beens/repcoach/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const maxPageSize = 100

type Handler struct {
	repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{
		repo: repo,
	}
}

type workoutsPage struct {
	Workouts []*WorkoutRecord `json:"workouts"`
	Total    int              `json:"total"`
}

func (h *Handler) SetupRoutes(mainRouter *mux.Router) {
	mainRouter.HandleFunc("/history/page/{page}/size/{size}", h.HandleList).Methods("GET", "OPTIONS").Name("history-list")
	mainRouter.HandleFunc("/history/sessions/{id}/events", h.HandleEvents).Methods("GET", "OPTIONS").Name("history-events")
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "historyHandler.list")
	defer span.End()

	loginSession, ok := auth.SessionFromContext(ctx)
	if !ok {
		http.Error(w, "no session", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	page, err := strconv.Atoi(vars["page"])
	if err != nil || page < 1 {
		http.Error(w, "invalid page", http.StatusBadRequest)
		return
	}
	size, err := strconv.Atoi(vars["size"])
	if err != nil || size < 1 || size > maxPageSize {
		http.Error(w, "invalid size", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("user", loginSession.UserID))

	workouts, err := h.repo.ListWorkouts(ctx, loginSession.UserID, page, size)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		log.Errorf("list workouts for %s: %s", loginSession.UserID, err)
		http.Error(w, "failed to get workouts", http.StatusInternalServerError)
		return
	}

	total, err := h.repo.CountWorkouts(ctx, loginSession.UserID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		log.Errorf("count workouts for %s: %s", loginSession.UserID, err)
		http.Error(w, "failed to get workouts", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, workoutsPage{
		Workouts: workouts,
		Total:    total,
	})
}

func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "historyHandler.events")
	defer span.End()

	loginSession, ok := auth.SessionFromContext(ctx)
	if !ok {
		http.Error(w, "no session", http.StatusUnauthorized)
		return
	}

	sessionID := mux.Vars(r)["id"]
	events, err := h.repo.ListEvents(ctx, sessionID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		log.Errorf("list events for session %s: %s", sessionID, err)
		http.Error(w, "failed to get events", http.StatusInternalServerError)
		return
	}

	// other users' sessions look like sessions that do not exist
	owned := make([]*Event, 0, len(events))
	for _, e := range events {
		if e.UserID == loginSession.UserID {
			owned = append(owned, e)
		}
	}
	if len(owned) == 0 {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, owned)
}

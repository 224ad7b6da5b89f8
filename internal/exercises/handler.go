package exercises

import (
	"errors"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/2beens/repcoach/pkg"

	"github.com/gorilla/mux"
)

// Handler serves the read-only catalog endpoints.
type Handler struct {
	catalog *Catalog

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewHandler(catalog *Catalog, rnd *rand.Rand) *Handler {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Handler{
		catalog: catalog,
		rnd:     rnd,
	}
}

func (h *Handler) SetupRoutes(mainRouter *mux.Router) {
	mainRouter.HandleFunc("/moves", h.HandleMoves).Methods("GET", "OPTIONS").Name("moves")
	mainRouter.HandleFunc("/plans", h.HandlePlans).Methods("GET", "OPTIONS").Name("plans")
	mainRouter.HandleFunc("/plans/quickstart", h.HandleQuickStart).Methods("GET", "OPTIONS").Name("quickstart")
	mainRouter.HandleFunc("/plans/{id}", h.HandlePlan).Methods("GET", "OPTIONS").Name("plan")
}

// levelParam reads ?level=; without it every entry is returned.
func levelParam(r *http.Request) (Difficulty, bool, error) {
	raw := r.URL.Query().Get("level")
	if raw == "" {
		return "", false, nil
	}
	level, err := ParseDifficulty(raw)
	return level, true, err
}

func (h *Handler) HandleMoves(w http.ResponseWriter, r *http.Request) {
	level, filtered, err := levelParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	moves := h.catalog.Moves()
	if filtered {
		moves = h.catalog.MovesFor(level)
	}
	if moves == nil {
		moves = []Move{}
	}
	pkg.WriteJSON(w, http.StatusOK, moves)
}

func (h *Handler) HandlePlans(w http.ResponseWriter, r *http.Request) {
	level, filtered, err := levelParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	plans := h.catalog.Plans()
	if filtered {
		plans = h.catalog.PlansFor(level)
	}
	if plans == nil {
		plans = []Plan{}
	}
	pkg.WriteJSON(w, http.StatusOK, plans)
}

func (h *Handler) HandlePlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.catalog.PlanOrMove(mux.Vars(r)["id"])
	if errors.Is(err, ErrPlanNotFound) {
		http.Error(w, "plan not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	pkg.WriteJSON(w, http.StatusOK, plan)
}

func (h *Handler) HandleQuickStart(w http.ResponseWriter, r *http.Request) {
	level, filtered, err := levelParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !filtered {
		level = Beginner
	}

	h.rndMu.Lock()
	plans := QuickStart(h.catalog, level, QuickStartSuggestions, h.rnd)
	h.rndMu.Unlock()

	pkg.WriteJSON(w, http.StatusOK, plans)
}

package profile

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2beens/repcoach/internal/auth"
	"github.com/2beens/repcoach/internal/middleware"
	"github.com/2beens/repcoach/internal/telemetry/metrics"
	"github.com/2beens/repcoach/internal/telemetry/tracing"
	"github.com/2beens/repcoach/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

// SetupRoutes registers the profile endpoints. Login routes are rate
// limited; the /profile/me routes expect the auth middleware to have
// resolved the login session.
func (h *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	loginsPerMin int,
	metricsManager *metrics.Manager,
) {
	mainRouter.HandleFunc("/profile/register", h.HandleRegister).Methods("POST", "OPTIONS").Name("register")
	mainRouter.HandleFunc("/profile/me", h.HandleMe).Methods("GET", "OPTIONS").Name("profile-me")
	mainRouter.HandleFunc("/profile/me", h.HandleUpdate).Methods("PATCH", "OPTIONS").Name("profile-update")
	mainRouter.HandleFunc("/profile/me/fitness", h.HandleFitness).Methods("GET", "OPTIONS").Name("profile-fitness")

	loginSubrouter := mainRouter.PathPrefix("/a").Subrouter()
	loginSubrouter.HandleFunc("/login", h.HandleLogin).Methods("POST", "OPTIONS").Name("login")
	loginSubrouter.HandleFunc("/login/face", h.HandleFaceLogin).Methods("POST", "OPTIONS").Name("login-face")
	loginSubrouter.HandleFunc("/logout", h.HandleLogout).Methods("POST", "OPTIONS").Name("logout")
	if rateLimiter != nil {
		loginSubrouter.Use(middleware.RateLimit(rateLimiter, "login", loginsPerMin, metricsManager))
	}
}

type loginResponse struct {
	Token   string  `json:"token"`
	Profile Profile `json:"profile"`
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "profileHandler.register")
	defer span.End()

	var params RegisterParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	p, err := h.service.Register(ctx, params)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeServiceError(w, "register", err)
		return
	}

	pkg.WriteJSON(w, http.StatusCreated, p.Public())
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "profileHandler.login")
	defer span.End()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, "error, email or password empty", http.StatusBadRequest)
		return
	}

	token, p, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeServiceError(w, "login", err)
		return
	}

	log.Tracef("new login success: %s", p.ID)
	pkg.WriteJSON(w, http.StatusOK, loginResponse{Token: token, Profile: p.Public()})
}

func (h *Handler) HandleFaceLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "profileHandler.faceLogin")
	defer span.End()

	var req struct {
		Email string `json:"email"`
		Image string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Image == "" {
		http.Error(w, "error, email or image empty", http.StatusBadRequest)
		return
	}

	token, p, err := h.service.FaceLogin(ctx, req.Email, req.Image)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		writeServiceError(w, "face login", err)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, loginResponse{Token: token, Profile: p.Public()})
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	authToken := r.Header.Get(auth.TokenHeader)
	if authToken == "" {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	loggedOut, err := h.service.Logout(r.Context(), authToken)
	if err != nil {
		log.Errorf("logout failed: %s", err)
		http.Error(w, "no can do", http.StatusInternalServerError)
		return
	}
	if !loggedOut {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	pkg.WriteTextResponseOK(w, "logged-out")
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	p, err := h.service.Get(r.Context(), session.UserID)
	if err != nil {
		writeServiceError(w, "get profile", err)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, p.Public())
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var params UpdateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	p, err := h.service.Update(r.Context(), session.UserID, params)
	if err != nil {
		writeServiceError(w, "update profile", err)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, p.Public())
}

func (h *Handler) HandleFitness(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	data, err := h.service.FitnessData(r.Context(), session.UserID)
	if err != nil {
		writeServiceError(w, "get fitness data", err)
		return
	}

	pkg.WriteJSON(w, http.StatusOK, struct {
		Data  *FitnessData `json:"data"`
		Stats Stats        `json:"stats"`
	}{
		Data:  data,
		Stats: data.Stats(),
	})
}

func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrInvalidProfile):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrEmailTaken):
		http.Error(w, "User with this email already exists.", http.StatusConflict)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrFaceMismatch),
		errors.Is(err, ErrNoFaceReference):
		http.Error(w, "error, wrong credentials", http.StatusUnauthorized)
	default:
		log.Errorf("%s: %s", op, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

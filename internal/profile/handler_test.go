package profile_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/2beens/repcoach/internal/auth"
	"github.com/2beens/repcoach/internal/middleware"
	"github.com/2beens/repcoach/internal/profile"
	"github.com/2beens/repcoach/internal/telemetry/metrics"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func setupProfileRouterForTests(t *testing.T) (*mux.Router, *MockfaceVerifier) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	faces := NewMockfaceVerifier(gomock.NewController(t))
	metricsManager := metrics.NewTestManager()
	svc := profile.NewService(
		profile.NewMemoryStore(),
		auth.NewAuthService(time.Hour, rdb),
		faces,
		metricsManager,
	)
	svc.HashPasswordFunc = func(password string) (string, error) {
		return "hashed:" + password, nil
	}
	svc.CheckPasswordFunc = func(password, hash string) bool {
		return hash == "hashed:"+password
	}

	r := mux.NewRouter()
	authMiddleware := middleware.NewAuthMiddlewareHandler(auth.NewLoginChecker(time.Hour, rdb))
	r.Use(middleware.PanicRecovery(metricsManager))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	profile.NewHandler(svc).SetupRoutes(r, nil, 0, metricsManager)
	return r, faces
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(auth.TokenHeader, token)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestHandler_RegisterLoginAndMe(t *testing.T) {
	r, _ := setupProfileRouterForTests(t)

	register := profile.RegisterParams{
		FullName: "Alex Flow",
		Email:    "alex@fitflow.com",
		Password: "secret-pass",
		Gender:   "Male",
		Height:   `5'11"`,
		Weight:   "175",
		Age:      28,
	}
	rr := doJSON(t, r, http.MethodPost, "/profile/register", "", register)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created profile.Profile
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Empty(t, created.PasswordHash, "credentials never leave the service")
	assert.Equal(t, 24.4, created.BMI)

	rr = doJSON(t, r, http.MethodPost, "/profile/register", "", register)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "User with this email already exists.")

	rr = doJSON(t, r, http.MethodPost, "/a/login", "", map[string]string{
		"email": "ALEX@fitflow.com", "password": "wrong-pass",
	})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doJSON(t, r, http.MethodPost, "/a/login", "", map[string]string{
		"email": "ALEX@fitflow.com", "password": "secret-pass",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	var login struct {
		Token   string          `json:"token"`
		Profile profile.Profile `json:"profile"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)
	assert.Equal(t, created.ID, login.Profile.ID)

	rr = doJSON(t, r, http.MethodGet, "/profile/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doJSON(t, r, http.MethodGet, "/profile/me", login.Token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var me profile.Profile
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &me))
	assert.Equal(t, "Alex Flow", me.FullName)

	rr = doJSON(t, r, http.MethodPatch, "/profile/me", login.Token, map[string]any{"weight": "200"})
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &me))
	assert.Equal(t, 27.9, me.BMI)

	rr = doJSON(t, r, http.MethodGet, "/profile/me/fitness", login.Token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var fitness struct {
		Data  profile.FitnessData `json:"data"`
		Stats profile.Stats       `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &fitness))
	assert.Equal(t, 4230, fitness.Data.Steps)
	assert.Equal(t, 53, fitness.Stats.StepGoalPercentage)
	assert.Equal(t, 1880, fitness.Stats.CaloriesRemaining)

	rr = doJSON(t, r, http.MethodPost, "/a/logout", login.Token, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = doJSON(t, r, http.MethodGet, "/profile/me", login.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHandler_FaceLogin(t *testing.T) {
	r, faces := setupProfileRouterForTests(t)

	rr := doJSON(t, r, http.MethodPost, "/profile/register", "", profile.RegisterParams{
		FullName:  "Face Person",
		Email:     "face@fitflow.com",
		Password:  "secret-pass",
		FaceImage: "cmVm",
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	faces.EXPECT().Verify(gomock.Any(), "cmVm", "bGl2ZQ==").Return(true, nil)
	rr = doJSON(t, r, http.MethodPost, "/a/login/face", "", map[string]string{
		"email": "face@fitflow.com", "image": "bGl2ZQ==",
	})
	assert.Equal(t, http.StatusOK, rr.Code)

	faces.EXPECT().Verify(gomock.Any(), "cmVm", "b3RoZXI=").Return(false, nil)
	rr = doJSON(t, r, http.MethodPost, "/a/login/face", "", map[string]string{
		"email": "face@fitflow.com", "image": "b3RoZXI=",
	})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doJSON(t, r, http.MethodPost, "/a/login/face", "", map[string]string{"email": "face@fitflow.com"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_RegisterValidation(t *testing.T) {
	r, _ := setupProfileRouterForTests(t)

	rr := doJSON(t, r, http.MethodPost, "/profile/register", "", profile.RegisterParams{
		FullName: "No Mail",
		Email:    "nope",
		Password: "secret-pass",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req := httptest.NewRequest(http.MethodPost, "/profile/register", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

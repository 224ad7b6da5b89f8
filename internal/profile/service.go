package profile

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=profile_test

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/2beens/repcoach/internal/exercises"
	"github.com/2beens/repcoach/internal/session"
	"github.com/2beens/repcoach/internal/telemetry/metrics"
	"github.com/2beens/repcoach/internal/telemetry/tracing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DemoEmail         = "demo@fitflow.com"
	minPasswordLength = 6
)

type loginSessions interface {
	Login(ctx context.Context, userID string, createdAt time.Time) (string, error)
	Logout(ctx context.Context, token string) (bool, error)
}

type faceVerifier interface {
	Verify(ctx context.Context, reference, live string) (bool, error)
}

var _ session.Sink = (*Service)(nil)

type RegisterParams struct {
	FullName     string               `json:"fullName"`
	Email        string               `json:"email"`
	Password     string               `json:"password"`
	Photo        string               `json:"photo"`
	FaceImage    string               `json:"faceImage"`
	Gender       string               `json:"gender"`
	Height       string               `json:"height"`
	Weight       string               `json:"weight"`
	Age          int                  `json:"age"`
	FitnessLevel exercises.Difficulty `json:"fitnessLevel"`
}

// UpdateParams holds the fields to change; nil fields are left alone.
type UpdateParams struct {
	FullName     *string               `json:"fullName"`
	Email        *string               `json:"email"`
	Photo        *string               `json:"photo"`
	FaceImage    *string               `json:"faceImage"`
	Gender       *string               `json:"gender"`
	Height       *string               `json:"height"`
	Weight       *string               `json:"weight"`
	Age          *int                  `json:"age"`
	FitnessLevel *exercises.Difficulty `json:"fitnessLevel"`
}

type Service struct {
	store    Store
	sessions loginSessions
	faces    faceVerifier
	metrics  *metrics.Manager
	now      func() time.Time

	// injectable so tests don't pay for bcrypt
	HashPasswordFunc  func(password string) (string, error)
	CheckPasswordFunc func(password, hash string) bool
}

func NewService(
	store Store,
	sessions loginSessions,
	faces faceVerifier,
	metricsManager *metrics.Manager,
) *Service {
	return &Service{
		store:             store,
		sessions:          sessions,
		faces:             faces,
		metrics:           metricsManager,
		now:               time.Now,
		HashPasswordFunc:  HashPassword,
		CheckPasswordFunc: CheckPassword,
	}
}

func (s *Service) Register(ctx context.Context, params RegisterParams) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.profile.register")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()

	if err := validateRegistration(params); err != nil {
		return nil, err
	}

	if _, err := s.store.GetByEmail(ctx, params.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := s.HashPasswordFunc(params.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	level := params.FitnessLevel
	if level == "" {
		level = exercises.Beginner
	}

	p := &Profile{
		ID:           "user-" + uuid.NewString(),
		FullName:     strings.TrimSpace(params.FullName),
		Email:        strings.TrimSpace(params.Email),
		Photo:        params.Photo,
		Gender:       params.Gender,
		Height:       params.Height,
		Weight:       params.Weight,
		Age:          params.Age,
		FitnessLevel: level,
		PasswordHash: hash,
		FaceImage:    params.FaceImage,
	}
	p.Recompute()
	span.SetAttributes(attribute.String("user.id", p.ID))

	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	if err := s.store.PutFitnessData(ctx, p.ID, InitialFitnessData(s.now())); err != nil {
		return nil, fmt.Errorf("store initial fitness data: %w", err)
	}

	log.Debugf("profile registered: %s [%s]", p.ID, p.FitnessLevel)
	return p, nil
}

func validateRegistration(params RegisterParams) error {
	if strings.TrimSpace(params.FullName) == "" {
		return fmt.Errorf("%w: full name missing", ErrInvalidProfile)
	}
	if _, err := mail.ParseAddress(params.Email); err != nil {
		return fmt.Errorf("%w: bad email: %s", ErrInvalidProfile, err)
	}
	if len(params.Password) < minPasswordLength {
		return fmt.Errorf("%w: password too short", ErrInvalidProfile)
	}
	if params.Age < 0 {
		return fmt.Errorf("%w: negative age", ErrInvalidProfile)
	}
	if params.FitnessLevel != "" {
		if _, err := exercises.ParseDifficulty(string(params.FitnessLevel)); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidProfile, err)
		}
	}
	return nil
}

// Update applies the changed fields and recomputes BMR and BMI.
func (s *Service) Update(ctx context.Context, id string, params UpdateParams) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.profile.update")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("user.id", id))

	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.FullName != nil {
		p.FullName = strings.TrimSpace(*params.FullName)
	}
	if params.Email != nil {
		if _, err := mail.ParseAddress(*params.Email); err != nil {
			return nil, fmt.Errorf("%w: bad email: %s", ErrInvalidProfile, err)
		}
		p.Email = strings.TrimSpace(*params.Email)
	}
	if params.Photo != nil {
		p.Photo = *params.Photo
	}
	if params.FaceImage != nil {
		p.FaceImage = *params.FaceImage
	}
	if params.Gender != nil {
		p.Gender = *params.Gender
	}
	if params.Height != nil {
		p.Height = *params.Height
	}
	if params.Weight != nil {
		p.Weight = *params.Weight
	}
	if params.Age != nil {
		p.Age = *params.Age
	}
	if params.FitnessLevel != nil {
		level, err := exercises.ParseDifficulty(string(*params.FitnessLevel))
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidProfile, err)
		}
		p.FitnessLevel = level
	}
	p.Recompute()

	if err := s.store.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Profile, error) {
	return s.store.Get(ctx, id)
}

// Login checks the password and opens a login session.
func (s *Service) Login(ctx context.Context, email, password string) (token string, _ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.profile.login")
	defer func() {
		s.countLogin("password", err)
		tracing.EndSpanWithErrCheck(span, err)
	}()

	p, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if p.PasswordHash == "" || !s.CheckPasswordFunc(password, p.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err = s.sessions.Login(ctx, p.ID, s.now())
	if err != nil {
		return "", nil, fmt.Errorf("create login session: %w", err)
	}
	return token, p, nil
}

// FaceLogin compares a live camera frame with the stored reference image.
func (s *Service) FaceLogin(ctx context.Context, email, liveImage string) (token string, _ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.profile.faceLogin")
	defer func() {
		s.countLogin("face", err)
		tracing.EndSpanWithErrCheck(span, err)
	}()

	p, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if p.FaceImage == "" {
		return "", nil, ErrNoFaceReference
	}

	ok, err := s.faces.Verify(ctx, p.FaceImage, liveImage)
	if err != nil {
		return "", nil, fmt.Errorf("verify face: %w", err)
	}
	if !ok {
		return "", nil, ErrFaceMismatch
	}

	token, err = s.sessions.Login(ctx, p.ID, s.now())
	if err != nil {
		return "", nil, fmt.Errorf("create login session: %w", err)
	}
	return token, p, nil
}

func (s *Service) Logout(ctx context.Context, token string) (bool, error) {
	return s.sessions.Logout(ctx, token)
}

func (s *Service) countLogin(method string, err error) {
	if s.metrics == nil {
		return
	}
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrFaceMismatch), errors.Is(err, ErrNoFaceReference):
		result = "rejected"
	default:
		result = "error"
	}
	s.metrics.CounterLogins.With(prometheus.Labels{"method": method, "result": result}).Inc()
}

// FitnessData returns the user's aggregate, creating the initial one if
// nothing was stored yet.
func (s *Service) FitnessData(ctx context.Context, userID string) (*FitnessData, error) {
	data, err := s.store.FitnessData(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return InitialFitnessData(s.now()), nil
	}
	return data, err
}

// RecordWorkout folds a finished session into the user's fitness data.
func (s *Service) RecordWorkout(ctx context.Context, workout session.Workout) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.profile.recordWorkout")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(
		attribute.String("user.id", workout.UserID),
		attribute.String("session.id", workout.SessionID),
	)

	if workout.UserID == "" {
		log.Debugf("session %s has no user, fitness data not updated", workout.SessionID)
		return nil
	}

	day := workout.FinishedAt
	if day.IsZero() {
		day = s.now()
	}
	_, err = s.store.UpdateFitnessData(ctx, workout.UserID, func(current *FitnessData) (*FitnessData, error) {
		if current == nil {
			current = InitialFitnessData(s.now())
		}
		current.ApplyWorkout(workout.Summary, day)
		return current, nil
	})
	if err != nil {
		return fmt.Errorf("update fitness data: %w", err)
	}
	return nil
}

// EnsureDemoUser registers the demo account unless it already exists.
func (s *Service) EnsureDemoUser(ctx context.Context, password string) (*Profile, error) {
	p, err := s.store.GetByEmail(ctx, DemoEmail)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return s.Register(ctx, RegisterParams{
		FullName:     "Alex Flow",
		Email:        DemoEmail,
		Password:     password,
		Gender:       "Male",
		Height:       `5'11"`,
		Weight:       "175",
		Age:          28,
		FitnessLevel: exercises.Intermediate,
	})
}

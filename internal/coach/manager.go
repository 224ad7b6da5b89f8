package coach

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/2beens/repcoach/internal/camera"
	"github.com/2beens/repcoach/internal/evaluator"
	"github.com/2beens/repcoach/internal/exercises"
	"github.com/2beens/repcoach/internal/metabolic"
	"github.com/2beens/repcoach/internal/pose"
	"github.com/2beens/repcoach/internal/profile"
	"github.com/2beens/repcoach/internal/session"
	"github.com/2beens/repcoach/internal/telemetry/metrics"
	"github.com/2beens/repcoach/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrBusy            = errors.New("another session is running on this device")
	ErrSessionNotFound = errors.New("session not found")
	ErrUnknownAction   = errors.New("unknown session action")
)

// how long a finished session's last snapshot stays queryable
const finishedRetention = 10 * time.Minute

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=coach_test

type profileGetter interface {
	Get(ctx context.Context, id string) (*profile.Profile, error)
}

type detector interface {
	Initialize(ctx context.Context) error
	Start(ctx context.Context, src pose.VideoSource, onFrame pose.FrameHandler) error
	Stop()
}

type ManagerParams struct {
	Catalog         *exercises.Catalog
	Camera          camera.Camera
	Constraints     camera.Constraints
	Detector        detector
	Profiles        profileGetter
	Sink            session.Sink
	Config          session.Config
	EvaluatorConfig evaluator.Config
	Metrics         *metrics.Manager
	// Observers get every snapshot, after the manager recorded it.
	Observers    []session.StateHandler
	TickInterval time.Duration
}

type tracked struct {
	runner *session.Runner
	cancel context.CancelFunc
	userID string
	last   session.Snapshot
	active bool
}

// Manager runs the workout sessions of one device: one camera and one pose
// detector, so at most one session is active at a time.
type Manager struct {
	params ManagerParams

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	sessions map[string]*tracked
}

func NewManager(params ManagerParams) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		params:   params,
		ctx:      ctx,
		cancel:   cancel,
		sessions: map[string]*tracked{},
	}
}

// StartSession creates a runner for the user's plan and starts it. The
// runner lives until it completes or is abandoned, independent of ctx.
func (m *Manager) StartSession(ctx context.Context, userID, planID string) (_ session.Snapshot, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "coach.session.start")
	defer func() { tracing.EndSpanWithErrCheck(span, err) }()
	span.SetAttributes(attribute.String("plan", planID))

	plan, err := m.params.Catalog.PlanOrMove(planID)
	if err != nil {
		return session.Snapshot{}, err
	}

	cfg := m.params.Config
	cfg.BMR = m.userBMR(ctx, userID)

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.sessions {
		if t.active {
			return session.Snapshot{}, ErrBusy
		}
	}

	runner := session.NewRunner(session.RunnerParams{
		UserID:          userID,
		Plan:            plan,
		Config:          cfg,
		EvaluatorConfig: m.params.EvaluatorConfig,
		Camera:          m.params.Camera,
		Constraints:     m.params.Constraints,
		Detector:        m.params.Detector,
		Sink:            m.params.Sink,
		Metrics:         m.params.Metrics,
		TickInterval:    m.params.TickInterval,
		OnState: func(snap session.Snapshot) {
			m.record(snap)
			for _, o := range m.params.Observers {
				o(snap)
			}
		},
	})
	runCtx, cancelRun := context.WithCancel(m.ctx)
	t := &tracked{
		runner: runner,
		cancel: cancelRun,
		userID: userID,
		active: true,
		last: session.Snapshot{
			SessionID: runner.ID(),
			UserID:    userID,
			PlanID:    plan.ID,
			State:     session.NewState(),
			At:        time.Now(),
		},
	}
	m.sessions[runner.ID()] = t

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer cancelRun()
		summary, err := runner.Run(runCtx)
		switch {
		case summary != nil:
			log.Infof("session %s finished: %d reps, %d kcal", runner.ID(), summary.Reps, summary.Calories)
		case errors.Is(err, session.ErrAbandoned):
			log.Debugf("session %s abandoned", runner.ID())
		}
		if err != nil && !errors.Is(err, session.ErrAbandoned) && !errors.Is(err, context.Canceled) {
			log.Errorf("session %s: %s", runner.ID(), err)
		}
		m.finished(runner.ID())
	}()

	if err := runner.Start(ctx); err != nil {
		// nobody learns the id of this runner, so it must not hold the device
		cancelRun()
		delete(m.sessions, runner.ID())
		return session.Snapshot{}, fmt.Errorf("start session: %w", err)
	}
	return t.last, nil
}

func (m *Manager) userBMR(ctx context.Context, userID string) float64 {
	if m.params.Profiles == nil {
		return metabolic.FallbackBMR
	}
	p, err := m.params.Profiles.Get(ctx, userID)
	if err != nil {
		log.Warnf("session bmr: get profile %s: %s", userID, err)
		return metabolic.FallbackBMR
	}
	return p.SessionBMR()
}

func (m *Manager) record(snap session.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.sessions[snap.SessionID]; ok {
		t.last = snap
	}
}

func (m *Manager) finished(id string) {
	m.mu.Lock()
	if t, ok := m.sessions[id]; ok {
		t.active = false
	}
	m.mu.Unlock()

	time.AfterFunc(finishedRetention, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if t, ok := m.sessions[id]; ok && !t.active {
			delete(m.sessions, id)
		}
	})
}

// Snapshot returns the last state of a session owned by userID. Sessions of
// other users are reported as not found.
func (m *Manager) Snapshot(id, userID string) (session.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.sessions[id]
	if !ok || t.userID != userID {
		return session.Snapshot{}, ErrSessionNotFound
	}
	return t.last, nil
}

// Control sends a user action to a running session. Action is one of
// start, pause, resume, finish-set and abandon.
func (m *Manager) Control(ctx context.Context, id, userID, action string) error {
	m.mu.Lock()
	t, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok || t.userID != userID {
		return ErrSessionNotFound
	}

	var ev session.Event
	switch action {
	case "start":
		ev = session.Start{}
	case "pause":
		ev = session.Pause{}
	case "resume":
		ev = session.Resume{}
	case "finish-set":
		ev = session.FinishSet{}
	case "abandon":
		ev = session.Abandon{}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
	return t.runner.Send(ctx, ev)
}

func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.sessions {
		if t.active {
			n++
		}
	}
	return n
}

// Shutdown cancels every running session and waits for them to release
// the device.
func (m *Manager) Shutdown() {
	m.cancel()
	m.wg.Wait()
}

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/2beens/repcoach/internal/camera"
	"github.com/2beens/repcoach/internal/evaluator"
	"github.com/2beens/repcoach/internal/exercises"
	"github.com/2beens/repcoach/internal/pose"
	"github.com/2beens/repcoach/internal/telemetry/metrics"
	"github.com/2beens/repcoach/internal/telemetry/tracing"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

var (
	ErrAbandoned      = errors.New("session abandoned")
	ErrSessionOver    = errors.New("session is over")
	ErrAlreadyRunning = errors.New("session already running")
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=session_test

type videoCamera interface {
	Acquire(ctx context.Context, constraints camera.Constraints) (camera.Stream, error)
	Release(stream camera.Stream) error
}

type poseDetector interface {
	Initialize(ctx context.Context) error
	Start(ctx context.Context, src pose.VideoSource, onFrame pose.FrameHandler) error
	Stop()
}

// Snapshot is what observers see after every transition.
type Snapshot struct {
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
	PlanID    string `json:"planId"`
	MoveID    string `json:"moveId"`
	MoveName  string `json:"moveName"`
	Target    int    `json:"target"`
	TotalSets int    `json:"totalSets"`
	Feedback  string `json:"feedback"`
	Error     string `json:"error,omitempty"`
	// VideoEnded is set once a recorded stream has played its last frame.
	VideoEnded bool      `json:"videoEnded,omitempty"`
	State      State     `json:"state"`
	At         time.Time `json:"at"`
}

// StateHandler is called on the session loop goroutine and must not block.
type StateHandler func(Snapshot)

type RunnerParams struct {
	UserID          string
	Plan            exercises.Plan
	Config          Config
	EvaluatorConfig evaluator.Config
	Camera          videoCamera
	Constraints     camera.Constraints
	Detector        poseDetector
	Sink            Sink
	Metrics         *metrics.Manager
	OnState         StateHandler
	// TickInterval is one session second; defaults to time.Second.
	TickInterval time.Duration
}

// Runner is the effect boundary of the session state machine. Run owns the
// session loop; the control methods may be called from any goroutine.
type Runner struct {
	id       string
	params   RunnerParams
	now      func() time.Time
	running  atomic.Bool
	commands chan Event
	frames   chan pose.Frame
	acquired chan acquireResult
	done     chan struct{}

	// owned by the loop goroutine
	state         State
	clock         *clock
	stream        camera.Stream
	streamDone    <-chan struct{}
	videoEnded    bool
	detecting     bool
	eval          *evaluator.Evaluator
	evalMove      int
	feedback      string
	startedAt     time.Time
	effectErr     error
	acquireCancel context.CancelFunc
	acquireWG     sync.WaitGroup
}

type acquireResult struct {
	stream camera.Stream
	err    error
}

func NewRunner(params RunnerParams) *Runner {
	if params.TickInterval <= 0 {
		params.TickInterval = time.Second
	}
	r := &Runner{
		id:       uuid.NewString(),
		params:   params,
		now:      time.Now,
		commands: make(chan Event, 4),
		frames:   make(chan pose.Frame),
		acquired: make(chan acquireResult, 1),
		done:     make(chan struct{}),
		state:    NewState(),
		evalMove: -1,
		feedback: evaluator.FeedbackPositionYourself,
	}
	r.clock = newClock(params.TickInterval, r.now)
	return r
}

func (r *Runner) ID() string {
	return r.id
}

// Done is closed when Run returns.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

func (r *Runner) Send(ctx context.Context, ev Event) error {
	select {
	case r.commands <- ev:
		return nil
	case <-r.done:
		return ErrSessionOver
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) Start(ctx context.Context) error     { return r.Send(ctx, Start{}) }
func (r *Runner) Pause(ctx context.Context) error     { return r.Send(ctx, Pause{}) }
func (r *Runner) Resume(ctx context.Context) error    { return r.Send(ctx, Resume{}) }
func (r *Runner) FinishSet(ctx context.Context) error { return r.Send(ctx, FinishSet{}) }
func (r *Runner) Abandon(ctx context.Context) error   { return r.Send(ctx, Abandon{}) }

// Run drives the session until it completes, is abandoned or ctx is done.
// A completed session returns its summary; persistence and release failures
// are returned alongside it and never alter the summary.
func (r *Runner) Run(ctx context.Context) (_ *Summary, err error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}
	defer close(r.done)

	ctx, span := tracing.GlobalTracer.Start(ctx, "session.run")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	log.Debugf("session %s: user %q, plan %q", r.id, r.params.UserID, r.params.Plan.ID)
	if m := r.params.Metrics; m != nil {
		m.CounterSessions.WithLabelValues("started").Inc()
		m.GaugeActiveSessions.Inc()
		defer m.GaugeActiveSessions.Dec()
	}
	defer func() {
		err = multierr.Append(err, r.teardown())
		r.countOutcome()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case ev := <-r.commands:
			r.dispatch(ctx, ev)
		case res := <-r.acquired:
			r.onAcquired(ctx, res)
		case frame := <-r.frames:
			r.onFrame(ctx, frame)
		case <-r.streamDone:
			r.onVideoEnded()
		case <-r.clock.C():
			for n := r.clock.due(); n > 0 && r.state.Phase.Ticking(); n-- {
				r.dispatch(ctx, Tick{})
			}
		}

		switch r.state.Phase {
		case PhaseComplete:
			log.Infof("session %s: complete, %d reps, %d kcal", r.id, r.state.Summary.Reps, r.state.Summary.Calories)
			return r.state.Summary, r.effectErr
		case PhaseAbandoned:
			log.Infof("session %s: abandoned", r.id)
			return nil, multierr.Append(ErrAbandoned, r.effectErr)
		}
	}
}

func (r *Runner) dispatch(ctx context.Context, ev Event) {
	prev := r.state.Phase
	next, effects := Apply(r.params.Config, r.params.Plan, r.state, ev)
	r.state = next

	for _, eff := range effects {
		r.handleEffect(ctx, eff)
	}

	switch {
	case !prev.Ticking() && next.Phase.Ticking():
		r.clock.anchor()
	case prev.Ticking() && !next.Phase.Ticking():
		r.clock.stop()
	}

	r.notify()
}

func (r *Runner) handleEffect(ctx context.Context, eff Effect) {
	switch eff := eff.(type) {
	case AcquireResources:
		r.acquire(ctx)
	case ResetEvaluator:
		r.resetEvaluator(eff.MoveIndex)
	case SetFinished:
		log.Debugf("session %s: move %d set %d finished, reps %d, hold %ds", r.id, eff.MoveIndex, eff.Set, eff.Reps, eff.HoldSeconds)
		if m := r.params.Metrics; m != nil {
			m.CounterSets.Inc()
			m.CounterReps.Add(float64(eff.Reps))
		}
	case Persist:
		r.persist(ctx, eff.Summary)
	case ReleaseResources:
		if err := r.release(); err != nil {
			r.effectErr = multierr.Append(r.effectErr, err)
		}
	}
}

// acquire opens the camera and loads the detector concurrently, off the
// loop goroutine. The outcome is delivered through r.acquired.
func (r *Runner) acquire(ctx context.Context) {
	actx, cancel := context.WithCancel(ctx)
	r.acquireCancel = cancel
	r.acquireWG.Add(1)

	go func() {
		defer r.acquireWG.Done()
		defer cancel()

		var stream camera.Stream
		g, gctx := errgroup.WithContext(actx)
		g.Go(func() error {
			s, err := r.params.Camera.Acquire(gctx, r.params.Constraints)
			if err != nil {
				return fmt.Errorf("acquire camera: %w", err)
			}
			stream = s
			return nil
		})
		g.Go(func() error {
			return r.params.Detector.Initialize(gctx)
		})

		err := g.Wait()
		if err != nil && stream != nil {
			if relErr := r.params.Camera.Release(stream); relErr != nil {
				log.Errorf("session %s: release camera after failed start: %s", r.id, relErr)
			}
			stream = nil
		}
		r.acquired <- acquireResult{stream: stream, err: err}
	}()
}

func (r *Runner) onAcquired(ctx context.Context, res acquireResult) {
	if res.err != nil {
		var camErr *camera.Error
		if errors.As(res.err, &camErr) && r.params.Metrics != nil {
			r.params.Metrics.CounterCameraFailures.WithLabelValues(camera.KindLabel(res.err)).Inc()
		}
		log.Warnf("session %s: start failed: %s", r.id, res.err)
		r.dispatch(ctx, StartFailed{Err: res.err})
		return
	}

	r.stream = res.stream
	r.videoEnded = false
	if finite, ok := res.stream.(camera.Finite); ok {
		r.streamDone = finite.Done()
	}
	if err := r.params.Detector.Start(ctx, res.stream, r.handoff); err != nil {
		log.Warnf("session %s: start detection: %s", r.id, err)
		if relErr := r.release(); relErr != nil {
			log.Errorf("session %s: %s", r.id, relErr)
		}
		r.dispatch(ctx, StartFailed{Err: err})
		return
	}
	r.detecting = true
	r.startedAt = r.now()

	if sr, ok := r.params.Sink.(StartRecorder); ok {
		if err := sr.RecordStart(ctx, r.id, r.params.UserID, r.params.Plan.ID, r.startedAt); err != nil {
			log.Errorf("session %s: record start: %s", r.id, err)
		}
	}
	r.dispatch(ctx, CameraReady{})
}

// onVideoEnded keeps detection running so a frame still in flight is
// evaluated; the session waits for a finish or abandon command.
func (r *Runner) onVideoEnded() {
	r.streamDone = nil
	r.videoEnded = true
	log.Infof("session %s: video ended while %s", r.id, r.state.Phase)
	r.notify()
}

// handoff runs on the detector goroutine; frames wait here until the loop
// takes them, so only one is in flight.
func (r *Runner) handoff(ctx context.Context, frame pose.Frame) {
	select {
	case r.frames <- frame:
	case <-ctx.Done():
	case <-r.done:
	}
}

func (r *Runner) onFrame(ctx context.Context, frame pose.Frame) {
	if r.state.Phase != PhaseExercising || r.eval == nil {
		return
	}

	notify := false
	for _, ev := range r.eval.Process(frame) {
		switch ev.Kind {
		case evaluator.RepCompleted:
			r.dispatch(ctx, RepCompleted{})
		case evaluator.FormValidChanged:
			r.dispatch(ctx, FormChanged{Valid: ev.Valid})
		case evaluator.FeedbackChanged:
			r.feedback = ev.Message
			notify = true
		}
	}
	if notify {
		r.notify()
	}
}

func (r *Runner) resetEvaluator(moveIndex int) {
	if r.eval != nil && r.evalMove == moveIndex {
		r.eval.Reset()
		r.feedback = r.eval.Feedback()
		return
	}

	move := r.params.Plan.Item(moveIndex).Move
	e, err := evaluator.New(move, r.params.EvaluatorConfig)
	if err != nil {
		log.Warnf("session %s: %s, the set has to be finished manually", r.id, err)
	}
	r.eval = e
	r.evalMove = moveIndex
	r.feedback = e.Feedback()
}

func (r *Runner) persist(ctx context.Context, summary Summary) {
	if r.params.Sink == nil {
		return
	}
	workout := Workout{
		SessionID:  r.id,
		UserID:     r.params.UserID,
		StartedAt:  r.startedAt,
		FinishedAt: r.now(),
		Summary:    summary,
	}
	if err := r.params.Sink.RecordWorkout(ctx, workout); err != nil {
		log.Errorf("session %s: persist workout: %s", r.id, err)
		r.effectErr = multierr.Append(r.effectErr, fmt.Errorf("persist workout: %w", err))
	}
}

// release stops detection and hands the camera back. Safe to call twice.
func (r *Runner) release() error {
	if r.detecting {
		r.params.Detector.Stop()
		r.detecting = false
	}
	if r.stream == nil {
		return nil
	}
	stream := r.stream
	r.stream = nil
	r.streamDone = nil
	if err := r.params.Camera.Release(stream); err != nil {
		return fmt.Errorf("release camera: %w", err)
	}
	return nil
}

// teardown runs on every exit path of Run.
func (r *Runner) teardown() error {
	r.clock.stop()
	if r.acquireCancel != nil {
		r.acquireCancel()
	}
	r.acquireWG.Wait()

	var err error
	select {
	case res := <-r.acquired:
		if res.stream != nil {
			err = multierr.Append(err, r.params.Camera.Release(res.stream))
		}
	default:
	}
	return multierr.Append(err, r.release())
}

func (r *Runner) countOutcome() {
	if r.params.Metrics == nil {
		return
	}
	outcome := "cancelled"
	switch r.state.Phase {
	case PhaseComplete:
		outcome = "completed"
	case PhaseAbandoned:
		outcome = "abandoned"
	}
	r.params.Metrics.CounterSessions.WithLabelValues(outcome).Inc()
}

func (r *Runner) notify() {
	if r.params.OnState == nil {
		return
	}
	item := r.params.Plan.Item(r.state.MoveIndex)
	snap := Snapshot{
		SessionID:  r.id,
		UserID:     r.params.UserID,
		PlanID:     r.params.Plan.ID,
		MoveID:     item.Move.ID,
		MoveName:   item.Move.Name,
		Target:     item.Target(),
		TotalSets:  item.TotalSets(),
		Feedback:   r.feedback,
		VideoEnded: r.videoEnded,
		State:      r.state,
		At:         r.now(),
	}
	if r.state.Err != nil {
		snap.Error = r.state.Err.Error()
	}
	r.params.OnState(snap)
}

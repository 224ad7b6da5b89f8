package evaluator

import (
	"errors"
	"fmt"
	"math"

	"github.com/2beens/repcoach/internal/exercises"
	"github.com/2beens/repcoach/internal/pose"
)

const (
	DefaultRepSlack      = 8.0
	DefaultHoldUpSlack   = 5.0
	DefaultHoldDownSlack = 10.0
)

const (
	FeedbackPositionYourself = "POSITION YOURSELF"
	FeedbackOutOfView        = "FULL BODY IN VIEW"
	FeedbackPerfect          = "PERFECT!"
	FeedbackGoLower          = "GO LOWER"
	FeedbackPushUp           = "PUSH UP"
	FeedbackHoldingStrong    = "HOLDING STRONG"
	FeedbackAdjustForm       = "ADJUST FORM"
)

var ErrMisconfiguredMove = errors.New("move has no control joints")

type Config struct {
	RepSlack      float64
	HoldUpSlack   float64
	HoldDownSlack float64
}

func DefaultConfig() Config {
	return Config{
		RepSlack:      DefaultRepSlack,
		HoldUpSlack:   DefaultHoldUpSlack,
		HoldDownSlack: DefaultHoldDownSlack,
	}
}

// Phase is the region of the movement the tracked angle was last seen in.
type Phase int

const (
	PhaseUnknown Phase = iota
	PhaseTop
	PhaseBottom
)

func (p Phase) String() string {
	switch p {
	case PhaseTop:
		return "top"
	case PhaseBottom:
		return "bottom"
	default:
		return "unknown"
	}
}

type EventKind int

const (
	RepCompleted EventKind = iota + 1
	FormValidChanged
	FeedbackChanged
)

func (k EventKind) String() string {
	switch k {
	case RepCompleted:
		return "rep-completed"
	case FormValidChanged:
		return "form-valid-changed"
	case FeedbackChanged:
		return "feedback-changed"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is emitted by Process. Valid is set for FormValidChanged and Message
// for FeedbackChanged.
type Event struct {
	Kind    EventKind
	Valid   bool
	Message string
}

// Evaluator judges one move frame by frame. It is not safe for concurrent
// use; the session loop owns it.
type Evaluator struct {
	move   exercises.Move
	cfg    Config
	joints [3]pose.Joint
	inert  bool

	phase     Phase
	formValid bool
	feedback  string
	lastAngle float64
	hasAngle  bool
}

// New builds an evaluator for move. A move without usable control joints
// yields an inert evaluator together with ErrMisconfiguredMove; the inert
// evaluator is safe to use and ignores every frame.
func New(move exercises.Move, cfg Config) (*Evaluator, error) {
	e := &Evaluator{
		move: move,
		cfg:  cfg,
	}
	e.Reset()

	joints, ok := move.Tracking.ControlJoints()
	if !ok {
		e.inert = true
		return e, fmt.Errorf("%w: %s", ErrMisconfiguredMove, move.ID)
	}
	e.joints = joints
	return e, nil
}

func (e *Evaluator) Move() exercises.Move {
	return e.move
}

func (e *Evaluator) Inert() bool {
	return e.inert
}

func (e *Evaluator) Phase() Phase {
	return e.phase
}

func (e *Evaluator) FormValid() bool {
	return e.formValid
}

func (e *Evaluator) Feedback() string {
	return e.feedback
}

// LastAngle returns the angle computed from the latest frame; ok is false
// when that frame did not contain all control joints.
func (e *Evaluator) LastAngle() (angle float64, ok bool) {
	return e.lastAngle, e.hasAngle
}

// Reset prepares the evaluator for a new set.
func (e *Evaluator) Reset() {
	e.phase = PhaseUnknown
	e.formValid = false
	e.feedback = FeedbackPositionYourself
	e.lastAngle = math.NaN()
	e.hasAngle = false
}

// Process evaluates one pose frame and returns the resulting events in
// order: form validity, rep completion, feedback.
func (e *Evaluator) Process(frame pose.Frame) []Event {
	if e.inert {
		return nil
	}

	var events []Event
	if !frame.Has(e.joints[0], e.joints[1], e.joints[2]) {
		e.hasAngle = false
		events = e.setFormValid(events, false)
		return e.setFeedback(events, FeedbackOutOfView)
	}

	angle := pose.AngleAt(frame[e.joints[0]], frame[e.joints[1]], frame[e.joints[2]])
	e.lastAngle = angle
	e.hasAngle = true

	if e.move.IsHold() {
		return e.processHold(events, angle)
	}
	return e.processReps(events, angle)
}

func (e *Evaluator) processReps(events []Event, angle float64) []Event {
	rule := e.move.Tracking
	events = e.setFormValid(events, true)

	switch {
	case angle > rule.Up-e.cfg.RepSlack:
		feedback := FeedbackGoLower
		if e.phase == PhaseBottom {
			events = append(events, Event{Kind: RepCompleted})
			feedback = FeedbackPerfect
		}
		e.phase = PhaseTop
		return e.setFeedback(events, feedback)
	case angle < rule.Down+e.cfg.RepSlack:
		e.phase = PhaseBottom
		return e.setFeedback(events, FeedbackPushUp)
	default:
		// between thresholds: keep phase and feedback
		return events
	}
}

func (e *Evaluator) processHold(events []Event, angle float64) []Event {
	rule := e.move.Tracking
	var valid bool
	if rule.HoldPhase == exercises.HoldUp {
		valid = angle > rule.Up-e.cfg.HoldUpSlack
	} else {
		valid = angle < rule.Down+e.cfg.HoldDownSlack
	}

	events = e.setFormValid(events, valid)
	if valid {
		return e.setFeedback(events, FeedbackHoldingStrong)
	}
	return e.setFeedback(events, FeedbackAdjustForm)
}

func (e *Evaluator) setFormValid(events []Event, valid bool) []Event {
	if e.formValid == valid {
		return events
	}
	e.formValid = valid
	return append(events, Event{Kind: FormValidChanged, Valid: valid})
}

func (e *Evaluator) setFeedback(events []Event, message string) []Event {
	if e.feedback == message {
		return events
	}
	e.feedback = message
	return append(events, Event{Kind: FeedbackChanged, Message: message})
}

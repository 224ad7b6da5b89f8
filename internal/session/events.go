package session

// Event drives a transition of the session state machine.
type Event interface {
	isEvent()
}

type (
	Start       struct{}
	CameraReady struct{}
	StartFailed struct {
		Err error
	}
	Tick         struct{}
	RepCompleted struct{}
	FormChanged  struct {
		Valid bool
	}
	Pause     struct{}
	Resume    struct{}
	FinishSet struct{}
	Abandon   struct{}
)

func (Start) isEvent()        {}
func (CameraReady) isEvent()  {}
func (StartFailed) isEvent()  {}
func (Tick) isEvent()         {}
func (RepCompleted) isEvent() {}
func (FormChanged) isEvent()  {}
func (Pause) isEvent()        {}
func (Resume) isEvent()       {}
func (FinishSet) isEvent()    {}
func (Abandon) isEvent()      {}

// Effect is work requested by a transition, carried out by the Runner.
type Effect interface {
	isEffect()
}

type (
	// AcquireResources asks for the camera and the pose detector.
	AcquireResources struct{}
	// ResetEvaluator marks the start of a set of the move at MoveIndex.
	ResetEvaluator struct {
		MoveIndex int
	}
	SetFinished struct {
		MoveIndex   int
		Set         int
		Reps        int
		HoldSeconds int
	}
	Persist struct {
		Summary Summary
	}
	ReleaseResources struct{}
)

func (AcquireResources) isEffect() {}
func (ResetEvaluator) isEffect()   {}
func (SetFinished) isEffect()      {}
func (Persist) isEffect()          {}
func (ReleaseResources) isEffect() {}

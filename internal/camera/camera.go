package camera

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/2beens/repcoach/internal/pose"

	log "github.com/sirupsen/logrus"
)

var (
	ErrCameraDenied   = errors.New("camera permission denied")
	ErrCameraNotFound = errors.New("camera not found")
	ErrCameraOther    = errors.New("camera failure")
	ErrCameraBusy     = errors.New("camera busy")
)

// Error is returned by camera acquisition. Kind is one of the ErrCamera*
// sentinels; both Kind and the underlying cause match errors.Is.
type Error struct {
	Kind   error
	Device string
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Device, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %s", e.Device, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func NewError(kind error, device string, cause error) *Error {
	return &Error{Kind: kind, Device: device, Err: cause}
}

// KindLabel maps an acquisition error to a short label used in metrics.
func KindLabel(err error) string {
	switch {
	case errors.Is(err, ErrCameraDenied):
		return "denied"
	case errors.Is(err, ErrCameraNotFound):
		return "not_found"
	case errors.Is(err, ErrCameraBusy):
		return "busy"
	default:
		return "other"
	}
}

type Constraints struct {
	DeviceID   int
	Width      int
	Height     int
	FacingMode string
}

// Stream is an acquired camera stream; frames are pulled by the pose adapter.
type Stream interface {
	pose.VideoSource
	ID() string
}

// Finite is implemented by streams that end on their own, like recordings.
type Finite interface {
	Done() <-chan struct{}
}

type Camera interface {
	Acquire(ctx context.Context, constraints Constraints) (Stream, error)
	Release(stream Stream) error
}

// Exclusive guards a camera so that it has at most one holder at a time.
type Exclusive struct {
	cam  Camera
	name string

	mu     sync.Mutex
	holder Stream
}

func NewExclusive(name string, cam Camera) *Exclusive {
	return &Exclusive{
		cam:  cam,
		name: name,
	}
}

func (e *Exclusive) Acquire(ctx context.Context, constraints Constraints) (Stream, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.holder != nil {
		return nil, NewError(ErrCameraBusy, e.name, fmt.Errorf("held by stream %s", e.holder.ID()))
	}

	stream, err := e.cam.Acquire(ctx, constraints)
	if err != nil {
		return nil, err
	}
	e.holder = stream
	return stream, nil
}

// Release hands the stream back. Releasing a stream that is not the current
// holder is a no-op.
func (e *Exclusive) Release(stream Stream) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if stream == nil || e.holder == nil || e.holder.ID() != stream.ID() {
		log.Debugf("camera %s: ignoring release of stream that is not held", e.name)
		return nil
	}
	e.holder = nil
	return e.cam.Release(stream)
}

func (e *Exclusive) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.holder != nil
}

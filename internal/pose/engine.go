package pose

import (
	"context"
	"errors"
	"time"
)

var (
	ErrDetectorUnavailable = errors.New("pose detector unavailable")
	ErrAlreadyStarted      = errors.New("pose detection already started")
)

// VideoFrame is one rendered frame of the video source.
type VideoFrame struct {
	Seq       int64
	Width     int
	Height    int
	Data      []byte
	Timestamp time.Time
}

// VideoSource exposes the frame currently rendered. ok is false while the
// source has no usable image data yet (or anymore).
type VideoSource interface {
	CurrentFrame() (frame VideoFrame, ok bool)
}

// Engine is the external pose estimation model.
type Engine interface {
	Detect(ctx context.Context, frame VideoFrame, timestampMs int64) ([]Landmark, error)
	Close() error
}

// EngineLoader constructs an Engine, e.g. by fetching model weights.
type EngineLoader func(ctx context.Context) (Engine, error)

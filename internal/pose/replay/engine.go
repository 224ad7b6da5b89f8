package replay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/2beens/repcoach/internal/pose"
)

// Engine answers detections from a Recording instead of running a model.
type Engine struct {
	rec *Recording
}

func NewEngine(rec *Recording) *Engine {
	return &Engine{rec: rec}
}

// Loader adapts the engine to pose.EngineLoader.
func Loader(rec *Recording) pose.EngineLoader {
	return func(ctx context.Context) (pose.Engine, error) {
		if rec == nil || rec.Len() == 0 {
			return nil, fmt.Errorf("empty recording")
		}
		return NewEngine(rec), nil
	}
}

func (e *Engine) Detect(ctx context.Context, frame pose.VideoFrame, _ int64) ([]pose.Landmark, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	landmarks, ok := e.rec.Landmarks(frame.Seq)
	if !ok {
		return nil, fmt.Errorf("frame %d not in recording", frame.Seq)
	}
	return landmarks, nil
}

func (e *Engine) Close() error {
	return nil
}

// Source plays a Recording back as a video source, one frame per
// CurrentFrame call. It reports not-ready once playback is over.
type Source struct {
	rec *Recording

	mu       sync.Mutex
	next     int64
	done     chan struct{}
	doneOnce sync.Once
}

func NewSource(rec *Recording) *Source {
	return &Source{
		rec:  rec,
		done: make(chan struct{}),
	}
}

func (s *Source) CurrentFrame() (pose.VideoFrame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.next >= int64(s.rec.Len()) {
		s.doneOnce.Do(func() { close(s.done) })
		return pose.VideoFrame{}, false
	}
	frame := pose.VideoFrame{
		Seq:       s.next,
		Timestamp: time.Now(),
	}
	s.next++
	return frame, true
}

// Position is the number of frames handed out so far.
func (s *Source) Position() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// Done is closed once every recorded frame has been played.
func (s *Source) Done() <-chan struct{} {
	return s.done
}

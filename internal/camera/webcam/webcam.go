//go:build opencv

package webcam

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/2beens/repcoach/internal/camera"
	"github.com/2beens/repcoach/internal/pose"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// Webcam captures frames from a local video device through OpenCV. Frames
// are JPEG encoded before being handed to the pose engine.
type Webcam struct{}

func New() (*Webcam, error) {
	return &Webcam{}, nil
}

func (w *Webcam) Acquire(ctx context.Context, constraints camera.Constraints) (camera.Stream, error) {
	device := fmt.Sprintf("video%d", constraints.DeviceID)
	if err := ctx.Err(); err != nil {
		return nil, camera.NewError(camera.ErrCameraOther, device, err)
	}

	capture, err := gocv.OpenVideoCapture(constraints.DeviceID)
	if err != nil {
		return nil, camera.NewError(camera.ErrCameraNotFound, device, err)
	}
	if !capture.IsOpened() {
		_ = capture.Close()
		return nil, camera.NewError(camera.ErrCameraDenied, device, fmt.Errorf("device not opened"))
	}
	if constraints.Width > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(constraints.Width))
	}
	if constraints.Height > 0 {
		capture.Set(gocv.VideoCaptureFrameHeight, float64(constraints.Height))
	}

	s := &stream{
		id:      uuid.NewString(),
		device:  device,
		capture: capture,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

func (w *Webcam) Release(s camera.Stream) error {
	ws, ok := s.(*stream)
	if !ok {
		return fmt.Errorf("release: not a webcam stream")
	}
	return ws.close()
}

type stream struct {
	id      string
	device  string
	capture *gocv.VideoCapture

	mu       sync.Mutex
	latest   pose.VideoFrame
	consumed bool

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func (s *stream) ID() string {
	return s.id
}

// CurrentFrame returns the newest captured frame, once. Until a new frame
// arrives it reports not ready.
func (s *stream) CurrentFrame() (pose.VideoFrame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.consumed || s.latest.Data == nil {
		return pose.VideoFrame{}, false
	}
	s.consumed = true
	return s.latest, true
}

func (s *stream) readLoop() {
	defer close(s.done)

	img := gocv.NewMat()
	defer img.Close()

	var seq int64
	for {
		select {
		case <-s.stop:
			return
		default:
		}

		if ok := s.capture.Read(&img); !ok || img.Empty() {
			time.Sleep(10 * time.Millisecond)
			continue
		}

		buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
		if err != nil {
			log.Debugf("webcam %s: encode frame: %s", s.device, err)
			continue
		}
		data := append([]byte(nil), buf.GetBytes()...)
		buf.Close()

		seq++
		s.mu.Lock()
		s.latest = pose.VideoFrame{
			Seq:       seq,
			Width:     img.Cols(),
			Height:    img.Rows(),
			Data:      data,
			Timestamp: time.Now(),
		}
		s.consumed = false
		s.mu.Unlock()
	}
}

func (s *stream) close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stop)
		<-s.done
		err = s.capture.Close()
	})
	return err
}

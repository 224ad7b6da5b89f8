//go:build !opencv

package webcam

import (
	"context"
	"fmt"

	"github.com/2beens/repcoach/internal/camera"
)

// Webcam is unavailable without the opencv build tag.
type Webcam struct{}

func New() (*Webcam, error) {
	return nil, camera.NewError(camera.ErrCameraNotFound, "webcam", fmt.Errorf("built without opencv support"))
}

func (w *Webcam) Acquire(context.Context, camera.Constraints) (camera.Stream, error) {
	return nil, camera.NewError(camera.ErrCameraNotFound, "webcam", fmt.Errorf("built without opencv support"))
}

func (w *Webcam) Release(camera.Stream) error {
	return nil
}

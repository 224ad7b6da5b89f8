package camera

import (
	"context"
	"fmt"

	"github.com/2beens/repcoach/internal/pose/replay"

	"github.com/google/uuid"
)

// Replay is a camera backed by a landmark recording. Every acquisition plays
// the recording from the start.
type Replay struct {
	rec *replay.Recording
}

func NewReplay(rec *replay.Recording) *Replay {
	return &Replay{rec: rec}
}

func (r *Replay) Acquire(ctx context.Context, _ Constraints) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewError(ErrCameraOther, "replay", err)
	}
	if r.rec == nil || r.rec.Len() == 0 {
		return nil, NewError(ErrCameraNotFound, "replay", fmt.Errorf("empty recording"))
	}
	return &replayStream{
		Source: replay.NewSource(r.rec),
		id:     uuid.NewString(),
	}, nil
}

func (r *Replay) Release(Stream) error {
	return nil
}

type replayStream struct {
	*replay.Source
	id string
}

func (s *replayStream) ID() string {
	return s.id
}

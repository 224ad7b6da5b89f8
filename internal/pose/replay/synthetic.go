package replay

import (
	"math"

	"github.com/2beens/repcoach/internal/pose"
)

const syntheticLimb = 0.3

// Sweep builds a recording in which the angle at joints[1] follows angles,
// one frame per value. Only the three given joints are recorded. A NaN
// angle produces a frame with no visible joints.
func Sweep(joints [3]pose.Joint, angles []float64) *Recording {
	frames := make([]RecordedFrame, 0, len(angles))
	for _, deg := range angles {
		if math.IsNaN(deg) {
			frames = append(frames, RecordedFrame{Mediapipe: map[string]PositionVisibility{}})
			continue
		}
		a, b, c := anglePoints(deg)
		frames = append(frames, RecordedFrame{
			Mediapipe: map[string]PositionVisibility{
				LandmarkName(joints[0].Index()): {X: a.X, Y: a.Y, Visibility: 0.95, Presence: 0.95},
				LandmarkName(joints[1].Index()): {X: b.X, Y: b.Y, Visibility: 0.95, Presence: 0.95},
				LandmarkName(joints[2].Index()): {X: c.X, Y: c.Y, Visibility: 0.95, Presence: 0.95},
			},
		})
	}
	return NewRecording(frames...)
}

// Repeat expands a sequence of angles so that every value lasts n frames.
func Repeat(angles []float64, n int) []float64 {
	out := make([]float64, 0, len(angles)*n)
	for _, a := range angles {
		for i := 0; i < n; i++ {
			out = append(out, a)
		}
	}
	return out
}

func anglePoints(deg float64) (a, b, c pose.JointPosition) {
	b = pose.JointPosition{X: 0.5, Y: 0.5}
	a = pose.JointPosition{X: 0.5, Y: 0.5 - syntheticLimb}
	rad := deg * math.Pi / 180
	c = pose.JointPosition{
		X: 0.5 + syntheticLimb*math.Sin(rad),
		Y: 0.5 - syntheticLimb*math.Cos(rad),
	}
	return a, b, c
}

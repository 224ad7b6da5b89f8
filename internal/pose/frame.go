package pose

import (
	"math"
)

// DefaultVisibilityThreshold drops landmarks the engine is not confident about.
const DefaultVisibilityThreshold = 0.5

// JointPosition is a normalized [0,1] coordinate relative to the frame dimensions.
type JointPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Frame holds the joints visible in one detection. A missing key means
// "not currently visible", which is different from a zero coordinate.
type Frame map[Joint]JointPosition

// Landmark is one raw engine output entry.
type Landmark struct {
	Index      int
	X          float64
	Y          float64
	Visibility float64
}

// Has reports whether every given joint is visible.
func (f Frame) Has(joints ...Joint) bool {
	for _, j := range joints {
		if _, ok := f[j]; !ok {
			return false
		}
	}
	return true
}

// FrameFromLandmarks keeps the tracked joints whose visibility is above threshold.
func FrameFromLandmarks(landmarks []Landmark, threshold float64) Frame {
	frame := make(Frame, len(AllJoints))
	for _, lm := range landmarks {
		joint, ok := JointForIndex(lm.Index)
		if !ok {
			continue
		}
		if lm.Visibility <= threshold || math.IsNaN(lm.X) || math.IsNaN(lm.Y) {
			continue
		}
		frame[joint] = JointPosition{X: lm.X, Y: lm.Y}
	}
	return frame
}

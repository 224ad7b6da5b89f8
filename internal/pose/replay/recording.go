package replay

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/2beens/repcoach/internal/pose"
)

// landmark names of the 33-point body model, indexed by landmark index
var landmarkNames = []string{
	"nose",
	"left eye inner", "left eye", "left eye outer",
	"right eye inner", "right eye", "right eye outer",
	"left ear", "right ear",
	"mouth left", "mouth right",
	"left shoulder", "right shoulder",
	"left elbow", "right elbow",
	"left wrist", "right wrist",
	"left pinky", "right pinky",
	"left index", "right index",
	"left thumb", "right thumb",
	"left hip", "right hip",
	"left knee", "right knee",
	"left ankle", "right ankle",
	"left heel", "right heel",
	"left foot index", "right foot index",
}

var nameToIndex = func() map[string]int {
	m := make(map[string]int, len(landmarkNames))
	for i, n := range landmarkNames {
		m[n] = i
	}
	return m
}()

type PositionVisibility struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
	Presence   float64 `json:"presence"`
}

type RecordedFrame struct {
	Mediapipe map[string]PositionVisibility `json:"mediapipe"`
}

// Recording is a sequence of landmark detections captured from a video,
// keyed by frame number.
type Recording struct {
	Path   string
	Frames map[int]RecordedFrame `json:"frames"`

	order []int
}

func Load(path string) (*Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	rec, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode recording %s: %w", path, err)
	}
	rec.Path = path
	return rec, nil
}

func Decode(r io.Reader) (*Recording, error) {
	rec := &Recording{}
	if err := json.NewDecoder(r).Decode(rec); err != nil {
		return nil, err
	}
	if len(rec.Frames) == 0 {
		return nil, fmt.Errorf("recording has no frames")
	}
	rec.index()
	return rec, nil
}

// NewRecording builds a recording in memory, frames numbered from 0.
func NewRecording(frames ...RecordedFrame) *Recording {
	rec := &Recording{Frames: make(map[int]RecordedFrame, len(frames))}
	for i, f := range frames {
		rec.Frames[i] = f
	}
	rec.index()
	return rec
}

func (r *Recording) index() {
	r.order = make([]int, 0, len(r.Frames))
	for fno := range r.Frames {
		r.order = append(r.order, fno)
	}
	sort.Ints(r.order)
}

func (r *Recording) Len() int {
	return len(r.order)
}

// frameNo returns the recorded frame number at playback position seq.
func (r *Recording) frameNo(seq int64) (int, bool) {
	if seq < 0 || seq >= int64(len(r.order)) {
		return 0, false
	}
	return r.order[seq], true
}

// Landmarks converts the recorded frame at playback position seq into raw
// engine output. Names outside the body model are ignored.
func (r *Recording) Landmarks(seq int64) ([]pose.Landmark, bool) {
	fno, ok := r.frameNo(seq)
	if !ok {
		return nil, false
	}
	recorded := r.Frames[fno]
	landmarks := make([]pose.Landmark, 0, len(recorded.Mediapipe))
	for name, pv := range recorded.Mediapipe {
		idx, known := nameToIndex[name]
		if !known {
			continue
		}
		landmarks = append(landmarks, pose.Landmark{
			Index:      idx,
			X:          pv.X,
			Y:          pv.Y,
			Visibility: pv.Visibility,
		})
	}
	sort.Slice(landmarks, func(i, j int) bool {
		return landmarks[i].Index < landmarks[j].Index
	})
	return landmarks, true
}

// LandmarkName returns the recording key used for a body-model index.
func LandmarkName(idx int) string {
	if idx < 0 || idx >= len(landmarkNames) {
		return ""
	}
	return landmarkNames[idx]
}

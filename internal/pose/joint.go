package pose

import "fmt"

// Joint names one of the 12 limb/torso landmarks the coach tracks.
type Joint string

const (
	LeftShoulder  Joint = "leftShoulder"
	LeftElbow     Joint = "leftElbow"
	LeftWrist     Joint = "leftWrist"
	RightShoulder Joint = "rightShoulder"
	RightElbow    Joint = "rightElbow"
	RightWrist    Joint = "rightWrist"
	LeftHip       Joint = "leftHip"
	LeftKnee      Joint = "leftKnee"
	LeftAnkle     Joint = "leftAnkle"
	RightHip      Joint = "rightHip"
	RightKnee     Joint = "rightKnee"
	RightAnkle    Joint = "rightAnkle"
)

// LandmarkCount is the size of the body model the engines report.
const LandmarkCount = 33

// landmark indices of the 33-point body model
var indexToJoint = map[int]Joint{
	11: LeftShoulder,
	12: RightShoulder,
	13: LeftElbow,
	14: RightElbow,
	15: LeftWrist,
	16: RightWrist,
	23: LeftHip,
	24: RightHip,
	25: LeftKnee,
	26: RightKnee,
	27: LeftAnkle,
	28: RightAnkle,
}

var jointToIndex = func() map[Joint]int {
	m := make(map[Joint]int, len(indexToJoint))
	for idx, j := range indexToJoint {
		m[j] = idx
	}
	return m
}()

// AllJoints lists the tracked joints, left side first.
var AllJoints = []Joint{
	LeftShoulder, LeftElbow, LeftWrist,
	RightShoulder, RightElbow, RightWrist,
	LeftHip, LeftKnee, LeftAnkle,
	RightHip, RightKnee, RightAnkle,
}

// JointForIndex maps a body-model landmark index to a tracked joint.
func JointForIndex(idx int) (Joint, bool) {
	j, ok := indexToJoint[idx]
	return j, ok
}

func (j Joint) Index() int {
	if idx, ok := jointToIndex[j]; ok {
		return idx
	}
	return -1
}

func (j Joint) Valid() bool {
	_, ok := jointToIndex[j]
	return ok
}

func ParseJoint(s string) (Joint, error) {
	j := Joint(s)
	if !j.Valid() {
		return "", fmt.Errorf("unknown joint: %q", s)
	}
	return j, nil
}

package pose

import "math"

// DegenerateAngle is returned when one of the rays has zero length.
const DegenerateAngle = 180.0

// AngleAt returns the interior angle in degrees at vertex b formed by
// the rays b->a and b->c. The result is always within [0, 180].
func AngleAt(a, b, c JointPosition) float64 {
	v1x, v1y := a.X-b.X, a.Y-b.Y
	v2x, v2y := c.X-b.X, c.Y-b.Y

	mag := math.Hypot(v1x, v1y) * math.Hypot(v2x, v2y)
	if mag == 0 || math.IsNaN(mag) || math.IsInf(mag, 0) {
		return DegenerateAngle
	}

	cos := (v1x*v2x + v1y*v2y) / mag
	cos = math.Max(-1, math.Min(1, cos))

	return math.Acos(cos) * 180 / math.Pi
}

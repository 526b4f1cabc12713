// ABOUTME: Control-point generator mapping output positions to source indices
// ABOUTME: Supports uniform ramps and smoothstep-eased ramps for stretching
package timescale

import "math"

// ControlPoints maps outLen output sample positions onto the source index
// space [0, srcCount-1]. The result is non-decreasing, starts at 0 and
// ends exactly on srcCount-1.
//
// When smooth is set and the mapping stretches (outLen > srcCount), each
// unit step of the source index is traversed with smoothstep easing so
// per-block speed transitions are not audible. Otherwise the ramp is a
// constant-velocity arithmetic progression.
//
// outLen == 0 yields an empty sequence; srcCount < 2 yields nil.
func ControlPoints(outLen, srcCount int, smooth bool) []float64 {
	if outLen < 0 || srcCount < 2 {
		return nil
	}
	points := make([]float64, outLen)
	if outLen == 0 {
		return points
	}

	if smooth && outLen > srcCount {
		// One eased segment per source index: d output samples cover each
		// unit of source index space.
		d := float64(outLen-1) / float64(srcCount-1)
		for i := range points {
			x := float64(i) / d
			base := math.Floor(x)
			points[i] = base + smoothstep(x-base)
		}
	} else {
		step := 0.0
		if outLen > 1 {
			step = float64(srcCount-1) / float64(outLen-1)
		}
		for i := range points {
			points[i] = float64(i) * step
		}
	}

	// Ramp arithmetic can miss the last valid index by epsilon; the tail
	// must land on it exactly.
	points[outLen-1] = float64(srcCount - 1)
	return points
}

// smoothstep is the cubic 3t^2 - 2t^3 with zero first derivative at both
// ends, clamped to [0,1].
func smoothstep(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return t * t * (3 - 2*t)
}

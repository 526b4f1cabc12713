// ABOUTME: Tests for the control-point generator
// ABOUTME: Covers ramp endpoints, monotonicity, and easing behavior
package timescale

import (
	"math"
	"testing"
)

func TestControlPointsLengthAndTail(t *testing.T) {
	cases := []struct {
		outLen, srcCount int
		smooth           bool
	}{
		{1, 2, false},
		{5, 3, false},
		{3, 4, false},
		{100, 10, false},
		{10, 100, false},
		{100, 10, true},
		{1000, 7, true},
		{7, 1000, true}, // smoothing requested but compressing: uniform path
	}

	for _, tc := range cases {
		points := ControlPoints(tc.outLen, tc.srcCount, tc.smooth)
		if len(points) != tc.outLen {
			t.Fatalf("control(%d,%d,%v): expected length %d, got %d",
				tc.outLen, tc.srcCount, tc.smooth, tc.outLen, len(points))
		}
		if got := points[len(points)-1]; got != float64(tc.srcCount-1) {
			t.Errorf("control(%d,%d,%v): tail %f, expected exactly %d",
				tc.outLen, tc.srcCount, tc.smooth, got, tc.srcCount-1)
		}
		if points[0] < 0 {
			t.Errorf("control(%d,%d,%v): head %f below zero",
				tc.outLen, tc.srcCount, tc.smooth, points[0])
		}
		for i := 1; i < len(points); i++ {
			if points[i] < points[i-1] {
				t.Fatalf("control(%d,%d,%v): decreases at %d (%f -> %f)",
					tc.outLen, tc.srcCount, tc.smooth, i, points[i-1], points[i])
			}
		}
	}
}

func TestControlPointsUniform(t *testing.T) {
	expected := []float64{0, 0.5, 1, 1.5, 2}
	points := ControlPoints(5, 3, false)

	if len(points) != len(expected) {
		t.Fatalf("expected %d points, got %d", len(expected), len(points))
	}
	for i := range expected {
		if math.Abs(points[i]-expected[i]) > 1e-12 {
			t.Errorf("point %d: expected %f, got %f", i, expected[i], points[i])
		}
	}
}

func TestControlPointsSmoothEasing(t *testing.T) {
	// Stretching 4 source samples over 13 output samples: 4 output steps
	// per source index. Each eased segment must land exactly on integer
	// boundaries and slow down near them.
	points := ControlPoints(13, 4, true)

	if points[0] != 0 {
		t.Errorf("expected start 0, got %f", points[0])
	}
	if points[12] != 3 {
		t.Errorf("expected end 3, got %f", points[12])
	}
	for _, i := range []int{0, 4, 8, 12} {
		if points[i] != float64(i/4) {
			t.Errorf("segment boundary %d: expected %d, got %f", i, i/4, points[i])
		}
	}
	// Midpoint of an eased segment sits exactly halfway.
	if math.Abs(points[2]-0.5) > 1e-12 {
		t.Errorf("segment midpoint: expected 0.5, got %f", points[2])
	}
	// Easing moves slower near boundaries than in the middle.
	edge := points[1] - points[0]
	mid := points[2] - points[1]
	if edge >= mid {
		t.Errorf("expected eased start (%f) slower than midpoint velocity (%f)", edge, mid)
	}
}

func TestControlPointsDegenerate(t *testing.T) {
	if points := ControlPoints(0, 10, false); len(points) != 0 {
		t.Errorf("expected empty sequence for zero output length, got %v", points)
	}
	if points := ControlPoints(10, 1, false); points != nil {
		t.Errorf("expected nil for srcCount < 2, got %v", points)
	}
	if points := ControlPoints(1, 5, false); len(points) != 1 || points[0] != 4 {
		t.Errorf("expected single point landing on last index, got %v", points)
	}
}

package anim

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestEulerRoundTrip(t *testing.T) {
	cases := []mgl64.Vec3{
		{0, 0, 0},
		{0.3, 0, 0},
		{0, 0.7, 0},
		{0, 0, -0.55},
		{0.2, -0.4, 1.1},
		{-1.2, 0.9, -2.8},
	}
	for _, angles := range cases {
		got := EulerZXYFromQuat(QuatFromEulerZXY(angles))
		for i := 0; i < 3; i++ {
			assert.InDelta(t, angles[i], got[i], 1e-9, "angles %v component %d", angles, i)
		}
	}
}

func TestEulerGimbalLockKeepsOrientation(t *testing.T) {
	angles := mgl64.Vec3{math.Pi / 2, 0.4, 0.6}
	q := QuatFromEulerZXY(angles)
	back := QuatFromEulerZXY(EulerZXYFromQuat(q))

	// The decomposition folds Y into Z at the pole; the angles differ but
	// the orientation must not.
	d := math.Abs(q.Normalize().Dot(back.Normalize()))
	assert.InDelta(t, 1.0, d, 1e-9)
}

func TestQuatFromEulerSingleAxes(t *testing.T) {
	q := QuatFromEulerZXY(mgl64.Vec3{0, 0, math.Pi / 2})
	v := q.Rotate(mgl64.Vec3{1, 0, 0})
	assert.InDelta(t, 0.0, v.X(), 1e-12)
	assert.InDelta(t, 1.0, v.Y(), 1e-12)

	q = QuatFromEulerZXY(mgl64.Vec3{math.Pi / 2, 0, 0})
	v = q.Rotate(mgl64.Vec3{0, 1, 0})
	assert.InDelta(t, 1.0, v.Z(), 1e-12)
}

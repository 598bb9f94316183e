package anim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// The motion dictionary stores and exchanges Euler angles in ZXY order:
// rotation about Z applied first, then X, then Y (matrix Rz·Rx·Ry on column
// vectors). These two helpers are exact inverses of each other.

// QuatFromEulerZXY builds an orientation from ZXY Euler angles in radians.
func QuatFromEulerZXY(v mgl64.Vec3) mgl64.Quat {
	qz := mgl64.QuatRotate(v.Z(), mgl64.Vec3{0, 0, 1})
	qx := mgl64.QuatRotate(v.X(), mgl64.Vec3{1, 0, 0})
	qy := mgl64.QuatRotate(v.Y(), mgl64.Vec3{0, 1, 0})
	return qz.Mul(qx).Mul(qy)
}

// EulerZXYFromQuat decomposes an orientation into ZXY Euler angles.
func EulerZXYFromQuat(q mgl64.Quat) mgl64.Vec3 {
	m := q.Normalize().Mat4()
	// With M = Rz·Rx·Ry: m21 = sin(x), m20 = -cos(x)·sin(y),
	// m22 = cos(x)·cos(y), m01 = -sin(z)·cos(x), m11 = cos(z)·cos(x).
	sx := clamp(m.At(2, 1), -1, 1)
	x := math.Asin(sx)
	if math.Abs(sx) > 1-1e-12 {
		// Gimbal lock: fold the Y rotation into Z.
		z := math.Atan2(m.At(1, 0), m.At(0, 0))
		return mgl64.Vec3{x, 0, z}
	}
	y := math.Atan2(-m.At(2, 0), m.At(2, 2))
	z := math.Atan2(-m.At(0, 1), m.At(1, 1))
	return mgl64.Vec3{x, y, z}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

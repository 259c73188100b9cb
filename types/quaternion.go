package types

import "math"

// A unit quaternion describing a rotation about an axis.
type Quat struct {
	V Vec3
	W float32
}

// Build the rotation of angle radians about a unit axis.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	s, c := math.Sincos(float64(angle) * 0.5)
	return Quat{V: axis.Mul(float32(s)), W: float32(c)}
}

// Rotate v. Uses v + 2w(q x v) + 2q x (q x v) which avoids building the
// rotation matrix.
func (q Quat) Rotate(v Vec3) Vec3 {
	t := q.V.Cross(v)
	return v.Add(t.Mul(2 * q.W)).Add(q.V.Cross(t).Mul(2))
}

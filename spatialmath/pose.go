// Package spatialmath defines the spatial math used to track a manipulator's
// end effector: rigid poses, twists, and the quaternion maps between them.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Pose is a rigid transform in 3D space, a point paired with an orientation
// quaternion. Poses are values; composing or inverting them returns new ones.
type Pose struct {
	Point       r3.Vector
	Orientation quat.Number
}

// NewZeroPose returns the identity pose.
func NewZeroPose() Pose {
	return Pose{Orientation: quat.Number{Real: 1}}
}

// NewPose returns a pose at the given point with the given orientation. The
// orientation is normalized so downstream quaternion math stays on the unit
// sphere.
func NewPose(pt r3.Vector, o quat.Number) Pose {
	return Pose{Point: pt, Orientation: normalize(o)}
}

// NewPoseFromPoint returns a pose at the given point with no rotation.
func NewPoseFromPoint(pt r3.Vector) Pose {
	return Pose{Point: pt, Orientation: quat.Number{Real: 1}}
}

// NewPoseFromAxisAngle returns a pose at the given point, rotated about the
// given axis by theta radians.
func NewPoseFromAxisAngle(pt r3.Vector, axis r3.Vector, theta float64) Pose {
	return Pose{Point: pt, Orientation: QuatExp(axis.Normalize().Mul(theta))}
}

// Compose returns the pose of b expressed through a, i.e. a applied first.
func Compose(a, b Pose) Pose {
	return Pose{
		Point:       a.Point.Add(RotateVector(a.Orientation, b.Point)),
		Orientation: normalize(quat.Mul(a.Orientation, b.Orientation)),
	}
}

// Invert returns the pose which composes with p to the identity.
func (p Pose) Invert() Pose {
	conj := quat.Conj(p.Orientation)
	return Pose{
		Point:       RotateVector(conj, p.Point.Mul(-1)),
		Orientation: conj,
	}
}

// PoseDiff returns the twist taking pose a to pose b over unit time. The
// linear part is the point difference; the angular part is the rotation
// vector (log map) of the relative orientation, not a difference of angle
// representations.
func PoseDiff(a, b Pose) Twist {
	return Twist{
		Linear:  b.Point.Sub(a.Point),
		Angular: QuatLog(quat.Mul(b.Orientation, quat.Conj(a.Orientation))),
	}
}

// PoseAlmostEqual returns whether both the points and the orientations of two
// poses are within eps of each other.
func PoseAlmostEqual(a, b Pose, eps float64) bool {
	d := PoseDiff(a, b)
	return d.Linear.Norm() <= eps && d.Angular.Norm() <= eps
}

// RotateVector rotates vector v by unit quaternion q.
func RotateVector(q quat.Number, v r3.Vector) r3.Vector {
	qv := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q, qv), quat.Conj(q))
	return r3.Vector{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// QuatLog converts a unit quaternion to its rotation vector, the axis of
// rotation scaled by the rotation angle in radians. The sign is flipped when
// needed so the returned angle is always the short way around.
func QuatLog(q quat.Number) r3.Vector {
	if q.Real < 0 {
		q = quat.Scale(-1, q)
	}
	vec := r3.Vector{X: q.Imag, Y: q.Jmag, Z: q.Kmag}
	sin := vec.Norm()
	if sin < 1e-12 {
		// Small-angle regime, sin(x) ~ x.
		return vec.Mul(2)
	}
	angle := 2 * math.Atan2(sin, q.Real)
	return vec.Mul(angle / sin)
}

// QuatExp converts a rotation vector back to a unit quaternion.
func QuatExp(v r3.Vector) quat.Number {
	theta := v.Norm()
	if theta < 1e-12 {
		return normalize(quat.Number{Real: 1, Imag: v.X / 2, Jmag: v.Y / 2, Kmag: v.Z / 2})
	}
	s := math.Sin(theta/2) / theta
	return quat.Number{Real: math.Cos(theta / 2), Imag: v.X * s, Jmag: v.Y * s, Kmag: v.Z * s}
}

func normalize(q quat.Number) quat.Number {
	n := math.Sqrt(q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
	if n == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/n, q)
}

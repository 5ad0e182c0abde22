package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// Twist is a 6-vector pairing linear and angular velocity, or their
// error/difference analogues.
type Twist struct {
	Linear  r3.Vector
	Angular r3.Vector
}

// ZeroTwist returns the zero twist.
func ZeroTwist() Twist {
	return Twist{}
}

// NewTwistFromSlice builds a twist from a 6-element slice ordered
// (vx, vy, vz, wx, wy, wz).
func NewTwistFromSlice(v []float64) Twist {
	return Twist{
		Linear:  r3.Vector{X: v[0], Y: v[1], Z: v[2]},
		Angular: r3.Vector{X: v[3], Y: v[4], Z: v[5]},
	}
}

// Slice returns the twist as a 6-element slice ordered (vx, vy, vz, wx, wy, wz).
func (t Twist) Slice() []float64 {
	return []float64{t.Linear.X, t.Linear.Y, t.Linear.Z, t.Angular.X, t.Angular.Y, t.Angular.Z}
}

// Add returns the component-wise sum of two twists.
func (t Twist) Add(o Twist) Twist {
	return Twist{Linear: t.Linear.Add(o.Linear), Angular: t.Angular.Add(o.Angular)}
}

// Sub returns the component-wise difference of two twists.
func (t Twist) Sub(o Twist) Twist {
	return Twist{Linear: t.Linear.Sub(o.Linear), Angular: t.Angular.Sub(o.Angular)}
}

// Scale returns the twist scaled by s.
func (t Twist) Scale(s float64) Twist {
	return Twist{Linear: t.Linear.Mul(s), Angular: t.Angular.Mul(s)}
}

// MulElem applies a per-component 6-DOF gain to the twist.
func (t Twist) MulElem(gain Twist) Twist {
	return Twist{
		Linear:  r3.Vector{X: t.Linear.X * gain.Linear.X, Y: t.Linear.Y * gain.Linear.Y, Z: t.Linear.Z * gain.Linear.Z},
		Angular: r3.Vector{X: t.Angular.X * gain.Angular.X, Y: t.Angular.Y * gain.Angular.Y, Z: t.Angular.Z * gain.Angular.Z},
	}
}

// MaxAbs returns the largest absolute value among the six components.
func (t Twist) MaxAbs() float64 {
	m := 0.0
	for _, v := range t.Slice() {
		m = math.Max(m, math.Abs(v))
	}
	return m
}

// AllBelow reports whether every component of the twist has magnitude
// strictly below the given threshold.
func (t Twist) AllBelow(threshold float64) bool {
	for _, v := range t.Slice() {
		if math.Abs(v) >= threshold {
			return false
		}
	}
	return true
}

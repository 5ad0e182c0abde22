package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestComposeInvert(t *testing.T) {
	a := NewPoseFromAxisAngle(r3.Vector{X: 1, Y: 2, Z: 3}, r3.Vector{Z: 1}, math.Pi/3)
	b := NewPoseFromAxisAngle(r3.Vector{X: -0.5, Z: 0.25}, r3.Vector{X: 1}, -math.Pi/5)

	ab := Compose(a, b)
	back := Compose(ab, b.Invert())
	test.That(t, PoseAlmostEqual(back, a, 1e-9), test.ShouldBeTrue)

	ident := Compose(a, a.Invert())
	test.That(t, PoseAlmostEqual(ident, NewZeroPose(), 1e-9), test.ShouldBeTrue)
}

func TestPoseDiff(t *testing.T) {
	a := NewPoseFromPoint(r3.Vector{X: 1})
	test.That(t, PoseDiff(a, a).MaxAbs(), test.ShouldAlmostEqual, 0)

	b := NewPoseFromAxisAngle(r3.Vector{X: 1.5}, r3.Vector{Z: 1}, math.Pi/2)
	d := PoseDiff(a, b)
	test.That(t, d.Linear.X, test.ShouldAlmostEqual, 0.5)
	test.That(t, d.Linear.Y, test.ShouldAlmostEqual, 0)
	test.That(t, d.Angular.Z, test.ShouldAlmostEqual, math.Pi/2)

	// The rotation part must come from the log map: a 270 degree rotation is
	// reported as -90 degrees, the short way around.
	c := NewPoseFromAxisAngle(r3.Vector{X: 1}, r3.Vector{Z: 1}, 3*math.Pi/2)
	test.That(t, PoseDiff(a, c).Angular.Z, test.ShouldAlmostEqual, -math.Pi/2)
}

func TestQuatLogExpRoundTrip(t *testing.T) {
	for _, vec := range []r3.Vector{
		{},
		{X: 1e-9},
		{X: 0.3, Y: -0.2, Z: 0.7},
		{Z: math.Pi - 0.01},
	} {
		got := QuatLog(QuatExp(vec))
		test.That(t, got.Sub(vec).Norm(), test.ShouldBeLessThan, 1e-9)
	}
}

func TestRotateVector(t *testing.T) {
	q := QuatExp(r3.Vector{Z: math.Pi / 2})
	v := RotateVector(q, r3.Vector{X: 1})
	test.That(t, v.X, test.ShouldAlmostEqual, 0)
	test.That(t, v.Y, test.ShouldAlmostEqual, 1)
	test.That(t, v.Z, test.ShouldAlmostEqual, 0)
}

func TestTwistHelpers(t *testing.T) {
	tw := NewTwistFromSlice([]float64{1, 2, 3, 4, 5, 6})
	test.That(t, tw.Slice(), test.ShouldResemble, []float64{1, 2, 3, 4, 5, 6})
	test.That(t, tw.MaxAbs(), test.ShouldEqual, 6)

	sum := tw.Add(tw.Scale(-1))
	test.That(t, sum.MaxAbs(), test.ShouldAlmostEqual, 0)

	gain := NewTwistFromSlice([]float64{2, 2, 2, 0.5, 0.5, 0.5})
	test.That(t, tw.MulElem(gain).Slice(), test.ShouldResemble, []float64{2, 4, 6, 2, 2.5, 3})

	small := NewTwistFromSlice([]float64{0.009, -0.009, 0, 0.0005, 0, 0})
	test.That(t, small.AllBelow(0.01), test.ShouldBeTrue)
	test.That(t, small.AllBelow(0.009), test.ShouldBeFalse)
}

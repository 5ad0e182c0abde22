package trajectory

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/meca-lab/cartopt/spatialmath"
)

func TestPathLine(t *testing.T) {
	start := spatialmath.NewPoseFromPoint(r3.Vector{})
	end := spatialmath.NewPoseFromAxisAngle(r3.Vector{X: 1}, r3.Vector{Z: 1}, math.Pi/2)
	l := newPathLine(start, end, 0.05)

	// Translation dominates: length is the linear distance.
	test.That(t, l.Length(), test.ShouldAlmostEqual, 1)

	mid := l.Pos(0.5)
	test.That(t, mid.Point.X, test.ShouldAlmostEqual, 0.5)
	// Rotation progresses with arclength.
	rot := spatialmath.QuatLog(mid.Orientation)
	test.That(t, rot.Z, test.ShouldAlmostEqual, math.Pi/4)

	v := l.Vel(0.5, 2.0)
	test.That(t, v.Linear.X, test.ShouldAlmostEqual, 2.0)
	test.That(t, v.Angular.Z, test.ShouldAlmostEqual, math.Pi)
}

func TestPathLineRotationOnly(t *testing.T) {
	start := spatialmath.NewPoseFromPoint(r3.Vector{X: 1})
	end := spatialmath.NewPoseFromAxisAngle(r3.Vector{X: 1}, r3.Vector{Z: 1}, 1.0)
	l := newPathLine(start, end, 0.05)

	// A rotation-only move still has arclength through eqradius.
	test.That(t, l.Length(), test.ShouldAlmostEqual, 0.05)
	test.That(t, l.Pos(l.Length()).Point.X, test.ShouldAlmostEqual, 1)
	endRot := spatialmath.QuatLog(l.Pos(l.Length()).Orientation)
	test.That(t, endRot.Z, test.ShouldAlmostEqual, 1.0)
}

func TestRoundedCompositeCorner(t *testing.T) {
	rc, err := NewRoundedComposite(0.1, 0.05)
	test.That(t, err, test.ShouldBeNil)

	// Right-angle corner at (1,0,0).
	for _, pt := range []r3.Vector{{}, {X: 1}, {X: 1, Y: 1}} {
		test.That(t, rc.Add(spatialmath.NewPoseFromPoint(pt)), test.ShouldBeNil)
	}
	path, err := rc.Finish()
	test.That(t, err, test.ShouldBeNil)

	// Two unit legs, each shortened by the 0.1 tangent offset, plus a
	// quarter arc of radius 0.1.
	wantLen := 2*(1-0.1) + 0.1*math.Pi/2
	test.That(t, path.Length(), test.ShouldAlmostEqual, wantLen)

	// The path is continuous: adjacent samples stay close everywhere,
	// including across the line/arc boundaries.
	step := path.Length() / 2000
	prev := path.Pos(0).Point
	for s := step; s <= path.Length(); s += step {
		cur := path.Pos(s).Point
		test.That(t, cur.Sub(prev).Norm(), test.ShouldBeLessThan, 2*step)
		prev = cur
	}

	// Endpoints are exact.
	test.That(t, path.Pos(0).Point.Sub(r3.Vector{}).Norm(), test.ShouldAlmostEqual, 0)
	test.That(t, path.Pos(path.Length()).Point.Sub(r3.Vector{X: 1, Y: 1}).Norm(), test.ShouldBeLessThan, 1e-9)

	// The blend never visits the corner itself.
	for s := 0.0; s <= path.Length(); s += step {
		corner := path.Pos(s).Point.Sub(r3.Vector{X: 1}).Norm()
		test.That(t, corner, test.ShouldBeGreaterThan, 0.04)
	}
}

func TestRoundedCompositeCollinear(t *testing.T) {
	rc, err := NewRoundedComposite(0.1, 0.05)
	test.That(t, err, test.ShouldBeNil)
	for _, pt := range []r3.Vector{{}, {X: 1}, {X: 2}} {
		test.That(t, rc.Add(spatialmath.NewPoseFromPoint(pt)), test.ShouldBeNil)
	}
	path, err := rc.Finish()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, path.Length(), test.ShouldAlmostEqual, 2)
	test.That(t, path.Pos(1.5).Point.X, test.ShouldAlmostEqual, 1.5)
}

func TestRoundedCompositeDegenerate(t *testing.T) {
	// Radius too large for the legs.
	rc, err := NewRoundedComposite(2.0, 0.05)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rc.Add(spatialmath.NewPoseFromPoint(r3.Vector{})), test.ShouldBeNil)
	test.That(t, rc.Add(spatialmath.NewPoseFromPoint(r3.Vector{X: 1})), test.ShouldBeNil)
	err = rc.Add(spatialmath.NewPoseFromPoint(r3.Vector{X: 1, Y: 1}))
	test.That(t, errors.Is(err, ErrNotFeasible), test.ShouldBeTrue)

	// Full reversal.
	rc, err = NewRoundedComposite(0.01, 0.05)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rc.Add(spatialmath.NewPoseFromPoint(r3.Vector{})), test.ShouldBeNil)
	test.That(t, rc.Add(spatialmath.NewPoseFromPoint(r3.Vector{X: 1})), test.ShouldBeNil)
	err = rc.Add(spatialmath.NewPoseFromPoint(r3.Vector{X: 0.2}))
	test.That(t, errors.Is(err, ErrNotFeasible), test.ShouldBeTrue)

	// Not enough waypoints.
	rc, err = NewRoundedComposite(0.01, 0.05)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rc.Add(spatialmath.NewPoseFromPoint(r3.Vector{})), test.ShouldBeNil)
	_, err = rc.Finish()
	test.That(t, errors.Is(err, ErrNotFeasible), test.ShouldBeTrue)
}

func TestCompositeTrajectoryClamping(t *testing.T) {
	pose := spatialmath.NewPoseFromPoint(r3.Vector{X: 3})
	c := NewComposite(NewStationary(pose, 0.5))
	test.That(t, c.Duration(), test.ShouldEqual, 0.5)
	test.That(t, c.Pos(10).Point.X, test.ShouldEqual, 3)
	test.That(t, c.Vel(10).MaxAbs(), test.ShouldEqual, 0)
	test.That(t, c.Acc(-1).MaxAbs(), test.ShouldEqual, 0)
}

package trajectory

import (
	"context"
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/meca-lab/cartopt/referenceframe"
	"github.com/meca-lab/cartopt/spatialmath"
)

func testGenerator(t *testing.T, observer PathObserver) *Generator {
	t.Helper()
	cfg := DefaultGeneratorConfig()
	gen, err := NewGenerator(cfg, nil, observer, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return gen
}

func TestFilterDuplicates(t *testing.T) {
	gen := testGenerator(t, nil)

	poses := []spatialmath.Pose{
		spatialmath.NewPoseFromPoint(r3.Vector{}),
		// The next two stay within 0.01 of the first kept pose.
		spatialmath.NewPoseFromPoint(r3.Vector{X: 0.005}),
		spatialmath.NewPoseFromPoint(r3.Vector{X: 0.009, Y: 0.009}),
		spatialmath.NewPoseFromPoint(r3.Vector{X: 0.5}),
		spatialmath.NewPoseFromPoint(r3.Vector{X: 0.5, Y: 0.5}),
	}
	kept := gen.filterDuplicates(poses)
	test.That(t, len(kept), test.ShouldEqual, 3)
	test.That(t, kept[0].Point, test.ShouldResemble, r3.Vector{})
	test.That(t, kept[1].Point.X, test.ShouldAlmostEqual, 0.5)

	// A rotation above threshold is kept even with no translation.
	poses = []spatialmath.Pose{
		spatialmath.NewPoseFromPoint(r3.Vector{}),
		spatialmath.NewPoseFromAxisAngle(r3.Vector{}, r3.Vector{Z: 1}, 0.02),
	}
	test.That(t, len(gen.filterDuplicates(poses)), test.ShouldEqual, 2)
}

func TestComputeTwoWaypoints(t *testing.T) {
	gen := testGenerator(t, nil)
	ctx := context.Background()

	traj, err := gen.Compute(ctx, []Waypoint{
		{Pose: spatialmath.NewPoseFromPoint(r3.Vector{})},
		{Pose: spatialmath.NewPoseFromPoint(r3.Vector{X: 0.5})},
	})
	test.That(t, err, test.ShouldBeNil)

	// Traverse time for 0.5 units at vel 0.1, acc 2.0 is 5.05, plus the
	// fixed 0.5 terminal hold.
	test.That(t, traj.Duration(), test.ShouldAlmostEqual, 5.55)

	// Velocity at the midpoint respects the bound.
	v := traj.Vel(traj.Duration() / 2)
	test.That(t, v.Linear.Norm(), test.ShouldBeLessThanOrEqualTo, 0.1+1e-12)

	// The hold pins the final pose.
	endPose := traj.Pos(traj.Duration())
	test.That(t, endPose.Point.X, test.ShouldAlmostEqual, 0.5)
	test.That(t, traj.Vel(traj.Duration()-0.1).MaxAbs(), test.ShouldEqual, 0)
}

func TestComputeSingleWaypoint(t *testing.T) {
	gen := testGenerator(t, nil)
	ctx := context.Background()

	pose := spatialmath.NewPoseFromPoint(r3.Vector{X: 1, Y: 2})
	traj, err := gen.Compute(ctx, []Waypoint{{Pose: pose}})
	test.That(t, err, test.ShouldBeNil)

	// Stationary hold only.
	test.That(t, traj.Duration(), test.ShouldEqual, 0.5)
	for _, tt := range []float64{0, 0.1, 0.25, 0.5} {
		test.That(t, spatialmath.PoseAlmostEqual(traj.Pos(tt), pose, 1e-9), test.ShouldBeTrue)
		test.That(t, traj.Vel(tt).MaxAbs(), test.ShouldEqual, 0)
	}
}

func TestComputeAllDuplicatesHoldsLastReceived(t *testing.T) {
	gen := testGenerator(t, nil)
	ctx := context.Background()

	// Both waypoints collapse to one effective pose; the hold sits at the
	// last received frame, not the kept one.
	traj, err := gen.Compute(ctx, []Waypoint{
		{Pose: spatialmath.NewPoseFromPoint(r3.Vector{})},
		{Pose: spatialmath.NewPoseFromPoint(r3.Vector{X: 0.005})},
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, traj.Duration(), test.ShouldEqual, 0.5)
	test.That(t, traj.Pos(0.25).Point.X, test.ShouldAlmostEqual, 0.005)
}

func TestComputeSamplingContinuity(t *testing.T) {
	gen := testGenerator(t, nil)
	ctx := context.Background()

	traj, err := gen.Compute(ctx, []Waypoint{
		{Pose: spatialmath.NewPoseFromPoint(r3.Vector{})},
		{Pose: spatialmath.NewPoseFromPoint(r3.Vector{X: 0.3})},
		{Pose: spatialmath.NewPoseFromPoint(r3.Vector{X: 0.3, Y: 0.3})},
	})
	test.That(t, err, test.ShouldBeNil)

	step := 0.001
	prev := traj.Pos(0).Point
	for tt := step; tt < traj.Duration(); tt += step {
		cur := traj.Pos(tt).Point
		// Bounded by vel_max over the step, with slack.
		test.That(t, cur.Sub(prev).Norm(), test.ShouldBeLessThan, 2*0.1*step+1e-9)
		prev = cur
	}
}

func TestComputeTransformFailure(t *testing.T) {
	cfg := DefaultGeneratorConfig()
	transformer := referenceframe.NewStaticTransformer(cfg.BaseFrame, nil)
	gen, err := NewGenerator(cfg, transformer, nil, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	_, err = gen.Compute(context.Background(), []Waypoint{
		{Pose: spatialmath.NewZeroPose(), Frame: "missing"},
	})
	test.That(t, err, test.ShouldNotBeNil)
	var fnf *referenceframe.FrameNotFoundError
	test.That(t, errors.As(err, &fnf), test.ShouldBeTrue)
	test.That(t, errors.Is(err, ErrNotFeasible), test.ShouldBeFalse)
}

func TestComputeGeometryFailure(t *testing.T) {
	gen := testGenerator(t, nil)

	// Reversal through the middle waypoint is not plannable.
	_, err := gen.Compute(context.Background(), []Waypoint{
		{Pose: spatialmath.NewPoseFromPoint(r3.Vector{})},
		{Pose: spatialmath.NewPoseFromPoint(r3.Vector{X: 1})},
		{Pose: spatialmath.NewPoseFromPoint(r3.Vector{X: 0.2})},
	})
	test.That(t, errors.Is(err, ErrNotFeasible), test.ShouldBeTrue)
}

type pathRecorder struct {
	poses []spatialmath.Pose
}

func (p *pathRecorder) ObservePath(ctx context.Context, poses []spatialmath.Pose) {
	p.poses = poses
}

func TestDiagnosticResampling(t *testing.T) {
	rec := &pathRecorder{}
	gen := testGenerator(t, rec)

	traj, err := gen.Compute(context.Background(), []Waypoint{
		{Pose: spatialmath.NewPoseFromPoint(r3.Vector{})},
		{Pose: spatialmath.NewPoseFromPoint(r3.Vector{X: 0.5})},
	})
	test.That(t, err, test.ShouldBeNil)

	// One sample per 0.1 time units from zero through the duration.
	want := int((traj.Duration()+1e-9)/diagnosticSampleStep) + 1
	test.That(t, len(rec.poses), test.ShouldEqual, want)
	test.That(t, rec.poses[0].Point, test.ShouldResemble, r3.Vector{})
}

func TestComputeNoWaypoints(t *testing.T) {
	gen := testGenerator(t, nil)
	_, err := gen.Compute(context.Background(), nil)
	test.That(t, err, test.ShouldNotBeNil)
}

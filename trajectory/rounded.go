package trajectory

import (
	"math"

	"github.com/pkg/errors"

	"github.com/meca-lab/cartopt/spatialmath"
)

// ErrNotFeasible tags geometry and planning failures raised while building a
// path. Callers use it to tell a degenerate-geometry abort apart from a
// waypoint transform failure.
var ErrNotFeasible = errors.New("path not feasible")

const (
	distEpsilon  = 1e-9
	angleEpsilon = 1e-7
)

// RoundedComposite builds a path through an ordered sequence of poses where
// each interior corner is replaced by a circular blend of the configured
// radius. Rotation is interpolated along the straight segments and held fixed
// across the blends; eqradius converts rotation into equivalent arclength so
// rotation-only moves still take time to traverse.
type RoundedComposite struct {
	radius   float64
	eqradius float64

	comp      *compositePath
	start     spatialmath.Pose
	via       spatialmath.Pose
	numPoints int
	finished  bool
}

// NewRoundedComposite returns an empty builder. Both radii must be positive.
func NewRoundedComposite(radius, eqradius float64) (*RoundedComposite, error) {
	if radius <= 0 {
		return nil, errors.Errorf("rounding radius must be positive, got %f", radius)
	}
	if eqradius <= 0 {
		return nil, errors.Errorf("equivalent radius must be positive, got %f", eqradius)
	}
	return &RoundedComposite{radius: radius, eqradius: eqradius, comp: newCompositePath()}, nil
}

// Add appends the next pose to the path under construction. Once a third pose
// arrives the corner at the middle pose is resolved into a line plus a
// circular blend.
func (rc *RoundedComposite) Add(pose spatialmath.Pose) error {
	if rc.finished {
		return errors.Wrap(ErrNotFeasible, "cannot add to a finished path")
	}
	switch rc.numPoints {
	case 0:
		rc.start = pose
	case 1:
		rc.via = pose
	default:
		if err := rc.roundCorner(pose); err != nil {
			return err
		}
	}
	rc.numPoints++
	return nil
}

// roundCorner resolves the corner at rc.via between rc.start and next.
func (rc *RoundedComposite) roundCorner(next spatialmath.Pose) error {
	ab := rc.via.Point.Sub(rc.start.Point)
	bc := next.Point.Sub(rc.via.Point)
	abdist := ab.Norm()
	bcdist := bc.Norm()
	if abdist < distEpsilon {
		return errors.Wrap(ErrNotFeasible, "consecutive waypoints are coincident")
	}
	if bcdist < distEpsilon {
		return errors.Wrap(ErrNotFeasible, "consecutive waypoints are coincident")
	}
	abn := ab.Mul(1 / abdist)
	bcn := bc.Mul(1 / bcdist)
	alpha := math.Acos(clamp(abn.Dot(bcn), -1, 1))
	if math.Pi-alpha < angleEpsilon {
		return errors.Wrap(ErrNotFeasible, "path reverses direction at a waypoint")
	}
	if alpha < angleEpsilon {
		// Collinear continuation, no blend needed.
		rc.comp.add(newPathLine(rc.start, rc.via, rc.eqradius))
		rc.start = rc.via
		rc.via = next
		return nil
	}

	// Tangent offset of the blend circle from the corner.
	d := rc.radius * math.Tan(alpha/2)
	if d >= abdist {
		return errors.Wrapf(ErrNotFeasible, "rounding radius %f does not fit segment of length %f", rc.radius, abdist)
	}
	if d >= bcdist {
		return errors.Wrapf(ErrNotFeasible, "rounding radius %f does not fit segment of length %f", rc.radius, bcdist)
	}

	blendStart := rc.via.Point.Sub(abn.Mul(d))
	blendEnd := rc.via.Point.Add(bcn.Mul(d))
	axis := abn.Cross(bcn)
	axis = axis.Mul(1 / axis.Norm())
	center := blendStart.Add(axis.Cross(abn).Mul(rc.radius))

	// The straight segment carries the rotation up to the via orientation;
	// the blend then holds it.
	cornerPose := spatialmath.Pose{Point: blendStart, Orientation: rc.via.Orientation}
	rc.comp.add(newPathLine(rc.start, cornerPose, rc.eqradius))
	rc.comp.add(newPathArc(blendStart, center, axis, alpha, cornerPose))

	rc.start = spatialmath.Pose{Point: blendEnd, Orientation: rc.via.Orientation}
	rc.via = next
	return nil
}

// Finish closes the path with the final straight segment and locks it. The
// returned path is immutable and safe to sample concurrently.
func (rc *RoundedComposite) Finish() (Path, error) {
	if rc.finished {
		return nil, errors.Wrap(ErrNotFeasible, "path already finished")
	}
	if rc.numPoints < 2 {
		return nil, errors.Wrap(ErrNotFeasible, "a path needs at least two waypoints")
	}
	rc.comp.add(newPathLine(rc.start, rc.via, rc.eqradius))
	rc.finished = true
	return rc.comp, nil
}

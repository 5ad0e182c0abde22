// Package trajectory turns sparse Cartesian waypoints into smooth,
// time-parameterized end-effector motion: rounded-corner geometric paths,
// trapezoidal velocity profiles, and the composite trajectories built from
// them.
package trajectory

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/meca-lab/cartopt/spatialmath"
)

// Path is a geometric curve parameterized by arclength. Rotation contributes
// to arclength through the equivalent radius used at construction, so a
// rotation-only move still has nonzero length.
type Path interface {
	// Length returns the total arclength of the path.
	Length() float64
	// Pos returns the pose at arclength s.
	Pos(s float64) spatialmath.Pose
	// Vel returns the Cartesian twist at arclength s traversed at rate sd.
	Vel(s, sd float64) spatialmath.Twist
	// Acc returns the Cartesian acceleration twist at arclength s traversed
	// at rate sd with rate-of-change sdd.
	Acc(s, sd, sdd float64) spatialmath.Twist
}

// pathPoint is the degenerate single-pose path.
type pathPoint struct {
	pose spatialmath.Pose
}

// NewPointPath returns a zero-length path pinned at the given pose.
func NewPointPath(pose spatialmath.Pose) Path {
	return &pathPoint{pose: pose}
}

func (p *pathPoint) Length() float64 { return 0 }

func (p *pathPoint) Pos(float64) spatialmath.Pose { return p.pose }

func (p *pathPoint) Vel(_, _ float64) spatialmath.Twist { return spatialmath.ZeroTwist() }

func (p *pathPoint) Acc(_, _, _ float64) spatialmath.Twist { return spatialmath.ZeroTwist() }

// pathLine moves in a straight line between two poses while rotating about a
// single fixed axis from the start orientation to the end orientation.
type pathLine struct {
	start    spatialmath.Pose
	dir      r3.Vector // unit translation direction, zero if no translation
	dist     float64
	axis     r3.Vector // unit rotation axis in the base frame, zero if none
	angle    float64
	length   float64
	scaleLin float64
	scaleRot float64
}

func newPathLine(start, end spatialmath.Pose, eqradius float64) *pathLine {
	l := &pathLine{start: start}
	delta := end.Point.Sub(start.Point)
	l.dist = delta.Norm()
	if l.dist > 0 {
		l.dir = delta.Mul(1 / l.dist)
	}
	rotVec := spatialmath.PoseDiff(start, end).Angular
	l.angle = rotVec.Norm()
	if l.angle > 0 {
		l.axis = rotVec.Mul(1 / l.angle)
	}
	l.length = math.Max(l.dist, l.angle*eqradius)
	if l.length > 0 {
		l.scaleLin = l.dist / l.length
		l.scaleRot = l.angle / l.length
	}
	return l
}

func (l *pathLine) Length() float64 { return l.length }

func (l *pathLine) Pos(s float64) spatialmath.Pose {
	s = clamp(s, 0, l.length)
	orientation := l.start.Orientation
	if l.angle > 0 {
		orientation = quat.Mul(spatialmath.QuatExp(l.axis.Mul(s*l.scaleRot)), l.start.Orientation)
	}
	return spatialmath.Pose{
		Point:       l.start.Point.Add(l.dir.Mul(s * l.scaleLin)),
		Orientation: orientation,
	}
}

func (l *pathLine) Vel(_, sd float64) spatialmath.Twist {
	return spatialmath.Twist{
		Linear:  l.dir.Mul(l.scaleLin * sd),
		Angular: l.axis.Mul(l.scaleRot * sd),
	}
}

func (l *pathLine) Acc(_, _, sdd float64) spatialmath.Twist {
	return spatialmath.Twist{
		Linear:  l.dir.Mul(l.scaleLin * sdd),
		Angular: l.axis.Mul(l.scaleRot * sdd),
	}
}

// pathArc is a circular blend between two line segments. It sweeps the start
// radius vector about a fixed axis through the center while holding the
// corner orientation.
type pathArc struct {
	center      r3.Vector
	rstart      r3.Vector // vector from center to the arc start point
	axis        r3.Vector // unit rotation axis
	angle       float64   // sweep angle in radians
	radius      float64
	orientation spatialmath.Pose
}

func newPathArc(start, center r3.Vector, axis r3.Vector, angle float64, orientation spatialmath.Pose) *pathArc {
	rstart := start.Sub(center)
	return &pathArc{
		center:      center,
		rstart:      rstart,
		axis:        axis,
		angle:       angle,
		radius:      rstart.Norm(),
		orientation: orientation,
	}
}

func (a *pathArc) Length() float64 { return a.radius * a.angle }

func (a *pathArc) theta(s float64) float64 {
	return clamp(s, 0, a.Length()) / a.radius
}

func (a *pathArc) rvec(s float64) r3.Vector {
	q := spatialmath.QuatExp(a.axis.Mul(a.theta(s)))
	return spatialmath.RotateVector(q, a.rstart)
}

func (a *pathArc) Pos(s float64) spatialmath.Pose {
	return spatialmath.Pose{
		Point:       a.center.Add(a.rvec(s)),
		Orientation: a.orientation.Orientation,
	}
}

func (a *pathArc) Vel(s, sd float64) spatialmath.Twist {
	thetad := sd / a.radius
	return spatialmath.Twist{Linear: a.axis.Cross(a.rvec(s)).Mul(thetad)}
}

func (a *pathArc) Acc(s, sd, sdd float64) spatialmath.Twist {
	rvec := a.rvec(s)
	thetad := sd / a.radius
	thetadd := sdd / a.radius
	tangential := a.axis.Cross(rvec).Mul(thetadd)
	centripetal := a.axis.Cross(a.axis.Cross(rvec)).Mul(thetad * thetad)
	return spatialmath.Twist{Linear: tangential.Add(centripetal)}
}

// compositePath concatenates paths end to end with arclength bookkeeping.
type compositePath struct {
	paths  []Path
	bounds []float64 // cumulative arclength at the end of each sub-path
	length float64
}

func newCompositePath() *compositePath {
	return &compositePath{}
}

func (c *compositePath) add(p Path) {
	c.paths = append(c.paths, p)
	c.length += p.Length()
	c.bounds = append(c.bounds, c.length)
}

// locate maps a global arclength to a sub-path and its local arclength.
func (c *compositePath) locate(s float64) (Path, float64) {
	s = clamp(s, 0, c.length)
	for i, p := range c.paths {
		if s <= c.bounds[i] || i == len(c.paths)-1 {
			start := c.bounds[i] - p.Length()
			return p, s - start
		}
	}
	return nil, 0
}

func (c *compositePath) Length() float64 { return c.length }

func (c *compositePath) Pos(s float64) spatialmath.Pose {
	p, local := c.locate(s)
	if p == nil {
		return spatialmath.NewZeroPose()
	}
	return p.Pos(local)
}

func (c *compositePath) Vel(s, sd float64) spatialmath.Twist {
	p, local := c.locate(s)
	if p == nil {
		return spatialmath.ZeroTwist()
	}
	return p.Vel(local, sd)
}

func (c *compositePath) Acc(s, sd, sdd float64) spatialmath.Twist {
	p, local := c.locate(s)
	if p == nil {
		return spatialmath.ZeroTwist()
	}
	return p.Acc(local, sd, sdd)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

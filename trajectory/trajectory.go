package trajectory

import (
	"github.com/meca-lab/cartopt/spatialmath"
)

// Point is one sampled instant of a trajectory: a pose plus its velocity and
// acceleration twists.
type Point struct {
	Pose         spatialmath.Pose
	Velocity     spatialmath.Twist
	Acceleration spatialmath.Twist
}

// Trajectory is a time-parameterized Cartesian motion. Sampling past the
// duration clamps to the terminal state.
type Trajectory interface {
	Duration() float64
	Pos(t float64) spatialmath.Pose
	Vel(t float64) spatialmath.Twist
	Acc(t float64) spatialmath.Twist
}

// Segment pairs a geometric path with a velocity profile spanning its length.
type Segment struct {
	path    Path
	profile Profile
}

// NewSegment returns the trajectory traversing path under profile.
func NewSegment(path Path, profile Profile) *Segment {
	return &Segment{path: path, profile: profile}
}

// Duration returns the profile's traversal time.
func (s *Segment) Duration() float64 { return s.profile.Duration() }

// Pos returns the pose at time t.
func (s *Segment) Pos(t float64) spatialmath.Pose {
	return s.path.Pos(s.profile.Pos(t))
}

// Vel returns the velocity twist at time t.
func (s *Segment) Vel(t float64) spatialmath.Twist {
	return s.path.Vel(s.profile.Pos(t), s.profile.Vel(t))
}

// Acc returns the acceleration twist at time t.
func (s *Segment) Acc(t float64) spatialmath.Twist {
	return s.path.Acc(s.profile.Pos(t), s.profile.Vel(t), s.profile.Acc(t))
}

// Stationary holds a fixed pose for a fixed duration.
type Stationary struct {
	pose     spatialmath.Pose
	duration float64
}

// NewStationary returns a trajectory holding pose for the given duration.
func NewStationary(pose spatialmath.Pose, duration float64) *Stationary {
	return &Stationary{pose: pose, duration: duration}
}

// Duration returns the hold duration.
func (s *Stationary) Duration() float64 { return s.duration }

// Pos returns the held pose.
func (s *Stationary) Pos(float64) spatialmath.Pose { return s.pose }

// Vel returns the zero twist.
func (s *Stationary) Vel(float64) spatialmath.Twist { return spatialmath.ZeroTwist() }

// Acc returns the zero twist.
func (s *Stationary) Acc(float64) spatialmath.Twist { return spatialmath.ZeroTwist() }

// Composite concatenates trajectories in time. It is immutable once handed to
// a sampler; a regeneration produces a fresh Composite rather than mutating
// an installed one.
type Composite struct {
	segments []Trajectory
	bounds   []float64 // cumulative duration at the end of each segment
	duration float64
}

// NewComposite returns a trajectory concatenating the given segments in order.
func NewComposite(segments ...Trajectory) *Composite {
	c := &Composite{}
	for _, seg := range segments {
		c.segments = append(c.segments, seg)
		c.duration += seg.Duration()
		c.bounds = append(c.bounds, c.duration)
	}
	return c
}

// Duration returns the total duration.
func (c *Composite) Duration() float64 { return c.duration }

// locate maps a global time to a segment and its local time, clamping to the
// trajectory's span.
func (c *Composite) locate(t float64) (Trajectory, float64) {
	t = clamp(t, 0, c.duration)
	for i, seg := range c.segments {
		if t <= c.bounds[i] || i == len(c.segments)-1 {
			start := c.bounds[i] - seg.Duration()
			return seg, t - start
		}
	}
	return nil, 0
}

// Pos returns the pose at time t.
func (c *Composite) Pos(t float64) spatialmath.Pose {
	seg, local := c.locate(t)
	if seg == nil {
		return spatialmath.NewZeroPose()
	}
	return seg.Pos(local)
}

// Vel returns the velocity twist at time t.
func (c *Composite) Vel(t float64) spatialmath.Twist {
	seg, local := c.locate(t)
	if seg == nil {
		return spatialmath.ZeroTwist()
	}
	return seg.Vel(local)
}

// Acc returns the acceleration twist at time t.
func (c *Composite) Acc(t float64) spatialmath.Twist {
	seg, local := c.locate(t)
	if seg == nil {
		return spatialmath.ZeroTwist()
	}
	return seg.Acc(local)
}

// Package dynamics defines the robot model provider consumed by the
// Cartesian controller: per-tick kinematic and dynamic quantities for a
// tracked frame, given the robot's current joint state.
package dynamics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/meca-lab/cartopt/spatialmath"
)

// State is the robot's joint positions and velocities for one control tick.
type State struct {
	Positions  []float64
	Velocities []float64
}

// Snapshot is the set of model quantities valid for exactly one control
// tick. It must be recomputed from a fresh State every cycle, never cached.
type Snapshot struct {
	// Pose is the current pose of the tracked frame in the base frame.
	Pose spatialmath.Pose
	// Twist is the current Cartesian velocity of the tracked frame.
	Twist spatialmath.Twist
	// Jacobian is the 6xn task Jacobian of the tracked frame.
	Jacobian *mat.Dense
	// InertiaInverse is the nxn inverse of the joint-space inertia matrix.
	InertiaInverse *mat.Dense
	// Coriolis is the n-vector of Coriolis and centrifugal torques.
	Coriolis []float64
	// Gravity is the n-vector of gravity torques.
	Gravity []float64
	// JdotQdot is the Jacobian time-derivative multiplied by the joint
	// velocities.
	JdotQdot spatialmath.Twist
}

// Model computes Snapshots for named frames. Implementations own the
// kinematic chain description; the controller only sees the per-tick
// quantities.
type Model interface {
	// DOF returns the number of actuated joints.
	DOF() int
	// Snapshot computes the model quantities for the given state and
	// tracked frame.
	Snapshot(state *State, frame string) (*Snapshot, error)
}

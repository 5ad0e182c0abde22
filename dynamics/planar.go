package dynamics

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/meca-lab/cartopt/spatialmath"
)

const defaultGravity = 9.81

// PlanarArm is an analytic two-revolute-joint arm in the x-y plane with
// point masses at the link tips, rotating about z and loaded by gravity
// along -y. It is small enough to carry closed-form inertia, Coriolis, and
// gravity terms, which makes it the reference model for controller tests and
// the simulator.
type PlanarArm struct {
	frame   string
	l1, l2  float64
	m1, m2  float64
	gravity float64
}

// NewPlanarArm returns a two-link arm whose tip is exposed under the given
// frame name.
func NewPlanarArm(frame string, l1, l2, m1, m2 float64) (*PlanarArm, error) {
	if frame == "" {
		return nil, errors.New("tracked frame name must be set")
	}
	if l1 <= 0 || l2 <= 0 {
		return nil, errors.Errorf("link lengths must be positive, got %f and %f", l1, l2)
	}
	if m1 <= 0 || m2 <= 0 {
		return nil, errors.Errorf("link masses must be positive, got %f and %f", m1, m2)
	}
	return &PlanarArm{frame: frame, l1: l1, l2: l2, m1: m1, m2: m2, gravity: defaultGravity}, nil
}

// DOF returns 2.
func (a *PlanarArm) DOF() int { return 2 }

// Snapshot computes the arm's kinematics and dynamics at the given state.
func (a *PlanarArm) Snapshot(state *State, frame string) (*Snapshot, error) {
	if frame != a.frame {
		return nil, errors.Errorf("unknown frame %q, model tracks %q", frame, a.frame)
	}
	if len(state.Positions) != 2 || len(state.Velocities) != 2 {
		return nil, errors.Errorf("planar arm needs 2 joint positions and velocities, got %d and %d",
			len(state.Positions), len(state.Velocities))
	}

	q1, q2 := state.Positions[0], state.Positions[1]
	qd1, qd2 := state.Velocities[0], state.Velocities[1]
	s1, c1 := math.Sincos(q1)
	s12, c12 := math.Sincos(q1 + q2)
	s2, c2 := math.Sincos(q2)

	// Tip pose and twist.
	tip := r3.Vector{X: a.l1*c1 + a.l2*c12, Y: a.l1*s1 + a.l2*s12}
	pose := spatialmath.NewPoseFromAxisAngle(tip, r3.Vector{Z: 1}, q1+q2)

	jac := mat.NewDense(6, 2, nil)
	jac.Set(0, 0, -a.l1*s1-a.l2*s12)
	jac.Set(0, 1, -a.l2*s12)
	jac.Set(1, 0, a.l1*c1+a.l2*c12)
	jac.Set(1, 1, a.l2*c12)
	jac.Set(5, 0, 1)
	jac.Set(5, 1, 1)

	twist := spatialmath.Twist{
		Linear: r3.Vector{
			X: jac.At(0, 0)*qd1 + jac.At(0, 1)*qd2,
			Y: jac.At(1, 0)*qd1 + jac.At(1, 1)*qd2,
		},
		Angular: r3.Vector{Z: qd1 + qd2},
	}

	// Inertia matrix for point masses at the link tips, inverted in closed
	// form.
	m11 := a.m1*a.l1*a.l1 + a.m2*(a.l1*a.l1+2*a.l1*a.l2*c2+a.l2*a.l2)
	m12 := a.m2 * (a.l1*a.l2*c2 + a.l2*a.l2)
	m22 := a.m2 * a.l2 * a.l2
	det := m11*m22 - m12*m12
	if math.Abs(det) < 1e-12 {
		return nil, errors.New("inertia matrix is singular")
	}
	minv := mat.NewDense(2, 2, []float64{m22 / det, -m12 / det, -m12 / det, m11 / det})

	h := a.m2 * a.l1 * a.l2 * s2
	coriolis := []float64{-h * (2*qd1*qd2 + qd2*qd2), h * qd1 * qd1}
	gravity := []float64{
		(a.m1+a.m2)*a.l1*a.gravity*c1 + a.m2*a.l2*a.gravity*c12,
		a.m2 * a.l2 * a.gravity * c12,
	}

	// d/dt(J)·qd for the tip position; the angular rows are constant.
	w1 := qd1
	w12 := qd1 + qd2
	jdotQdot := spatialmath.Twist{
		Linear: r3.Vector{
			X: -a.l1*c1*w1*w1 - a.l2*c12*w12*w12,
			Y: -a.l1*s1*w1*w1 - a.l2*s12*w12*w12,
		},
	}

	return &Snapshot{
		Pose:           pose,
		Twist:          twist,
		Jacobian:       jac,
		InertiaInverse: minv,
		Coriolis:       coriolis,
		Gravity:        gravity,
		JdotQdot:       jdotQdot,
	}, nil
}

package control

import (
	"context"

	"github.com/edaniels/golog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/meca-lab/cartopt/dynamics"
	"github.com/meca-lab/cartopt/qp"
	"github.com/meca-lab/cartopt/spatialmath"
	"github.com/meca-lab/cartopt/trajectory"
)

// Controller computes joint torques tracking a Cartesian trajectory through
// a QP over the robot's inverse dynamics. It is driven at a fixed rate by
// Loop; Tick is not safe for concurrent use.
type Controller struct {
	cfg     Config
	model   dynamics.Model
	manager *qp.Manager
	logger  golog.Logger

	kp, kd spatialmath.Twist
	lower  []float64
	upper  []float64

	hasFirstCommand bool
	desired         trajectory.Point
}

// NewController returns a controller for the given model, solving its QPs
// with the given solver.
func NewController(cfg Config, model dynamics.Model, solver qp.Solver, logger golog.Logger) (*Controller, error) {
	if err := cfg.Validate(model.DOF()); err != nil {
		return nil, err
	}
	lower, upper := cfg.bounds()
	return &Controller{
		cfg:     cfg,
		model:   model,
		manager: qp.NewManager(solver, logger),
		logger:  logger,
		kp:      spatialmath.NewTwistFromSlice(cfg.PGain),
		kd:      spatialmath.NewTwistFromSlice(cfg.DGain),
		lower:   lower,
		upper:   upper,
	}, nil
}

// Tick runs one control cycle. A nil state skips the tick entirely and
// returns a nil torque slice, which callers must not publish; this guards
// against acting on missing state during startup. A nil desired point settles
// at the previously adopted pose with zero desired twist, or holds the current
// pose if no point has ever arrived. QP failures are absorbed into the
// zero-torque fallback.
func (c *Controller) Tick(ctx context.Context, state *dynamics.State, desired *trajectory.Point) ([]float64, error) {
	if state == nil {
		return nil, nil
	}
	snap, err := c.model.Snapshot(state, c.cfg.TrackedFrame)
	if err != nil {
		return nil, err
	}

	switch {
	case desired != nil:
		c.desired = *desired
		c.hasFirstCommand = true
	case c.hasFirstCommand:
		// No fresh point this tick: only the pose persists. Zeroing the
		// desired twist and acceleration makes an interrupted motion settle
		// at the last commanded pose instead of chasing a stale velocity.
		c.desired.Velocity = spatialmath.ZeroTwist()
		c.desired.Acceleration = spatialmath.ZeroTwist()
	default:
		// Hold in place until the first trajectory point arrives.
		c.desired = trajectory.Point{Pose: snap.Pose}
		c.hasFirstCommand = true
	}

	xErr := spatialmath.PoseDiff(snap.Pose, c.desired.Pose)
	xdErr := c.desired.Velocity.Sub(snap.Twist)
	xddDes := c.desired.Acceleration.
		Add(xErr.MulElem(c.kp)).
		Add(xdErr.MulElem(c.kd))

	problem := c.reduce(snap, xddDes)
	torque := make([]float64, c.model.DOF())
	sol, err := c.manager.Solve(problem)
	if err != nil {
		c.logger.Debugw("qp solve failed, commanding zero torque", "error", err)
		return torque, nil
	}
	// The actuators compensate gravity themselves; sending it again would
	// double-apply it.
	for i := range torque {
		torque[i] = sol[i] - snap.Gravity[i]
	}
	return torque, nil
}

// reduce forms the QP cost from the dynamics snapshot and the desired
// Cartesian acceleration. With a = J·Minv and
// b = J̇q̇ − a(coriolis+gravity) − ẍ_des, minimizing ‖aτ + b‖² tracks the
// desired acceleration, so H = 2aᵀa and g = 2aᵀb.
func (c *Controller) reduce(snap *dynamics.Snapshot, xddDes spatialmath.Twist) *qp.Problem {
	n := c.model.DOF()

	var a mat.Dense
	a.Mul(snap.Jacobian, snap.InertiaInverse)

	bias := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		bias.SetVec(i, snap.Coriolis[i]+snap.Gravity[i])
	}
	var aBias mat.VecDense
	aBias.MulVec(&a, bias)

	jdotQdot := snap.JdotQdot.Slice()
	xdd := xddDes.Slice()
	b := mat.NewVecDense(6, nil)
	for i := 0; i < 6; i++ {
		b.SetVec(i, jdotQdot[i]-aBias.AtVec(i)-xdd[i])
	}

	var ata mat.Dense
	ata.Mul(a.T(), &a)
	hessian := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := 2 * ata.At(i, j)
			if i == j {
				v += c.cfg.Regularization
			}
			hessian.SetSym(i, j, v)
		}
	}

	var atb mat.VecDense
	atb.MulVec(a.T(), b)
	gradient := make([]float64, n)
	copy(gradient, atb.RawVector().Data)
	floats.Scale(2, gradient)

	return &qp.Problem{
		Hessian:  hessian,
		Gradient: gradient,
		Lower:    c.lower,
		Upper:    c.upper,
	}
}

// SolverInitialized reports whether the QP manager has completed a cold
// start.
func (c *Controller) SolverInitialized() bool {
	return c.manager.Initialized()
}

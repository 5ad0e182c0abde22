// Command cartsim runs the Cartesian torque controller against a simulated
// two-link planar arm: it generates a rounded waypoint trajectory, tracks it
// with the QP controller at a fixed rate, and reports the final tip error.
package main

import (
	"context"
	"sync"
	"time"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/meca-lab/cartopt/control"
	"github.com/meca-lab/cartopt/dynamics"
	"github.com/meca-lab/cartopt/qp"
	"github.com/meca-lab/cartopt/referenceframe"
	"github.com/meca-lab/cartopt/spatialmath"
	"github.com/meca-lab/cartopt/trajectory"
)

var logger = golog.NewDevelopmentLogger("cartsim")

func main() {
	goutils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	Frequency float64 `flag:"freq,usage=control rate in Hz"`
	StepX     float64 `flag:"dx,usage=commanded tip displacement in x (m)"`
	StepY     float64 `flag:"dy,usage=commanded tip displacement in y (m)"`
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	var argsParsed Arguments
	if err := goutils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}
	if argsParsed.Frequency == 0 {
		argsParsed.Frequency = 100
	}
	if argsParsed.StepX == 0 && argsParsed.StepY == 0 {
		argsParsed.StepX = 0.05
		argsParsed.StepY = -0.03
	}
	return runSim(ctx, argsParsed)
}

func runSim(ctx context.Context, args Arguments) error {
	arm, err := dynamics.NewPlanarArm("tool0", 0.4, 0.3, 1.2, 0.8)
	if err != nil {
		return err
	}
	sim, err := newSimArm(arm, []float64{0.3, 0.5}, args.Frequency)
	if err != nil {
		return err
	}

	transformer := referenceframe.NewStaticTransformer("world", map[string]spatialmath.Pose{
		"base_link": spatialmath.NewZeroPose(),
	})
	gen, err := trajectory.NewGenerator(trajectory.DefaultGeneratorConfig(), transformer, &pathLogger{logger}, logger)
	if err != nil {
		return err
	}
	runner, err := trajectory.NewRunner(gen, 1/args.Frequency, logger)
	if err != nil {
		return err
	}

	ctrlCfg := control.DefaultConfig()
	ctrlCfg.Frequency = args.Frequency
	ctrlCfg.TorqueLimits = []float64{60, 60}
	controller, err := control.NewController(ctrlCfg, arm, qp.NewBoxSolver(), logger)
	if err != nil {
		return err
	}

	loop, err := control.NewLoop(controller, runner, sim, sim, nil, nil, logger)
	if err != nil {
		return err
	}
	if err := loop.Start(); err != nil {
		return err
	}
	defer loop.Stop()

	start, err := sim.tipPose()
	if err != nil {
		return err
	}
	target := start
	target.Point = target.Point.Add(r3.Vector{X: args.StepX, Y: args.StepY})
	waypoints := []trajectory.Waypoint{
		{Pose: start, Frame: "world"},
		{Pose: target, Frame: "world"},
	}
	logger.Infow("following waypoints", "from", start.Point, "to", target.Point)

	followErr := runner.FollowWaypoints(ctx, waypoints)

	// Let the controller settle on the terminal hold pose before measuring.
	goutils.SelectContextOrWait(ctx, time.Second)
	final, tipErr := sim.tipPose()
	if tipErr == nil {
		diff := spatialmath.PoseDiff(final, target)
		logger.Infow("finished", "tip", final.Point, "error_m", diff.Linear.Norm())
	}
	return multierr.Combine(followErr, tipErr)
}

// simArm integrates the planar arm forward under the commanded torques. The
// actuators compensate gravity themselves, matching what the controller's
// gravity correction assumes.
type simArm struct {
	model *dynamics.PlanarArm
	dt    float64

	mu sync.Mutex
	q  []float64
	qd []float64
}

func newSimArm(model *dynamics.PlanarArm, q0 []float64, frequency float64) (*simArm, error) {
	if frequency <= 0 {
		return nil, errors.Errorf("simulation frequency must be positive, got %f", frequency)
	}
	return &simArm{
		model: model,
		dt:    1 / frequency,
		q:     append([]float64(nil), q0...),
		qd:    make([]float64, len(q0)),
	}, nil
}

// State implements control.StateSource.
func (s *simArm) State(ctx context.Context) (*dynamics.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &dynamics.State{
		Positions:  append([]float64(nil), s.q...),
		Velocities: append([]float64(nil), s.qd...),
	}, nil
}

// WriteTorques implements control.TorqueWriter by stepping the arm dynamics
// once with semi-implicit Euler.
func (s *simArm) WriteTorques(ctx context.Context, torques []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, err := s.model.Snapshot(&dynamics.State{Positions: s.q, Velocities: s.qd}, "tool0")
	if err != nil {
		return err
	}
	n := len(s.q)
	for i := 0; i < n; i++ {
		var qdd float64
		for j := 0; j < n; j++ {
			qdd += snap.InertiaInverse.At(i, j) * (torques[j] - snap.Coriolis[j])
		}
		s.qd[i] += qdd * s.dt
	}
	for i := 0; i < n; i++ {
		s.q[i] += s.qd[i] * s.dt
	}
	return nil
}

func (s *simArm) tipPose() (spatialmath.Pose, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, err := s.model.Snapshot(&dynamics.State{Positions: s.q, Velocities: s.qd}, "tool0")
	if err != nil {
		return spatialmath.Pose{}, err
	}
	return snap.Pose, nil
}

// pathLogger logs the diagnostic polyline of each generated trajectory.
type pathLogger struct {
	logger golog.Logger
}

func (p *pathLogger) ObservePath(ctx context.Context, poses []spatialmath.Pose) {
	if len(poses) == 0 {
		return
	}
	p.logger.Debugw("trajectory resampled",
		"samples", len(poses),
		"start", poses[0].Point,
		"end", poses[len(poses)-1].Point,
	)
}

package control

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/meca-lab/cartopt/dynamics"
	"github.com/meca-lab/cartopt/trajectory"
)

// StateSource provides the robot's joint state each tick. Returning a nil
// state with a nil error means no data is available yet, which is expected
// during startup and skips the tick.
type StateSource interface {
	State(ctx context.Context) (*dynamics.State, error)
}

// TorqueWriter receives the joint torque command computed each tick.
type TorqueWriter interface {
	WriteTorques(ctx context.Context, torques []float64) error
}

// PointWriter receives the trajectory point sampled each tick while a
// trajectory is active.
type PointWriter interface {
	WritePoint(ctx context.Context, pt trajectory.Point) error
}

// Loop drives the trajectory sampler and the controller at a fixed rate. The
// loop goroutine is the sole caller of Runner.Tick and Controller.Tick, so
// elapsed-time and controller state need no further coordination; trajectory
// generation runs on its callers' goroutines and hands trajectories over
// atomically.
type Loop struct {
	controller *Controller
	runner     *trajectory.Runner
	source     StateSource
	torques    TorqueWriter
	points     PointWriter // optional
	clock      clock.Clock
	dt         time.Duration
	logger     golog.Logger

	mu                      sync.Mutex
	running                 bool
	cancelCtx               context.Context
	cancel                  context.CancelFunc
	activeBackgroundWorkers sync.WaitGroup
}

// NewLoop wires a controller, a trajectory runner, and the robot's state and
// torque ports into a periodic control loop. A nil PointWriter disables
// point publication; a nil clock uses the wall clock.
func NewLoop(
	controller *Controller,
	runner *trajectory.Runner,
	source StateSource,
	torques TorqueWriter,
	points PointWriter,
	clk clock.Clock,
	logger golog.Logger,
) (*Loop, error) {
	if source == nil {
		return nil, errors.New("loop needs a state source")
	}
	if torques == nil {
		return nil, errors.New("loop needs a torque writer")
	}
	if clk == nil {
		clk = clock.New()
	}
	freq := controller.cfg.Frequency
	cancelCtx, cancel := context.WithCancel(context.Background())
	return &Loop{
		controller: controller,
		runner:     runner,
		source:     source,
		torques:    torques,
		points:     points,
		clock:      clk,
		dt:         time.Duration(float64(time.Second) / freq),
		logger:     logger,
		cancelCtx:  cancelCtx,
		cancel:     cancel,
	}, nil
}

// Start launches the periodic control cycle.
func (l *Loop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return errors.New("control loop already running")
	}
	l.logger.Infow("starting control loop", "period", l.dt)
	ticker := l.clock.Ticker(l.dt)
	l.activeBackgroundWorkers.Add(1)
	utils.ManagedGo(func() {
		defer ticker.Stop()
		for {
			select {
			case <-l.cancelCtx.Done():
				return
			case <-ticker.C:
				l.tick(l.cancelCtx)
			}
		}
	}, l.activeBackgroundWorkers.Done)
	l.running = true
	return nil
}

// tick runs one control cycle. Each tick either completes fully or is
// skipped outright; there is no per-tick cancellation.
func (l *Loop) tick(ctx context.Context) {
	state, err := l.source.State(ctx)
	if err != nil {
		l.logger.Debugw("state read failed, skipping tick", "error", err)
		return
	}
	if state == nil {
		// No joint state yet; expected during startup.
		return
	}

	var desired *trajectory.Point
	if pt, ok := l.runner.Tick(ctx); ok {
		desired = &pt
		if l.points != nil {
			if err := l.points.WritePoint(ctx, pt); err != nil {
				l.logger.Debugw("point write failed", "error", err)
			}
		}
	}

	torque, err := l.controller.Tick(ctx, state, desired)
	if err != nil {
		l.logger.Warnw("control tick failed", "error", err)
		return
	}
	if torque == nil {
		return
	}
	if err := l.torques.WriteTorques(ctx, torque); err != nil {
		l.logger.Debugw("torque write failed", "error", err)
	}
}

// Stop halts the periodic cycle and waits for the loop goroutine to exit.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		return
	}
	l.logger.Debug("stopping control loop")
	l.cancel()
	l.activeBackgroundWorkers.Wait()
	l.running = false
}

package trajectory

import (
	"context"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

// ErrAborted is returned by FollowWaypoints when the caller's context is
// canceled before the trajectory finishes, distinguishing an intentional
// abort from a generation failure.
var ErrAborted = errors.New("trajectory aborted")

// installed is one generated trajectory together with its sampling state. The
// elapsed counter is written only from Tick; the finished flag and completion
// channel hand exhaustion back to the blocked FollowWaypoints caller.
type installed struct {
	traj     *Composite
	elapsed  float64
	finished *atomic.Bool
	done     chan struct{}
}

func (in *installed) finish() {
	if in.finished.CompareAndSwap(false, true) {
		close(in.done)
	}
}

// Runner owns the installed trajectory and samples it at the control rate. A
// new trajectory is published with an atomic swap, so generation may run on a
// different goroutine than the periodic Tick; elapsed time is mutated only by
// Tick. FollowWaypoints blocks for the whole trajectory duration and must not
// be called from the goroutine driving Tick.
type Runner struct {
	gen    *Generator
	period float64
	logger golog.Logger
	active atomic.Pointer[installed]
}

// NewRunner returns a runner sampling generated trajectories with the given
// control period.
func NewRunner(gen *Generator, period float64, logger golog.Logger) (*Runner, error) {
	if period <= 0 {
		return nil, errors.Errorf("control period must be positive, got %f", period)
	}
	r := &Runner{gen: gen, period: period, logger: logger}
	return r, nil
}

// FollowWaypoints generates a trajectory through the waypoints, installs it,
// and blocks until it is exhausted by the periodic sampler or ctx is
// canceled. Cancellation forces the trajectory into its exhausted state and
// returns an error wrapping ErrAborted. A transform failure leaves any
// previously installed trajectory untouched; a geometry failure clears it.
func (r *Runner) FollowWaypoints(ctx context.Context, waypoints []Waypoint) error {
	traj, err := r.gen.Compute(ctx, waypoints)
	if err != nil {
		if errors.Is(err, ErrNotFeasible) {
			// A failed regeneration leaves the controller without an active
			// trajectory.
			if prev := r.active.Swap(nil); prev != nil {
				prev.finish()
			}
		}
		return err
	}

	in := &installed{traj: traj, finished: atomic.NewBool(false), done: make(chan struct{})}
	if prev := r.active.Swap(in); prev != nil {
		prev.finish()
	}
	r.logger.Infow("trajectory installed", "duration", traj.Duration())

	select {
	case <-in.done:
		return nil
	case <-ctx.Done():
		if r.active.CompareAndSwap(in, nil) {
			in.finish()
		}
		return errors.Wrap(ErrAborted, ctx.Err().Error())
	}
}

// Tick samples the installed trajectory at the current elapsed time and
// advances the clock by one control period. The second return value is false
// while no trajectory is active; reaching the duration exhausts the
// trajectory and resets elapsed time to zero.
func (r *Runner) Tick(ctx context.Context) (Point, bool) {
	in := r.active.Load()
	if in == nil || in.finished.Load() {
		return Point{}, false
	}
	if in.elapsed < in.traj.Duration() {
		t := in.elapsed
		pt := Point{
			Pose:         in.traj.Pos(t),
			Velocity:     in.traj.Vel(t),
			Acceleration: in.traj.Acc(t),
		}
		in.elapsed += r.period
		return pt, true
	}
	in.elapsed = 0
	r.active.CompareAndSwap(in, nil)
	in.finish()
	return Point{}, false
}

// Active reports whether a trajectory is currently installed and unfinished.
func (r *Runner) Active() bool {
	in := r.active.Load()
	return in != nil && !in.finished.Load()
}

package trajectory

import (
	"context"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/meca-lab/cartopt/referenceframe"
	"github.com/meca-lab/cartopt/spatialmath"
)

const (
	// duplicateTwistThreshold is the per-component twist magnitude below
	// which two consecutive waypoints are considered the same pose.
	duplicateTwistThreshold = 0.01
	// terminalHoldDuration is the stationary hold appended after every
	// generated motion so the consumer always has a terminal state to
	// settle at.
	terminalHoldDuration = 0.5
	// diagnosticSampleStep is the resampling step for the monitoring
	// polyline published after a successful generation.
	diagnosticSampleStep = 0.1
)

// GeneratorConfig holds the tunables of trajectory generation.
type GeneratorConfig struct {
	// BaseFrame is the reference frame every waypoint is re-expressed in.
	BaseFrame string `json:"base_frame"`
	// MaxVelocity bounds the along-path Cartesian velocity.
	MaxVelocity float64 `json:"vel_max"`
	// MaxAcceleration bounds the along-path Cartesian acceleration.
	MaxAcceleration float64 `json:"acc_max"`
	// Radius is the corner rounding radius.
	Radius float64 `json:"radius"`
	// EquivalentRadius balances translation against rotation when measuring
	// path length.
	EquivalentRadius float64 `json:"eqradius"`
}

// DefaultGeneratorConfig returns the stock generation tunables.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		BaseFrame:        "base_link",
		MaxVelocity:      0.1,
		MaxAcceleration:  2.0,
		Radius:           0.01,
		EquivalentRadius: 0.05,
	}
}

// Validate checks the config for usable values.
func (cfg GeneratorConfig) Validate() error {
	if cfg.BaseFrame == "" {
		return errors.New("base_frame must be set")
	}
	if cfg.MaxVelocity <= 0 {
		return errors.Errorf("vel_max must be positive, got %f", cfg.MaxVelocity)
	}
	if cfg.MaxAcceleration <= 0 {
		return errors.Errorf("acc_max must be positive, got %f", cfg.MaxAcceleration)
	}
	if cfg.Radius <= 0 {
		return errors.Errorf("radius must be positive, got %f", cfg.Radius)
	}
	if cfg.EquivalentRadius <= 0 {
		return errors.Errorf("eqradius must be positive, got %f", cfg.EquivalentRadius)
	}
	return nil
}

// Waypoint is a desired end-effector pose expressed in an arbitrary named
// frame. An empty frame means the pose is already in the base frame.
type Waypoint struct {
	Pose  spatialmath.Pose
	Frame string
}

// PathObserver receives the densely resampled polyline of a freshly generated
// trajectory. It is diagnostic only and carries no control authority.
type PathObserver interface {
	ObservePath(ctx context.Context, poses []spatialmath.Pose)
}

// Generator builds composite trajectories from waypoint lists.
type Generator struct {
	cfg         GeneratorConfig
	transformer referenceframe.Transformer
	observer    PathObserver
	logger      golog.Logger
}

// NewGenerator returns a generator using the given transformer to re-express
// waypoints in the base frame. The transformer may be nil when all waypoints
// arrive in the base frame already; the observer may be nil.
func NewGenerator(
	cfg GeneratorConfig,
	transformer referenceframe.Transformer,
	observer PathObserver,
	logger golog.Logger,
) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Generator{cfg: cfg, transformer: transformer, observer: observer, logger: logger}, nil
}

// Compute transforms, filters, and assembles the waypoints into a composite
// trajectory ending with a fixed stationary hold. A transform failure aborts
// before any geometry is built; a geometry failure aborts with an error
// wrapping ErrNotFeasible. No partial trajectory is ever returned.
func (g *Generator) Compute(ctx context.Context, waypoints []Waypoint) (*Composite, error) {
	if len(waypoints) == 0 {
		return nil, errors.New("no waypoints given")
	}

	poses, err := g.transformWaypoints(ctx, waypoints)
	if err != nil {
		return nil, err
	}
	kept := g.filterDuplicates(poses)
	// The terminal hold sits at the last received pose, whether or not the
	// duplicate filter kept it.
	last := poses[len(poses)-1]

	var segment Trajectory
	if len(kept) >= 2 {
		path, err := g.buildPath(kept)
		if err != nil {
			return nil, err
		}
		profile, err := NewTrapezoidalProfile(g.cfg.MaxVelocity, g.cfg.MaxAcceleration, 0, path.Length())
		if err != nil {
			return nil, err
		}
		segment = NewSegment(path, profile)
	} else {
		profile, err := NewTrapezoidalProfile(g.cfg.MaxVelocity, g.cfg.MaxAcceleration, 0, 0)
		if err != nil {
			return nil, err
		}
		segment = NewSegment(NewPointPath(last), profile)
	}

	traj := NewComposite(segment, NewStationary(last, terminalHoldDuration))
	g.publishDiagnostics(ctx, traj)
	return traj, nil
}

func (g *Generator) transformWaypoints(ctx context.Context, waypoints []Waypoint) ([]spatialmath.Pose, error) {
	poses := make([]spatialmath.Pose, 0, len(waypoints))
	for i, wp := range waypoints {
		if wp.Frame == "" || wp.Frame == g.cfg.BaseFrame {
			poses = append(poses, wp.Pose)
			continue
		}
		if g.transformer == nil {
			return nil, errors.Errorf("waypoint %d is in frame %q but no transformer is available", i, wp.Frame)
		}
		pose, err := g.transformer.TransformPose(ctx, wp.Pose, wp.Frame, g.cfg.BaseFrame)
		if err != nil {
			return nil, errors.Wrapf(err, "transforming waypoint %d to frame %q", i, g.cfg.BaseFrame)
		}
		poses = append(poses, pose)
	}
	return poses, nil
}

// filterDuplicates keeps the first pose and drops every pose whose twist
// difference to the last kept pose is below the threshold on all six
// components.
func (g *Generator) filterDuplicates(poses []spatialmath.Pose) []spatialmath.Pose {
	kept := make([]spatialmath.Pose, 0, len(poses))
	for i, pose := range poses {
		if i > 0 {
			delta := spatialmath.PoseDiff(kept[len(kept)-1], pose)
			if delta.AllBelow(duplicateTwistThreshold) {
				g.logger.Warnw("skipping near-duplicate waypoint", "index", i)
				continue
			}
		}
		kept = append(kept, pose)
	}
	return kept
}

func (g *Generator) buildPath(poses []spatialmath.Pose) (Path, error) {
	rc, err := NewRoundedComposite(g.cfg.Radius, g.cfg.EquivalentRadius)
	if err != nil {
		return nil, err
	}
	for _, pose := range poses {
		if err := rc.Add(pose); err != nil {
			return nil, err
		}
	}
	return rc.Finish()
}

func (g *Generator) publishDiagnostics(ctx context.Context, traj *Composite) {
	if g.observer == nil {
		return
	}
	samples := int((traj.Duration()+1e-9)/diagnosticSampleStep) + 1
	poses := make([]spatialmath.Pose, 0, samples)
	for i := 0; i < samples; i++ {
		poses = append(poses, traj.Pos(float64(i)*diagnosticSampleStep))
	}
	g.observer.ObservePath(ctx, poses)
}

// Package control implements the Cartesian torque controller: every control
// tick it turns the desired trajectory point and the live joint state into a
// bound-constrained QP over joint torques and publishes the solution.
package control

import (
	"github.com/pkg/errors"
)

// Config holds the controller tunables.
type Config struct {
	// TrackedFrame names the end-effector frame the controller tracks.
	TrackedFrame string `json:"tracked_frame"`
	// Frequency is the control rate in Hz.
	Frequency float64 `json:"frequency_hz"`
	// PGain and DGain are the per-Cartesian-DOF proportional and derivative
	// gains, 3 translational followed by 3 rotational entries.
	PGain []float64 `json:"p_gain"`
	DGain []float64 `json:"d_gain"`
	// TorqueLimits are the per-joint torque magnitudes; the lower bound of
	// each joint is the negated limit unless TorqueLowerLimits is set.
	TorqueLimits []float64 `json:"torque_limits"`
	// TorqueLowerLimits optionally overrides the symmetric lower bounds.
	TorqueLowerLimits []float64 `json:"torque_lower_limits,omitempty"`
	// Regularization is added to the cost Hessian's diagonal. Zero leaves
	// the plain least-squares objective.
	Regularization float64 `json:"regularization"`
}

// DefaultConfig returns gains and limits matching a stiff seven-joint arm.
func DefaultConfig() Config {
	return Config{
		TrackedFrame: "tool0",
		Frequency:    100,
		PGain:        []float64{1000, 1000, 1000, 300, 300, 300},
		DGain:        []float64{50, 50, 50, 10, 10, 10},
		TorqueLimits: []float64{200, 200, 100, 100, 100, 30, 30},
	}
}

// Validate checks the config against the given robot DOF.
func (cfg Config) Validate(dof int) error {
	if cfg.TrackedFrame == "" {
		return errors.New("tracked_frame must be set")
	}
	if cfg.Frequency <= 0 {
		return errors.Errorf("frequency_hz must be positive, got %f", cfg.Frequency)
	}
	if len(cfg.PGain) != 6 || len(cfg.DGain) != 6 {
		return errors.Errorf("p_gain and d_gain need 6 entries, got %d and %d", len(cfg.PGain), len(cfg.DGain))
	}
	if len(cfg.TorqueLimits) != dof {
		return errors.Errorf("torque_limits needs %d entries, got %d", dof, len(cfg.TorqueLimits))
	}
	for i, lim := range cfg.TorqueLimits {
		if lim <= 0 {
			return errors.Errorf("torque limit %d must be positive, got %f", i, lim)
		}
	}
	if cfg.TorqueLowerLimits != nil {
		if len(cfg.TorqueLowerLimits) != dof {
			return errors.Errorf("torque_lower_limits needs %d entries, got %d", dof, len(cfg.TorqueLowerLimits))
		}
		for i, lim := range cfg.TorqueLowerLimits {
			if lim > 0 {
				return errors.Errorf("torque lower limit %d must not be positive, got %f", i, lim)
			}
		}
	}
	if cfg.Regularization < 0 {
		return errors.Errorf("regularization must not be negative, got %f", cfg.Regularization)
	}
	return nil
}

// bounds returns the per-joint torque bounds, symmetric unless overridden.
func (cfg Config) bounds() (lower, upper []float64) {
	upper = append([]float64(nil), cfg.TorqueLimits...)
	lower = make([]float64, len(upper))
	for i := range upper {
		lower[i] = -upper[i]
	}
	if cfg.TorqueLowerLimits != nil {
		copy(lower, cfg.TorqueLowerLimits)
	}
	return lower, upper
}

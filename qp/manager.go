package qp

import (
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
)

// DefaultMaxWorkingSetChanges bounds the active-set iterations allowed per
// solve.
const DefaultMaxWorkingSetChanges = 1000

// Solver is a black-box bound-constrained QP routine with hot-start
// capability. Init performs a cold solve from scratch; HotStart reuses
// whatever internal state the solver retained from the previous call to
// converge faster on a similar problem.
type Solver interface {
	Init(p *Problem, maxWSR int) ([]float64, error)
	HotStart(p *Problem, maxWSR int) ([]float64, error)
}

// Manager drives a persistent solver across control ticks. It cold-starts
// until the first successful solve, then always hot-starts; a hot-start
// failure is tick-local and never drops the manager back to cold starts.
type Manager struct {
	solver      Solver
	maxWSR      int
	initialized bool
	logger      golog.Logger
}

// NewManager returns a manager around the given solver with the default
// iteration budget.
func NewManager(solver Solver, logger golog.Logger) *Manager {
	return &Manager{solver: solver, maxWSR: DefaultMaxWorkingSetChanges, logger: logger}
}

// Solve runs the problem through the solver and returns the primal solution.
// Callers treat any error as "no torque this tick" and fall back to zero.
func (m *Manager) Solve(p *Problem) ([]float64, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if !m.initialized {
		sol, err := m.solver.Init(p, m.maxWSR)
		if err != nil {
			return nil, errors.Wrap(err, "qp cold start failed")
		}
		m.initialized = true
		return sol, nil
	}
	sol, err := m.solver.HotStart(p, m.maxWSR)
	if err != nil {
		return nil, errors.Wrap(err, "qp hot start failed")
	}
	return sol, nil
}

// Initialized reports whether a cold start has ever succeeded.
func (m *Manager) Initialized() bool {
	return m.initialized
}

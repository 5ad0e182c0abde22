package qp

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const kktTolerance = 1e-8

// BoxSolver is a dense primal active-set solver for bound-constrained QPs.
// The cost Hessians produced by the torque reduction have rank at most six,
// so every factorization is Tikhonov-regularized, mirroring how the
// production solver is run with regularization enabled. The working set and
// primal point persist across calls, which is what makes HotStart cheap when
// consecutive problems are similar.
type BoxSolver struct {
	reg    float64
	x      []float64
	active []int8 // -1 at lower bound, +1 at upper bound, 0 free
}

// NewBoxSolver returns a solver with the default regularization.
func NewBoxSolver() *BoxSolver {
	return &BoxSolver{reg: 1e-8}
}

// Init discards any retained state and solves from scratch.
func (s *BoxSolver) Init(p *Problem, maxWSR int) ([]float64, error) {
	s.x = nil
	s.active = nil
	return s.solve(p, maxWSR)
}

// HotStart solves starting from the working set and primal point retained
// from the previous call.
func (s *BoxSolver) HotStart(p *Problem, maxWSR int) ([]float64, error) {
	return s.solve(p, maxWSR)
}

// warmStart restores feasibility of the retained point under the new bounds,
// or starts from the clamped origin when no usable state exists.
func (s *BoxSolver) warmStart(p *Problem) {
	n := p.Dim()
	if len(s.x) != n {
		s.x = make([]float64, n)
		s.active = make([]int8, n)
		for i := 0; i < n; i++ {
			s.x[i], s.active[i] = clampToBound(0, p.Lower[i], p.Upper[i])
		}
		return
	}
	for i := 0; i < n; i++ {
		switch s.active[i] {
		case -1:
			s.x[i] = p.Lower[i]
		case 1:
			s.x[i] = p.Upper[i]
		default:
			s.x[i], s.active[i] = clampToBound(s.x[i], p.Lower[i], p.Upper[i])
		}
	}
}

func clampToBound(v, lo, hi float64) (float64, int8) {
	if v <= lo {
		return lo, -1
	}
	if v >= hi {
		return hi, 1
	}
	return v, 0
}

func (s *BoxSolver) solve(p *Problem, maxWSR int) ([]float64, error) {
	n := p.Dim()
	s.warmStart(p)

	for iter := 0; iter < maxWSR; iter++ {
		free := make([]int, 0, n)
		for i := 0; i < n; i++ {
			if s.active[i] == 0 {
				free = append(free, i)
			}
		}

		// Equality-constrained subproblem: minimize over the free variables
		// with the working set pinned at its bounds.
		xstar := make([]float64, n)
		copy(xstar, s.x)
		if len(free) > 0 {
			if err := s.solveFree(p, free, xstar); err != nil {
				return nil, err
			}
		}

		// Longest feasible step toward the subproblem solution.
		alpha := 1.0
		blockIdx := -1
		var blockSide int8
		for _, i := range free {
			d := xstar[i] - s.x[i]
			switch {
			case d > kktTolerance && s.x[i]+alpha*d > p.Upper[i]:
				if a := (p.Upper[i] - s.x[i]) / d; a < alpha {
					alpha, blockIdx, blockSide = a, i, 1
				}
			case d < -kktTolerance && s.x[i]+alpha*d < p.Lower[i]:
				if a := (p.Lower[i] - s.x[i]) / d; a < alpha {
					alpha, blockIdx, blockSide = a, i, -1
				}
			}
		}
		if blockIdx >= 0 {
			for _, i := range free {
				s.x[i] += alpha * (xstar[i] - s.x[i])
			}
			if blockSide == 1 {
				s.x[blockIdx] = p.Upper[blockIdx]
			} else {
				s.x[blockIdx] = p.Lower[blockIdx]
			}
			s.active[blockIdx] = blockSide
			continue
		}
		copy(s.x, xstar)

		// KKT check: release the bound with the worst multiplier violation.
		worst := -1
		worstViol := kktTolerance
		for i := 0; i < n; i++ {
			if s.active[i] == 0 {
				continue
			}
			gi := p.Gradient[i]
			for j := 0; j < n; j++ {
				gi += p.Hessian.At(i, j) * s.x[j]
			}
			if s.active[i] == -1 && -gi > worstViol {
				worst, worstViol = i, -gi
			}
			if s.active[i] == 1 && gi > worstViol {
				worst, worstViol = i, gi
			}
		}
		if worst >= 0 {
			s.active[worst] = 0
			continue
		}

		sol := make([]float64, n)
		copy(sol, s.x)
		return sol, nil
	}
	return nil, errors.Errorf("active-set iteration limit of %d reached", maxWSR)
}

// solveFree fills the free entries of xstar with the minimizer of the
// regularized equality-constrained subproblem.
func (s *BoxSolver) solveFree(p *Problem, free []int, xstar []float64) error {
	n := p.Dim()
	nf := len(free)
	hff := mat.NewSymDense(nf, nil)
	rhs := mat.NewVecDense(nf, nil)
	for a, i := range free {
		for b := a; b < nf; b++ {
			j := free[b]
			v := p.Hessian.At(i, j)
			if a == b {
				v += s.reg
			}
			hff.SetSym(a, b, v)
		}
		r := -p.Gradient[i]
		for j := 0; j < n; j++ {
			if s.active[j] != 0 {
				r -= p.Hessian.At(i, j) * s.x[j]
			}
		}
		rhs.SetVec(a, r)
	}

	var chol mat.Cholesky
	if !chol.Factorize(hff) {
		// The regularized Hessian should always be PD; bump once before
		// giving up in case of severe scaling.
		for a := 0; a < nf; a++ {
			hff.SetSym(a, a, hff.At(a, a)+s.reg*1e4)
		}
		if !chol.Factorize(hff) {
			return errors.New("hessian factorization failed")
		}
	}
	var sol mat.VecDense
	if err := chol.SolveVecTo(&sol, rhs); err != nil {
		return errors.Wrap(err, "solving reduced system")
	}
	for a, i := range free {
		xstar[i] = sol.AtVec(a)
	}
	return nil
}

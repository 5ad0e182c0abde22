// Package qp holds the quadratic program handed to the torque solver each
// control cycle and the solve manager driving an external solver with
// init-then-hotstart semantics.
package qp

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Problem is one tick's bound-constrained quadratic program
// min 0.5 xᵀHx + gᵀx subject to lower ≤ x ≤ upper. The Hessian is expected
// to be symmetric positive semi-definite; it is rebuilt every tick and never
// reused.
type Problem struct {
	Hessian  *mat.SymDense
	Gradient []float64
	Lower    []float64
	Upper    []float64
}

// Validate checks dimensions and that the bounds bracket zero, so the
// zero-torque fallback is always feasible.
func (p *Problem) Validate() error {
	if p.Hessian == nil {
		return errors.New("qp problem missing Hessian")
	}
	n := p.Hessian.SymmetricDim()
	if len(p.Gradient) != n || len(p.Lower) != n || len(p.Upper) != n {
		return errors.Errorf("qp problem dimension mismatch: H is %dx%d, g %d, lb %d, ub %d",
			n, n, len(p.Gradient), len(p.Lower), len(p.Upper))
	}
	for i := 0; i < n; i++ {
		if math.IsNaN(p.Gradient[i]) || math.IsInf(p.Gradient[i], 0) {
			return errors.Errorf("qp gradient entry %d is not finite", i)
		}
		if p.Lower[i] > p.Upper[i] {
			return errors.Errorf("qp bound %d is inverted: [%f, %f]", i, p.Lower[i], p.Upper[i])
		}
		if p.Lower[i] > 0 || p.Upper[i] < 0 {
			return errors.Errorf("qp bound %d does not bracket zero: [%f, %f]", i, p.Lower[i], p.Upper[i])
		}
	}
	return nil
}

// Dim returns the number of decision variables.
func (p *Problem) Dim() int {
	return len(p.Gradient)
}

// Package inject provides dependency-injected doubles for testing the
// control stack.
package inject

import (
	"context"

	"github.com/meca-lab/cartopt/dynamics"
	"github.com/meca-lab/cartopt/trajectory"
)

// Model is an injectable dynamics.Model.
type Model struct {
	DOFFunc      func() int
	SnapshotFunc func(state *dynamics.State, frame string) (*dynamics.Snapshot, error)
}

// DOF calls the injected function.
func (m *Model) DOF() int {
	return m.DOFFunc()
}

// Snapshot calls the injected function.
func (m *Model) Snapshot(state *dynamics.State, frame string) (*dynamics.Snapshot, error) {
	return m.SnapshotFunc(state, frame)
}

// StateSource is an injectable control.StateSource.
type StateSource struct {
	StateFunc func(ctx context.Context) (*dynamics.State, error)
}

// State calls the injected function.
func (s *StateSource) State(ctx context.Context) (*dynamics.State, error) {
	return s.StateFunc(ctx)
}

// TorqueWriter records every torque command it receives.
type TorqueWriter struct {
	WriteTorquesFunc func(ctx context.Context, torques []float64) error
}

// WriteTorques calls the injected function.
func (w *TorqueWriter) WriteTorques(ctx context.Context, torques []float64) error {
	return w.WriteTorquesFunc(ctx, torques)
}

// PointWriter is an injectable control.PointWriter.
type PointWriter struct {
	WritePointFunc func(ctx context.Context, pt trajectory.Point) error
}

// WritePoint calls the injected function.
func (w *PointWriter) WritePoint(ctx context.Context, pt trajectory.Point) error {
	return w.WritePointFunc(ctx, pt)
}

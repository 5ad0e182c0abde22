package trajectory

import (
	"testing"

	"go.viam.com/test"
)

func TestTrapezoidalProfileCruise(t *testing.T) {
	// 0.5 units at vel 0.1, acc 2.0: ramps take 0.05s over 0.0025 units each,
	// cruise covers the remaining 0.495 units in 4.95s.
	p, err := NewTrapezoidalProfile(0.1, 2.0, 0, 0.5)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Duration(), test.ShouldAlmostEqual, 5.05)

	test.That(t, p.Pos(0), test.ShouldAlmostEqual, 0)
	test.That(t, p.Pos(p.Duration()), test.ShouldAlmostEqual, 0.5)
	test.That(t, p.Pos(p.Duration()+1), test.ShouldAlmostEqual, 0.5)

	// Velocity never exceeds the bound and hits it mid-profile.
	mid := p.Duration() / 2
	test.That(t, p.Vel(mid), test.ShouldAlmostEqual, 0.1)
	for tt := 0.0; tt < p.Duration(); tt += 0.01 {
		test.That(t, p.Vel(tt), test.ShouldBeLessThanOrEqualTo, 0.1+1e-12)
	}

	// Position is monotonically non-decreasing.
	prev := p.Pos(0)
	for tt := 0.0; tt <= p.Duration(); tt += 0.01 {
		cur := p.Pos(tt)
		test.That(t, cur, test.ShouldBeGreaterThanOrEqualTo, prev-1e-12)
		prev = cur
	}
}

func TestTrapezoidalProfileTriangle(t *testing.T) {
	// Too short to reach cruise speed: 0.001 units at vel 0.1, acc 2.0.
	p, err := NewTrapezoidalProfile(0.1, 2.0, 0, 0.001)
	test.That(t, err, test.ShouldBeNil)
	peak := p.Vel(p.Duration() / 2)
	test.That(t, peak, test.ShouldBeLessThan, 0.1)
	test.That(t, peak, test.ShouldBeGreaterThan, 0)
	test.That(t, p.Pos(p.Duration()), test.ShouldAlmostEqual, 0.001)
}

func TestTrapezoidalProfileZeroLength(t *testing.T) {
	p, err := NewTrapezoidalProfile(0.1, 2.0, 0, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Duration(), test.ShouldEqual, 0)
	test.That(t, p.Pos(0.3), test.ShouldEqual, 0)
	test.That(t, p.Vel(0.3), test.ShouldEqual, 0)
}

func TestTrapezoidalProfileBackward(t *testing.T) {
	p, err := NewTrapezoidalProfile(1.0, 1.0, 2, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Pos(0), test.ShouldAlmostEqual, 2)
	test.That(t, p.Pos(p.Duration()), test.ShouldAlmostEqual, 0)
	test.That(t, p.Vel(p.Duration()/2), test.ShouldBeLessThan, 0)
}

func TestTrapezoidalProfileInvalid(t *testing.T) {
	_, err := NewTrapezoidalProfile(0, 2.0, 0, 1)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewTrapezoidalProfile(0.1, -1, 0, 1)
	test.That(t, err, test.ShouldNotBeNil)
}

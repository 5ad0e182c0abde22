package trajectory

import (
	"math"

	"github.com/pkg/errors"
)

// Profile maps time to progress along an arclength interval.
type Profile interface {
	// Duration returns the total traversal time.
	Duration() float64
	// Pos returns the arclength at time t.
	Pos(t float64) float64
	// Vel returns the along-path velocity at time t.
	Vel(t float64) float64
	// Acc returns the along-path acceleration at time t.
	Acc(t float64) float64
}

// TrapezoidalProfile ramps up at the maximum acceleration, cruises at the
// maximum velocity, and ramps back down. When the distance is too short to
// reach cruise speed the profile collapses to a triangle.
type TrapezoidalProfile struct {
	maxVel float64
	maxAcc float64

	start    float64
	end      float64
	dir      float64 // +1 or -1
	peakVel  float64
	rampTime float64 // end of the acceleration phase
	decTime  float64 // start of the deceleration phase
	duration float64
}

// NewTrapezoidalProfile returns a profile bounded by the given maximum
// velocity and acceleration, spanning the interval [start, end].
func NewTrapezoidalProfile(maxVel, maxAcc, start, end float64) (*TrapezoidalProfile, error) {
	if maxVel <= 0 {
		return nil, errors.Errorf("max velocity must be positive, got %f", maxVel)
	}
	if maxAcc <= 0 {
		return nil, errors.Errorf("max acceleration must be positive, got %f", maxAcc)
	}
	p := &TrapezoidalProfile{maxVel: maxVel, maxAcc: maxAcc}
	p.setProfile(start, end)
	return p, nil
}

func (p *TrapezoidalProfile) setProfile(start, end float64) {
	p.start = start
	p.end = end
	p.dir = 1
	if end < start {
		p.dir = -1
	}
	dist := math.Abs(end - start)
	if dist == 0 {
		p.peakVel, p.rampTime, p.decTime, p.duration = 0, 0, 0, 0
		return
	}
	rampTime := p.maxVel / p.maxAcc
	rampDist := 0.5 * p.maxAcc * rampTime * rampTime
	if 2*rampDist >= dist {
		// Triangular: cruise speed is never reached.
		p.rampTime = math.Sqrt(dist / p.maxAcc)
		p.peakVel = p.maxAcc * p.rampTime
		p.decTime = p.rampTime
		p.duration = 2 * p.rampTime
		return
	}
	p.rampTime = rampTime
	p.peakVel = p.maxVel
	p.decTime = rampTime + (dist-2*rampDist)/p.maxVel
	p.duration = p.decTime + rampTime
}

// Duration returns the total traversal time.
func (p *TrapezoidalProfile) Duration() float64 { return p.duration }

// Pos returns the arclength at time t, clamped to the profile's interval.
func (p *TrapezoidalProfile) Pos(t float64) float64 {
	switch {
	case t <= 0:
		return p.start
	case t < p.rampTime:
		return p.start + p.dir*0.5*p.maxAcc*t*t
	case t < p.decTime:
		ramp := 0.5 * p.maxAcc * p.rampTime * p.rampTime
		return p.start + p.dir*(ramp+p.peakVel*(t-p.rampTime))
	case t < p.duration:
		remain := p.duration - t
		return p.end - p.dir*0.5*p.maxAcc*remain*remain
	default:
		return p.end
	}
}

// Vel returns the along-path velocity at time t.
func (p *TrapezoidalProfile) Vel(t float64) float64 {
	switch {
	case t <= 0 || t >= p.duration:
		return 0
	case t < p.rampTime:
		return p.dir * p.maxAcc * t
	case t < p.decTime:
		return p.dir * p.peakVel
	default:
		return p.dir * p.maxAcc * (p.duration - t)
	}
}

// Acc returns the along-path acceleration at time t.
func (p *TrapezoidalProfile) Acc(t float64) float64 {
	switch {
	case t < 0 || t >= p.duration:
		return 0
	case t < p.rampTime:
		return p.dir * p.maxAcc
	case t < p.decTime:
		return 0
	default:
		return -p.dir * p.maxAcc
	}
}

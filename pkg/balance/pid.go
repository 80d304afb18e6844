package balance

// minDT replaces a non-positive time step.
const minDT = 1e-6

// PID is a PID loop with conditional-integration anti-windup.
type PID struct {
	Kp, Ki, Kd float64

	Integral  float64
	LastError float64

	MaxIntegral float64
	OutputLimit float64
}

// Update runs one step with error e over dt seconds and returns the
// output clamped to ±OutputLimit.
//
// The integral only accumulates when the output computed with the
// current integral is not saturated, or when accumulating pulls a
// saturated output back: negative error while saturated high, positive
// error while saturated low.
func (p *PID) Update(e, dt float64) float64 {
	if dt <= 0 {
		dt = minDT
	}
	pTerm := p.Kp * e
	dTerm := p.Kd * (e - p.LastError) / dt
	p.LastError = e

	out := pTerm + p.Ki*p.Integral + dTerm
	high, low := out > p.OutputLimit, out < -p.OutputLimit
	if (!high && !low) || (high && e < 0) || (low && e > 0) {
		p.Integral = clamp(p.Integral+e*dt, p.MaxIntegral)
	}

	return clamp(pTerm+p.Ki*p.Integral+dTerm, p.OutputLimit)
}

// Reset zeroes the integral and the last error. Gains and limits stay.
func (p *PID) Reset() {
	p.Integral, p.LastError = 0, 0
}

func clamp(v, limit float64) float64 {
	return constrain(v, -limit, limit)
}

func constrain(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

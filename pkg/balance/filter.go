package balance

// LowPass is a single-state exponential smoother.
type LowPass struct {
	Value float64
	Alpha float64
}

// Filter feeds input and returns the new state.
func (f *LowPass) Filter(input float64) float64 {
	f.Value = f.Value*(1-f.Alpha) + input*f.Alpha
	return f.Value
}

package sim

import (
	"io"
	"math/rand"

	"github.com/golang/glog"

	"github.com/robotalks/monowheel/pkg/attitude"
)

// IMU emits attitude frames for plant states, in degrees and degrees
// per second.
type IMU struct {
	Writer io.Writer
	// Noise is the standard deviation added to roll and roll rate.
	Noise float64

	rnd *rand.Rand
	seq uint16
	buf []byte
	err error
}

// NewIMU creates an IMU writing to w. Noise is reproducible per seed.
func NewIMU(w io.Writer, noise float64, seed int64) *IMU {
	return &IMU{Writer: w, Noise: noise, rnd: rand.New(rand.NewSource(seed))}
}

// Sample converts a plant state into what the IMU reports.
func (m *IMU) Sample(s State) attitude.Sample {
	sample := attitude.Sample{
		Roll: s.Tilt.Degrees(),
		WX:   s.TiltRate.DegreesPerSecond(),
	}
	if m.Noise > 0 && m.rnd != nil {
		sample.Roll += m.rnd.NormFloat64() * m.Noise
		sample.WX += m.rnd.NormFloat64() * m.Noise
	}
	return sample
}

// Emit writes one frame.
func (m *IMU) Emit(s State) error {
	m.buf = attitude.AppendFrame(m.buf[:0], m.seq, attitude.SampleRecords(m.Sample(s))...)
	m.seq++
	_, err := m.Writer.Write(m.buf)
	return err
}

// StateChanged implements Observer. Only the first write error is
// logged.
func (m *IMU) StateChanged(s State) {
	if err := m.Emit(s); err != nil && m.err == nil {
		m.err = err
		glog.Warningf("sim imu: %v", err)
	}
}

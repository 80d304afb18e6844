package sim

import (
	"context"
	"io"
	"time"

	"github.com/golang/glog"
)

// Sim runs a Plant in real time and exposes the two serial streams of
// the vehicle: IMU frames and the motor controller protocol.
type Sim struct {
	Plant  *Plant
	IMU    *IMU
	ODrive *ODrive
	Period time.Duration

	Observers Caster

	imuReader *io.PipeReader
	imuWriter *io.PipeWriter
}

// New creates a Sim.
func New(p *Plant, period time.Duration, noise float64) *Sim {
	s := &Sim{
		Plant:  p,
		ODrive: NewODrive(p),
		Period: period,
	}
	s.imuReader, s.imuWriter = io.Pipe()
	s.IMU = NewIMU(s.imuWriter, noise, time.Now().UnixNano())
	s.Observers.Subscribe(s.IMU)
	return s
}

// Name implements Named.
func (s *Sim) Name() string {
	return "sim"
}

// IMUStream is the byte stream of the IMU UART.
func (s *Sim) IMUStream() io.Reader {
	return s.imuReader
}

// ODriveStream is the byte stream of the motor controller UART.
func (s *Sim) ODriveStream() io.ReadWriter {
	return s.ODrive
}

// Run implements Runnable.
func (s *Sim) Run(ctx context.Context) error {
	defer s.ODrive.Close()
	defer s.imuWriter.Close()
	ticker := time.NewTicker(s.Period)
	defer ticker.Stop()
	dt := s.Period.Seconds()
	var fallen bool
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			state := s.Plant.Step(dt)
			if state.Fallen && !fallen {
				glog.Warningf("sim: fell over at %.2fs", state.Time)
			}
			fallen = state.Fallen
			s.Observers.StateChanged(state)
		}
	}
}

package attitude

import (
	"context"
	"io"
	"sync"

	fx "github.com/robotalks/monowheel/pkg/framework"
	"github.com/robotalks/monowheel/pkg/port"
)

// Source feeds a byte stream into the Decoder from the control loop.
// Bytes are read in the background; decoding happens only in Drain so
// the decoder state is owned by the loop goroutine.
type Source struct {
	Decoder Decoder

	pump *port.Pump

	statsLock sync.Mutex
	stats     Stats
}

// NewSource creates a Source reading from r.
func NewSource(r io.Reader) *Source {
	return &Source{pump: port.NewPump("attitude", r)}
}

// Name implements Named.
func (s *Source) Name() string {
	return s.pump.Name
}

// Sample returns the latest decoded sample.
func (s *Source) Sample() Sample {
	return s.Decoder.Sample()
}

// Run implements Runnable.
func (s *Source) Run(ctx context.Context) error {
	return s.pump.Run(ctx)
}

// Drain feeds all bytes received so far into the decoder without
// blocking. It returns the number of frames completed.
func (s *Source) Drain() (frames int) {
	s.pump.Drain(func(chunk []byte) {
		for _, b := range chunk {
			if s.Decoder.Parse(b) {
				frames++
			}
		}
	})
	s.statsLock.Lock()
	s.stats = s.Decoder.Stats()
	s.statsLock.Unlock()
	return
}

// Stats returns the decoder counters as of the last Drain. It's safe to
// call from any goroutine.
func (s *Source) Stats() Stats {
	s.statsLock.Lock()
	defer s.statsLock.Unlock()
	return s.stats
}

// Control implements Controller.
func (s *Source) Control(cc fx.ControlContext) error {
	s.Drain()
	return nil
}

// AddToLoop implements LoopAdder. The byte pump starts with the loop.
func (s *Source) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvSense, s)
}

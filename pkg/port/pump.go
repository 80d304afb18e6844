package port

import (
	"context"
	"io"

	"github.com/golang/glog"

	fx "github.com/robotalks/monowheel/pkg/framework"
)

// Defaults of Pump.
const (
	DefaultChunkSize = 64
	DefaultBacklog   = 64
)

// Pump reads a stream in the background and hands the received chunks
// to whoever drains it. Blocking reads stay off the control path: the
// consumer only ever calls Drain, which never blocks.
type Pump struct {
	Name   string
	Reader io.Reader

	chunks chan []byte
}

// NewPump creates a Pump.
func NewPump(name string, r io.Reader) *Pump {
	return &Pump{
		Name:   name,
		Reader: r,
		chunks: make(chan []byte, DefaultBacklog),
	}
}

// Run implements Runnable. The reader is closed on cancellation if it
// implements io.Closer.
func (p *Pump) Run(ctx context.Context) error {
	if closer, ok := p.Reader.(io.Closer); ok {
		return fx.RunWithContextCloser(ctx, closer, func() error { return p.readLoop(ctx) })
	}
	return fx.RunWithContext(ctx, func() error { return p.readLoop(ctx) })
}

func (p *Pump) readLoop(ctx context.Context) error {
	for {
		buf := make([]byte, DefaultChunkSize)
		n, err := p.Reader.Read(buf)
		if n > 0 {
			select {
			case p.chunks <- buf[:n]:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err != nil {
			if err != io.EOF {
				glog.Warningf("%s: read error: %v", p.Name, err)
			}
			return err
		}
	}
}

// Drain passes every chunk received so far to fn without blocking.
// It returns the number of bytes drained.
func (p *Pump) Drain(fn func([]byte)) (n int) {
	for {
		select {
		case chunk := <-p.chunks:
			n += len(chunk)
			fn(chunk)
		default:
			return
		}
	}
}

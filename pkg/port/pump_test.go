package port

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type closeRecorder struct {
	*io.PipeReader
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return c.PipeReader.Close()
}

func TestPumpDrain(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789"), 20)
	p := NewPump("test", bytes.NewReader(data))

	require.Zero(t, p.Drain(func([]byte) { t.Fatal("unexpected chunk") }))
	require.Equal(t, io.EOF, p.Run(context.Background()))

	var got []byte
	n := p.Drain(func(chunk []byte) {
		require.True(t, len(chunk) <= DefaultChunkSize)
		got = append(got, chunk...)
	})
	require.Equal(t, len(data), n)
	require.Equal(t, data, got)
}

func TestPumpClosesOnCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	r := &closeRecorder{PipeReader: pr}
	p := NewPump("test", r)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()

	_, err := pw.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	cancel()

	select {
	case err := <-errCh:
		require.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("pump did not stop")
	}
	require.True(t, r.closed)
}

package framework

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testMsg struct {
	val int
}

func (m *testMsg) NewMessage() Message { return &testMsg{} }

func TestLoopPriorityOrder(t *testing.T) {
	var order []int
	record := func(lv int) Controller {
		return ControlFunc(func(cc ControlContext) error {
			require.Equal(t, lv, cc.PriorityLevel())
			order = append(order, lv)
			return nil
		})
	}
	l := NewLoop("test", time.Millisecond)
	l.AddController(PrLvPostProc, record(PrLvPostProc))
	l.AddController(PrLvActuate, record(PrLvActuate))
	l.AddController(PrLvCommand, record(PrLvCommand))
	l.AddController(PrLvControl, record(PrLvControl))
	l.AddController(PrLvSense, record(PrLvSense))

	l.Step(context.Background(), time.Now())
	require.Equal(t, []int{PrLvCommand, PrLvSense, PrLvControl, PrLvActuate, PrLvPostProc}, order)
	require.Equal(t, uint64(1), l.Ticks())
}

func TestLoopMessages(t *testing.T) {
	var taken, seenLater []int
	l := NewLoop("test", time.Millisecond)
	l.AddController(PrLvCommand, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mc MessageProcessingContext) {
			if m := mc.CurrentMessage().(*testMsg); m.val%2 == 0 {
				taken = append(taken, m.val)
				mc.MessageTaken()
			}
		}))
		return nil
	}))
	l.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mc MessageProcessingContext) {
			seenLater = append(seenLater, mc.CurrentMessage().(*testMsg).val)
			mc.MessageTaken()
		}))
		return nil
	}))

	for i := 1; i <= 4; i++ {
		l.PostMessage(&testMsg{val: i})
	}
	l.Step(context.Background(), time.Now())
	require.Equal(t, []int{2, 4}, taken)
	require.Equal(t, []int{1, 3}, seenLater)

	// unconsumed messages do not outlive the iteration.
	taken, seenLater = nil, nil
	l.Step(context.Background(), time.Now())
	require.Empty(t, taken)
	require.Empty(t, seenLater)
}

func TestLoopStopProcessing(t *testing.T) {
	var seen []int
	l := NewLoop("test", time.Millisecond)
	l.AddController(PrLvCommand, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mc MessageProcessingContext) {
			mc.MessageTaken()
			mc.StopProcessing()
		}))
		return nil
	}))
	l.AddController(PrLvSense, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mc MessageProcessingContext) {
			seen = append(seen, mc.CurrentMessage().(*testMsg).val)
		}))
		return nil
	}))
	l.PostMessage(&testMsg{val: 1})
	l.PostMessage(&testMsg{val: 2})
	l.PostMessage(&testMsg{val: 3})
	l.Step(context.Background(), time.Now())
	require.Equal(t, []int{2, 3}, seen)
}

func TestEvery(t *testing.T) {
	var runs int
	l := NewLoop("test", time.Millisecond)
	l.AddController(PrLvNormal, Every(10*time.Millisecond, ControlFunc(func(ControlContext) error {
		runs++
		return nil
	})))
	start := time.Unix(1000, 0)
	for i := 0; i < 25; i++ {
		l.Step(context.Background(), start.Add(time.Duration(i)*time.Millisecond))
	}
	// at 0, 10 and 20 ms.
	require.Equal(t, 3, runs)
}

func TestControllerErrorKeepsRunning(t *testing.T) {
	var runs int
	l := NewLoop("test", time.Millisecond)
	l.AddController(PrLvNormal, ControlFunc(func(ControlContext) error {
		return errors.New("failed")
	}))
	l.AddController(PrLvLow, ControlFunc(func(ControlContext) error {
		runs++
		return nil
	}))
	l.Step(context.Background(), time.Now())
	l.Step(context.Background(), time.Now())
	require.Equal(t, 2, runs)
}

type runnableCtl struct {
	started chan struct{}
}

func (c *runnableCtl) Control(ControlContext) error { return nil }

func (c *runnableCtl) Run(ctx context.Context) error {
	LoopCtlFrom(ctx).PostMessage(&testMsg{val: 7})
	close(c.started)
	<-ctx.Done()
	return ctx.Err()
}

func TestLoopRun(t *testing.T) {
	ctl := &runnableCtl{started: make(chan struct{})}
	got := make(chan int, 1)
	l := NewLoop("test", time.Millisecond)
	l.AddController(PrLvSense, ctl)
	l.AddController(PrLvCommand, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mc MessageProcessingContext) {
			mc.MessageTaken()
			select {
			case got <- mc.CurrentMessage().(*testMsg).val:
			default:
			}
		}))
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()
	<-ctl.started
	select {
	case val := <-got:
		require.Equal(t, 7, val)
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}
	cancel()
	require.Equal(t, context.Canceled, <-errCh)
	require.True(t, l.Ticks() > 0)
}

func TestRunnerAggregatesErrors(t *testing.T) {
	boom := errors.New("boom")
	r := NewRunner().Go(
		NamedRun("fail", RunFunc(func(context.Context) error { return boom })),
		RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}),
	)
	err := r.Wait()
	require.Error(t, err)
	require.Equal(t, []error{boom}, err.(*AggregatedError).Errors)
	require.Equal(t, "boom", err.Error())
}

func TestRunnerCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunnerWith(ctx).Go(RunFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	cancel()
	require.NoError(t, r.Wait())
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil).Aggregate())
	errs.Add(errors.New("a"), nil, errors.New("b"))
	require.Equal(t, "Multiple errors:\n  a\n  b", errs.Aggregate().Error())
}

type closeRecorder struct {
	*io.PipeReader
	closed int
}

func (c *closeRecorder) Close() error {
	c.closed++
	return c.PipeReader.Close()
}

func TestRunWithContextCloser(t *testing.T) {
	t.Run("closes on cancel", func(t *testing.T) {
		pr, pw := io.Pipe()
		defer pw.Close()
		c := &closeRecorder{PipeReader: pr}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := RunWithContextCloser(ctx, c, func() error {
			_, err := c.Read(make([]byte, 1))
			return err
		})
		require.Equal(t, context.Canceled, err)
		require.Equal(t, 1, c.closed)
	})
	t.Run("closes on exit", func(t *testing.T) {
		pr, pw := io.Pipe()
		defer pw.Close()
		c := &closeRecorder{PipeReader: pr}
		err := RunWithContextCloser(context.Background(), c, func() error {
			return io.EOF
		})
		require.Equal(t, io.EOF, err)
		require.Equal(t, 1, c.closed)
	})
}

package pose

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/2beens/repcoach/internal/telemetry/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type manualRefresher struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func newManualRefresher() *manualRefresher {
	return &manualRefresher{ch: make(chan time.Time)}
}

func (r *manualRefresher) Refreshes() <-chan time.Time { return r.ch }
func (r *manualRefresher) Stop()                       { r.stopped.Store(true) }

type stubSource struct {
	mu     sync.Mutex
	frames []VideoFrame
	ready  []bool
	calls  int
}

func (s *stubSource) CurrentFrame() (VideoFrame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if i >= len(s.ready) || !s.ready[i] {
		return VideoFrame{}, false
	}
	return s.frames[i], true
}

type stubEngine struct {
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	detected    atomic.Int32
	failSeq     int64
	closed      atomic.Bool
}

func (e *stubEngine) Detect(_ context.Context, frame VideoFrame, _ int64) ([]Landmark, error) {
	n := e.inFlight.Add(1)
	defer e.inFlight.Add(-1)
	if n > e.maxInFlight.Load() {
		e.maxInFlight.Store(n)
	}
	e.detected.Add(1)
	if frame.Seq == e.failSeq {
		return nil, errors.New("inference failed")
	}
	return []Landmark{
		{Index: 11, X: 0.1, Y: float64(frame.Seq) / 10, Visibility: 0.9},
		{Index: 12, X: 0.2, Y: 0.2, Visibility: 0.2},
	}, nil
}

func (e *stubEngine) Close() error {
	e.closed.Store(true)
	return nil
}

func TestAdapter_Initialize_SharedLoad(t *testing.T) {
	var loads atomic.Int32
	release := make(chan struct{})
	engine := &stubEngine{failSeq: -1}
	adapter := NewAdapter(func(ctx context.Context) (Engine, error) {
		loads.Add(1)
		<-release
		return engine, nil
	}, AdapterConfig{}, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- adapter.Initialize(context.Background())
		}()
	}

	// let the callers pile up behind the first load
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), loads.Load())
	assert.True(t, adapter.Ready())

	// already loaded
	require.NoError(t, adapter.Initialize(context.Background()))
	assert.Equal(t, int32(1), loads.Load())

	require.NoError(t, adapter.Close())
	assert.True(t, engine.closed.Load())
	assert.False(t, adapter.Ready())
}

func TestAdapter_Initialize_FailureThenRetry(t *testing.T) {
	attempt := 0
	adapter := NewAdapter(func(ctx context.Context) (Engine, error) {
		attempt++
		if attempt == 1 {
			return nil, errors.New("no gpu backend")
		}
		return &stubEngine{failSeq: -1}, nil
	}, AdapterConfig{}, nil)

	err := adapter.Initialize(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDetectorUnavailable)
	assert.Contains(t, err.Error(), "no gpu backend")
	assert.False(t, adapter.Ready())

	require.NoError(t, adapter.Initialize(context.Background()))
	assert.True(t, adapter.Ready())
	require.NoError(t, adapter.Close())
}

func TestAdapter_StartBeforeInitialize(t *testing.T) {
	adapter := NewAdapter(func(ctx context.Context) (Engine, error) {
		return &stubEngine{}, nil
	}, AdapterConfig{}, nil)

	err := adapter.Start(context.Background(), &stubSource{}, func(context.Context, Frame) {})
	assert.ErrorIs(t, err, ErrDetectorUnavailable)
	assert.False(t, adapter.Running())
}

func TestAdapter_StopWhenNotStarted(t *testing.T) {
	adapter := NewAdapter(func(ctx context.Context) (Engine, error) {
		return &stubEngine{}, nil
	}, AdapterConfig{}, nil)

	assert.NotPanics(t, func() {
		adapter.Stop()
		adapter.Stop()
	})
	assert.NoError(t, adapter.Close())
}

func TestAdapter_DetectLoop(t *testing.T) {
	metricsManager := metrics.NewTestManager()
	engine := &stubEngine{failSeq: 3}
	refresher := newManualRefresher()
	adapter := NewAdapter(func(ctx context.Context) (Engine, error) {
		return engine, nil
	}, AdapterConfig{}, metricsManager).WithRefresher(func() Refresher {
		return refresher
	})
	require.NoError(t, adapter.Initialize(context.Background()))

	src := &stubSource{
		frames: []VideoFrame{{Seq: 0}, {Seq: 1}, {Seq: 2}, {Seq: 3}, {Seq: 4}},
		ready:  []bool{false, true, true, true, true},
	}

	frames := make(chan Frame, 10)
	err := adapter.Start(context.Background(), src, func(_ context.Context, f Frame) {
		frames <- f
	})
	require.NoError(t, err)
	assert.True(t, adapter.Running())

	err = adapter.Start(context.Background(), src, func(context.Context, Frame) {})
	assert.ErrorIs(t, err, ErrAlreadyStarted)

	for i := 0; i < 5; i++ {
		refresher.ch <- time.Now()
	}

	var got []Frame
	for i := 0; i < 3; i++ {
		select {
		case f := <-frames:
			got = append(got, f)
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for frame")
		}
	}

	adapter.Stop()
	assert.False(t, adapter.Running())
	assert.True(t, refresher.stopped.Load())

	// frame 0 not ready, frame 3 failed detection
	require.Len(t, got, 3)
	assert.InDelta(t, 0.1, got[0][LeftShoulder].Y, 1e-9)
	assert.InDelta(t, 0.2, got[1][LeftShoulder].Y, 1e-9)
	assert.InDelta(t, 0.4, got[2][LeftShoulder].Y, 1e-9)
	for _, f := range got {
		_, hasRight := f[RightShoulder]
		assert.False(t, hasRight)
	}

	assert.Equal(t, int32(4), engine.detected.Load())
	assert.Equal(t, int32(1), engine.maxInFlight.Load())
	assert.Equal(t, 3.0, testutil.ToFloat64(metricsManager.CounterFrames))
	assert.Equal(t, 1.0, testutil.ToFloat64(metricsManager.CounterDetectionErrors))

	require.NoError(t, adapter.Close())
}

func TestAdapter_StopUnblocksHandler(t *testing.T) {
	refresher := newManualRefresher()
	adapter := NewAdapter(func(ctx context.Context) (Engine, error) {
		return &stubEngine{failSeq: -1}, nil
	}, AdapterConfig{}, nil).WithRefresher(func() Refresher {
		return refresher
	})
	require.NoError(t, adapter.Initialize(context.Background()))

	src := &stubSource{frames: []VideoFrame{{Seq: 1}}, ready: []bool{true}}
	handlerEntered := make(chan struct{})
	unbuffered := make(chan Frame)
	require.NoError(t, adapter.Start(context.Background(), src, func(ctx context.Context, f Frame) {
		close(handlerEntered)
		select {
		case unbuffered <- f:
		case <-ctx.Done():
		}
	}))

	refresher.ch <- time.Now()
	<-handlerEntered

	stopped := make(chan struct{})
	go func() {
		adapter.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("stop did not return while handler was blocked")
	}
	require.NoError(t, adapter.Close())
}

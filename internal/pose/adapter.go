package pose

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/2beens/repcoach/internal/telemetry/metrics"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const DefaultRefreshRate = 30 // Hz

// Refresher signals display refreshes; one detection is attempted per signal.
type Refresher interface {
	Refreshes() <-chan time.Time
	Stop()
}

type tickerRefresher struct {
	ticker *time.Ticker
}

func (t *tickerRefresher) Refreshes() <-chan time.Time { return t.ticker.C }
func (t *tickerRefresher) Stop()                       { t.ticker.Stop() }

// NewTickerRefresher approximates a display refresh loop at the given rate.
func NewTickerRefresher(rateHz int) Refresher {
	if rateHz <= 0 {
		rateHz = DefaultRefreshRate
	}
	return &tickerRefresher{
		ticker: time.NewTicker(time.Second / time.Duration(rateHz)),
	}
}

// FrameHandler receives every detected frame. ctx is cancelled when the
// detection loop stops, so blocking handoffs must select on it.
type FrameHandler func(ctx context.Context, frame Frame)

type AdapterConfig struct {
	VisibilityThreshold float64
	RefreshRateHz       int
}

// Adapter bridges an Engine to the evaluator: it runs detection once per
// display refresh and hands out filtered joint frames.
type Adapter struct {
	loader       EngineLoader
	config       AdapterConfig
	newRefresher func() Refresher
	metrics      *metrics.Manager

	loadGroup singleflight.Group

	mu     sync.Mutex
	engine Engine
	cancel context.CancelFunc
	done   chan struct{}
}

func NewAdapter(loader EngineLoader, config AdapterConfig, metricsManager *metrics.Manager) *Adapter {
	if config.VisibilityThreshold <= 0 {
		config.VisibilityThreshold = DefaultVisibilityThreshold
	}
	if config.RefreshRateHz <= 0 {
		config.RefreshRateHz = DefaultRefreshRate
	}
	a := &Adapter{
		loader:  loader,
		config:  config,
		metrics: metricsManager,
	}
	a.newRefresher = func() Refresher {
		return NewTickerRefresher(a.config.RefreshRateHz)
	}
	return a
}

// WithRefresher replaces the refresh signal source.
func (a *Adapter) WithRefresher(newRefresher func() Refresher) *Adapter {
	a.newRefresher = newRefresher
	return a
}

// Initialize loads the engine. Calls made while a load is in progress wait
// for that same load instead of starting another one.
func (a *Adapter) Initialize(ctx context.Context) error {
	if a.Ready() {
		return nil
	}

	_, err, shared := a.loadGroup.Do("engine", func() (any, error) {
		if a.Ready() {
			return nil, nil
		}
		engine, err := a.loader(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDetectorUnavailable, err)
		}
		if engine == nil {
			return nil, fmt.Errorf("%w: loader returned no engine", ErrDetectorUnavailable)
		}
		a.mu.Lock()
		a.engine = engine
		a.mu.Unlock()
		log.Debugln("pose engine loaded")
		return nil, nil
	})
	if shared {
		log.Tracef("pose engine load shared between callers")
	}
	return err
}

func (a *Adapter) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.engine != nil
}

// Start begins the detection loop. Refreshes where the source has no usable
// frame are skipped; at most one inference is in flight at a time.
func (a *Adapter) Start(ctx context.Context, src VideoSource, onFrame FrameHandler) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.engine == nil {
		return fmt.Errorf("%w: not initialized", ErrDetectorUnavailable)
	}
	if a.cancel != nil {
		return ErrAlreadyStarted
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	a.cancel = cancel
	a.done = done

	go a.detectLoop(loopCtx, a.engine, src, onFrame, done)
	return nil
}

func (a *Adapter) detectLoop(ctx context.Context, engine Engine, src VideoSource, onFrame FrameHandler, done chan struct{}) {
	defer close(done)

	refresher := a.newRefresher()
	defer refresher.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ts := <-refresher.Refreshes():
			videoFrame, ok := src.CurrentFrame()
			if !ok {
				continue
			}

			begin := time.Now()
			landmarks, err := engine.Detect(ctx, videoFrame, ts.UnixMilli())
			if a.metrics != nil {
				a.metrics.HistInferenceDuration.Observe(time.Since(begin).Seconds())
			}
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Debugf("pose detect frame %d: %s", videoFrame.Seq, err)
				if a.metrics != nil {
					a.metrics.CounterDetectionErrors.Inc()
				}
				continue
			}

			if a.metrics != nil {
				a.metrics.CounterFrames.Inc()
			}
			onFrame(ctx, FrameFromLandmarks(landmarks, a.config.VisibilityThreshold))
		}
	}
}

// Stop cancels the detection loop and waits for it to exit. It is a no-op
// when the loop is not running.
func (a *Adapter) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	a.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (a *Adapter) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cancel != nil
}

// Close stops detection and releases the engine.
func (a *Adapter) Close() error {
	a.Stop()

	a.mu.Lock()
	engine := a.engine
	a.engine = nil
	a.mu.Unlock()

	if engine == nil {
		return nil
	}
	return engine.Close()
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests           *prometheus.CounterVec
	CounterHandleRequestPanic prometheus.Counter
	CounterSessions           *prometheus.CounterVec
	CounterReps               prometheus.Counter
	CounterSets               prometheus.Counter
	CounterFrames             prometheus.Counter
	CounterDetectionErrors    prometheus.Counter
	CounterCameraFailures     *prometheus.CounterVec
	CounterLogins             *prometheus.CounterVec
	CounterRateLimited        *prometheus.CounterVec
	CounterLiveMessages       prometheus.Counter

	// gauges
	GaugeActiveSessions prometheus.Gauge
	GaugeLifeSignal     prometheus.Gauge
	GaugeLiveViewers    prometheus.Gauge

	// histograms
	HistInferenceDuration    prometheus.Histogram
	HistogramRequestDuration *prometheus.HistogramVec
}

func NewTestManager() *Manager {
	return NewManager("repcoach", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("repcoach", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterHandleRequestPanic := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "handle_request_panic",
		Help:      "The total number of serve request panics",
	})
	counterSessions := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sessions",
		Help:      "Workout sessions by outcome",
	}, []string{"outcome"})
	counterReps := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "reps",
		Help:      "The total number of counted reps",
	})
	counterSets := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sets_finished",
		Help:      "The total number of finished sets",
	})
	counterFrames := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "pose_frames",
		Help:      "The total number of pose frames produced by the detector",
	})
	counterDetectionErrors := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "pose_detection_errors",
		Help:      "The total number of failed pose detections",
	})
	counterCameraFailures := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "camera_failures",
		Help:      "Camera acquisition failures by kind",
	}, []string{"kind"})
	counterLogins := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "logins",
		Help:      "Login attempts by method and result",
	}, []string{"method", "result"})
	counterRateLimited := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rate_limited",
		Help:      "Requests rejected by the rate limiter, by route",
	}, []string{"route"})
	counterLiveMessages := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "live_messages",
		Help:      "The total number of session snapshots published to live viewers",
	})

	gaugeActiveSessions := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "active_sessions",
		Help:      "Current number of running workout sessions",
	})
	gaugeLifeSignal := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "life_signal",
		Help:      "Shows whether the service is alive",
	})
	gaugeLiveViewers := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "live_viewers",
		Help:      "Current number of connected live session viewers",
	})

	histInferenceDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "pose_inference_duration_seconds",
		Help:      "Duration of a single pose engine inference in seconds",
		Buckets:   []float64{.001, .0025, .005, .01, .02, .033, .05, .1, .25, .5, 1},
	})
	histogramRequestDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_duration_seconds",
		Help:      "Histogram of response time for requests in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"route", "method", "status_code"})

	return &Manager{
		CounterRequests:           counterRequests,
		CounterHandleRequestPanic: counterHandleRequestPanic,
		CounterSessions:           counterSessions,
		CounterReps:               counterReps,
		CounterSets:               counterSets,
		CounterFrames:             counterFrames,
		CounterDetectionErrors:    counterDetectionErrors,
		CounterCameraFailures:     counterCameraFailures,
		CounterLogins:             counterLogins,
		CounterRateLimited:        counterRateLimited,
		CounterLiveMessages:       counterLiveMessages,
		GaugeActiveSessions:       gaugeActiveSessions,
		GaugeLifeSignal:           gaugeLifeSignal,
		GaugeLiveViewers:          gaugeLiveViewers,
		HistInferenceDuration:     histInferenceDuration,
		HistogramRequestDuration:  histogramRequestDuration,
	}
}

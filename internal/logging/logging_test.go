package logging

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestGetLevel(t *testing.T) {
	for in, want := range map[string]logrus.Level{
		"debug":   logrus.DebugLevel,
		"ERROR":   logrus.ErrorLevel,
		"info":    logrus.InfoLevel,
		"warn":    logrus.WarnLevel,
		"trace":   logrus.TraceLevel,
		"fatal":   logrus.FatalLevel,
		"":        logrus.TraceLevel,
		"verbose": logrus.TraceLevel,
	} {
		assert.Equal(t, want, GetLevel(in), in)
	}
}

type capturedEvents struct {
	mu     sync.Mutex
	events []*sentry.Event
}

func (c *capturedEvents) beforeSend(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func TestSentryHook_Fire(t *testing.T) {
	captured := &capturedEvents{}
	client, err := sentry.NewClient(sentry.ClientOptions{
		BeforeSend: captured.beforeSend,
	})
	require.NoError(t, err)
	hub := sentry.NewHub(client, sentry.NewScope())

	hook := NewSentryHook([]logrus.Level{logrus.ErrorLevel}).WithHub(hub)
	assert.Equal(t, []logrus.Level{logrus.ErrorLevel}, hook.Levels())

	logger := logrus.New()
	logger.SetOutput(&discard{})
	logger.AddHook(hook)

	logger.WithField("session", "sess-1").
		WithError(errors.New("camera busy")).
		Error("start session")
	logger.Warn("not forwarded")

	captured.mu.Lock()
	defer captured.mu.Unlock()
	require.Len(t, captured.events, 1)
	ev := captured.events[0]
	assert.Equal(t, "start session", ev.Message)
	assert.Equal(t, sentry.LevelError, ev.Level)
	assert.Equal(t, "sess-1", ev.Extra["session"])
	require.Len(t, ev.Exception, 1)
	assert.Equal(t, "camera busy", ev.Exception[0].Value)
}

func TestSentryHook_NoClient(t *testing.T) {
	hook := NewSentryHook([]logrus.Level{logrus.ErrorLevel}).WithHub(sentry.NewHub(nil, sentry.NewScope()))
	assert.Error(t, hook.Fire(logrus.NewEntry(logrus.New())))
}

func TestSetup_WritesToFile(t *testing.T) {
	prevOut := logrus.StandardLogger().Out
	prevLevel := logrus.GetLevel()
	t.Cleanup(func() {
		logrus.SetOutput(prevOut)
		logrus.SetLevel(prevLevel)
	})

	path := filepath.Join(t.TempDir(), "coach")
	flush := Setup(LoggerSetupParams{
		LogFileName: path,
		LogLevel:    "warn",
	})
	require.NotNil(t, flush)
	flush()

	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())
	logrus.Warn("hello file")
	assert.FileExists(t, path+".log")
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

type brokenOutput struct{}

func (brokenOutput) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestTeeWriter(t *testing.T) {
	var first, second strings.Builder
	tw := newTeeWriter(&first, &second)

	n, err := tw.Write([]byte("rep 1\n"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	_, err = tw.Write([]byte("rep 2\n"))
	require.NoError(t, err)

	assert.Equal(t, "rep 1\nrep 2\n", first.String())
	assert.Equal(t, first.String(), second.String())
}

func TestTeeWriter_FailingOutput(t *testing.T) {
	var sb strings.Builder
	tw := newTeeWriter(brokenOutput{}, &sb, brokenOutput{})

	n, err := tw.Write([]byte("hold 10s\n"))
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Equal(t, "hold 10s\n", sb.String(), "healthy outputs still get the line")
}

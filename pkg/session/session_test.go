package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/aysa-runner/pkg/core"
	"github.com/devicelab-dev/aysa-runner/pkg/driver/mock"
)

// flakyConnector fails the first failures attempts.
type flakyConnector struct {
	failures int
	calls    int
	caps     map[string]interface{}
	device   *mock.Device
}

func (c *flakyConnector) Connect(_ context.Context, _ string, caps map[string]interface{}) (core.Device, error) {
	c.calls++
	c.caps = caps
	if c.calls <= c.failures {
		return nil, errors.New("could not start a new session")
	}
	c.device = mock.New(mock.Config{})
	return c.device, nil
}

type sleepRecorder struct{ sleeps []time.Duration }

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) { r.sleeps = append(r.sleeps, d) }

func newManager(conn Connector, rec *sleepRecorder, opts ...Option) *Manager {
	return NewManager(DefaultConfig(), conn, append([]Option{WithSleep(rec.sleep)}, opts...)...)
}

func TestAcquire_FirstAttempt(t *testing.T) {
	rec := &sleepRecorder{}
	conn := &flakyConnector{}

	h, err := newManager(conn, rec).Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, h.Attempts())
	assert.Same(t, conn.device, h.Device())
	assert.Empty(t, rec.sleeps, "no delay after a first-attempt success")
}

func TestAcquire_SucceedsOnThirdAttempt(t *testing.T) {
	rec := &sleepRecorder{}
	conn := &flakyConnector{failures: 2}

	h, err := newManager(conn, rec).Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, h.Attempts())
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, rec.sleeps)
}

func TestAcquire_Exhausted(t *testing.T) {
	rec := &sleepRecorder{}
	conn := &flakyConnector{failures: 10}

	_, err := newManager(conn, rec).Acquire(context.Background())
	require.Error(t, err)

	var initErr *core.SessionInitError
	require.True(t, errors.As(err, &initErr))
	assert.Equal(t, 3, initErr.Attempts)
	assert.Contains(t, initErr.Cause.Error(), "could not start a new session")
	assert.Equal(t, 3, conn.calls)
	assert.Len(t, rec.sleeps, 2, "no delay after the last attempt")
	assert.Equal(t, core.ErrCategoryConnection, core.CategoryOf(err))
}

func TestAcquire_CustomRetry(t *testing.T) {
	rec := &sleepRecorder{}
	conn := &flakyConnector{failures: 10}

	_, err := newManager(conn, rec, WithRetry(1, time.Second)).Acquire(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, conn.calls)
	assert.Empty(t, rec.sleeps)
}

func TestAcquire_MalformedURLNotRetried(t *testing.T) {
	rec := &sleepRecorder{}
	conn := &flakyConnector{}
	cfg := DefaultConfig()
	cfg.ServerURL = "127.0.0.1:4723"

	_, err := NewManager(cfg, conn, WithSleep(rec.sleep)).Acquire(context.Background())
	require.Error(t, err)

	var cfgErr *core.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "driverServerURL", cfgErr.Field)
	assert.Zero(t, conn.calls)
}

func TestAcquire_CancelledContext(t *testing.T) {
	rec := &sleepRecorder{}
	conn := &flakyConnector{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newManager(conn, rec).Acquire(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, conn.calls)
}

func TestCapabilities(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AppActivity = ".MainActivity"
	cfg.Capabilities = map[string]interface{}{"appium:noReset": true, "appium:udid": "R58M"}

	caps := NewManager(cfg, nil).Capabilities()
	assert.Equal(t, "Android", caps["platformName"])
	assert.Equal(t, "UiAutomator2", caps["appium:automationName"])
	assert.Equal(t, "com.visualdx.aysa", caps["appium:appPackage"])
	assert.Equal(t, ".MainActivity", caps["appium:appActivity"])
	assert.Equal(t, true, caps["appium:autoGrantPermissions"])
	assert.Equal(t, 300, caps["appium:newCommandTimeout"])
	assert.Equal(t, 60000, caps["appium:uiautomator2ServerInstallTimeout"])
	assert.Equal(t, true, caps["appium:noReset"], "extra capabilities win")
	assert.Equal(t, "R58M", caps["appium:udid"])

	_, hasActivity := NewManager(DefaultConfig(), nil).Capabilities()["appium:appActivity"]
	assert.False(t, hasActivity)
}

func TestConfigureTimeouts_Once(t *testing.T) {
	conn := &flakyConnector{}
	m := newManager(conn, &sleepRecorder{})
	h, err := m.Acquire(context.Background())
	require.NoError(t, err)

	require.NoError(t, m.ConfigureTimeouts(h, 10*time.Second))
	require.NoError(t, m.ConfigureTimeouts(h, 20*time.Second))
	assert.Equal(t, []time.Duration{10 * time.Second}, conn.device.Calls().ImplicitWaits)
}

func TestResetApp(t *testing.T) {
	conn := &flakyConnector{}
	m := newManager(conn, &sleepRecorder{})
	h, err := m.Acquire(context.Background())
	require.NoError(t, err)

	require.NoError(t, m.ResetApp(h))
	calls := conn.device.Calls()
	assert.Equal(t, []string{"com.visualdx.aysa"}, calls.Terminations)
	assert.Equal(t, []string{"com.visualdx.aysa"}, calls.Activations)
}

func TestRelease(t *testing.T) {
	conn := &flakyConnector{}
	m := newManager(conn, &sleepRecorder{})
	h, err := m.Acquire(context.Background())
	require.NoError(t, err)

	m.Release(h)
	m.Release(h)
	m.Release(nil)
	assert.True(t, conn.device.Closed())
	assert.Equal(t, 1, conn.device.Calls().Closes)
}

func TestValidateServerURL(t *testing.T) {
	assert.NoError(t, ValidateServerURL("http://127.0.0.1:4723"))
	assert.NoError(t, ValidateServerURL("https://hub.example.com/wd/hub"))
	assert.Error(t, ValidateServerURL("ftp://127.0.0.1"))
	assert.Error(t, ValidateServerURL("http://"))
	assert.Error(t, ValidateServerURL("http://bad host:4723"))
}

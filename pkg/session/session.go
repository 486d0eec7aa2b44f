// Package session manages driver sessions: acquisition with retry, one-time
// timeout configuration, app reset and best-effort release.
package session

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/devicelab-dev/aysa-runner/pkg/core"
	"github.com/devicelab-dev/aysa-runner/pkg/logger"
	"github.com/devicelab-dev/aysa-runner/pkg/retry"
)

// Acquisition defaults.
const (
	DefaultAttempts = 3
	DefaultDelay    = 2 * time.Second
)

// Config holds the driver connection settings. It is copied into the
// Manager and never mutated.
type Config struct {
	ServerURL       string
	AppPackage      string
	AppActivity     string
	PlatformName    string
	PlatformVersion string
	DeviceName      string
	AutomationName  string

	// Capabilities are merged over the derived ones.
	Capabilities map[string]interface{}
}

// DefaultConfig returns the settings for a local Appium server and emulator.
func DefaultConfig() Config {
	return Config{
		ServerURL:       "http://127.0.0.1:4723",
		AppPackage:      "com.visualdx.aysa",
		PlatformName:    "Android",
		PlatformVersion: "13",
		DeviceName:      "emulator-5554",
		AutomationName:  "UiAutomator2",
	}
}

// Connector opens a device session.
type Connector interface {
	Connect(ctx context.Context, serverURL string, capabilities map[string]interface{}) (core.Device, error)
}

// ConnectorFunc adapts a function to Connector.
type ConnectorFunc func(ctx context.Context, serverURL string, capabilities map[string]interface{}) (core.Device, error)

// Connect implements Connector.
func (f ConnectorFunc) Connect(ctx context.Context, serverURL string, capabilities map[string]interface{}) (core.Device, error) {
	return f(ctx, serverURL, capabilities)
}

// Handle is an acquired session. It belongs to a single scenario run.
type Handle struct {
	device      core.Device
	attempts    int
	acquiredAt  time.Time
	mu          sync.Mutex
	timeoutsSet bool
	released    bool
}

// Device returns the session's device.
func (h *Handle) Device() core.Device { return h.device }

// Attempts returns how many connection attempts the acquisition took.
func (h *Handle) Attempts() int { return h.attempts }

// AcquiredAt returns when the session was created.
func (h *Handle) AcquiredAt() time.Time { return h.acquiredAt }

// Manager creates and tears down sessions.
type Manager struct {
	cfg       Config
	connector Connector
	attempts  int
	delay     time.Duration
	sleep     func(context.Context, time.Duration)
}

// Option configures a Manager.
type Option func(*Manager)

// WithRetry overrides the attempt count and the delay between attempts.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(m *Manager) {
		m.attempts = attempts
		m.delay = delay
	}
}

// WithSleep replaces the wait between attempts.
func WithSleep(sleep func(context.Context, time.Duration)) Option {
	return func(m *Manager) {
		m.sleep = sleep
	}
}

// NewManager creates a Manager.
func NewManager(cfg Config, connector Connector, opts ...Option) *Manager {
	m := &Manager{
		cfg:       cfg,
		connector: connector,
		attempts:  DefaultAttempts,
		delay:     DefaultDelay,
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Capabilities returns the capabilities sent when opening a session.
func (m *Manager) Capabilities() map[string]interface{} {
	caps := map[string]interface{}{
		"platformName":                            m.cfg.PlatformName,
		"appium:platformVersion":                  m.cfg.PlatformVersion,
		"appium:deviceName":                       m.cfg.DeviceName,
		"appium:automationName":                   m.cfg.AutomationName,
		"appium:appPackage":                       m.cfg.AppPackage,
		"appium:autoGrantPermissions":             true,
		"appium:noReset":                          false,
		"appium:fullReset":                        false,
		"appium:newCommandTimeout":                300,
		"appium:uiautomator2ServerInstallTimeout": 60000,
		"appium:uiautomator2ServerLaunchTimeout":  60000,
		"appium:allowTestPackages":                true,
	}
	if m.cfg.AppActivity != "" {
		caps["appium:appActivity"] = m.cfg.AppActivity
	}
	for k, v := range m.cfg.Capabilities {
		caps[k] = v
	}
	return caps
}

// Acquire opens a session, retrying failed attempts after a fixed delay.
// A malformed server URL fails immediately with *core.ConfigError; exhausted
// attempts fail with *core.SessionInitError.
func (m *Manager) Acquire(ctx context.Context) (*Handle, error) {
	if err := ValidateServerURL(m.cfg.ServerURL); err != nil {
		return nil, err
	}

	caps := m.Capabilities()
	var device core.Device

	policy := retry.Policy{
		Attempts: m.attempts,
		Delay:    m.delay,
		Sleep:    func(d time.Duration) { m.sleep(ctx, d) },
		OnRetry: func(attempt int, err error, next time.Duration) {
			logger.Warn("session: attempt %d/%d failed: %v (retrying in %s)", attempt, m.attempts, err, next)
		},
		Terminal: func(attempts int, last error) error {
			return &core.SessionInitError{Attempts: attempts, Cause: last}
		},
	}

	attempts, err := retry.Do(policy, func(attempt int) error {
		if err := ctx.Err(); err != nil {
			return retry.Permanent(&core.SessionInitError{Attempts: attempt - 1, Cause: err})
		}
		logger.Info("session: connecting to %s (attempt %d/%d)", m.cfg.ServerURL, attempt, m.attempts)
		d, err := m.connector.Connect(ctx, m.cfg.ServerURL, caps)
		if err != nil {
			return err
		}
		device = d
		return nil
	})
	if err != nil {
		logger.Error("session: %v", err)
		return nil, err
	}

	logger.Info("session: connected after %d attempt(s)", attempts)
	return &Handle{device: device, attempts: attempts, acquiredAt: time.Now()}, nil
}

// ConfigureTimeouts sets the implicit wait once per session. Later calls are no-ops.
func (m *Manager) ConfigureTimeouts(h *Handle, implicitWait time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.timeoutsSet {
		return nil
	}
	if err := h.device.SetImplicitWait(implicitWait); err != nil {
		return fmt.Errorf("configure implicit wait: %w", err)
	}
	h.timeoutsSet = true
	return nil
}

// ResetApp restarts the app under test.
func (m *Manager) ResetApp(h *Handle) error {
	if err := h.device.TerminateApp(m.cfg.AppPackage); err != nil {
		logger.Warn("session: terminate %s: %v", m.cfg.AppPackage, err)
	}
	if err := h.device.ActivateApp(m.cfg.AppPackage); err != nil {
		return fmt.Errorf("activate %s: %w", m.cfg.AppPackage, err)
	}
	return nil
}

// Release closes the session. Failures are logged and swallowed; releasing
// twice is a no-op.
func (m *Manager) Release(h *Handle) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return
	}
	h.released = true
	if err := h.device.Close(); err != nil {
		logger.Warn("session: release: %v", err)
		return
	}
	logger.Info("session: released")
}

// ValidateServerURL checks that raw is an absolute http(s) URL.
func ValidateServerURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return &core.ConfigError{Field: "driverServerURL", Message: "malformed URL", Cause: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &core.ConfigError{Field: "driverServerURL", Message: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
	}
	if u.Host == "" {
		return &core.ConfigError{Field: "driverServerURL", Message: "missing host"}
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

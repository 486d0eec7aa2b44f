// Package wait implements polling synchronization against a core.Device.
package wait

import (
	"errors"
	"strings"
	"time"

	"github.com/devicelab-dev/aysa-runner/pkg/core"
	"github.com/devicelab-dev/aysa-runner/pkg/logger"
)

// DefaultPollInterval is how often conditions are re-checked.
const DefaultPollInterval = 250 * time.Millisecond

// Engine polls a device until a condition holds or a timeout expires.
type Engine struct {
	device   core.Device
	clock    Clock
	interval time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

// New creates a wait engine bound to device.
func New(device core.Device, opts ...Option) *Engine {
	e := &Engine{
		device:   device,
		clock:    RealClock{},
		interval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Clock returns the clock used for polling.
func (e *Engine) Clock() Clock {
	return e.clock
}

// WaitForVisible blocks until loc resolves to a displayed element.
func (e *Engine) WaitForVisible(loc core.Locator, timeout time.Duration) (core.Element, error) {
	var found core.Element
	ok := e.PollUntil(func() bool {
		el, err := e.device.Find(loc)
		if err != nil {
			return false
		}
		if displayed, err := el.Displayed(); err != nil || !displayed {
			return false
		}
		found = el
		return true
	}, timeout, e.interval)
	if !ok {
		logger.Debug("wait: %s not visible after %s", loc, timeout)
		return nil, &core.TimeoutError{Condition: "element to be visible", Locator: loc, Timeout: timeout}
	}
	return found, nil
}

// WaitForClickable blocks until loc resolves to a displayed and enabled element.
func (e *Engine) WaitForClickable(loc core.Locator, timeout time.Duration) (core.Element, error) {
	var found core.Element
	ok := e.PollUntil(func() bool {
		el, err := e.device.Find(loc)
		if err != nil {
			return false
		}
		if displayed, err := el.Displayed(); err != nil || !displayed {
			return false
		}
		if enabled, err := el.Enabled(); err != nil || !enabled {
			return false
		}
		found = el
		return true
	}, timeout, e.interval)
	if !ok {
		logger.Debug("wait: %s not clickable after %s", loc, timeout)
		return nil, &core.TimeoutError{Condition: "element to be clickable", Locator: loc, Timeout: timeout}
	}
	return found, nil
}

// WaitForDisappear blocks until loc no longer resolves to a displayed element.
// Only a lookup failing with core.ErrNoSuchElement counts as gone; other
// driver errors keep polling. It returns false on timeout.
func (e *Engine) WaitForDisappear(loc core.Locator, timeout time.Duration) bool {
	return e.PollUntil(func() bool {
		el, err := e.device.Find(loc)
		if err != nil {
			return errors.Is(err, core.ErrNoSuchElement)
		}
		displayed, err := el.Displayed()
		return err != nil || !displayed
	}, timeout, e.interval)
}

// WaitForText blocks until the element at loc contains text.
// It returns false on timeout.
func (e *Engine) WaitForText(loc core.Locator, text string, timeout time.Duration) bool {
	return e.PollUntil(func() bool {
		el, err := e.device.Find(loc)
		if err != nil {
			return false
		}
		got, err := el.Text()
		return err == nil && strings.Contains(got, text)
	}, timeout, e.interval)
}

// PollUntil evaluates pred every interval until it returns true or timeout
// elapses. pred is always evaluated at least once.
func (e *Engine) PollUntil(pred func() bool, timeout, interval time.Duration) bool {
	if interval <= 0 {
		interval = e.interval
	}
	deadline := e.clock.Now().Add(timeout)
	for {
		if pred() {
			return true
		}
		remaining := deadline.Sub(e.clock.Now())
		if remaining <= 0 {
			return false
		}
		if remaining < interval {
			e.clock.Sleep(remaining)
		} else {
			e.clock.Sleep(interval)
		}
	}
}

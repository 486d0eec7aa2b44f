// Package page models the Aysa app as a closed set of screens.
//
// Each screen is a value; actions return the next screen instead of
// mutating the current one. Only Home, ImagePicker, Questionnaire and
// Results implement Screen.
package page

import (
	"errors"
	"fmt"
	"time"

	"github.com/devicelab-dev/aysa-runner/pkg/core"
	"github.com/devicelab-dev/aysa-runner/pkg/logger"
	"github.com/devicelab-dev/aysa-runner/pkg/wait"
)

// Screen is one of Home, ImagePicker, Questionnaire or Results.
type Screen interface {
	Name() string
	screen()
}

// Navigator holds what every screen needs to drive the device.
type Navigator struct {
	device   core.Device
	wait     *wait.Engine
	clock    wait.Clock
	loc      Locators
	settle   Settle
	timeouts Timeouts
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithLocators overrides the default selectors.
func WithLocators(l Locators) Option {
	return func(n *Navigator) { n.loc = l }
}

// WithSettle overrides the settle delays.
func WithSettle(s Settle) Option {
	return func(n *Navigator) { n.settle = s }
}

// WithTimeouts overrides the per-step timeouts.
func WithTimeouts(t Timeouts) Option {
	return func(n *Navigator) { n.timeouts = t }
}

// DefaultAppPackage is the Aysa application id.
const DefaultAppPackage = "com.visualdx.aysa"

// NewNavigator creates a navigator over device, polling through w.
func NewNavigator(device core.Device, w *wait.Engine, opts ...Option) *Navigator {
	n := &Navigator{
		device:   device,
		wait:     w,
		clock:    w.Clock(),
		loc:      DefaultLocators(DefaultAppPackage),
		settle:   DefaultSettle(),
		timeouts: DefaultTimeouts(30 * time.Second),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Home waits for the home screen to be ready.
func (n *Navigator) Home() (Home, error) {
	candidates := append([]core.Locator{n.loc.HomeTitle}, n.loc.UploadButtons...)
	if _, _, err := n.firstVisible("home screen", candidates, n.timeouts.Explicit); err != nil {
		return Home{}, err
	}
	return Home{nav: n}, nil
}

// ReturnHome brings the app back to Home from whichever screen it is on.
func (n *Navigator) ReturnHome(from Screen) (Home, error) {
	switch s := from.(type) {
	case Home:
		return s, nil
	case Results:
		return s.Dismiss()
	default:
		return n.backToHome()
	}
}

// maxBackPresses bounds how far back navigation may go before giving up.
const maxBackPresses = 4

func (n *Navigator) backToHome() (Home, error) {
	for i := 0; i < maxBackPresses; i++ {
		if err := n.device.Back(); err != nil {
			return Home{}, fmt.Errorf("press back: %w", err)
		}
		n.pause(n.settle.AfterTap)
		if n.isVisible(n.loc.HomeTitle) || n.anyVisible(n.loc.UploadButtons) {
			return Home{nav: n}, nil
		}
	}
	return Home{}, &core.StepNotFoundError{Step: "return home", Locator: n.loc.HomeTitle}
}

// tap waits for loc to become clickable and clicks it.
func (n *Navigator) tap(step string, loc core.Locator, timeout time.Duration) error {
	el, err := n.wait.WaitForClickable(loc, timeout)
	if err != nil {
		return &core.StepNotFoundError{Step: step, Locator: loc, Cause: err}
	}
	logger.Info("%s: clicking %s", step, loc)
	if err := el.Click(); err != nil {
		return fmt.Errorf("%s: click %s: %w", step, loc, err)
	}
	return nil
}

// firstVisible polls candidates in priority order until one is displayed.
func (n *Navigator) firstVisible(step string, candidates []core.Locator, timeout time.Duration) (core.Element, core.Locator, error) {
	var (
		found core.Element
		which core.Locator
	)
	ok := n.wait.PollUntil(func() bool {
		for _, loc := range candidates {
			el, err := n.device.Find(loc)
			if err != nil {
				continue
			}
			if displayed, err := el.Displayed(); err == nil && displayed {
				found, which = el, loc
				return true
			}
		}
		return false
	}, timeout, 0)
	if !ok {
		var primary core.Locator
		if len(candidates) > 0 {
			primary = candidates[0]
		}
		return nil, core.Locator{}, &core.StepNotFoundError{
			Step:    step,
			Locator: primary,
			Cause:   &core.TimeoutError{Condition: step, Timeout: timeout},
		}
	}
	return found, which, nil
}

// tapFirst clicks the first displayed candidate.
func (n *Navigator) tapFirst(step string, candidates []core.Locator, timeout time.Duration) error {
	el, loc, err := n.firstVisible(step, candidates, timeout)
	if err != nil {
		return err
	}
	logger.Info("%s: clicking %s", step, loc)
	if err := el.Click(); err != nil {
		return fmt.Errorf("%s: click %s: %w", step, loc, err)
	}
	return nil
}

func (n *Navigator) isVisible(loc core.Locator) bool {
	el, err := n.device.Find(loc)
	if err != nil {
		return false
	}
	displayed, err := el.Displayed()
	return err == nil && displayed
}

func (n *Navigator) anyVisible(locs []core.Locator) bool {
	for _, loc := range locs {
		if n.isVisible(loc) {
			return true
		}
	}
	return false
}

func (n *Navigator) pause(d time.Duration) {
	if d > 0 {
		n.clock.Sleep(d)
	}
}

// ErrOutOfOrder is returned when a questionnaire step is called at the wrong point.
var ErrOutOfOrder = errors.New("questionnaire step out of order")

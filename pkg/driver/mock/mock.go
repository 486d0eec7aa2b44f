// Package mock provides an in-memory core.Device for running without a real device.
package mock

import (
	"encoding/xml"
	"fmt"
	"sync"
	"time"

	"github.com/devicelab-dev/aysa-runner/pkg/core"
)

// Element is one widget on a mock screen.
type Element struct {
	// Locators that resolve to this element.
	Locators []core.Locator
	// Text returned by the element.
	Text string
	// Hidden elements are found but not displayed.
	Hidden bool
	// Disabled elements are found but not enabled.
	Disabled bool
	// AppearAfter makes the first N lookups miss.
	AppearAfter int
	// VanishAfter makes lookups miss once N lookups have succeeded.
	VanishAfter int
	// OnClick runs with the device lock held.
	OnClick func(d *Device) error

	id    string
	finds int
}

func (e *Element) matches(loc core.Locator) bool {
	for _, l := range e.Locators {
		if l == loc {
			return true
		}
	}
	return false
}

// present records a lookup and reports whether the element is in the tree.
func (e *Element) present() bool {
	e.finds++
	if e.AppearAfter > 0 && e.finds <= e.AppearAfter {
		return false
	}
	if e.VanishAfter > 0 && e.finds > e.AppearAfter+e.VanishAfter {
		return false
	}
	return true
}

// Screen is a named set of elements.
type Screen struct {
	Name     string
	Elements []*Element
}

// Calls counts device interactions.
type Calls struct {
	Finds         int
	Clicks        []string
	Backs         int
	ImplicitWaits []time.Duration
	Activations   []string
	Terminations  []string
	Closes        int
}

// Config configures mock device behavior.
type Config struct {
	// FailOnClick makes click N fail (1-indexed). 0 = never fail.
	FailOnClick int
	// Platform info to report
	Platform string
	DeviceID string
}

// Device is a mock implementation of core.Device driven by a screen graph.
type Device struct {
	Config Config

	mu      sync.Mutex
	screens map[string]*Screen
	current string
	running bool
	closed  bool
	nextID  int
	calls   Calls

	// OnBack runs on Back with the device lock held. Nil leaves the screen unchanged.
	OnBack func(d *Device)
	// OnActivate runs on ActivateApp with the device lock held.
	OnActivate func(d *Device, appID string)
}

// New creates an empty mock device.
func New(cfg Config) *Device {
	if cfg.Platform == "" {
		cfg.Platform = "mock"
	}
	if cfg.DeviceID == "" {
		cfg.DeviceID = "mock-device"
	}
	return &Device{
		Config:  cfg,
		screens: make(map[string]*Screen),
		running: true,
	}
}

// AddScreen registers a screen, replacing any screen with the same name.
func (d *Device) AddScreen(s *Screen) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.putScreen(s)
	if d.current == "" {
		d.current = s.Name
	}
}

func (d *Device) putScreen(s *Screen) {
	for _, e := range s.Elements {
		d.assignID(e)
	}
	d.screens[s.Name] = s
}

// AddElement appends an element to an existing screen.
func (d *Device) AddElement(screen string, e *Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.screens[screen]
	if !ok {
		s = &Screen{Name: screen}
		d.screens[screen] = s
	}
	d.assignID(e)
	s.Elements = append(s.Elements, e)
}

// Remove deletes every element on screen matching loc.
func (d *Device) Remove(screen string, loc core.Locator) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.screens[screen]
	if !ok {
		return
	}
	kept := s.Elements[:0]
	for _, e := range s.Elements {
		if !e.matches(loc) {
			kept = append(kept, e)
		}
	}
	s.Elements = kept
}

// Element returns the first element on screen matching loc, for tests to tweak.
func (d *Device) Element(screen string, loc core.Locator) *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.screens[screen]; ok {
		for _, e := range s.Elements {
			if e.matches(loc) {
				return e
			}
		}
	}
	return nil
}

// Show switches to the named screen.
func (d *Device) Show(screen string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.current = screen
}

// GoTo switches screens from inside OnClick / OnBack hooks (lock already held).
func (d *Device) GoTo(screen string) {
	d.current = screen
}

// CurrentScreen returns the name of the visible screen.
func (d *Device) CurrentScreen() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// Calls returns a snapshot of the interaction counters.
func (d *Device) Calls() Calls {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := d.calls
	c.Clicks = append([]string(nil), d.calls.Clicks...)
	c.ImplicitWaits = append([]time.Duration(nil), d.calls.ImplicitWaits...)
	c.Activations = append([]string(nil), d.calls.Activations...)
	c.Terminations = append([]string(nil), d.calls.Terminations...)
	return c
}

// Closed reports whether Close was called.
func (d *Device) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *Device) assignID(e *Element) {
	if e.id == "" {
		d.nextID++
		e.id = fmt.Sprintf("mock-%d", d.nextID)
	}
}

// Find implements core.Device.
func (d *Device) Find(loc core.Locator) (core.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls.Finds++
	if err := d.usable(); err != nil {
		return nil, err
	}
	if s, ok := d.screens[d.current]; ok {
		for _, e := range s.Elements {
			if e.matches(loc) && e.present() {
				return &handle{device: d, el: e, loc: loc}, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", core.ErrNoSuchElement, loc)
}

// FindAll implements core.Device.
func (d *Device) FindAll(loc core.Locator) ([]core.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls.Finds++
	if err := d.usable(); err != nil {
		return nil, err
	}
	var out []core.Element
	if s, ok := d.screens[d.current]; ok {
		for _, e := range s.Elements {
			if e.matches(loc) && e.present() {
				out = append(out, &handle{device: d, el: e, loc: loc})
			}
		}
	}
	return out, nil
}

type xmlNode struct {
	XMLName xml.Name `xml:"node"`
	ID      string   `xml:"resource-id,attr,omitempty"`
	Desc    string   `xml:"content-desc,attr,omitempty"`
	Text    string   `xml:"text,attr"`
	Visible bool     `xml:"displayed,attr"`
}

type xmlHierarchy struct {
	XMLName xml.Name  `xml:"hierarchy"`
	Screen  string    `xml:"screen,attr"`
	Nodes   []xmlNode `xml:"node"`
}

// PageSource renders the visible screen as a UiAutomator-like XML hierarchy.
func (d *Device) PageSource() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.usable(); err != nil {
		return "", err
	}
	h := xmlHierarchy{Screen: d.current}
	if s, ok := d.screens[d.current]; ok {
		for _, e := range s.Elements {
			n := xmlNode{Text: e.Text, Visible: !e.Hidden}
			for _, l := range e.Locators {
				switch l.Strategy {
				case core.ByID:
					n.ID = l.Value
				case core.ByAccessibilityID:
					n.Desc = l.Value
				}
			}
			h.Nodes = append(h.Nodes, n)
		}
	}
	out, err := xml.MarshalIndent(h, "", "  ")
	if err != nil {
		return "", err
	}
	return xml.Header + string(out), nil
}

// Back implements core.Device.
func (d *Device) Back() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.usable(); err != nil {
		return err
	}
	d.calls.Backs++
	if d.OnBack != nil {
		d.OnBack(d)
	}
	return nil
}

// SetImplicitWait implements core.Device.
func (d *Device) SetImplicitWait(timeout time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return fmt.Errorf("session closed")
	}
	d.calls.ImplicitWaits = append(d.calls.ImplicitWaits, timeout)
	return nil
}

// ActivateApp implements core.Device.
func (d *Device) ActivateApp(appID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return fmt.Errorf("session closed")
	}
	d.calls.Activations = append(d.calls.Activations, appID)
	d.running = true
	if d.OnActivate != nil {
		d.OnActivate(d, appID)
	}
	return nil
}

// TerminateApp implements core.Device.
func (d *Device) TerminateApp(appID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return fmt.Errorf("session closed")
	}
	d.calls.Terminations = append(d.calls.Terminations, appID)
	d.running = false
	return nil
}

// Close implements core.Device.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls.Closes++
	d.closed = true
	return nil
}

// Screenshot returns a mock PNG image.
func (d *Device) Screenshot() ([]byte, error) {
	// Minimal valid PNG (1x1 transparent pixel)
	return []byte{
		0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, // PNG signature
		0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52, // IHDR chunk
		0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
		0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4,
		0x89, 0x00, 0x00, 0x00, 0x0A, 0x49, 0x44, 0x41,
		0x54, 0x78, 0x9C, 0x63, 0x00, 0x01, 0x00, 0x00,
		0x05, 0x00, 0x01, 0x0D, 0x0A, 0x2D, 0xB4, 0x00,
		0x00, 0x00, 0x00, 0x49, 0x45, 0x4E, 0x44, 0xAE,
		0x42, 0x60, 0x82,
	}, nil
}

func (d *Device) usable() error {
	if d.closed {
		return fmt.Errorf("session closed")
	}
	if !d.running {
		return fmt.Errorf("%w: app is not running", core.ErrNoSuchElement)
	}
	return nil
}

// handle is the core.Element returned by Find.
type handle struct {
	device *Device
	el     *Element
	loc    core.Locator
}

func (h *handle) ID() string { return h.el.id }

func (h *handle) Click() error {
	d := h.device
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.usable(); err != nil {
		return err
	}
	d.calls.Clicks = append(d.calls.Clicks, h.loc.Value)
	if d.Config.FailOnClick > 0 && len(d.calls.Clicks) == d.Config.FailOnClick {
		return fmt.Errorf("mock failure on click %d (%s)", len(d.calls.Clicks), h.loc)
	}
	if h.el.Hidden || h.el.Disabled {
		return fmt.Errorf("element not interactable: %s", h.loc)
	}
	if h.el.OnClick != nil {
		return h.el.OnClick(d)
	}
	return nil
}

func (h *handle) Text() (string, error) {
	h.device.mu.Lock()
	defer h.device.mu.Unlock()
	return h.el.Text, nil
}

func (h *handle) Displayed() (bool, error) {
	h.device.mu.Lock()
	defer h.device.mu.Unlock()
	return !h.el.Hidden, nil
}

func (h *handle) Enabled() (bool, error) {
	h.device.mu.Lock()
	defer h.device.mu.Unlock()
	return !h.el.Disabled, nil
}

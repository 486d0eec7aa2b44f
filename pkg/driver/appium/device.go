package appium

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/devicelab-dev/aysa-runner/pkg/core"
)

// Device adapts a Client session to core.Device.
type Device struct {
	client *Client
}

// Open starts a session on serverURL and returns it as a Device.
func Open(ctx context.Context, serverURL string, capabilities map[string]interface{}) (*Device, error) {
	client := NewClient(serverURL)
	if err := client.Connect(ctx, capabilities); err != nil {
		return nil, err
	}
	return &Device{client: client}, nil
}

// NewDevice wraps an already connected client.
func NewDevice(client *Client) *Device {
	return &Device{client: client}
}

// SessionID returns the WebDriver session id.
func (d *Device) SessionID() string {
	return d.client.SessionID()
}

// Find implements core.Device.
func (d *Device) Find(loc core.Locator) (core.Element, error) {
	using, value := toWebDriver(loc)
	id, err := d.client.FindElement(using, value)
	if err != nil {
		return nil, err
	}
	return &element{id: id, client: d.client}, nil
}

// FindAll implements core.Device.
func (d *Device) FindAll(loc core.Locator) ([]core.Element, error) {
	using, value := toWebDriver(loc)
	ids, err := d.client.FindElements(using, value)
	if err != nil {
		return nil, err
	}
	out := make([]core.Element, 0, len(ids))
	for _, id := range ids {
		out = append(out, &element{id: id, client: d.client})
	}
	return out, nil
}

// PageSource implements core.Device.
func (d *Device) PageSource() (string, error) {
	return d.client.Source()
}

// Back implements core.Device.
func (d *Device) Back() error {
	return d.client.Back()
}

// SetImplicitWait implements core.Device.
func (d *Device) SetImplicitWait(timeout time.Duration) error {
	return d.client.SetImplicitWait(timeout)
}

// ActivateApp implements core.Device.
func (d *Device) ActivateApp(appID string) error {
	return d.client.LaunchApp(appID)
}

// TerminateApp implements core.Device.
func (d *Device) TerminateApp(appID string) error {
	return d.client.TerminateApp(appID)
}

// Screenshot implements core.Screenshotter.
func (d *Device) Screenshot() ([]byte, error) {
	return d.client.Screenshot()
}

// Close ends the session.
func (d *Device) Close() error {
	return d.client.Disconnect()
}

// element is a WebDriver element reference.
type element struct {
	id     string
	client *Client
}

func (e *element) ID() string { return e.id }

func (e *element) Click() error { return e.client.ClickElement(e.id) }

func (e *element) Text() (string, error) { return e.client.GetElementText(e.id) }

func (e *element) Displayed() (bool, error) { return e.client.IsElementDisplayed(e.id) }

func (e *element) Enabled() (bool, error) { return e.client.IsElementEnabled(e.id) }

// toWebDriver maps a locator onto a WebDriver "using"/"value" pair.
// Contains-matching has no W3C strategy, so it goes through UiAutomator.
func toWebDriver(loc core.Locator) (string, string) {
	switch loc.Strategy {
	case core.ByTextContains:
		return "-android uiautomator", fmt.Sprintf(`new UiSelector().textContains("%s")`, escapeUiAutomatorString(loc.Value))
	case core.ByDescriptionContains:
		return "-android uiautomator", fmt.Sprintf(`new UiSelector().descriptionContains("%s")`, escapeUiAutomatorString(loc.Value))
	default:
		return string(loc.Strategy), loc.Value
	}
}

// escapeUiAutomatorString escapes quotes for UiAutomator string
func escapeUiAutomatorString(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

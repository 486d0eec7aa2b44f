package core

import "time"

// Element is a handle to a UI element resolved on the device.
type Element interface {
	ID() string
	Click() error
	Text() (string, error)
	Displayed() (bool, error)
	Enabled() (bool, error)
}

// Device is the contract the workflow needs from a mobile automation driver.
// Find returns an error wrapping ErrNoSuchElement when nothing matches.
type Device interface {
	Find(loc Locator) (Element, error)
	FindAll(loc Locator) ([]Element, error)
	PageSource() (string, error)
	Back() error
	SetImplicitWait(timeout time.Duration) error
	ActivateApp(appID string) error
	TerminateApp(appID string) error
	Close() error
}

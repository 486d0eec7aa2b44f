package core

import "fmt"

// Strategy names how a Locator is resolved on the device.
type Strategy string

const (
	ByID                  Strategy = "id"
	ByAccessibilityID     Strategy = "accessibility id"
	ByXPath               Strategy = "xpath"
	ByClassName           Strategy = "class name"
	ByTextContains        Strategy = "text contains"
	ByDescriptionContains Strategy = "description contains"
)

// Locator identifies a UI element. It is comparable and safe to use as a map key.
type Locator struct {
	Strategy Strategy
	Value    string
}

// String returns a human-readable description of the locator.
func (l Locator) String() string {
	return fmt.Sprintf("%s=%q", l.Strategy, l.Value)
}

// IsZero reports whether the locator is unset.
func (l Locator) IsZero() bool {
	return l.Strategy == "" && l.Value == ""
}

// ID locates by resource id.
func ID(v string) Locator { return Locator{Strategy: ByID, Value: v} }

// AccessibilityID locates by content description / accessibility id.
func AccessibilityID(v string) Locator { return Locator{Strategy: ByAccessibilityID, Value: v} }

// XPath locates by XPath expression.
func XPath(v string) Locator { return Locator{Strategy: ByXPath, Value: v} }

// ClassName locates by widget class.
func ClassName(v string) Locator { return Locator{Strategy: ByClassName, Value: v} }

// TextContains locates the first element whose text contains v.
func TextContains(v string) Locator { return Locator{Strategy: ByTextContains, Value: v} }

// DescriptionContains locates the first element whose description contains v.
func DescriptionContains(v string) Locator {
	return Locator{Strategy: ByDescriptionContains, Value: v}
}

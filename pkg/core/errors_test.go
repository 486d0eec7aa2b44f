package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestSessionInitError(t *testing.T) {
	cause := errors.New("connection refused")
	err := &SessionInitError{Attempts: 3, Cause: cause}

	if !strings.Contains(err.Error(), "3 attempt(s)") {
		t.Errorf("Error() = %q, want attempt count", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
	if err.Category() != ErrCategoryConnection {
		t.Errorf("Category() = %v, want %v", err.Category(), ErrCategoryConnection)
	}
}

func TestStepNotFoundError(t *testing.T) {
	err := &StepNotFoundError{
		Step:    "confirm photo",
		Locator: XPath("//android.widget.Button[@text='USE THIS PHOTO']"),
		Cause:   ErrNoSuchElement,
	}

	msg := err.Error()
	if !strings.Contains(msg, "confirm photo") || !strings.Contains(msg, "USE THIS PHOTO") {
		t.Errorf("Error() = %q, want step and locator", msg)
	}
	if !errors.Is(err, ErrNoSuchElement) {
		t.Error("errors.Is(err, ErrNoSuchElement) = false, want true")
	}
}

func TestTimeoutError(t *testing.T) {
	err := &TimeoutError{Condition: "visible", Locator: ID("home_title"), Timeout: 10 * time.Second}
	if !strings.Contains(err.Error(), "10s") || !strings.Contains(err.Error(), "home_title") {
		t.Errorf("Error() = %q", err.Error())
	}

	bare := &TimeoutError{Condition: "analysis to finish", Timeout: time.Minute}
	if strings.Contains(bare.Error(), "(") {
		t.Errorf("Error() = %q, want no locator suffix", bare.Error())
	}
}

func TestAssertionMismatchError(t *testing.T) {
	err := &AssertionMismatchError{Expected: "Melanoma", Detected: []string{"Eczema"}}
	if got := err.Error(); !strings.Contains(got, `"Melanoma"`) || !strings.Contains(got, "Eczema") {
		t.Errorf("Error() = %q, want expected and detected labels", got)
	}

	none := &AssertionMismatchError{Detected: []string{"Psoriasis", "Eczema"}}
	if got := none.Error(); !strings.Contains(got, "no condition") || !strings.Contains(got, "Psoriasis, Eczema") {
		t.Errorf("Error() = %q", got)
	}

	empty := &AssertionMismatchError{Expected: "Melanoma"}
	if got := empty.Error(); !strings.HasSuffix(got, "detected: none") {
		t.Errorf("Error() = %q, want 'detected: none' suffix", got)
	}
}

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"nil", nil, ErrCategoryNone},
		{"plain", errors.New("boom"), ErrCategoryNone},
		{"timeout", &TimeoutError{Condition: "x"}, ErrCategoryTimeout},
		{"wrapped step", fmt.Errorf("run: %w", &StepNotFoundError{Step: "s"}), ErrCategoryElement},
		{"mismatch", &AssertionMismatchError{Expected: "A"}, ErrCategoryAssertion},
		{"config", &ConfigError{Field: "driverServerURL", Message: "bad"}, ErrCategoryConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CategoryOf(tt.err); got != tt.want {
				t.Errorf("CategoryOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLocator(t *testing.T) {
	loc := AccessibilityID("Upload Image")
	if loc.String() != `accessibility id="Upload Image"` {
		t.Errorf("String() = %s", loc.String())
	}
	if loc.IsZero() {
		t.Error("IsZero() = true, want false")
	}
	if !(Locator{}).IsZero() {
		t.Error("zero Locator IsZero() = false, want true")
	}

	seen := map[Locator]bool{ID("a"): true}
	if !seen[ID("a")] || seen[XPath("a")] {
		t.Error("Locator equality should include the strategy")
	}
}

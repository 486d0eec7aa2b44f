package page

import (
	"fmt"
	"path"
	"strings"

	"github.com/devicelab-dev/aysa-runner/pkg/core"
)

// Locators holds every selector the workflow uses against the Aysa app.
// Dynamic selectors are built by the methods below.
type Locators struct {
	HomeTitle     core.Locator
	UploadButtons []core.Locator // tried in order

	UsePhotoButton      core.Locator
	YesButton           core.Locator
	NoButton            core.Locator
	ContinueButton      core.Locator
	CoverageOptionXPath string // fmt pattern taking the option label

	ProgressIndicators []core.Locator

	PrimaryOutcome []core.Locator // fallback chain, most specific first
	PartialOutcome core.Locator
	OutcomeItems   core.Locator
	TextViews      core.Locator
	Confidence     core.Locator
	NewScanButton  core.Locator
	BackButton     core.Locator
}

// DefaultLocators returns the selectors for the given application package.
func DefaultLocators(appPackage string) Locators {
	id := func(name string) core.Locator {
		return core.ID(appPackage + ":id/" + name)
	}
	return Locators{
		HomeTitle: id("home_title"),
		UploadButtons: []core.Locator{
			id("btn_upload_image"),
			core.AccessibilityID("Upload Image"),
			core.XPath("//android.widget.Button[contains(@text, 'Upload')]"),
			core.XPath("//android.widget.Button[contains(@text, 'Gallery')]"),
		},

		UsePhotoButton:      core.XPath("//android.widget.Button[@text='USE THIS PHOTO']"),
		YesButton:           core.XPath("//android.widget.Button[@text='YES']"),
		NoButton:            core.XPath("//android.widget.Button[@text='NO']"),
		ContinueButton:      core.XPath("//android.widget.Button[@text='CONTINUE']"),
		CoverageOptionXPath: "//android.widget.TextView[@text='%s']",

		ProgressIndicators: []core.Locator{
			id("progress_bar"),
			core.ClassName("android.widget.ProgressBar"),
		},

		PrimaryOutcome: []core.Locator{
			id("disease_name"),
			id("disease_title"),
			id("result_text"),
			id("diagnosis_result"),
		},
		PartialOutcome: core.XPath("//android.widget.TextView[contains(@resource-id, 'disease') or " +
			"contains(@resource-id, 'result') or contains(@resource-id, 'diagnosis')]"),
		OutcomeItems:  id("disease_item_name"),
		TextViews:     core.ClassName("android.widget.TextView"),
		Confidence:    id("confidence_value"),
		NewScanButton: id("btn_new_scan"),
		BackButton:    id("btn_back"),
	}
}

// Folder locates a gallery folder by name.
func (l Locators) Folder(name string) core.Locator {
	return core.TextContains(name)
}

// ImageByDescription locates a gallery thumbnail by its content description.
func (l Locators) ImageByDescription(name string) core.Locator {
	return core.DescriptionContains(name)
}

// ImageByText locates a gallery entry by its label, which omits the extension.
func (l Locators) ImageByText(name string) core.Locator {
	return core.TextContains(strings.TrimSuffix(name, path.Ext(name)))
}

// FlakyAnswer maps a YES/NO answer onto its button.
func (l Locators) FlakyAnswer(answer string) (core.Locator, error) {
	switch strings.ToUpper(strings.TrimSpace(answer)) {
	case "YES":
		return l.YesButton, nil
	case "NO":
		return l.NoButton, nil
	default:
		return core.Locator{}, fmt.Errorf("invalid flaky/bumpy answer %q: want YES or NO", answer)
	}
}

// Profile locates a profile entry.
func (l Locators) Profile(name string) core.Locator {
	return core.AccessibilityID(name)
}

// CoverageOption locates a body coverage option.
func (l Locators) CoverageOption(option string) core.Locator {
	return core.XPath(fmt.Sprintf(l.CoverageOptionXPath, option))
}

// BodyLocation locates a region on the body diagram.
func (l Locators) BodyLocation(region string) core.Locator {
	return core.AccessibilityID(region)
}

// Duration locates a symptom duration option.
func (l Locators) Duration(option string) core.Locator {
	return core.AccessibilityID(option)
}

// Answer locates a Yes/No answer on the symptom screens.
func (l Locators) Answer(answer string) (core.Locator, error) {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "yes":
		return core.AccessibilityID("Yes"), nil
	case "no":
		return core.AccessibilityID("No"), nil
	default:
		return core.Locator{}, fmt.Errorf("invalid answer %q: want Yes or No", answer)
	}
}

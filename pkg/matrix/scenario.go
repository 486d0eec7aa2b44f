package matrix

import (
	"fmt"
	"strings"
)

// Answers are the questionnaire responses submitted for one scenario.
type Answers struct {
	ProfileName  string `yaml:"profileName"`
	FlakyBumpy   string `yaml:"flakyBumpy"`
	BodyCoverage string `yaml:"bodyCoverage"`
	BodyLocation string `yaml:"bodyLocation"`
	Duration     string `yaml:"duration"`
	Itches       string `yaml:"itches"`
	Fever        string `yaml:"fever"`
}

// DefaultProfile is the profile every scenario answers as.
const DefaultProfile = "test"

// DefaultAnswers returns the fixed answer template for each category.
func DefaultAnswers() map[Category]Answers {
	return map[Category]Answers{
		Eczema: {
			ProfileName:  DefaultProfile,
			FlakyBumpy:   "YES",
			BodyCoverage: "Limited Area",
			BodyLocation: "arm-lower-right",
			Duration:     "Weeks to Months",
			Itches:       "Yes",
			Fever:        "No",
		},
		Melanoma: {
			ProfileName:  DefaultProfile,
			FlakyBumpy:   "NO",
			BodyCoverage: "Single Lesion",
			BodyLocation: "back-upper",
			Duration:     "Months to Years",
			Itches:       "No",
			Fever:        "No",
		},
		Psoriasis: {
			ProfileName:  DefaultProfile,
			FlakyBumpy:   "YES",
			BodyCoverage: "Widespread",
			BodyLocation: "leg-lower-left",
			Duration:     "Recurring Episodes",
			Itches:       "Yes",
			Fever:        "No",
		},
		FungalInfection: {
			ProfileName:  DefaultProfile,
			FlakyBumpy:   "YES",
			BodyCoverage: "Limited Area",
			BodyLocation: "foot-right",
			Duration:     "Days to Weeks",
			Itches:       "Yes",
			Fever:        "No",
		},
	}
}

// OutcomeKind distinguishes a specific disease from "no condition".
type OutcomeKind int

const (
	OutcomeDisease OutcomeKind = iota
	OutcomeNone
)

// Outcome is what a scenario expects the app to report.
type Outcome struct {
	Kind  OutcomeKind
	Label string
}

// Disease expects label to be among the detected outcomes.
func Disease(label string) Outcome {
	return Outcome{Kind: OutcomeDisease, Label: label}
}

// NoCondition expects nothing to be detected.
func NoCondition() Outcome {
	return Outcome{Kind: OutcomeNone}
}

func (o Outcome) String() string {
	if o.Kind == OutcomeNone {
		return "no condition"
	}
	return o.Label
}

// Matches reports whether the detected labels satisfy the outcome.
// A disease matches when any label contains it, ignoring case.
// No condition matches only when nothing was detected.
func (o Outcome) Matches(detected []string) bool {
	if o.Kind == OutcomeNone {
		return len(detected) == 0
	}
	for _, label := range detected {
		if ContainsFold(label, o.Label) {
			return true
		}
	}
	return false
}

// Scenario is one image to push through the detection workflow.
type Scenario struct {
	ID          int
	Category    Category
	ImageRef    string
	Expected    Outcome
	Answers     Answers
	Description string
}

// Name identifies the scenario in reports.
func (s Scenario) Name() string {
	return fmt.Sprintf("TC-%03d %s/%s -> %s", s.ID, s.Category.Folder(), s.ImageRef, s.Expected)
}

// IsNegativeControl reports whether the scenario expects no detection.
func (s Scenario) IsNegativeControl() bool {
	return s.Expected.Kind == OutcomeNone
}

func describe(c Category, image string, expected Outcome) string {
	variant := "original"
	stem := strings.TrimSuffix(image, imageExt(image))
	if i := strings.IndexByte(stem, '_'); i >= 0 {
		variant = strings.ReplaceAll(stem[i+1:], "_", " ")
	}
	if expected.Kind == OutcomeNone {
		return fmt.Sprintf("Negative control: %s image %s (%s) should detect no condition", c.Label(), image, variant)
	}
	return fmt.Sprintf("Detect %s from %s (%s)", expected.Label, image, variant)
}

package page

import "time"

// Settle holds the fixed pauses the app needs between interactions.
// Every delay is named after the transition it covers.
type Settle struct {
	ScreenLoad          time.Duration `yaml:"screenLoad"`
	AfterTap            time.Duration `yaml:"afterTap"`
	PhotoPreview        time.Duration `yaml:"photoPreview"`
	AfterPhotoConfirm   time.Duration `yaml:"afterPhotoConfirm"`
	AfterAnswer         time.Duration `yaml:"afterAnswer"`
	BodyDiagramLoad     time.Duration `yaml:"bodyDiagramLoad"`
	AfterZoom           time.Duration `yaml:"afterZoom"`
	AfterLocationSelect time.Duration `yaml:"afterLocationSelect"`
	BeforeContinue      time.Duration `yaml:"beforeContinue"`
	ContinuePress       time.Duration `yaml:"continuePress"`
	AfterContinue       time.Duration `yaml:"afterContinue"`
	BeforeSubmit        time.Duration `yaml:"beforeSubmit"`
	ResultsLoad         time.Duration `yaml:"resultsLoad"`
}

// DefaultSettle returns the delays the app was tuned against.
func DefaultSettle() Settle {
	return Settle{
		ScreenLoad:          2 * time.Second,
		AfterTap:            time.Second,
		PhotoPreview:        1500 * time.Millisecond,
		AfterPhotoConfirm:   1500 * time.Millisecond,
		AfterAnswer:         time.Second,
		BodyDiagramLoad:     2 * time.Second,
		AfterZoom:           2 * time.Second,
		AfterLocationSelect: 2500 * time.Millisecond,
		BeforeContinue:      1500 * time.Millisecond,
		ContinuePress:       500 * time.Millisecond,
		AfterContinue:       1500 * time.Millisecond,
		BeforeSubmit:        time.Second,
		ResultsLoad:         5 * time.Second,
	}
}

// Timeouts bounds each explicit wait the workflow performs.
type Timeouts struct {
	Explicit      time.Duration `yaml:"explicit"`
	Answer        time.Duration `yaml:"answer"`
	PhotoConfirm  time.Duration `yaml:"photoConfirm"`
	BodyLocation  time.Duration `yaml:"bodyLocation"`
	Continue      time.Duration `yaml:"continue"`
	Analysis      time.Duration `yaml:"analysis"`
	AnalysisPoll  time.Duration `yaml:"analysisPoll"`
	ResultsSignal time.Duration `yaml:"resultsSignal"`
}

// DefaultTimeouts returns the per-step timeouts, using explicit for screen loads.
func DefaultTimeouts(explicit time.Duration) Timeouts {
	return Timeouts{
		Explicit:      explicit,
		Answer:        10 * time.Second,
		PhotoConfirm:  15 * time.Second,
		BodyLocation:  15 * time.Second,
		Continue:      20 * time.Second,
		Analysis:      60 * time.Second,
		AnalysisPoll:  time.Second,
		ResultsSignal: 2 * time.Second,
	}
}

package page

import (
	"fmt"

	"github.com/devicelab-dev/aysa-runner/pkg/core"
	"github.com/devicelab-dev/aysa-runner/pkg/logger"
	"github.com/devicelab-dev/aysa-runner/pkg/matrix"
)

// SubStep is a position in the questionnaire.
type SubStep int

const (
	StepConfirmPhoto SubStep = iota
	StepFlakyBumpy
	StepProfile
	StepBodyCoverage
	StepBodyLocation
	StepDuration
	StepItch
	StepFever
	StepSubmit
	StepDone
)

func (s SubStep) String() string {
	switch s {
	case StepConfirmPhoto:
		return "confirm photo"
	case StepFlakyBumpy:
		return "flaky/bumpy"
	case StepProfile:
		return "profile"
	case StepBodyCoverage:
		return "body coverage"
	case StepBodyLocation:
		return "body location"
	case StepDuration:
		return "duration"
	case StepItch:
		return "itch"
	case StepFever:
		return "fever"
	case StepSubmit:
		return "submit"
	case StepDone:
		return "done"
	default:
		return "unknown"
	}
}

// Questionnaire walks the symptom questions for the selected image.
type Questionnaire struct {
	nav   *Navigator
	Image string
	step  SubStep
}

func (Questionnaire) screen() {}

// Name implements Screen.
func (Questionnaire) Name() string { return "Questionnaire" }

// Step returns the next sub-step to be answered.
func (q Questionnaire) Step() SubStep { return q.step }

func (q Questionnaire) expect(step SubStep) error {
	if q.step != step {
		return fmt.Errorf("%w: %s called at %s", ErrOutOfOrder, step, q.step)
	}
	return nil
}

func (q Questionnaire) next() Questionnaire {
	q.step++
	return q
}

// ConfirmPhoto accepts the photo preview.
func (q Questionnaire) ConfirmPhoto() (Questionnaire, error) {
	if err := q.expect(StepConfirmPhoto); err != nil {
		return q, err
	}
	n := q.nav
	n.pause(n.settle.PhotoPreview)
	if err := n.tap(StepConfirmPhoto.String(), n.loc.UsePhotoButton, n.timeouts.PhotoConfirm); err != nil {
		return q, err
	}
	n.pause(n.settle.AfterPhotoConfirm)
	return q.next(), nil
}

// AnswerFlakyBumpy answers YES or NO.
func (q Questionnaire) AnswerFlakyBumpy(answer string) (Questionnaire, error) {
	if err := q.expect(StepFlakyBumpy); err != nil {
		return q, err
	}
	loc, err := q.nav.loc.FlakyAnswer(answer)
	if err != nil {
		return q, err
	}
	return q.answer(StepFlakyBumpy, loc)
}

// SelectProfile picks who the photo belongs to.
func (q Questionnaire) SelectProfile(name string) (Questionnaire, error) {
	if err := q.expect(StepProfile); err != nil {
		return q, err
	}
	return q.answer(StepProfile, q.nav.loc.Profile(name))
}

// SelectBodyCoverage picks how much skin is affected.
func (q Questionnaire) SelectBodyCoverage(option string) (Questionnaire, error) {
	if err := q.expect(StepBodyCoverage); err != nil {
		return q, err
	}
	return q.answer(StepBodyCoverage, q.nav.loc.CoverageOption(option))
}

// SelectBodyLocation taps the region once to zoom, locates it again, taps it
// to select, then continues.
func (q Questionnaire) SelectBodyLocation(region string) (Questionnaire, error) {
	if err := q.expect(StepBodyLocation); err != nil {
		return q, err
	}
	n := q.nav
	loc := n.loc.BodyLocation(region)
	step := StepBodyLocation.String()

	n.pause(n.settle.BodyDiagramLoad)
	if err := n.tap(step+" (zoom)", loc, n.timeouts.BodyLocation); err != nil {
		return q, err
	}
	n.pause(n.settle.AfterZoom)

	// The diagram is redrawn after zooming, so the first handle is stale.
	if err := n.tap(step+" (select)", loc, n.timeouts.BodyLocation); err != nil {
		return q, err
	}
	n.pause(n.settle.AfterLocationSelect)

	n.pause(n.settle.BeforeContinue)
	if err := n.tap(step+" (continue)", n.loc.ContinueButton, n.timeouts.Continue); err != nil {
		return q, err
	}
	n.pause(n.settle.AfterContinue)
	return q.next(), nil
}

// SelectDuration picks how long the condition has lasted.
func (q Questionnaire) SelectDuration(option string) (Questionnaire, error) {
	if err := q.expect(StepDuration); err != nil {
		return q, err
	}
	return q.answer(StepDuration, q.nav.loc.Duration(option))
}

// AnswerItch answers Yes or No.
func (q Questionnaire) AnswerItch(answer string) (Questionnaire, error) {
	if err := q.expect(StepItch); err != nil {
		return q, err
	}
	loc, err := q.nav.loc.Answer(answer)
	if err != nil {
		return q, err
	}
	return q.answer(StepItch, loc)
}

// AnswerFever answers Yes or No.
func (q Questionnaire) AnswerFever(answer string) (Questionnaire, error) {
	if err := q.expect(StepFever); err != nil {
		return q, err
	}
	loc, err := q.nav.loc.Answer(answer)
	if err != nil {
		return q, err
	}
	return q.answer(StepFever, loc)
}

// Submit sends the answers and waits for the analysis to finish.
func (q Questionnaire) Submit() (Results, error) {
	if err := q.expect(StepSubmit); err != nil {
		return Results{}, err
	}
	n := q.nav
	n.pause(n.settle.BeforeSubmit)
	n.pause(n.settle.ContinuePress)
	if err := n.tap(StepSubmit.String(), n.loc.ContinueButton, n.timeouts.Continue); err != nil {
		return Results{}, err
	}
	n.pause(n.settle.AfterContinue)

	if err := n.waitForAnalysis(); err != nil {
		return Results{}, err
	}
	n.pause(n.settle.ResultsLoad)
	return Results{nav: n}, nil
}

// Complete answers every remaining question in order and submits.
func (q Questionnaire) Complete(a matrix.Answers) (Results, error) {
	var err error
	steps := []struct {
		at  SubStep
		run func() (Questionnaire, error)
	}{
		{StepConfirmPhoto, func() (Questionnaire, error) { return q.ConfirmPhoto() }},
		{StepFlakyBumpy, func() (Questionnaire, error) { return q.AnswerFlakyBumpy(a.FlakyBumpy) }},
		{StepProfile, func() (Questionnaire, error) { return q.SelectProfile(a.ProfileName) }},
		{StepBodyCoverage, func() (Questionnaire, error) { return q.SelectBodyCoverage(a.BodyCoverage) }},
		{StepBodyLocation, func() (Questionnaire, error) { return q.SelectBodyLocation(a.BodyLocation) }},
		{StepDuration, func() (Questionnaire, error) { return q.SelectDuration(a.Duration) }},
		{StepItch, func() (Questionnaire, error) { return q.AnswerItch(a.Itches) }},
		{StepFever, func() (Questionnaire, error) { return q.AnswerFever(a.Fever) }},
	}
	for _, s := range steps {
		if q.step > s.at {
			continue
		}
		if q, err = s.run(); err != nil {
			return Results{}, err
		}
	}
	return q.Submit()
}

func (q Questionnaire) answer(step SubStep, loc core.Locator) (Questionnaire, error) {
	n := q.nav
	if err := n.tap(step.String(), loc, n.timeouts.Answer); err != nil {
		return q, err
	}
	n.pause(n.settle.AfterAnswer)
	return q.next(), nil
}

// waitForAnalysis blocks while a progress indicator is on screen.
func (n *Navigator) waitForAnalysis() error {
	var showing core.Locator
	for _, loc := range n.loc.ProgressIndicators {
		if n.isVisible(loc) {
			showing = loc
			break
		}
	}
	if showing.IsZero() {
		return nil
	}
	logger.Info("waiting for analysis to finish (%s)", showing)
	done := n.wait.PollUntil(func() bool {
		return !n.anyVisible(n.loc.ProgressIndicators)
	}, n.timeouts.Analysis, n.timeouts.AnalysisPoll)
	if !done {
		return &core.TimeoutError{Condition: "analysis to finish", Locator: showing, Timeout: n.timeouts.Analysis}
	}
	return nil
}

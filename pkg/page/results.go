package page

import (
	"strings"
	"unicode"

	"github.com/devicelab-dev/aysa-runner/pkg/core"
	"github.com/devicelab-dev/aysa-runner/pkg/logger"
	"github.com/devicelab-dev/aysa-runner/pkg/matrix"
)

// Results shows the analysis outcome.
type Results struct {
	nav *Navigator
}

func (Results) screen() {}

// Name implements Screen.
func (Results) Name() string { return "Results" }

// AllOutcomes returns every outcome label on screen, list items first,
// de-duplicated ignoring case. Read errors are logged and skipped.
func (r Results) AllOutcomes() []string {
	n := r.nav
	var labels []string
	add := func(text string) {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		for _, l := range labels {
			if strings.EqualFold(l, text) {
				return
			}
		}
		labels = append(labels, text)
	}

	items, err := n.device.FindAll(n.loc.OutcomeItems)
	if err != nil {
		logger.Warn("results: list outcome items: %v", err)
	}
	for _, el := range items {
		text, err := el.Text()
		if err != nil {
			logger.Warn("results: read outcome item: %v", err)
			continue
		}
		add(text)
	}

	for _, loc := range append(append([]core.Locator{}, n.loc.PrimaryOutcome...), n.loc.PartialOutcome) {
		if text, ok := r.textOf(loc); ok {
			if !reportsNoCondition(text) {
				add(text)
			}
			break
		}
	}
	return labels
}

// PrimaryOutcome returns the headline outcome. It walks the known result
// widgets, then falls back to scanning every text view for something that
// looks like a label.
func (r Results) PrimaryOutcome() (string, bool) {
	n := r.nav
	for _, loc := range n.loc.PrimaryOutcome {
		if text, ok := r.textOf(loc); ok {
			return text, true
		}
	}
	if text, ok := r.textOf(n.loc.PartialOutcome); ok {
		return text, true
	}

	views, err := n.device.FindAll(n.loc.TextViews)
	if err != nil {
		return "", false
	}
	for _, el := range views {
		text, err := el.Text()
		if err != nil {
			continue
		}
		if looksLikeOutcome(text) {
			return strings.TrimSpace(text), true
		}
	}
	return "", false
}

// ContainsOutcome reports whether label is among the detected outcomes,
// ignoring case. It falls back to searching the page source.
func (r Results) ContainsOutcome(label string) bool {
	for _, o := range r.AllOutcomes() {
		if matrix.ContainsFold(o, label) {
			return true
		}
	}
	source, err := r.nav.device.PageSource()
	if err != nil {
		logger.Warn("results: page source: %v", err)
		return false
	}
	nodes, err := ParsePageSource(source)
	if err != nil {
		logger.Debug("results: unparsable page source, raw search: %v", err)
		return matrix.ContainsFold(source, label)
	}
	for _, text := range VisibleTexts(nodes) {
		if matrix.ContainsFold(text, label) {
			return true
		}
	}
	return false
}

// Confidence returns the confidence text when the app shows one.
func (r Results) Confidence() (string, bool) {
	return r.textOf(r.nav.loc.Confidence)
}

// Dismiss leaves the results screen and waits for Home.
func (r Results) Dismiss() (Home, error) {
	n := r.nav
	if err := n.tapFirst("dismiss results", []core.Locator{n.loc.NewScanButton, n.loc.BackButton}, n.timeouts.ResultsSignal); err != nil {
		logger.Debug("results: no dismiss button, pressing back: %v", err)
		if err := n.device.Back(); err != nil {
			return Home{}, err
		}
	}
	n.pause(n.settle.AfterTap)
	return n.Home()
}

func (r Results) textOf(loc core.Locator) (string, bool) {
	el, err := r.nav.device.Find(loc)
	if err != nil {
		return "", false
	}
	if displayed, err := el.Displayed(); err != nil || !displayed {
		return "", false
	}
	text, err := el.Text()
	if err != nil {
		return "", false
	}
	text = strings.TrimSpace(text)
	return text, text != ""
}

// noConditionPhrases appear in results banners shown when nothing was found.
var noConditionPhrases = []string{
	"no condition",
	"no disease",
	"no match",
	"no result",
	"not detected",
	"nothing detected",
	"nothing found",
}

// reportsNoCondition reports whether text is a banner saying nothing was
// detected rather than an outcome label.
func reportsNoCondition(text string) bool {
	for _, phrase := range noConditionPhrases {
		if matrix.ContainsFold(text, phrase) {
			return true
		}
	}
	return false
}

// looksLikeOutcome filters out chrome such as button captions and percentages.
func looksLikeOutcome(text string) bool {
	text = strings.TrimSpace(text)
	if len(text) <= 3 {
		return false
	}
	run := 0
	for _, r := range text {
		if !unicode.IsDigit(r) {
			run = 0
			continue
		}
		if run++; run >= 2 {
			return false
		}
	}
	lower := strings.ToLower(text)
	for _, word := range []string{"upload", "scan", "button"} {
		if strings.Contains(lower, word) {
			return false
		}
	}
	return true
}

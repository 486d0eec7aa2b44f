package matrix

import (
	"errors"
	"fmt"
)

// DefaultRangeSize is the number of scenario IDs reserved per category.
const DefaultRangeSize = 100

// ErrRangeOverflow is returned when a category has more images than its ID block.
var ErrRangeOverflow = errors.New("category ID range overflow")

// Options controls scenario generation.
type Options struct {
	// Categories to include, in any order. Empty means AllCategories.
	Categories []Category
	// NegativeControl is the category whose first image must detect nothing.
	NegativeControl Category
	// DisableNegativeControl turns every scenario into a disease expectation.
	DisableNegativeControl bool
	// RangeSize reserves IDs [k*RangeSize+1, (k+1)*RangeSize] for category k.
	RangeSize int
	// Templates overrides DefaultAnswers per category.
	Templates map[Category]Answers
}

// DefaultOptions returns the standard matrix: all categories, eczema as negative control.
func DefaultOptions() Options {
	return Options{
		Categories:      AllCategories,
		NegativeControl: Eczema,
		RangeSize:       DefaultRangeSize,
		Templates:       DefaultAnswers(),
	}
}

// Generate builds the ordered scenario list from inv. Scenarios are ordered
// by category ordinal, then image order, so IDs ascend through the list.
func Generate(inv Inventory, opts Options) ([]Scenario, error) {
	if opts.RangeSize <= 0 {
		opts.RangeSize = DefaultRangeSize
	}
	if opts.Templates == nil {
		opts.Templates = DefaultAnswers()
	}
	include := make(map[Category]bool)
	if len(opts.Categories) == 0 {
		opts.Categories = AllCategories
	}
	for _, c := range opts.Categories {
		include[c] = true
	}

	var scenarios []Scenario
	for _, c := range AllCategories {
		if !include[c] {
			continue
		}
		images, err := inv.Images(c)
		if err != nil {
			return nil, err
		}
		if len(images) > opts.RangeSize {
			return nil, fmt.Errorf("%w: %s has %d images, range holds %d", ErrRangeOverflow, c, len(images), opts.RangeSize)
		}

		answers, ok := opts.Templates[c]
		if !ok {
			answers = DefaultAnswers()[c]
		}

		base := int(c) * opts.RangeSize
		for i, image := range images {
			expected := Disease(c.Label())
			if i == 0 && !opts.DisableNegativeControl && c == opts.NegativeControl {
				expected = NoCondition()
			}
			scenarios = append(scenarios, Scenario{
				ID:          base + i + 1,
				Category:    c,
				ImageRef:    image,
				Expected:    expected,
				Answers:     answers,
				Description: describe(c, image, expected),
			})
		}
	}
	return scenarios, nil
}

// CategoryForID returns the category owning id under rangeSize.
func CategoryForID(id, rangeSize int) (Category, bool) {
	if rangeSize <= 0 {
		rangeSize = DefaultRangeSize
	}
	if id < 1 {
		return 0, false
	}
	c := Category((id - 1) / rangeSize)
	if int(c) >= len(AllCategories) {
		return 0, false
	}
	return c, true
}

// Lookup finds a scenario by ID.
func Lookup(scenarios []Scenario, id int) (Scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return Scenario{}, false
}

// Filter keeps scenarios in the given categories and, when ids is non-empty,
// with one of the given IDs. Order is preserved.
func Filter(scenarios []Scenario, categories []Category, ids []int) []Scenario {
	cats := make(map[Category]bool, len(categories))
	for _, c := range categories {
		cats[c] = true
	}
	wanted := make(map[int]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	var out []Scenario
	for _, s := range scenarios {
		if len(cats) > 0 && !cats[s.Category] {
			continue
		}
		if len(wanted) > 0 && !wanted[s.ID] {
			continue
		}
		out = append(out, s)
	}
	return out
}

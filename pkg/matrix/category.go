// Package matrix builds the ordered list of disease detection scenarios.
package matrix

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category is a disease category. Its ordinal fixes the scenario ID block.
type Category int

const (
	Eczema Category = iota
	Melanoma
	Psoriasis
	FungalInfection
)

// AllCategories lists every category in ID block order.
var AllCategories = []Category{Eczema, Melanoma, Psoriasis, FungalInfection}

var folders = map[Category]string{
	Eczema:          "eczema",
	Melanoma:        "melanoma",
	Psoriasis:       "psoriasis",
	FungalInfection: "fungal_infection",
}

// Folder returns the inventory folder name, which is also the gallery folder.
func (c Category) Folder() string {
	if f, ok := folders[c]; ok {
		return f
	}
	return "unknown"
}

// String returns the folder name.
func (c Category) String() string {
	return c.Folder()
}

// Label returns the human-readable outcome label, e.g. "Fungal Infection".
func (c Category) Label() string {
	return cases.Title(language.English).String(strings.ReplaceAll(c.Folder(), "_", " "))
}

// ParseCategory accepts a folder name or a label, case-insensitively.
func ParseCategory(s string) (Category, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
	for _, c := range AllCategories {
		if c.Folder() == norm {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

// ContainsFold reports whether substr is within s under Unicode case folding.
func ContainsFold(s, substr string) bool {
	fold := cases.Fold()
	return strings.Contains(fold.String(s), fold.String(substr))
}

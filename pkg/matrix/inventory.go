package matrix

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ManifestFile is read from the inventory root in place of a directory scan when present.
const ManifestFile = "inventory.yaml"

// DefaultVariations are the capture-condition suffixes of the bundled test images.
var DefaultVariations = []string{"low_light", "bright", "distance", "cropped", "angled"}

// Inventory lists the images available for a category.
type Inventory interface {
	Images(c Category) ([]string, error)
}

// DirInventory reads images from {Root}/{category folder}/, or from an
// inventory.yaml manifest mapping folder names to file names.
type DirInventory struct {
	Root string
}

// Images implements Inventory. A missing category folder yields no images.
func (d DirInventory) Images(c Category) ([]string, error) {
	manifest, err := d.manifest()
	if err != nil {
		return nil, err
	}
	if manifest != nil {
		return SortImages(manifest[c.Folder()]), nil
	}

	entries, err := os.ReadDir(filepath.Join(d.Root, c.Folder()))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read inventory for %s: %w", c, err)
	}

	var images []string
	for _, e := range entries {
		if e.IsDir() || !isImage(e.Name()) {
			continue
		}
		images = append(images, e.Name())
	}
	return SortImages(images), nil
}

func (d DirInventory) manifest() (map[string][]string, error) {
	data, err := os.ReadFile(filepath.Join(d.Root, ManifestFile)) //#nosec G304 -- user-provided inventory dir
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var m map[string][]string
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ManifestFile, err)
	}
	if m == nil {
		m = map[string][]string{}
	}
	return m, nil
}

// SyntheticInventory generates {n}.jpg plus {n}_{variation}.jpg for n in 1..Bases.
type SyntheticInventory struct {
	Bases      int
	Variations []string
}

// Images implements Inventory. Every category gets the same file names.
func (s SyntheticInventory) Images(Category) ([]string, error) {
	var images []string
	for n := 1; n <= s.Bases; n++ {
		images = append(images, fmt.Sprintf("%d.jpg", n))
		for _, v := range s.Variations {
			images = append(images, fmt.Sprintf("%d_%s.jpg", n, v))
		}
	}
	return SortImages(images), nil
}

// SortImages orders file names by their leading number, then lexicographically.
// Names without a leading number sort after numbered ones.
func SortImages(names []string) []string {
	out := make([]string, len(names))
	copy(out, names)
	sort.SliceStable(out, func(i, j int) bool {
		ni, ri, oki := leadingNumber(out[i])
		nj, rj, okj := leadingNumber(out[j])
		switch {
		case oki && okj:
			if ni != nj {
				return ni < nj
			}
			return ri < rj
		case oki != okj:
			return oki
		default:
			return out[i] < out[j]
		}
	})
	return out
}

func leadingNumber(name string) (int, string, bool) {
	end := 0
	for end < len(name) && name[end] >= '0' && name[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, name, false
	}
	n, err := strconv.Atoi(name[:end])
	if err != nil {
		return 0, name, false
	}
	return n, name[end:], true
}

func imageExt(name string) string {
	return filepath.Ext(name)
}

func isImage(name string) bool {
	switch strings.ToLower(imageExt(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

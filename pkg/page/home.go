package page

import "github.com/devicelab-dev/aysa-runner/pkg/core"

// Home is the app's landing screen.
type Home struct {
	nav *Navigator
}

func (Home) screen() {}

// Name implements Screen.
func (Home) Name() string { return "Home" }

// OpenImagePicker taps the first upload button that is on screen.
func (h Home) OpenImagePicker() (ImagePicker, error) {
	n := h.nav
	if err := n.tapFirst("open image picker", n.loc.UploadButtons, n.timeouts.Explicit); err != nil {
		return ImagePicker{}, err
	}
	n.pause(n.settle.ScreenLoad)
	return ImagePicker{nav: n}, nil
}

// ImagePicker is the gallery. Folder is empty until SelectFolder succeeds.
type ImagePicker struct {
	nav    *Navigator
	Folder string
}

func (ImagePicker) screen() {}

// Name implements Screen.
func (ImagePicker) Name() string { return "ImagePicker" }

// SelectFolder opens a gallery folder.
func (p ImagePicker) SelectFolder(name string) (ImagePicker, error) {
	n := p.nav
	if err := n.tap("select folder "+name, n.loc.Folder(name), n.timeouts.Explicit); err != nil {
		return p, err
	}
	n.pause(n.settle.AfterTap)
	return ImagePicker{nav: n, Folder: name}, nil
}

// SelectImage picks an image by its description, falling back to its label.
func (p ImagePicker) SelectImage(name string) (Questionnaire, error) {
	n := p.nav
	candidates := []core.Locator{n.loc.ImageByDescription(name), n.loc.ImageByText(name)}
	if err := n.tapFirst("select image "+name, candidates, n.timeouts.Explicit); err != nil {
		return Questionnaire{}, err
	}
	n.pause(n.settle.AfterTap)
	return Questionnaire{nav: n, Image: name, step: StepConfirmPhoto}, nil
}

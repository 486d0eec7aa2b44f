package mock

import (
	"github.com/devicelab-dev/aysa-runner/pkg/core"
	"github.com/devicelab-dev/aysa-runner/pkg/matrix"
	"github.com/devicelab-dev/aysa-runner/pkg/page"
)

// Screen names of the simulated Aysa app.
const (
	ScreenHome     = "home"
	ScreenGallery  = "gallery"
	ScreenPhoto    = "photo"
	ScreenFlaky    = "flaky"
	ScreenProfile  = "profile"
	ScreenCoverage = "coverage"
	ScreenLocation = "location"
	ScreenDuration = "duration"
	ScreenItch     = "itch"
	ScreenFever    = "fever"
	ScreenSubmit   = "submit"
	ScreenResults  = "results"
)

// FolderScreen names the gallery screen listing one folder.
func FolderScreen(folder string) string {
	return ScreenGallery + "/" + folder
}

// AppOptions configures the simulated Aysa app.
type AppOptions struct {
	AppID    string
	Locators page.Locators
	// Images lists gallery contents per folder.
	Images map[string][]string
	// Detect returns the outcome labels shown for an analysed image.
	Detect func(folder, image string) []string
	// Confidence is the text of the confidence widget.
	Confidence string
	// NoConditionText, when set, is shown in the result widget for images
	// that detect nothing.
	NoConditionText string
	// AnalysisPolls keeps the progress indicator visible for N lookups.
	AnalysisPolls int

	Profiles        []string
	CoverageOptions []string
	BodyLocations   []string
	Durations       []string
}

// DefaultAppOptions returns a simulator holding a synthetic inventory in
// which every image is detected as its folder's label, except the first
// eczema image, which detects nothing.
func DefaultAppOptions(appID string) AppOptions {
	inv := matrix.SyntheticInventory{Bases: 3, Variations: matrix.DefaultVariations}
	opts, _ := InventoryAppOptions(appID, inv, matrix.DefaultOptions().NegativeControl)
	return opts
}

// InventoryAppOptions returns a simulator whose gallery mirrors inv. The
// first image of control detects nothing; every other image is detected as
// its folder's label.
func InventoryAppOptions(appID string, inv matrix.Inventory, control matrix.Category) (AppOptions, error) {
	images := make(map[string][]string)
	for _, c := range matrix.AllCategories {
		list, err := inv.Images(c)
		if err != nil {
			return AppOptions{}, err
		}
		images[c.Folder()] = list
	}
	controlFolder := control.Folder()
	var controlImage string
	if imgs := images[controlFolder]; len(imgs) > 0 {
		controlImage = imgs[0]
	}

	locations := []string{"face", "hand-left"}
	for _, a := range matrix.DefaultAnswers() {
		locations = append(locations, a.BodyLocation)
	}

	return AppOptions{
		AppID:    appID,
		Locators: page.DefaultLocators(appID),
		Images:   images,
		Detect: func(folder, image string) []string {
			if folder == controlFolder && image == controlImage {
				return nil
			}
			c, err := matrix.ParseCategory(folder)
			if err != nil {
				return nil
			}
			return []string{c.Label()}
		},
		Confidence:      "87%",
		AnalysisPolls:   2,
		Profiles:        []string{matrix.DefaultProfile},
		CoverageOptions: []string{"Single Lesion", "Limited Area", "Widespread"},
		BodyLocations:   locations,
		Durations: []string{
			"Minutes to Hours", "Days to Weeks", "Weeks to Months",
			"Months to Years", "Recurring Episodes",
		},
	}, nil
}

// App is the state of the simulated Aysa app behind a Device.
type App struct {
	opts AppOptions

	folder string
	image  string
	zoomed string
}

// NewAysaApp creates a Device running the simulated Aysa app on its home screen.
func NewAysaApp(cfg Config, opts AppOptions) (*Device, *App) {
	d := New(cfg)
	app := &App{opts: opts}

	d.mu.Lock()
	app.install(d)
	d.current = ScreenHome
	d.mu.Unlock()

	d.OnBack = func(d *Device) { app.reset(d) }
	d.OnActivate = func(d *Device, _ string) { app.reset(d) }
	return d, app
}

// Selected returns the folder and image picked in the gallery.
func (a *App) Selected() (folder, image string) {
	return a.folder, a.image
}

func (a *App) reset(d *Device) {
	a.folder, a.image, a.zoomed = "", "", ""
	a.install(d)
	d.current = ScreenHome
}

func goTo(screen string) func(d *Device) error {
	return func(d *Device) error {
		d.GoTo(screen)
		return nil
	}
}

// install rebuilds every screen. The device lock must be held.
func (a *App) install(d *Device) {
	l := a.opts.Locators

	home := &Screen{Name: ScreenHome}
	home.Elements = append(home.Elements, &Element{Locators: []core.Locator{l.HomeTitle}, Text: "Aysa"})
	if len(l.UploadButtons) > 0 {
		home.Elements = append(home.Elements, &Element{
			Locators: l.UploadButtons,
			Text:     "Upload Image",
			OnClick:  goTo(ScreenGallery),
		})
	}
	d.putScreen(home)

	gallery := &Screen{Name: ScreenGallery}
	for folder, images := range a.opts.Images {
		folder := folder
		gallery.Elements = append(gallery.Elements, &Element{
			Locators: []core.Locator{l.Folder(folder)},
			Text:     folder,
			OnClick: func(d *Device) error {
				a.folder = folder
				d.GoTo(FolderScreen(folder))
				return nil
			},
		})

		list := &Screen{Name: FolderScreen(folder)}
		for _, image := range images {
			image := image
			list.Elements = append(list.Elements, &Element{
				Locators: []core.Locator{l.ImageByDescription(image), l.ImageByText(image)},
				Text:     image,
				OnClick: func(d *Device) error {
					a.image = image
					d.GoTo(ScreenPhoto)
					return nil
				},
			})
		}
		d.putScreen(list)
	}
	d.putScreen(gallery)

	d.putScreen(&Screen{Name: ScreenPhoto, Elements: []*Element{
		{Locators: []core.Locator{l.UsePhotoButton}, Text: "USE THIS PHOTO", OnClick: goTo(ScreenFlaky)},
	}})

	d.putScreen(&Screen{Name: ScreenFlaky, Elements: []*Element{
		{Locators: []core.Locator{l.YesButton}, Text: "YES", OnClick: goTo(ScreenProfile)},
		{Locators: []core.Locator{l.NoButton}, Text: "NO", OnClick: goTo(ScreenProfile)},
	}})

	d.putScreen(a.options(ScreenProfile, a.opts.Profiles, l.Profile, ScreenCoverage))
	d.putScreen(a.options(ScreenCoverage, a.opts.CoverageOptions, l.CoverageOption, ScreenLocation))
	d.putScreen(a.options(ScreenDuration, a.opts.Durations, l.Duration, ScreenItch))

	cont := &Element{
		Locators: []core.Locator{l.ContinueButton},
		Text:     "CONTINUE",
		Disabled: true,
		OnClick:  goTo(ScreenDuration),
	}
	location := &Screen{Name: ScreenLocation}
	for _, region := range a.opts.BodyLocations {
		region := region
		location.Elements = append(location.Elements, &Element{
			Locators: []core.Locator{l.BodyLocation(region)},
			OnClick: func(*Device) error {
				if a.zoomed != region {
					a.zoomed = region
					return nil
				}
				cont.Disabled = false
				return nil
			},
		})
	}
	location.Elements = append(location.Elements, cont)
	d.putScreen(location)

	d.putScreen(a.yesNo(ScreenItch, ScreenFever))
	d.putScreen(a.yesNo(ScreenFever, ScreenSubmit))

	d.putScreen(&Screen{Name: ScreenSubmit, Elements: []*Element{
		{
			Locators: []core.Locator{l.ContinueButton},
			Text:     "CONTINUE",
			OnClick: func(d *Device) error {
				d.putScreen(a.results())
				d.GoTo(ScreenResults)
				return nil
			},
		},
	}})
}

func (a *App) options(name string, values []string, locate func(string) core.Locator, next string) *Screen {
	s := &Screen{Name: name}
	for _, v := range values {
		s.Elements = append(s.Elements, &Element{
			Locators: []core.Locator{locate(v)},
			Text:     v,
			OnClick:  goTo(next),
		})
	}
	return s
}

func (a *App) yesNo(name, next string) *Screen {
	s := &Screen{Name: name}
	for _, v := range []string{"Yes", "No"} {
		loc, _ := a.opts.Locators.Answer(v)
		s.Elements = append(s.Elements, &Element{
			Locators: []core.Locator{loc},
			Text:     v,
			OnClick:  goTo(next),
		})
	}
	return s
}

func (a *App) results() *Screen {
	l := a.opts.Locators
	s := &Screen{Name: ScreenResults}

	if len(l.ProgressIndicators) > 0 && a.opts.AnalysisPolls > 0 {
		s.Elements = append(s.Elements, &Element{
			Locators:    l.ProgressIndicators,
			VanishAfter: a.opts.AnalysisPolls,
		})
	}

	var labels []string
	if a.opts.Detect != nil {
		labels = a.opts.Detect(a.folder, a.image)
	}
	if len(labels) > 0 && len(l.PrimaryOutcome) > 0 {
		s.Elements = append(s.Elements, &Element{
			Locators: []core.Locator{l.PrimaryOutcome[0], l.PartialOutcome},
			Text:     labels[0],
		})
	}
	if len(labels) == 0 && a.opts.NoConditionText != "" && len(l.PrimaryOutcome) > 0 {
		s.Elements = append(s.Elements, &Element{
			Locators: append(append([]core.Locator{}, l.PrimaryOutcome...), l.PartialOutcome),
			Text:     a.opts.NoConditionText,
		})
	}
	for _, label := range labels {
		s.Elements = append(s.Elements, &Element{
			Locators: []core.Locator{l.OutcomeItems},
			Text:     label,
		})
	}
	if len(labels) > 0 {
		s.Elements = append(s.Elements, &Element{
			Locators: []core.Locator{l.Confidence},
			Text:     a.opts.Confidence,
		})
	}
	home := func(d *Device) error {
		a.reset(d)
		return nil
	}
	s.Elements = append(s.Elements,
		&Element{Locators: []core.Locator{l.NewScanButton}, Text: "NEW SCAN", OnClick: home},
		&Element{Locators: []core.Locator{l.BackButton}, Text: "BACK", OnClick: home},
	)
	return s
}

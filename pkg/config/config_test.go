package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/devicelab-dev/aysa-runner/pkg/core"
	"github.com/devicelab-dev/aysa-runner/pkg/matrix"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
driverServerURL: http://grid.local:4444/wd/hub
appPackageId: com.visualdx.aysa.beta
deviceName: Pixel_7
implicitWaitSeconds: 5
explicitWaitSeconds: 45
imagesDir: ./images
categories: [melanoma, psoriasis]
negativeControl: melanoma
workers: 2
sessionRetryDelay: 500ms
capabilities:
  appium:udid: R58M123
settle:
  resultsLoad: 8s
timeouts:
  analysis: 90s
artifacts:
  captureOnSuccess: true
answers:
  melanoma:
    bodyLocation: face
`
	cfg, err := Load(writeConfig(t, t.TempDir(), "config.yaml", content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DriverServerURL != "http://grid.local:4444/wd/hub" {
		t.Errorf("expected driver URL from file, got %s", cfg.DriverServerURL)
	}
	if cfg.AppPackage != "com.visualdx.aysa.beta" {
		t.Errorf("expected app package from file, got %s", cfg.AppPackage)
	}
	if cfg.ImplicitWait() != 5*time.Second || cfg.ExplicitWait() != 45*time.Second {
		t.Errorf("unexpected waits: implicit=%v explicit=%v", cfg.ImplicitWait(), cfg.ExplicitWait())
	}
	if cfg.Workers != 2 {
		t.Errorf("expected 2 workers, got %d", cfg.Workers)
	}
	if cfg.SessionRetryDelay != 500*time.Millisecond {
		t.Errorf("expected retry delay 500ms, got %v", cfg.SessionRetryDelay)
	}
	if cfg.Capabilities["appium:udid"] != "R58M123" {
		t.Errorf("expected udid capability, got %v", cfg.Capabilities)
	}
	if cfg.Settle.ResultsLoad != 8*time.Second {
		t.Errorf("expected resultsLoad 8s, got %v", cfg.Settle.ResultsLoad)
	}
	if cfg.Timeouts.Analysis != 90*time.Second {
		t.Errorf("expected analysis timeout 90s, got %v", cfg.Timeouts.Analysis)
	}
	if !cfg.Artifacts.CaptureOnSuccess {
		t.Error("expected captureOnSuccess true")
	}

	// Unset fields keep their defaults
	if cfg.PlatformName != "Android" {
		t.Errorf("expected default platform Android, got %s", cfg.PlatformName)
	}
	if cfg.Settle.AfterTap != time.Second {
		t.Errorf("expected default afterTap, got %v", cfg.Settle.AfterTap)
	}
	if cfg.Timeouts.Answer != 10*time.Second {
		t.Errorf("expected default answer timeout, got %v", cfg.Timeouts.Answer)
	}
	if !cfg.Artifacts.CaptureOnFailure {
		t.Error("expected default captureOnFailure true")
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "workers: [unclosed\n")

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
	var cfgErr *core.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("expected ConfigError, got %T", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFromDir_PrefersYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", "deviceName: from-yaml\n")
	writeConfig(t, dir, "config.yml", "deviceName: from-yml\n")

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DeviceName != "from-yaml" {
		t.Errorf("expected config.yaml to win, got %s", cfg.DeviceName)
	}
}

func TestLoadFromDir_YML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yml", "deviceName: from-yml\n")

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DeviceName != "from-yml" {
		t.Errorf("expected from-yml, got %s", cfg.DeviceName)
	}
}

func TestLoadFromDir_NoConfig(t *testing.T) {
	cfg, err := LoadFromDir(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DriverServerURL != "http://127.0.0.1:4723" {
		t.Errorf("expected default driver URL, got %s", cfg.DriverServerURL)
	}
	if cfg.OutputDir != "reports" {
		t.Errorf("expected default output dir, got %s", cfg.OutputDir)
	}
}

func TestFind_FallsBackToHome(t *testing.T) {
	home := t.TempDir()
	want := writeConfig(t, home, "config.yml", "workers: 1\n")

	t.Chdir(t.TempDir())
	t.Setenv("AYSA_RUNNER_HOME", home)
	ResetHome()
	defer ResetHome()

	if got := Find(); got != want {
		t.Errorf("Find() = %q, want %q", got, want)
	}
}

func TestFind_WorkingDirFirst(t *testing.T) {
	home := t.TempDir()
	writeConfig(t, home, "config.yaml", "workers: 1\n")
	cwd := t.TempDir()
	writeConfig(t, cwd, "config.yaml", "workers: 2\n")

	t.Chdir(cwd)
	t.Setenv("AYSA_RUNNER_HOME", home)
	ResetHome()
	defer ResetHome()

	if got := Find(); got != filepath.Join(".", "config.yaml") {
		t.Errorf("Find() = %q, want ./config.yaml", got)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv([]string{
		"PATH=/usr/bin",
		"AYSA_DRIVER_URL=http://10.0.0.5:4723",
		"AYSA_WORKERS=4",
		"AYSA_IMPLICIT_WAIT_SECONDS=7",
		"AYSA_CATEGORIES=eczema,fungal_infection",
		"AYSA_SESSION_RETRY_DELAY=3s",
		"AYSA_DRIVER=mock",
		"AYSA_RUNNER_HOME=/ignored",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DriverServerURL != "http://10.0.0.5:4723" {
		t.Errorf("expected driver URL override, got %s", cfg.DriverServerURL)
	}
	if cfg.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Workers)
	}
	if cfg.ImplicitWaitSeconds != 7 {
		t.Errorf("expected implicit wait 7, got %d", cfg.ImplicitWaitSeconds)
	}
	if len(cfg.Categories) != 2 || cfg.Categories[1] != "fungal_infection" {
		t.Errorf("expected two categories, got %v", cfg.Categories)
	}
	if cfg.SessionRetryDelay != 3*time.Second {
		t.Errorf("expected retry delay 3s, got %v", cfg.SessionRetryDelay)
	}
	if cfg.Driver != DriverMock {
		t.Errorf("expected mock driver, got %s", cfg.Driver)
	}
	// Untouched fields keep their values
	if cfg.AppPackage != "com.visualdx.aysa" {
		t.Errorf("expected default app package, got %s", cfg.AppPackage)
	}
}

func TestApplyEnv_InvalidValue(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv([]string{"AYSA_WORKERS=many"})

	var cfgErr *core.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"defaults", func(*Config) {}, ""},
		{"unknown driver", func(c *Config) { c.Driver = "selenium" }, "driver"},
		{"malformed URL", func(c *Config) { c.DriverServerURL = "://nohost" }, "driverServerURL"},
		{"unsupported scheme", func(c *Config) { c.DriverServerURL = "ftp://host:4723" }, "driverServerURL"},
		{"empty package", func(c *Config) { c.AppPackage = "" }, "appPackageId"},
		{"zero implicit wait", func(c *Config) { c.ImplicitWaitSeconds = 0 }, "implicitWaitSeconds"},
		{"negative explicit wait", func(c *Config) { c.ExplicitWaitSeconds = -1 }, "explicitWaitSeconds"},
		{"no attempts", func(c *Config) { c.SessionAttempts = 0 }, "sessionAttempts"},
		{"negative delay", func(c *Config) { c.SessionRetryDelay = -time.Second }, "sessionRetryDelay"},
		{"zero workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"no synthetic bases", func(c *Config) { c.SyntheticBases = 0 }, "syntheticBases"},
		{"bases ignored with images dir", func(c *Config) { c.SyntheticBases = 0; c.ImagesDir = "images" }, ""},
		{"unknown category", func(c *Config) { c.Categories = []string{"acne"} }, "categories"},
		{"unknown control", func(c *Config) { c.NegativeControl = "acne" }, "negativeControl"},
		{"unknown answers key", func(c *Config) {
			c.Answers = map[string]matrix.Answers{"acne": {Fever: "Yes"}}
		}, "answers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.field == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			var cfgErr *core.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Validate() = %v, want ConfigError", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("field = %q, want %q", cfgErr.Field, tt.field)
			}
		})
	}
}

func TestSession(t *testing.T) {
	cfg := Default()
	cfg.AppActivity = ".MainActivity"
	cfg.Capabilities = map[string]interface{}{"appium:udid": "abc"}

	s := cfg.Session()
	if s.ServerURL != cfg.DriverServerURL || s.AppPackage != cfg.AppPackage {
		t.Errorf("unexpected session config: %+v", s)
	}
	if s.AppActivity != ".MainActivity" || s.Capabilities["appium:udid"] != "abc" {
		t.Errorf("expected activity and extra capabilities, got %+v", s)
	}
	if len(cfg.SessionOptions()) != 1 {
		t.Error("expected one session option")
	}
}

func TestMatrixOptions(t *testing.T) {
	cfg := Default()
	cfg.Categories = []string{"Fungal Infection", "melanoma"}
	cfg.NegativeControl = "melanoma"
	cfg.Answers = map[string]matrix.Answers{"melanoma": {BodyLocation: "face"}}

	opts := cfg.MatrixOptions()
	if len(opts.Categories) != 2 || opts.Categories[0] != matrix.FungalInfection {
		t.Errorf("unexpected categories %v", opts.Categories)
	}
	if opts.NegativeControl != matrix.Melanoma {
		t.Errorf("expected melanoma control, got %v", opts.NegativeControl)
	}
	got := opts.Templates[matrix.Melanoma]
	if got.BodyLocation != "face" {
		t.Errorf("expected overridden body location, got %s", got.BodyLocation)
	}
	if got.Duration != matrix.DefaultAnswers()[matrix.Melanoma].Duration {
		t.Errorf("expected default duration kept, got %s", got.Duration)
	}
}

func TestMatrixOptions_Defaults(t *testing.T) {
	opts := Default().MatrixOptions()
	if len(opts.Categories) != len(matrix.AllCategories) {
		t.Errorf("expected all categories, got %v", opts.Categories)
	}
	if opts.NegativeControl != matrix.Eczema {
		t.Errorf("expected eczema control, got %v", opts.NegativeControl)
	}
}

func TestInventory(t *testing.T) {
	cfg := Default()
	inv, ok := cfg.Inventory().(matrix.SyntheticInventory)
	if !ok {
		t.Fatalf("expected synthetic inventory, got %T", cfg.Inventory())
	}
	images, _ := inv.Images(matrix.Eczema)
	if len(images) != 3*(1+len(matrix.DefaultVariations)) {
		t.Errorf("expected %d images, got %d", 3*(1+len(matrix.DefaultVariations)), len(images))
	}

	cfg.ImagesDir = "/data/images"
	if d, ok := cfg.Inventory().(matrix.DirInventory); !ok || d.Root != "/data/images" {
		t.Errorf("expected directory inventory, got %#v", cfg.Inventory())
	}
}

func TestPageOptions(t *testing.T) {
	cfg := Default()
	if got := len(cfg.PageOptions()); got != 3 {
		t.Errorf("expected 3 page options, got %d", got)
	}
}

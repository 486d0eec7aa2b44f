// Package config handles configuration for aysa-runner.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/aysa-runner/pkg/core"
	"github.com/devicelab-dev/aysa-runner/pkg/matrix"
	"github.com/devicelab-dev/aysa-runner/pkg/page"
	"github.com/devicelab-dev/aysa-runner/pkg/session"
)

// EnvPrefix prefixes every environment override, e.g. AYSA_DRIVER_URL.
const EnvPrefix = "AYSA_"

// Driver names accepted by the driver setting.
const (
	DriverAppium = "appium"
	DriverMock   = "mock"
)

// Config represents the runner configuration (config.yaml).
type Config struct {
	// Driver connection
	Driver          string                 `yaml:"driver" mapstructure:"driver"`
	DriverServerURL string                 `yaml:"driverServerURL" mapstructure:"driver_url"`
	AppPackage      string                 `yaml:"appPackageId" mapstructure:"app_package"`
	AppActivity     string                 `yaml:"appActivity" mapstructure:"app_activity"`
	PlatformName    string                 `yaml:"platformName" mapstructure:"platform_name"`
	PlatformVersion string                 `yaml:"platformVersion" mapstructure:"platform_version"`
	DeviceName      string                 `yaml:"deviceName" mapstructure:"device_name"`
	AutomationName  string                 `yaml:"automationName" mapstructure:"automation_name"`
	Capabilities    map[string]interface{} `yaml:"capabilities" mapstructure:"-"`

	SessionAttempts   int           `yaml:"sessionAttempts" mapstructure:"session_attempts"`
	SessionRetryDelay time.Duration `yaml:"sessionRetryDelay" mapstructure:"session_retry_delay"`

	// Waits
	ImplicitWaitSeconds int `yaml:"implicitWaitSeconds" mapstructure:"implicit_wait_seconds"`
	ExplicitWaitSeconds int `yaml:"explicitWaitSeconds" mapstructure:"explicit_wait_seconds"`

	// Scenario matrix
	ImagesDir       string                    `yaml:"imagesDir" mapstructure:"images_dir"`         // Empty = synthetic inventory
	SyntheticBases  int                       `yaml:"syntheticBases" mapstructure:"synthetic_bases"` // Base images per category when synthetic
	Categories      []string                  `yaml:"categories" mapstructure:"categories"`
	NegativeControl string                    `yaml:"negativeControl" mapstructure:"negative_control"`
	Answers         map[string]matrix.Answers `yaml:"answers" mapstructure:"-"` // Per-category overrides

	// Execution and output
	Workers     int    `yaml:"workers" mapstructure:"workers"`
	OutputDir   string `yaml:"outputDir" mapstructure:"output_dir"`
	MetricsAddr string `yaml:"metricsAddr" mapstructure:"metrics_addr"` // Empty = no metrics server

	Settle    page.Settle         `yaml:"settle" mapstructure:"-"`
	Timeouts  page.Timeouts       `yaml:"timeouts" mapstructure:"-"`
	Artifacts core.ArtifactConfig `yaml:"artifacts" mapstructure:"-"`
}

// Default returns the configuration used when no file or override sets a value.
func Default() *Config {
	s := session.DefaultConfig()
	return &Config{
		Driver:              DriverAppium,
		DriverServerURL:     s.ServerURL,
		AppPackage:          s.AppPackage,
		PlatformName:        s.PlatformName,
		PlatformVersion:     s.PlatformVersion,
		DeviceName:          s.DeviceName,
		AutomationName:      s.AutomationName,
		SessionAttempts:     session.DefaultAttempts,
		SessionRetryDelay:   session.DefaultDelay,
		ImplicitWaitSeconds: 10,
		ExplicitWaitSeconds: 30,
		SyntheticBases:      3,
		NegativeControl:     matrix.Eczema.Folder(),
		Workers:             1,
		OutputDir:           "reports",
		Settle:              page.DefaultSettle(),
		Timeouts:            page.DefaultTimeouts(0),
		Artifacts:           core.DefaultArtifactConfig(),
	}
}

// Load loads configuration from a file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &core.ConfigError{Field: filepath.Base(path), Message: "invalid YAML", Cause: err}
	}

	return cfg, nil
}

// LoadFromDir looks for config.yaml or config.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	if path := findIn(dir); path != "" {
		return Load(path)
	}

	// No config file found, use defaults
	return Default(), nil
}

// Find returns the first config file in the working directory or the
// runner home, or "" when there is none.
func Find() string {
	dirs := []string{"."}
	if home := GetHome(); home != "" {
		dirs = append(dirs, home)
	}
	for _, dir := range dirs {
		if path := findIn(dir); path != "" {
			return path
		}
	}
	return ""
}

func findIn(dir string) string {
	for _, name := range []string{"config.yaml", "config.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ApplyEnv overlays AYSA_* variables from environ (KEY=VALUE pairs, as
// returned by os.Environ). Values are weakly typed: "5" sets an int,
// "3s" a duration and "a,b" a list.
func (c *Config) ApplyEnv(environ []string) error {
	overrides := make(map[string]interface{})
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		overrides[strings.ToLower(strings.TrimPrefix(key, EnvPrefix))] = value
	}
	if len(overrides) == 0 {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           c,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(overrides); err != nil {
		return &core.ConfigError{Field: "environment", Message: "invalid override", Cause: err}
	}
	return nil
}

// Validate checks the configuration before any session is opened.
func (c *Config) Validate() error {
	if c.Driver != DriverAppium && c.Driver != DriverMock {
		return &core.ConfigError{Field: "driver", Message: fmt.Sprintf("unknown driver %q (want appium or mock)", c.Driver)}
	}
	if err := session.ValidateServerURL(c.DriverServerURL); err != nil {
		return err
	}
	if c.AppPackage == "" {
		return &core.ConfigError{Field: "appPackageId", Message: "must not be empty"}
	}
	if c.ImplicitWaitSeconds <= 0 {
		return &core.ConfigError{Field: "implicitWaitSeconds", Message: "must be positive"}
	}
	if c.ExplicitWaitSeconds <= 0 {
		return &core.ConfigError{Field: "explicitWaitSeconds", Message: "must be positive"}
	}
	if c.SessionAttempts < 1 {
		return &core.ConfigError{Field: "sessionAttempts", Message: "must be at least 1"}
	}
	if c.SessionRetryDelay < 0 {
		return &core.ConfigError{Field: "sessionRetryDelay", Message: "must not be negative"}
	}
	if c.Workers < 1 {
		return &core.ConfigError{Field: "workers", Message: "must be at least 1"}
	}
	if c.ImagesDir == "" && c.SyntheticBases < 1 {
		return &core.ConfigError{Field: "syntheticBases", Message: "must be at least 1 without imagesDir"}
	}
	if _, err := c.categories(); err != nil {
		return &core.ConfigError{Field: "categories", Message: "invalid category", Cause: err}
	}
	if _, err := matrix.ParseCategory(c.NegativeControl); err != nil {
		return &core.ConfigError{Field: "negativeControl", Message: "invalid category", Cause: err}
	}
	if _, err := c.templates(); err != nil {
		return &core.ConfigError{Field: "answers", Message: "invalid category", Cause: err}
	}
	return nil
}

// Session returns the driver connection settings.
func (c *Config) Session() session.Config {
	return session.Config{
		ServerURL:       c.DriverServerURL,
		AppPackage:      c.AppPackage,
		AppActivity:     c.AppActivity,
		PlatformName:    c.PlatformName,
		PlatformVersion: c.PlatformVersion,
		DeviceName:      c.DeviceName,
		AutomationName:  c.AutomationName,
		Capabilities:    c.Capabilities,
	}
}

// SessionOptions returns the acquisition retry policy.
func (c *Config) SessionOptions() []session.Option {
	return []session.Option{session.WithRetry(c.SessionAttempts, c.SessionRetryDelay)}
}

// ImplicitWait returns the driver implicit wait.
func (c *Config) ImplicitWait() time.Duration {
	return time.Duration(c.ImplicitWaitSeconds) * time.Second
}

// ExplicitWait returns the default timeout for screen waits.
func (c *Config) ExplicitWait() time.Duration {
	return time.Duration(c.ExplicitWaitSeconds) * time.Second
}

// PageOptions returns the navigator options for the configured app.
func (c *Config) PageOptions() []page.Option {
	timeouts := c.Timeouts
	timeouts.Explicit = c.ExplicitWait()
	return []page.Option{
		page.WithLocators(page.DefaultLocators(c.AppPackage)),
		page.WithSettle(c.Settle),
		page.WithTimeouts(timeouts),
	}
}

// MatrixOptions returns the scenario generation options. Validate must
// have succeeded.
func (c *Config) MatrixOptions() matrix.Options {
	opts := matrix.DefaultOptions()
	if cats, err := c.categories(); err == nil && len(cats) > 0 {
		opts.Categories = cats
	}
	if nc, err := matrix.ParseCategory(c.NegativeControl); err == nil {
		opts.NegativeControl = nc
	}
	if t, err := c.templates(); err == nil {
		opts.Templates = t
	}
	return opts
}

// Inventory returns the image inventory: the images directory when set,
// otherwise the synthetic base-by-variation set.
func (c *Config) Inventory() matrix.Inventory {
	if c.ImagesDir != "" {
		return matrix.DirInventory{Root: c.ImagesDir}
	}
	return matrix.SyntheticInventory{Bases: c.SyntheticBases, Variations: matrix.DefaultVariations}
}

func (c *Config) categories() ([]matrix.Category, error) {
	var cats []matrix.Category
	for _, name := range c.Categories {
		if strings.TrimSpace(name) == "" {
			continue
		}
		cat, err := matrix.ParseCategory(name)
		if err != nil {
			return nil, err
		}
		cats = append(cats, cat)
	}
	return cats, nil
}

// templates overlays the non-empty answer fields from config on the
// per-category defaults.
func (c *Config) templates() (map[matrix.Category]matrix.Answers, error) {
	out := matrix.DefaultAnswers()
	for name, override := range c.Answers {
		cat, err := matrix.ParseCategory(name)
		if err != nil {
			return nil, err
		}
		out[cat] = mergeAnswers(out[cat], override)
	}
	return out, nil
}

func mergeAnswers(base, over matrix.Answers) matrix.Answers {
	pick := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	pick(&base.ProfileName, over.ProfileName)
	pick(&base.FlakyBumpy, over.FlakyBumpy)
	pick(&base.BodyCoverage, over.BodyCoverage)
	pick(&base.BodyLocation, over.BodyLocation)
	pick(&base.Duration, over.Duration)
	pick(&base.Itches, over.Itches)
	pick(&base.Fever, over.Fever)
	return base
}

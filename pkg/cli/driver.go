package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/devicelab-dev/aysa-runner/pkg/config"
	"github.com/devicelab-dev/aysa-runner/pkg/core"
	"github.com/devicelab-dev/aysa-runner/pkg/driver/appium"
	"github.com/devicelab-dev/aysa-runner/pkg/driver/mock"
	"github.com/devicelab-dev/aysa-runner/pkg/logger"
	"github.com/devicelab-dev/aysa-runner/pkg/session"
)

// newConnector returns the session connector for the configured driver.
func newConnector(cfg *config.Config) (session.Connector, error) {
	switch cfg.Driver {
	case config.DriverMock:
		opts, err := mockAppOptions(cfg)
		if err != nil {
			return nil, err
		}
		return session.ConnectorFunc(func(ctx context.Context, _ string, _ map[string]interface{}) (core.Device, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			dev, _ := mock.NewAysaApp(mock.Config{Platform: cfg.PlatformName, DeviceID: cfg.DeviceName}, opts)
			logger.Info("Mock session opened on %s", cfg.DeviceName)
			return dev, nil
		}), nil

	case config.DriverAppium:
		return session.ConnectorFunc(func(ctx context.Context, serverURL string, caps map[string]interface{}) (core.Device, error) {
			dev, err := appium.Open(ctx, serverURL, caps)
			if err != nil {
				return nil, err
			}
			logger.Info("Appium session %s opened on %s", dev.SessionID(), serverURL)
			return dev, nil
		}), nil

	default:
		return nil, &core.ConfigError{Field: "driver", Message: fmt.Sprintf("unknown driver %q", cfg.Driver)}
	}
}

// mockAppOptions builds a simulated app whose gallery mirrors the configured
// inventory and whose questionnaire offers every configured answer.
func mockAppOptions(cfg *config.Config) (mock.AppOptions, error) {
	mo := cfg.MatrixOptions()
	opts, err := mock.InventoryAppOptions(cfg.AppPackage, cfg.Inventory(), mo.NegativeControl)
	if err != nil {
		return mock.AppOptions{}, err
	}
	for _, a := range mo.Templates {
		opts.Profiles = appendMissing(opts.Profiles, a.ProfileName)
		opts.CoverageOptions = appendMissing(opts.CoverageOptions, a.BodyCoverage)
		opts.BodyLocations = appendMissing(opts.BodyLocations, a.BodyLocation)
		opts.Durations = appendMissing(opts.Durations, a.Duration)
	}
	return opts, nil
}

func appendMissing(list []string, v string) []string {
	if v == "" {
		return list
	}
	for _, have := range list {
		if have == v {
			return list
		}
	}
	return append(list, v)
}

// loadCapabilities loads Appium capabilities from a JSON file.
func loadCapabilities(capsFile string) (map[string]interface{}, error) {
	data, err := os.ReadFile(capsFile) //#nosec G304 -- user-provided caps file
	if err != nil {
		return nil, fmt.Errorf("failed to read caps file: %w", err)
	}

	var caps map[string]interface{}
	if err := json.Unmarshal(data, &caps); err != nil {
		return nil, fmt.Errorf("failed to parse caps JSON: %w", err)
	}
	return caps, nil
}

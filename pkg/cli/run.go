package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/aysa-runner/pkg/config"
	"github.com/devicelab-dev/aysa-runner/pkg/executor"
	"github.com/devicelab-dev/aysa-runner/pkg/logger"
	"github.com/devicelab-dev/aysa-runner/pkg/matrix"
	"github.com/devicelab-dev/aysa-runner/pkg/metrics"
	"github.com/devicelab-dev/aysa-runner/pkg/report"
	"github.com/devicelab-dev/aysa-runner/pkg/session"
)

// LogFileName is written to the output directory of every run.
const LogFileName = "aysa-runner.log"

// matrixFlags select scenarios; shared by run and list.
var matrixFlags = []cli.Flag{
	&cli.StringSliceFlag{
		Name:  "category",
		Usage: "Only run these categories (eczema, melanoma, psoriasis, fungal_infection)",
	},
	&cli.IntSliceFlag{
		Name:  "scenario",
		Usage: "Only run these scenario IDs",
	},
	&cli.StringFlag{
		Name:  "images",
		Usage: "Image inventory directory (default: synthetic inventory)",
	},
}

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "Run the disease detection scenarios",
	Description: `Run every scenario of the matrix against the app and write the reports.

Reports are generated in the output directory:
  - Default: ./reports/<timestamp>/
  - With --output: <output>/<timestamp>/
  - With --flatten: <output>/ (no timestamp subfolder)

The process exits with status 1 when any scenario failed.

Examples:
  aysa-runner run
  aysa-runner run --category melanoma --scenario 101
  aysa-runner run --workers 2 --metrics-addr :9464
  aysa-runner run --output ./out --flatten`,
	Flags: append([]cli.Flag{
		&cli.StringFlag{
			Name:  "output",
			Usage: "Output directory for reports (default: ./reports)",
		},
		&cli.BoolFlag{
			Name:  "flatten",
			Usage: "Don't create timestamp subfolder",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Run scenarios on N concurrent sessions",
		},
		&cli.StringFlag{
			Name:  "metrics-addr",
			Usage: "Serve Prometheus metrics on this address while running",
		},
	}, matrixFlags...),
	Action: runSuite,
}

var listCommand = &cli.Command{
	Name:   "list",
	Usage:  "Print the scenario matrix without running it",
	Flags:  matrixFlags,
	Action: listScenarios,
}

// loadConfig resolves the configuration: file, then AYSA_* environment,
// then command-line flags.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	if path == "" {
		path = config.Find()
	}

	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	if err := cfg.ApplyEnv(os.Environ()); err != nil {
		return nil, err
	}

	if c.IsSet("driver") {
		cfg.Driver = c.String("driver")
	}
	if c.IsSet("driver-url") {
		cfg.DriverServerURL = c.String("driver-url")
	}
	if c.IsSet("output") {
		cfg.OutputDir = c.String("output")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if c.IsSet("metrics-addr") {
		cfg.MetricsAddr = c.String("metrics-addr")
	}
	if c.IsSet("images") {
		cfg.ImagesDir = c.String("images")
	}
	if c.IsSet("category") {
		cfg.Categories = c.StringSlice("category")
	}
	if capsFile := c.String("caps"); capsFile != "" {
		caps, err := loadCapabilities(capsFile)
		if err != nil {
			return nil, err
		}
		if cfg.Capabilities == nil {
			cfg.Capabilities = make(map[string]interface{}, len(caps))
		}
		for k, v := range caps {
			cfg.Capabilities[k] = v
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildScenarios generates the matrix and applies the --scenario filter.
func buildScenarios(cfg *config.Config, ids []int) ([]matrix.Scenario, error) {
	scenarios, err := matrix.Generate(cfg.Inventory(), cfg.MatrixOptions())
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		scenarios = matrix.Filter(scenarios, nil, ids)
	}
	if len(scenarios) == 0 {
		return nil, errors.New("no scenarios selected")
	}
	return scenarios, nil
}

// resolveOutputDir determines the output directory based on flags.
// - default: <output>/<timestamp>/
// - --flatten: <output>/ (error if output is empty)
func resolveOutputDir(output string, flatten bool, now time.Time) (string, error) {
	if flatten && output == "" {
		return "", fmt.Errorf("--flatten requires an output directory")
	}

	baseDir := output
	if baseDir == "" {
		baseDir = "./reports"
	}

	if flatten {
		return filepath.Clean(baseDir), nil
	}

	// Create timestamp-based subfolder
	timestamp := now.Format("2006-01-02_15-04-05")
	return filepath.Join(baseDir, timestamp), nil
}

func runSuite(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	scenarios, err := buildScenarios(cfg, c.IntSlice("scenario"))
	if err != nil {
		return err
	}

	outputDir, err := resolveOutputDir(cfg.OutputDir, c.Bool("flatten"), time.Now())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	con := newConsole(c.App.Writer, c.Bool("no-ansi"))

	if err := logger.Init(filepath.Join(outputDir, LogFileName)); err != nil {
		con.warn("failed to initialize logger: %v", err)
	}
	defer logger.Close()
	if c.Bool("verbose") {
		logger.Tee(c.App.ErrWriter)
	}

	logger.Info("=== Suite started ===")
	logger.Info("Output directory: %s", outputDir)
	logger.Info("Driver: %s (%s)", cfg.Driver, cfg.DriverServerURL)
	logger.Info("Scenarios: %d, workers: %d", len(scenarios), cfg.Workers)

	connector, err := newConnector(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	recorder := metrics.New()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := recorder.Serve(ctx, cfg.MetricsAddr); err != nil {
				logger.Warn("metrics server: %v", err)
			}
		}()
	}

	runner := executor.NewWorkflowRunner(
		session.NewManager(cfg.Session(), connector, cfg.SessionOptions()...),
		executor.RunnerConfig{
			OutputDir:       outputDir,
			Workers:         cfg.Workers,
			ImplicitWait:    cfg.ImplicitWait(),
			Artifacts:       cfg.Artifacts,
			PageOptions:     cfg.PageOptions(),
			Observer:        recorder,
			OnScenarioStart: con.onScenarioStart,
			OnScenarioEnd:   con.onScenarioEnd,
		},
	)
	aggregator := report.NewAggregator()

	con.banner()
	runErr := executor.NewSuite(runner, aggregator).Run(ctx, scenarios)
	if runErr != nil {
		logger.Error("Suite aborted: %v", runErr)
	}

	summary := aggregator.Summary()
	logger.Info("Suite finished: %d passed, %d failed, %d skipped", summary.Passed, summary.Failed, summary.Skipped)
	con.summary(aggregator.Entries(), summary, aggregator.Duration())

	textPath := filepath.Join(outputDir, report.TextFileName)
	if err := aggregator.WriteFile(textPath); err != nil {
		return fmt.Errorf("failed to write text report: %w", err)
	}
	jsonPath := filepath.Join(outputDir, report.JSONFileName)
	if _, err := aggregator.WriteJSON(jsonPath, report.DocumentInfo{
		Device: report.Device{Name: cfg.DeviceName, Platform: cfg.PlatformName, Version: cfg.PlatformVersion},
		App:    report.App{ID: cfg.AppPackage},
		Runner: report.RunnerInfo{Version: Version, Driver: cfg.Driver},
	}); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}
	con.reports(textPath, jsonPath, filepath.Join(outputDir, LogFileName))

	if runErr != nil {
		return cli.Exit(fmt.Sprintf("suite aborted: %v", runErr), 1)
	}
	if aggregator.HasFailures() {
		return cli.Exit("", 1)
	}
	return nil
}

func listScenarios(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	scenarios, err := buildScenarios(cfg, c.IntSlice("scenario"))
	if err != nil {
		return err
	}

	con := newConsole(c.App.Writer, c.Bool("no-ansi"))
	con.printf("  %-6s %-18s %-24s %s\n", "ID", "Category", "Image", "Expected")
	for _, sc := range scenarios {
		expected := sc.Expected.String()
		if sc.IsNegativeControl() {
			expected = con.paint(expected, colorYellow)
		}
		con.printf("  %-6d %-18s %-24s %s\n", sc.ID, sc.Category, sc.ImageRef, expected)
	}
	con.printf("\n  %d scenarios\n", len(scenarios))
	return nil
}

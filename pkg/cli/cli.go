// Package cli provides the command-line interface for aysa-runner.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "config",
		Usage: "Path to config.yaml (default: ./config.yaml, then $AYSA_RUNNER_HOME/config.yaml)",
	},
	&cli.StringFlag{
		Name:    "driver",
		Aliases: []string{"d"},
		Usage:   "Driver to use (appium, mock)",
	},
	&cli.StringFlag{
		Name:  "driver-url",
		Usage: "Appium server URL (default: http://127.0.0.1:4723)",
	},
	&cli.StringFlag{
		Name:  "caps",
		Usage: "JSON file with extra Appium capabilities",
	},
	&cli.BoolFlag{
		Name:  "verbose",
		Usage: "Mirror the log file to stderr",
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors (also honours NO_COLOR)",
	},
}

// NewApp builds the aysa-runner command line.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "aysa-runner",
		Usage:   "End-to-end disease detection checks for the Aysa app",
		Version: Version,
		Description: `aysa-runner drives the Aysa app through image selection and the
symptom questionnaire for every scenario in the disease matrix, and checks
that the results screen reports the expected condition.

Examples:
  aysa-runner run
  aysa-runner --driver-url http://10.0.0.5:4723 run --workers 2
  aysa-runner --driver mock run --category melanoma
  aysa-runner list`,
		Flags: GlobalFlags,
		Commands: []*cli.Command{
			runCommand,
			listCommand,
		},
	}
}

// Execute runs the CLI.
func Execute() {
	if err := NewApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

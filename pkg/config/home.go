package config

import (
	"os"
	"path/filepath"
	"sync"
)

const (
	envHome = "AYSA_RUNNER_HOME"
	appName = "aysa-runner"
)

var (
	homeOnce sync.Once
	homeDir  string
)

// GetHome returns the aysa-runner home directory, searched by Find after
// the working directory.
//
// Resolution order:
//  1. $AYSA_RUNNER_HOME
//  2. <home> when the binary lives in <home>/bin/
//  3. <user config dir>/aysa-runner, if it exists
//  4. Current working directory
func GetHome() string {
	homeOnce.Do(func() {
		homeDir = resolveHome(os.Getenv(envHome), executableDir(), userConfigDir())
	})
	return homeDir
}

func resolveHome(env, exeDir, configDir string) string {
	if env != "" {
		return env
	}
	if exeDir != "" && filepath.Base(exeDir) == "bin" {
		return filepath.Dir(exeDir)
	}
	if configDir != "" {
		if info, err := os.Stat(configDir); err == nil && info.IsDir() {
			return configDir
		}
	}
	if cwd, err := os.Getwd(); err == nil {
		return cwd
	}
	return "."
}

func executableDir() string {
	path, err := os.Executable()
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	return filepath.Dir(path)
}

func userConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appName)
}

// ResetHome resets the cached home directory (for testing).
func ResetHome() {
	homeOnce = sync.Once{}
	homeDir = ""
}

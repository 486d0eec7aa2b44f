package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetHome_EnvVar(t *testing.T) {
	ResetHome()
	t.Setenv("AYSA_RUNNER_HOME", "/custom/path")

	got := GetHome()
	if got != "/custom/path" {
		t.Errorf("GetHome() = %q, want %q", got, "/custom/path")
	}
}

func TestGetHome_Cached(t *testing.T) {
	ResetHome()
	t.Setenv("AYSA_RUNNER_HOME", "/first")

	first := GetHome()

	// Changing the env must not affect the cached value
	t.Setenv("AYSA_RUNNER_HOME", "/second")
	second := GetHome()

	if first != second {
		t.Errorf("GetHome() not cached: first=%q, second=%q", first, second)
	}
	ResetHome()
}

func TestResolveHome_BinaryRelative(t *testing.T) {
	root := t.TempDir()

	got := resolveHome("", filepath.Join(root, "bin"), "")
	if got != root {
		t.Errorf("resolveHome() = %q, want %q", got, root)
	}
}

func TestResolveHome_UserConfigDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "aysa-runner")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}

	got := resolveHome("", "/usr/local/libexec", dir)
	if got != dir {
		t.Errorf("resolveHome() = %q, want %q", got, dir)
	}
}

func TestResolveHome_MissingConfigDirFallsBackToCwd(t *testing.T) {
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	got := resolveHome("", "", filepath.Join(t.TempDir(), "missing"))
	if got != cwd {
		t.Errorf("resolveHome() = %q, want %q", got, cwd)
	}
}

func TestResolveHome_EnvWins(t *testing.T) {
	got := resolveHome("/env", "/opt/aysa/bin", t.TempDir())
	if got != "/env" {
		t.Errorf("resolveHome() = %q, want /env", got)
	}
}

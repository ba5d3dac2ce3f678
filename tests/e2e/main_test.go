package main_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
)

var (
	buildOnce sync.Once
	builtBin  string
	buildErr  error
)

// buildSDBinary compiles cmd/sd once per test run and returns the binary
// path.
func buildSDBinary(t *testing.T) string {
	t.Helper()
	buildOnce.Do(func() {
		dir, err := os.MkdirTemp("", "sd-e2e-*")
		if err != nil {
			buildErr = err
			return
		}
		bin := filepath.Join(dir, "sd")
		if runtime.GOOS == "windows" {
			bin += ".exe"
		}

		cmd := exec.Command("go", "build", "-o", bin, "../../cmd/sd")
		if out, err := cmd.CombinedOutput(); err != nil {
			buildErr = err
			t.Logf("build output:\n%s", out)
			return
		}
		builtBin = bin
	})
	if buildErr != nil {
		t.Fatalf("building sd: %v", buildErr)
	}
	return builtBin
}

// newProjectDir creates a temp project with .specdeck/spec.json holding the
// given content.
func newProjectDir(t *testing.T, specJSON string) string {
	t.Helper()
	dir := t.TempDir()
	specDir := filepath.Join(dir, ".specdeck")
	if err := os.MkdirAll(specDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(specDir, "spec.json"), []byte(specJSON), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

// runSD executes the built binary in dir and returns combined output.
func runSD(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(buildSDBinary(t), args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	return string(out), err
}

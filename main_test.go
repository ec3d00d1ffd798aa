package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// run registers its flags on the global flag set, so it can only be called once per test binary
func TestRunReturnsConfigError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	args := os.Args
	t.Cleanup(func() { os.Args = args })
	os.Args = []string{"weather-dashboard", "-config", path}

	err := run()
	if err == nil || !strings.Contains(err.Error(), "failed to load configuration") {
		t.Fatalf("expected a configuration error, got %v", err)
	}
}

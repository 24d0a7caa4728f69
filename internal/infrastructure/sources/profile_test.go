package sources

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeProfile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sources.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	return path
}

func TestLoadProfile(t *testing.T) {
	path := writeProfile(t, `
version = 1

[drivers.autodoc]
enabled = true
base_url = "https://autodoc.example"
request_delay_ms = 250
timeout_seconds = 10

[drivers.umapi]
enabled = false
`)

	profile, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}

	autodoc, ok := profile.Drivers["autodoc"]
	if !ok {
		t.Fatal("expected autodoc driver in profile")
	}
	if !autodoc.Enabled {
		t.Error("expected autodoc to be enabled")
	}
	if got := autodoc.RequestDelay(); got != 250*time.Millisecond {
		t.Errorf("RequestDelay = %v, want 250ms", got)
	}
	if got := autodoc.Timeout(); got != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", got)
	}

	umapi := profile.Drivers["umapi"]
	if umapi.Enabled {
		t.Error("expected umapi to be disabled")
	}
}

func TestLoadProfileDefaults(t *testing.T) {
	path := writeProfile(t, `
version = 1

[drivers.exist]
enabled = true
base_url = "https://exist.example"
`)

	profile, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}

	exist := profile.Drivers["exist"]
	if got := exist.RequestDelay(); got != time.Second {
		t.Errorf("default RequestDelay = %v, want 1s", got)
	}
	if got := exist.Timeout(); got != 30*time.Second {
		t.Errorf("default Timeout = %v, want 30s", got)
	}
}

func TestLoadProfileRejectsBadVersion(t *testing.T) {
	path := writeProfile(t, `
version = 2

[drivers.autodoc]
enabled = true
base_url = "https://autodoc.example"
`)

	if _, err := LoadProfile(path); err == nil {
		t.Fatal("expected error for unsupported version")
	}
}

func TestLoadProfileRejectsEnabledDriverWithoutBaseURL(t *testing.T) {
	path := writeProfile(t, `
version = 1

[drivers.autodoc]
enabled = true
`)

	if _, err := LoadProfile(path); err == nil {
		t.Fatal("expected error for enabled driver without base_url")
	}
}

package sources

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Profile configures the set of source drivers. It is loaded once at
// startup from a toml file; drivers are specified by behavioral knobs only
// (endpoint, politeness delay, timeout, credential), never by site
// selectors.
type Profile struct {
	Version int                      `toml:"version"`
	Drivers map[string]DriverProfile `toml:"drivers"`
}

type DriverProfile struct {
	Enabled        bool   `toml:"enabled"`
	BaseURL        string `toml:"base_url"`
	RequestDelayMs int    `toml:"request_delay_ms"`
	TimeoutSeconds int    `toml:"timeout_seconds"`

	// CredentialEnv names the environment variable holding the driver's API
	// key. A driver that requires a credential but finds none degrades to
	// empty results instead of failing.
	CredentialEnv string `toml:"credential_env"`
}

// RequestDelay is the minimum delay between outbound requests within one
// driver's sequential stream.
func (p DriverProfile) RequestDelay() time.Duration {
	if p.RequestDelayMs <= 0 {
		return time.Second
	}
	return time.Duration(p.RequestDelayMs) * time.Millisecond
}

// Timeout is the per-request upper bound.
func (p DriverProfile) Timeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

func LoadProfile(path string) (Profile, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return Profile{}, errors.New("sources profile path is required")
	}

	raw, err := os.ReadFile(trimmed)
	if err != nil {
		return Profile{}, err
	}

	var profile Profile
	if err := toml.Unmarshal(raw, &profile); err != nil {
		return Profile{}, err
	}
	if err := validateProfile(profile); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

func validateProfile(profile Profile) error {
	if profile.Version != 1 {
		return errors.New("unsupported sources profile version: expected version = 1")
	}
	if len(profile.Drivers) == 0 {
		return errors.New("sources profile declares no drivers")
	}

	for name, driver := range profile.Drivers {
		if strings.TrimSpace(name) == "" {
			return errors.New("driver name must not be empty")
		}
		if driver.Enabled && strings.TrimSpace(driver.BaseURL) == "" {
			return fmt.Errorf("driver %q is enabled without base_url", name)
		}
	}
	return nil
}

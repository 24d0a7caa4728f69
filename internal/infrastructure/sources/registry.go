package sources

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"partspricing/internal/bootstrap/logging"
	"partspricing/internal/ports"
)

// Registry holds the constructed drivers, one per enabled profile entry.
type Registry struct {
	drivers map[string]ports.SourceDriver
}

var _ ports.DriverRegistry = (*Registry)(nil)

// NewRegistry builds drivers for every enabled, known profile entry.
// Unknown entries are logged and skipped; they are a configuration wart,
// not a startup failure.
func NewRegistry(ctx context.Context, profile Profile) *Registry {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "sources.registry"))

	drivers := make(map[string]ports.SourceDriver)
	for name, driverProfile := range profile.Drivers {
		if !driverProfile.Enabled {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(name))
		switch key {
		case "autodoc":
			drivers[key] = NewAutodoc(driverProfile)
		case "exist":
			drivers[key] = NewExist(driverProfile)
		case "umapi":
			drivers[key] = NewUmapi(driverProfile)
		default:
			logging.Warn(logCtx, "no driver implementation for source, skipping", slog.String("source", name))
		}
	}

	logging.Info(logCtx, "source drivers constructed", slog.Int("count", len(drivers)))
	return &Registry{drivers: drivers}
}

// NewRegistryFromDrivers wires pre-built drivers; tests use it to inject
// fakes.
func NewRegistryFromDrivers(drivers ...ports.SourceDriver) *Registry {
	byName := make(map[string]ports.SourceDriver, len(drivers))
	for _, d := range drivers {
		byName[strings.ToLower(d.Name())] = d
	}
	return &Registry{drivers: byName}
}

func (r *Registry) Driver(name string) (ports.SourceDriver, bool) {
	d, ok := r.drivers[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.drivers))
	for name := range r.drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

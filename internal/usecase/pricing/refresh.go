package pricing

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"partspricing/internal/bootstrap/logging"
	"partspricing/internal/errs"
	"partspricing/internal/ports"
)

// ErrNoSources means not one requested source resolved to a configured
// driver. Anything less than that is a per-source outcome, not an error.
var ErrNoSources = errors.New("no usable sources")

type RefreshInput struct {
	PartID  uint64
	Sources []string
}

type SourceOutcome struct {
	Source       string `json:"source"`
	ScrapedCount int    `json:"scraped_count"`
	Succeeded    bool   `json:"succeeded"`
	Error        string `json:"error,omitempty"`
}

type RefreshResult struct {
	RunID        string          `json:"run_id"`
	PartID       uint64          `json:"part_id"`
	Status       string          `json:"status"`
	Message      string          `json:"message"`
	ScrapedCount int             `json:"scraped_count"`
	Outcomes     []SourceOutcome `json:"outcomes"`
}

// Refresh fans out one collection cycle over the requested sources. Each
// driver runs in its own goroutine and is its own failure domain: a
// failing or empty source is reported in its outcome while the rest of
// the cycle completes. The cycle itself fails only when the part does not
// exist or no requested source maps to a driver.
func (s *Service) Refresh(ctx context.Context, input RefreshInput) (RefreshResult, error) {
	if ctx == nil {
		return RefreshResult{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return RefreshResult{}, errs.Wrap(err, "check context")
	}
	if s.repo == nil {
		return RefreshResult{}, errors.New("catalog repository is required")
	}
	if s.drivers == nil {
		return RefreshResult{}, errors.New("driver registry is required")
	}
	if input.PartID == 0 {
		return RefreshResult{}, errors.New("part id is required")
	}

	runID := uuid.NewString()
	logCtx := logging.WithAttrs(ctx,
		slog.String("run_id", runID),
		slog.Uint64("part_id", input.PartID),
	)

	part, err := s.repo.PartByID(logCtx, input.PartID)
	if err != nil {
		return RefreshResult{}, err
	}

	drivers := s.resolveDrivers(logCtx, input.Sources)
	if len(drivers) == 0 {
		return RefreshResult{}, ErrNoSources
	}

	query := strings.TrimSpace(part.SKU)
	if query == "" {
		query = strings.TrimSpace(part.Name)
	}

	outcomes := make([]SourceOutcome, len(drivers))
	var affectedMu sync.Mutex
	affected := map[uint64]struct{}{input.PartID: {}}

	group, groupCtx := errgroup.WithContext(logCtx)
	for i, driver := range drivers {
		group.Go(func() error {
			count, touched, runErr := s.collectFromSource(groupCtx, driver, query, input.PartID)

			outcomes[i] = SourceOutcome{
				Source:       driver.Name(),
				ScrapedCount: count,
				Succeeded:    runErr == nil,
			}
			if runErr != nil {
				outcomes[i].Error = runErr.Error()
				logging.Warn(groupCtx, "source failed during refresh",
					slog.String("source", driver.Name()),
					slog.String("error", runErr.Error()))
			}

			affectedMu.Lock()
			for partID := range touched {
				affected[partID] = struct{}{}
			}
			affectedMu.Unlock()

			// Failures stay in the outcome; returning them would cancel
			// the sibling sources.
			return nil
		})
	}
	_ = group.Wait()

	total := 0
	succeeded := make([]string, 0, len(outcomes))
	for _, outcome := range outcomes {
		total += outcome.ScrapedCount
		if outcome.Succeeded {
			succeeded = append(succeeded, outcome.Source)
		}
	}

	for partID := range affected {
		s.invalidatePart(logCtx, partID)
	}

	result := RefreshResult{
		RunID:        runID,
		PartID:       input.PartID,
		Status:       "success",
		Message:      refreshMessage(total, len(succeeded), len(outcomes)),
		ScrapedCount: total,
		Outcomes:     outcomes,
	}

	s.publishRefreshCompleted(logCtx, result, succeeded)
	logging.Info(logCtx, "refresh cycle finished",
		slog.Int("scraped_count", total),
		slog.Int("sources_succeeded", len(succeeded)),
		slog.Int("sources_requested", len(outcomes)))
	return result, nil
}

// collectFromSource runs one driver's Search+Prices stream and persists
// what normalizes cleanly. It returns how many records were written and
// which parts they attached to.
func (s *Service) collectFromSource(ctx context.Context, driver ports.SourceDriver, query string, fallbackPartID uint64) (int, map[uint64]struct{}, error) {
	candidates, err := driver.Search(ctx, query, searchLimitPerSource)
	if err != nil {
		return 0, nil, errs.Wrapf(err, "search %s", driver.Name())
	}

	saved := 0
	touched := make(map[uint64]struct{})
	for _, candidate := range candidates {
		scraped, err := driver.Prices(ctx, candidate)
		if err != nil {
			return saved, touched, errs.Wrapf(err, "prices %s", driver.Name())
		}

		for _, price := range scraped {
			record, ok := s.normalizeScraped(ctx, fallbackPartID, price)
			if !ok {
				continue
			}
			stored, err := s.repo.SavePriceRecord(ctx, record)
			if err != nil {
				logging.Warn(ctx, "record rejected by store",
					slog.String("source", driver.Name()),
					slog.String("error", err.Error()))
				continue
			}
			saved++
			touched[stored.PartID] = struct{}{}
		}
	}
	return saved, touched, nil
}

func (s *Service) resolveDrivers(ctx context.Context, requested []string) []ports.SourceDriver {
	seen := make(map[string]struct{}, len(requested))
	drivers := make([]ports.SourceDriver, 0, len(requested))
	for _, name := range requested {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		driver, ok := s.drivers.Driver(key)
		if !ok {
			logging.Warn(ctx, "skipping unknown source", slog.String("source", name))
			continue
		}
		drivers = append(drivers, driver)
	}
	return drivers
}

func (s *Service) publishRefreshCompleted(ctx context.Context, result RefreshResult, succeeded []string) {
	if s.publisher == nil {
		return
	}

	event := ports.RefreshCompleted{
		RunID:        result.RunID,
		PartID:       result.PartID,
		ScrapedCount: result.ScrapedCount,
		Sources:      succeeded,
		CompletedAt:  s.nowUTC(),
	}
	if err := s.publisher.PublishRefreshCompleted(ctx, event); err != nil {
		logging.Warn(ctx, "refresh event publish failed", slog.String("error", err.Error()))
	}
}

func refreshMessage(total, succeeded, requested int) string {
	switch {
	case total == 0 && succeeded == requested:
		return "refresh completed, no new prices found"
	case succeeded < requested:
		return "refresh completed with partial source failures"
	default:
		return "refresh completed"
	}
}

package pricing

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"partspricing/internal/bootstrap/logging"
	"partspricing/internal/errs"
	"partspricing/internal/ports"
)

type SearchInput struct {
	Query string
	Limit int

	// Sources narrows the fan-out; empty means every configured driver.
	Sources []string

	// OEM switches to OEM-number lookup instead of free-text search.
	OEM bool
}

type SearchResultItem struct {
	Name      string `json:"name"`
	SKU       string `json:"sku,omitempty"`
	Brand     string `json:"brand,omitempty"`
	Category  string `json:"category,omitempty"`
	OEMNumber string `json:"oem_number,omitempty"`
	URL       string `json:"url,omitempty"`
	Source    string `json:"source"`
}

type SearchResult struct {
	Query   string             `json:"query"`
	Sources []string           `json:"sources"`
	Results []SearchResultItem `json:"results"`
}

// Search fans the query out to the requested sources and merges what
// comes back, each candidate tagged with its source. Per-source isolation
// matches the refresh cycle: one failing source is logged and dropped.
func (s *Service) Search(ctx context.Context, input SearchInput) (SearchResult, error) {
	if ctx == nil {
		return SearchResult{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return SearchResult{}, errs.Wrap(err, "check context")
	}
	if s.drivers == nil {
		return SearchResult{}, errors.New("driver registry is required")
	}

	query := strings.TrimSpace(input.Query)
	if query == "" {
		return SearchResult{}, errors.New("query is required")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = searchLimitPerSource
	}

	requested := input.Sources
	if len(requested) == 0 {
		requested = s.drivers.Names()
	}
	drivers := s.resolveDrivers(ctx, requested)
	if len(drivers) == 0 {
		return SearchResult{}, ErrNoSources
	}

	names := make([]string, 0, len(drivers))
	for _, driver := range drivers {
		names = append(names, driver.Name())
	}
	sort.Strings(names)

	cacheKeyQuery := query
	if input.OEM {
		cacheKeyQuery = "oem:" + query
	}
	cacheKey := cacheSearchKey(cacheKeyQuery, limit, names)
	var cached SearchResult
	if s.cacheGetJSON(ctx, cacheKey, &cached) {
		return cached, nil
	}

	perSource := make([][]ports.ScrapedPart, len(drivers))
	group, groupCtx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	for i, driver := range drivers {
		group.Go(func() error {
			var (
				parts []ports.ScrapedPart
				err   error
			)
			if input.OEM {
				parts, err = driver.SearchByOEM(groupCtx, query)
			} else {
				parts, err = driver.Search(groupCtx, query, limit)
			}
			if err != nil {
				logging.Warn(groupCtx, "source failed during search",
					slog.String("source", driver.Name()),
					slog.String("error", err.Error()))
				return nil
			}

			mu.Lock()
			perSource[i] = parts
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	result := SearchResult{
		Query:   query,
		Sources: names,
		Results: []SearchResultItem{},
	}
	for _, parts := range perSource {
		count := 0
		for _, part := range parts {
			if count >= limit {
				break
			}
			result.Results = append(result.Results, SearchResultItem{
				Name:      part.Name,
				SKU:       part.SKU,
				Brand:     part.Brand,
				Category:  part.Category,
				OEMNumber: part.OEMNumber,
				URL:       part.URL,
				Source:    part.Source,
			})
			count++
		}
	}

	s.cacheSetJSON(ctx, cacheKey, result, cacheTTLSearch)
	return result, nil
}

// SearchByOEM is Search in OEM mode.
func (s *Service) SearchByOEM(ctx context.Context, oem string, limit int, sources []string) (SearchResult, error) {
	return s.Search(ctx, SearchInput{Query: oem, Limit: limit, Sources: sources, OEM: true})
}

package pricing

import "sort"

// Quote is the minimal view of one price observation the aggregation math
// needs. Callers map stored records into quotes.
type Quote struct {
	Source       string
	Price        float64
	Availability Availability
}

// Stats holds the derived summary figures. Optional figures are pointers so
// "absent" stays distinct from zero.
type Stats struct {
	TotalSources   int
	InStockSources int
	BestPrice      *float64
	AveragePrice   *float64
	LowestInStock  *float64
	Sources        []string
}

// Summarize computes summary statistics over a quote set. The second return
// is false when the set is empty; that is a valid terminal state, not an
// error.
func Summarize(quotes []Quote) (Stats, bool) {
	if len(quotes) == 0 {
		return Stats{}, false
	}

	stats := Stats{TotalSources: len(quotes)}

	best := quotes[0].Price
	sum := 0.0
	seen := make(map[string]struct{}, len(quotes))

	for _, q := range quotes {
		if q.Price < best {
			best = q.Price
		}
		sum += q.Price
		seen[q.Source] = struct{}{}

		if q.Availability == InStock {
			stats.InStockSources++
			if stats.LowestInStock == nil || q.Price < *stats.LowestInStock {
				price := q.Price
				stats.LowestInStock = &price
			}
		}
	}

	avg := sum / float64(len(quotes))
	stats.BestPrice = &best
	stats.AveragePrice = &avg

	stats.Sources = make([]string, 0, len(seen))
	for source := range seen {
		stats.Sources = append(stats.Sources, source)
	}
	sort.Strings(stats.Sources)

	return stats, true
}

// Best returns the minimum-price quote, optionally restricted to in-stock
// quotes. The second return is false when the candidate set is empty after
// filtering.
func Best(quotes []Quote, inStockOnly bool) (Quote, bool) {
	var best Quote
	found := false

	for _, q := range quotes {
		if inStockOnly && q.Availability != InStock {
			continue
		}
		if !found || q.Price < best.Price {
			best = q
			found = true
		}
	}

	return best, found
}

// Average returns the arithmetic mean price over the (optionally
// stock-filtered) quote set. The second return is false when the set is
// empty; the mean is never reported as zero in that case.
func Average(quotes []Quote, inStockOnly bool) (float64, bool) {
	sum := 0.0
	count := 0

	for _, q := range quotes {
		if inStockOnly && q.Availability != InStock {
			continue
		}
		sum += q.Price
		count++
	}

	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

/**
 * @description
 * Batch orchestrator.
 * Fans work out over independent units, waits for every unit to settle and
 * aggregates the outcomes. One unit's failure never aborts its siblings; the
 * summary is count-based, so result ordering does not matter.
 *
 * @dependencies
 * - standard "sync"
 */

package services

import (
	"context"
	"sync"
)

// UnitFailure describes one failed unit in a batch run
type UnitFailure struct {
	Unit   string `json:"unit"`
	Reason string `json:"reason"`
}

// RunSummary aggregates the outcome of one batch run
type RunSummary struct {
	Processed int           `json:"processed"`
	Failed    int           `json:"failed"`
	Failures  []UnitFailure `json:"failures,omitempty"`
}

// runBatch launches work for every unit concurrently and collects a
// result-or-error per unit. The fetcher gate bounds actual parallelism of the
// network legs, so unbounded goroutine fan-out here is cheap.
func runBatch[T any](ctx context.Context, units []T, name func(T) string, work func(context.Context, T) error) *RunSummary {
	type outcome struct {
		unit string
		err  error
	}

	results := make(chan outcome, len(units))
	var wg sync.WaitGroup

	for _, unit := range units {
		wg.Add(1)
		go func(u T) {
			defer wg.Done()
			results <- outcome{unit: name(u), err: work(ctx, u)}
		}(unit)
	}

	wg.Wait()
	close(results)

	summary := &RunSummary{}
	for r := range results {
		if r.err != nil {
			summary.Failed++
			summary.Failures = append(summary.Failures, UnitFailure{
				Unit:   r.unit,
				Reason: r.err.Error(),
			})
			continue
		}
		summary.Processed++
	}
	return summary
}

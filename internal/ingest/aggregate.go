// internal/ingest/aggregate.go
package ingest

import "time"

// Aggregate partitions outcomes into successes and failures and computes
// the batch totals. Pure apart from stamping ProducedAt. A batch where
// every item failed still aggregates into a result; batch-level errors are
// reserved for requests rejected before any item ran.
func Aggregate(bctx BatchContext, outcomes []Outcome) BatchResult {
	result := BatchResult{
		Context:    bctx,
		Total:      len(outcomes),
		Successes:  make([]Success, 0, len(outcomes)),
		Failures:   make([]Failure, 0),
		ProducedAt: time.Now(),
	}
	for _, out := range outcomes {
		switch {
		case out.Success != nil:
			result.Successes = append(result.Successes, *out.Success)
			result.TotalBytes += out.Success.ByteSize
		case out.Failure != nil:
			result.Failures = append(result.Failures, *out.Failure)
		}
	}
	result.Succeeded = len(result.Successes)
	result.Failed = len(result.Failures)
	return result
}

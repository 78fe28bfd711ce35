// internal/ingest/orchestrator.go
package ingest

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Orchestrator fans a batch of descriptors out to a bounded pool of
// processor invocations and fans the outcomes back in under a whole-batch
// deadline.
type Orchestrator struct {
	processor    *Processor
	batchTimeout time.Duration
	logger       *slog.Logger
}

// NewOrchestrator builds an orchestrator around a processor. The batch
// timeout comes from external configuration; the concurrency limit is
// supplied per run by the router.
func NewOrchestrator(p *Processor, batchTimeout time.Duration, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		processor:    p,
		batchTimeout: batchTimeout,
		logger:       logger,
	}
}

// Run processes every descriptor and returns the aggregated result. Every
// descriptor yields exactly one outcome: items still queued or in flight
// when the batch deadline fires fail with the timeout kind rather than
// going silent. Result ordering follows completion order.
func (o *Orchestrator) Run(ctx context.Context, bctx BatchContext, descriptors []Descriptor, concurrency int) BatchResult {
	start := time.Now()
	if concurrency < 1 {
		concurrency = 1
	}

	batchCtx := ctx
	var cancel context.CancelFunc
	if o.batchTimeout > 0 {
		batchCtx, cancel = context.WithTimeout(ctx, o.batchTimeout)
		defer cancel()
	}

	outcomes := make(chan Outcome, len(descriptors))

	g := &errgroup.Group{}
	g.SetLimit(concurrency)
	for _, d := range descriptors {
		g.Go(func() error {
			outcomes <- o.processor.Process(batchCtx, bctx, d)
			return nil
		})
	}
	// Workers never return errors; Wait only fences the fan-in.
	_ = g.Wait()
	close(outcomes)

	collected := make([]Outcome, 0, len(descriptors))
	for out := range outcomes {
		collected = append(collected, out)
		if f := out.Failure; f != nil {
			o.logger.Warn("item failed",
				"item_id", f.ItemID, "kind", string(f.Kind), "stage", string(f.Stage), "detail", f.Detail)
		}
	}

	result := Aggregate(bctx, collected)
	result.Elapsed = time.Since(start)
	o.logger.Info("batch completed",
		"batch_id", bctx.BatchID,
		"total", result.Total,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"elapsed_ms", result.Elapsed.Milliseconds())
	return result
}

package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is used when the configured interval is not positive.
const DefaultInterval = time.Minute

// Checker refreshes the gauges from the collector in the background.
type Checker struct {
	collector *Collector
	metrics   *Metrics
	interval  time.Duration
}

// NewChecker creates a background snapshot refresher.
func NewChecker(collector *Collector, metrics *Metrics, interval time.Duration) *Checker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Checker{
		collector: collector,
		metrics:   metrics,
		interval:  interval,
	}
}

// Run checks once, then periodically until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) {
	log := zap.L().With(zap.String("component", "monitoring.checker"))
	log.Info("starting snapshot checker", zap.Duration("interval", c.interval))

	c.check(ctx, log)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("snapshot checker stopped")
			return
		case <-ticker.C:
			c.check(ctx, log)
		}
	}
}

// Check collects one snapshot and updates the gauges.
func (c *Checker) Check(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	snap, err := c.collector.Collect(ctx)
	if err != nil {
		return nil, err
	}
	c.metrics.ObserveCollect(time.Since(start))
	c.metrics.Update(snap)
	return snap, nil
}

func (c *Checker) check(ctx context.Context, log *zap.Logger) {
	snap, err := c.Check(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Error("monitoring: failed to collect snapshot", zap.Error(err))
		}
		return
	}
	if snap.Errors > 0 {
		log.Warn("monitoring: corpus has validation errors",
			zap.Int("errors", snap.Errors),
			zap.Int("warnings", snap.Warnings),
		)
		return
	}
	log.Debug("monitoring: snapshot collected", zap.Int("events", snap.Events))
}

package session

import (
	"context"
)

// invalidateStatsLocked drops the held snapshot and bumps the generation so
// refreshes started earlier cannot land. Callers hold c.mu.
func (c *Controller) invalidateStatsLocked() {
	c.statsGen++
	c.stats = nil
}

// refreshStats fetches stats on a context detached from the caller's
// cancellation. A result is applied only if no mutation happened since the
// refresh started; failures are logged and leave the held snapshot alone.
func (c *Controller) refreshStats(ctx context.Context) {
	c.mu.RLock()
	gen := c.statsGen
	c.mu.RUnlock()

	detached := context.WithoutCancel(ctx)
	c.refreshes.Add(1)
	go func() {
		defer c.refreshes.Done()

		stats, err := c.backend.Stats(detached)
		if err != nil {
			c.metrics.IncrementStatsRefresh("failure")
			c.logger.WarnContext(detached, "failed to refresh consent statistics", "error", err)
			return
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if gen != c.statsGen {
			c.metrics.IncrementStatsRefresh("stale")
			return
		}
		c.stats = &stats
		c.metrics.IncrementStatsRefresh("success")
	}()
}

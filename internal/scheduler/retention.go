package scheduler

import (
	"context"
	"time"

	"carmarket_backend/platform/logger"
)

const defaultSignalRetentionInterval = time.Hour

// SignalPurger deletes market signals past their retention window.
type SignalPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// SignalRetention periodically removes long-expired market signals.
type SignalRetention struct {
	purger   SignalPurger
	log      *logger.Logger
	interval time.Duration
}

func NewSignalRetention(purger SignalPurger, log *logger.Logger, interval time.Duration) *SignalRetention {
	if interval <= 0 {
		interval = defaultSignalRetentionInterval
	}
	return &SignalRetention{purger: purger, log: log, interval: interval}
}

func (c *SignalRetention) Run(ctx context.Context) {
	if c == nil || c.purger == nil {
		return
	}

	c.cleanup(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

func (c *SignalRetention) cleanup(ctx context.Context) {
	deleted, err := c.purger.PurgeExpired(ctx)
	if err != nil {
		c.log.Warn("market signal retention failed", "error", err)
		return
	}

	if deleted > 0 {
		c.log.Info("market signal retention deleted expired signals", "deleted", deleted)
	}
}

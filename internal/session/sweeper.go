package session

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// RunSweeper evicts sessions idle for longer than ttl every interval until
// ctx is cancelled.  Stores that do not implement Sweeper are ignored.
func RunSweeper(ctx context.Context, store Store, interval, ttl time.Duration, log logrus.FieldLogger) {
	sw, ok := store.(Sweeper)
	if !ok || interval <= 0 || ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := sw.Sweep(ctx, now.Add(-ttl))
			if err != nil {
				log.WithError(err).Warn("session sweep failed")
				continue
			}
			if n > 0 {
				log.WithField("evicted", n).Info("idle sessions evicted")
			}
		}
	}
}

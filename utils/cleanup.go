package utils

import (
	"context"
	"time"

	"retail-backoffice/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// StaleSweeper marks runs that never finished; it returns how many rows it touched.
type StaleSweeper func(ctx context.Context, olderThan time.Duration) (int64, error)

// ScheduleStaleProcessingSweep runs sweep every five minutes. The returned
// scheduler must be stopped on shutdown.
func ScheduleStaleProcessingSweep(sweep StaleSweeper, olderThan time.Duration) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc("*/5 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		swept, err := sweep(ctx, olderThan)
		if err != nil {
			config.Logger.Error("Stale processing sweep failed", zap.Error(err))
			return
		}
		if swept > 0 {
			config.Logger.Warn("Marked interrupted invoice runs as failed",
				zap.Int64("count", swept),
				zap.Duration("older_than", olderThan),
			)
		}
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	return c, nil
}

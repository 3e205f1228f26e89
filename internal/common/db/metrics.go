package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/AlibekovAA/credential-service/internal/common/constants"
	"github.com/AlibekovAA/credential-service/internal/observability/metrics"
)

func StartPoolMetrics(ctx context.Context, pool *pgxpool.Pool, interval time.Duration) {
	startStatsLoop(ctx, interval, func() {
		stats := pool.Stat()
		metrics.DBPoolAcquiredConnections.Set(float64(stats.AcquiredConns()))
		metrics.DBPoolIdleConnections.Set(float64(stats.IdleConns()))
		metrics.DBPoolMaxConnections.Set(float64(stats.MaxConns()))
		metrics.DBPoolTotalConnections.Set(float64(stats.TotalConns()))
	})
}

func StartSQLDBMetrics(ctx context.Context, sqlDB *sql.DB, interval time.Duration) {
	startStatsLoop(ctx, interval, func() {
		stats := sqlDB.Stats()
		metrics.DBPoolAcquiredConnections.Set(float64(stats.InUse))
		metrics.DBPoolIdleConnections.Set(float64(stats.Idle))
		metrics.DBPoolMaxConnections.Set(float64(stats.MaxOpenConnections))
		metrics.DBPoolTotalConnections.Set(float64(stats.OpenConnections))
	})
}

func startStatsLoop(ctx context.Context, interval time.Duration, collect func()) {
	if interval <= 0 {
		interval = constants.DBPoolMetricsInterval
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		collect()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				collect()
			}
		}
	}()
}

package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	pgx "github.com/jackc/pgx/v4"

	"github.com/AlibekovAA/credential-service/internal/observability/metrics"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// HandleQueryError records the query duration and maps "no rows" from either
// driver to notFoundErr.
func HandleQueryError(driver string, err error, notFoundErr error, operation string, startTime time.Time) error {
	MeasureQueryDuration(driver, operation, startTime)

	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return notFoundErr
	}
	metrics.DBQueryErrors.WithLabelValues(driver, operation, fmt.Sprintf("%T", err)).Inc()
	return fmt.Errorf("failed to %s: %w", operation, err)
}

func HandleExecError(driver string, err error, operation string, startTime time.Time) error {
	MeasureQueryDuration(driver, operation, startTime)

	if err == nil {
		return nil
	}
	metrics.DBQueryErrors.WithLabelValues(driver, operation, fmt.Sprintf("%T", err)).Inc()
	return fmt.Errorf("failed to %s: %w", operation, err)
}

func MeasureQueryDuration(driver, operation string, startTime time.Time) {
	metrics.DBQueryDurationSeconds.WithLabelValues(driver, operation).Observe(time.Since(startTime).Seconds())
}

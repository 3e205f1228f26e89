package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/AlibekovAA/credential-service/internal/common/logger"
	"github.com/AlibekovAA/credential-service/internal/observability/metrics"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// goose keeps its dialect and base FS in package globals.
var migrateMu sync.Mutex

type gooseLogger struct {
	log *logger.Logger
}

func (g gooseLogger) Printf(format string, v ...interface{}) {
	g.log.Debugf("goose: "+format, v...)
}

func (g gooseLogger) Fatalf(format string, v ...interface{}) {
	g.log.Fatalf("goose: "+format, v...)
}

// Migrate applies the embedded schema migrations. driver is DriverPostgres or
// DriverSQLite.
func Migrate(ctx context.Context, sqlDB *sql.DB, driver string, log *logger.Logger) error {
	dialect, err := gooseDialect(driver)
	if err != nil {
		return err
	}

	migrateMu.Lock()
	defer migrateMu.Unlock()

	if log != nil {
		goose.SetLogger(gooseLogger{log: log})
	} else {
		goose.SetLogger(goose.NopLogger())
	}
	goose.SetBaseFS(embedMigrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, sqlDB, "migrations"); err != nil {
		return fmt.Errorf("goose up failed: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("goose version: %w", err)
	}
	metrics.DBMigrationsApplied.Set(float64(version))

	if log != nil {
		log.Infof("database schema at version %d (%s)", version, driver)
	}

	return nil
}

func gooseDialect(driver string) (string, error) {
	switch driver {
	case DriverPostgres:
		return "postgres", nil
	case DriverSQLite:
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("unsupported migration driver %q", driver)
	}
}

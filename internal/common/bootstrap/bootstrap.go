package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/stdlib"

	"github.com/AlibekovAA/credential-service/internal/auth/service"
	"github.com/AlibekovAA/credential-service/internal/common/clock"
	"github.com/AlibekovAA/credential-service/internal/common/config"
	"github.com/AlibekovAA/credential-service/internal/common/constants"
	commoncrypto "github.com/AlibekovAA/credential-service/internal/common/crypto"
	"github.com/AlibekovAA/credential-service/internal/common/db"
	commonerrors "github.com/AlibekovAA/credential-service/internal/common/errors"
	commonhttp "github.com/AlibekovAA/credential-service/internal/common/http"
	"github.com/AlibekovAA/credential-service/internal/common/logger"
	userrepo "github.com/AlibekovAA/credential-service/internal/user/repository"
)

type AuthApp struct {
	Log         *logger.Logger
	Config      config.AuthConfig
	UserRepo    userrepo.Repository
	AuthService *service.AuthService
	ClientIP    *commonhttp.ClientIPResolver
}

// NewAuthApp loads configuration, opens the configured user store and wires
// the credential service. ctx bounds store connection and migrations; the
// pool metrics collector stops when it is cancelled.
func NewAuthApp(ctx context.Context) (*AuthApp, error) {
	if err := config.LoadEnvFiles(); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.LoadAuthConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	clientIP, err := commonhttp.NewClientIPResolver(cfg.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TRUSTED_PROXIES: %w", err)
	}

	log, err := logger.New(cfg.LogDir, "auth", cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET is not set: registration and login will fail until it is configured")
	}

	repo, err := OpenUserStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	hasher := commoncrypto.NewBoundedHasher(commoncrypto.NewBcryptHasher(cfg.BcryptCost), cfg.HashConcurrency)
	authService := service.NewAuthService(
		service.AuthServiceDeps{
			Repo:        repo,
			Hasher:      hasher,
			IDGenerator: commoncrypto.NewUUIDGenerator(),
			Clock:       clock.NewRealClock(),
			Log:         log,
		},
		service.AuthServiceConfig{
			JWTSecret: cfg.JWTSecret,
			TokenTTL:  cfg.TokenTTL,
		},
	)

	return &AuthApp{
		Log:         log,
		Config:      cfg,
		UserRepo:    repo,
		AuthService: authService,
		ClientIP:    clientIP,
	}, nil
}

// OpenUserStore builds the repository selected by cfg.StoreDriver and brings
// its schema up to date.
func OpenUserStore(ctx context.Context, cfg config.AuthConfig, log *logger.Logger) (userrepo.Repository, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		return openPostgres(ctx, cfg, log)
	case config.StoreDriverSQLite:
		return openSQLite(ctx, cfg, log)
	case config.StoreDriverMemory:
		log.Warn("using in-memory user store: data is lost on restart")
		return userrepo.NewMemoryRepository(), nil
	default:
		return nil, commonerrors.ErrUnsupportedStoreDriver.WithCause(fmt.Errorf("driver %q", cfg.StoreDriver))
	}
}

func openPostgres(ctx context.Context, cfg config.AuthConfig, log *logger.Logger) (userrepo.Repository, error) {
	pool, err := db.NewPool(ctx, log, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	migrationDB := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer migrationDB.Close()

	if err := db.Migrate(ctx, migrationDB, db.DriverPostgres, log); err != nil {
		pool.Close()
		return nil, err
	}

	db.StartPoolMetrics(ctx, pool, constants.DBPoolMetricsInterval)
	return userrepo.NewPgRepository(pool, log), nil
}

func openSQLite(ctx context.Context, cfg config.AuthConfig, log *logger.Logger) (userrepo.Repository, error) {
	sqlDB, err := db.OpenSQLite(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx, sqlDB, db.DriverSQLite, log); err != nil {
		sqlDB.Close()
		return nil, err
	}

	log.Infof("sqlite user store opened at %s", cfg.SQLitePath)
	db.StartSQLDBMetrics(ctx, sqlDB, constants.DBPoolMetricsInterval)
	return userrepo.NewSQLiteRepository(sqlDB, log), nil
}

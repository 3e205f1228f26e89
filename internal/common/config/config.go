package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/AlibekovAA/credential-service/internal/common/constants"
	commonerrors "github.com/AlibekovAA/credential-service/internal/common/errors"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
	StoreDriverMemory   = "memory"
)

type AuthConfig struct {
	HTTPPort        string
	JWTSecret       string
	TokenTTL        time.Duration
	StoreDriver     string
	DatabaseURL     string
	SQLitePath      string
	BcryptCost      int
	HashConcurrency int
	RequestTimeout  time.Duration
	LogDir          string
	LogLevel        string
	TrustedProxies  []string
}

// LoadEnvFiles loads the given dotenv files into the process environment.
// Missing files are skipped and variables already set are never overridden;
// a file that exists but cannot be read or parsed is an error.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return commonerrors.ErrInvalidConfigValue.WithCause(fmt.Errorf("%s: %w", f, err))
		}
	}
	return nil
}

// LoadAuthConfig reads the service configuration from the environment.
// JWT_SECRET may be absent: the service then starts but every token
// operation fails with a configuration error.
func LoadAuthConfig() (AuthConfig, error) {
	jwtSecret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if err := validateJWTSecret(jwtSecret); err != nil {
		return AuthConfig{}, err
	}

	driver := strings.ToLower(getEnv("STORE_DRIVER", constants.DefaultStoreDriver))

	var databaseURL string
	switch driver {
	case StoreDriverPostgres:
		v, err := mustEnv("DATABASE_URL")
		if err != nil {
			return AuthConfig{}, err
		}
		databaseURL = v
	case StoreDriverSQLite, StoreDriverMemory:
	default:
		return AuthConfig{}, commonerrors.ErrUnsupportedStoreDriver.WithCause(fmt.Errorf("STORE_DRIVER=%q", driver))
	}

	bcryptCost, err := getIntEnv("BCRYPT_COST", constants.DefaultBcryptCost)
	if err != nil {
		return AuthConfig{}, err
	}
	if bcryptCost < 4 || bcryptCost > 31 {
		return AuthConfig{}, commonerrors.ErrInvalidConfigValue.WithCause(fmt.Errorf("BCRYPT_COST=%d out of range 4..31", bcryptCost))
	}

	hashConcurrency, err := getIntEnv("AUTH_HASH_CONCURRENCY", runtime.GOMAXPROCS(0))
	if err != nil {
		return AuthConfig{}, err
	}
	if hashConcurrency < 1 {
		hashConcurrency = 1
	}

	tokenTTL, err := getDurationEnv("TOKEN_TTL", constants.DefaultTokenTTL)
	if err != nil {
		return AuthConfig{}, err
	}

	requestTimeout, err := getDurationEnv("AUTH_REQUEST_TIMEOUT", constants.DefaultAuthRequestTimeout)
	if err != nil {
		return AuthConfig{}, err
	}

	return AuthConfig{
		HTTPPort:        getEnv("AUTH_HTTP_PORT", constants.DefaultAuthHTTPPort),
		JWTSecret:       jwtSecret,
		TokenTTL:        tokenTTL,
		StoreDriver:     driver,
		DatabaseURL:     databaseURL,
		SQLitePath:      getEnv("SQLITE_PATH", constants.DefaultSQLitePath),
		BcryptCost:      bcryptCost,
		HashConcurrency: hashConcurrency,
		RequestTimeout:  requestTimeout,
		LogDir:          os.Getenv("LOG_DIR"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		TrustedProxies:  getListEnv("TRUSTED_PROXIES"),
	}, nil
}

func validateJWTSecret(secret string) error {
	if secret == "" {
		return nil
	}
	if len(secret) < constants.JWTSecretMinLength {
		return commonerrors.ErrInvalidJWTSecret.WithCause(fmt.Errorf("got %d bytes", len(secret)))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getListEnv(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func mustEnv(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", commonerrors.ErrMissingRequiredEnv.WithCause(fmt.Errorf("%s", key))
	}
	return v, nil
}

func getDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, commonerrors.ErrInvalidConfigValue.WithCause(fmt.Errorf("%s=%q", key, v))
	}
	return d, nil
}

func getIntEnv(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, commonerrors.ErrInvalidConfigValue.WithCause(fmt.Errorf("%s=%q", key, v))
	}
	return i, nil
}

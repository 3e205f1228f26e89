package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/AlibekovAA/credential-service/internal/common/clock"
	commoncrypto "github.com/AlibekovAA/credential-service/internal/common/crypto"
	"github.com/AlibekovAA/credential-service/internal/common/db"
	commonerrors "github.com/AlibekovAA/credential-service/internal/common/errors"
	"github.com/AlibekovAA/credential-service/internal/common/logger"
	userdomain "github.com/AlibekovAA/credential-service/internal/user/domain"
	userrepo "github.com/AlibekovAA/credential-service/internal/user/repository"
)

const testJWTSecret = "test-secret-test-secret-test-secret!"

var (
	testNow     = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	errMismatch = errors.New("mismatch")
)

func testLogger() *logger.Logger {
	return logger.NewWithWriter(io.Discard, "test", "ERROR")
}

func setupAuthService(t *testing.T, secret string) (*AuthService, *mockUserRepo, *mockHasher, *clock.MockClock) {
	t.Helper()
	repo := &mockUserRepo{}
	hasher := &mockHasher{}
	mockClock := clock.NewMockClock(testNow)

	svc := NewAuthService(
		AuthServiceDeps{
			Repo:        repo,
			Hasher:      hasher,
			IDGenerator: &mockIDGenerator{},
			Clock:       mockClock,
			Log:         testLogger(),
		},
		AuthServiceConfig{JWTSecret: secret, TokenTTL: 24 * time.Hour},
	)
	return svc, repo, hasher, mockClock
}

// setupIntegration wires the real bcrypt hasher, uuid generator and the
// in-memory store.
func setupIntegration(t *testing.T) (*AuthService, *userrepo.MemoryRepository, *clock.MockClock) {
	t.Helper()
	repo := userrepo.NewMemoryRepository()
	mockClock := clock.NewMockClock(testNow)

	svc := NewAuthService(
		AuthServiceDeps{
			Repo:        repo,
			Hasher:      commoncrypto.NewBoundedHasher(commoncrypto.NewBcryptHasher(bcrypt.MinCost), 2),
			IDGenerator: commoncrypto.NewUUIDGenerator(),
			Clock:       mockClock,
			Log:         testLogger(),
		},
		AuthServiceConfig{JWTSecret: testJWTSecret, TokenTTL: 24 * time.Hour},
	)
	return svc, repo, mockClock
}

func TestAuthService_Register_Success(t *testing.T) {
	svc, repo, _ := setupIntegration(t)
	ctx := context.Background()

	result, err := svc.Register(ctx, RegisterInput{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "hunter22",
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	assert.True(t, result.ExpiresAt.Equal(testNow.Add(24*time.Hour)))

	stored, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, result.UserID, stored.ID)
	assert.Equal(t, "alice@example.com", stored.Email)
	assert.NotEqual(t, "hunter22", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("hunter22")))

	claims, err := svc.VerifyToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, string(stored.ID), claims.UserID)
	assert.True(t, claims.ExpiresAt.Equal(testNow.Add(24*time.Hour)))
}

func TestAuthService_Register_ThenLogin(t *testing.T) {
	svc, _, _ := setupIntegration(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterInput{Email: "alice@example.com", Username: "alice", Password: "hunter22"})
	require.NoError(t, err)

	loggedIn, err := svc.Login(ctx, LoginInput{Username: "alice", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, registered.UserID, loggedIn.UserID)

	claims, err := svc.VerifyToken(loggedIn.Token)
	require.NoError(t, err)
	assert.Equal(t, string(registered.UserID), claims.UserID)
}

func TestAuthService_Register_LongIdentities(t *testing.T) {
	ctx := context.Background()
	sqlDB, err := db.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx, sqlDB, db.DriverSQLite, nil))
	repo := userrepo.NewSQLiteRepository(sqlDB, nil)
	t.Cleanup(func() { _ = repo.Close() })

	svc := NewAuthService(
		AuthServiceDeps{
			Repo:        repo,
			Hasher:      commoncrypto.NewBcryptHasher(bcrypt.MinCost),
			IDGenerator: commoncrypto.NewUUIDGenerator(),
			Clock:       clock.NewMockClock(testNow),
			Log:         testLogger(),
		},
		AuthServiceConfig{JWTSecret: testJWTSecret, TokenTTL: 24 * time.Hour},
	)

	username := strings.Repeat("u", 300)
	label := strings.Repeat("b", 63)
	email := strings.Repeat("a", 64) + "@" + label + "." + label + "." + label + "." + label + ".com"
	require.Greater(t, len(email), 320)

	registered, err := svc.Register(ctx, RegisterInput{Email: email, Username: username, Password: "hunter22"})
	require.NoError(t, err)

	loggedIn, err := svc.Login(ctx, LoginInput{Username: username, Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, registered.UserID, loggedIn.UserID)
}

func TestAuthService_Register_TrimsLikeLogin(t *testing.T) {
	svc, repo, _ := setupIntegration(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterInput{Email: "bob@example.com", Username: "  bob ", Password: " hunter22 "})
	require.NoError(t, err)

	stored, err := repo.FindByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, registered.UserID, stored.ID)

	for _, input := range []LoginInput{
		{Username: "bob", Password: "hunter22"},
		{Username: "  bob ", Password: " hunter22 "},
	} {
		loggedIn, err := svc.Login(ctx, input)
		require.NoError(t, err, "%q/%q", input.Username, input.Password)
		assert.Equal(t, registered.UserID, loggedIn.UserID)
	}

	// a username that is too short once trimmed is rejected on both paths
	_, err = svc.Register(ctx, RegisterInput{Email: "sp@example.com", Username: " sp ", Password: "hunter22"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAuthService_Register_NormalizesEmail(t *testing.T) {
	svc, repo, _, _ := setupAuthService(t, testJWTSecret)

	var stored userdomain.User
	repo.createFunc = func(ctx context.Context, user userdomain.User) error {
		stored = user
		return nil
	}

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "  Alice.Smith+news@GoogleMail.com ",
		Username: "alice",
		Password: "hunter22",
	})
	require.NoError(t, err)
	assert.Equal(t, "alicesmith@gmail.com", stored.Email)
}

func TestAuthService_Register_ValidationRejectsBeforeStore(t *testing.T) {
	tests := []struct {
		name   string
		input  RegisterInput
		fields map[string]string
	}{
		{
			name:   "short password",
			input:  RegisterInput{Email: "bob@example.com", Username: "bob", Password: "abcd"},
			fields: map[string]string{"password": "Password must be at least 5 characters long"},
		},
		{
			name:   "invalid email",
			input:  RegisterInput{Email: "not-an-email", Username: "bob", Password: "secret1"},
			fields: map[string]string{"email": "Invalid value"},
		},
		{
			name:   "short username",
			input:  RegisterInput{Email: "bob@example.com", Username: "bo", Password: "secret1"},
			fields: map[string]string{"username": "Invalid value"},
		},
		{
			name:   "password over 72 bytes",
			input:  RegisterInput{Email: "bob@example.com", Username: "bob", Password: strings.Repeat("x", 73)},
			fields: map[string]string{"password": "Password must be at most 72 bytes long"},
		},
		{
			name:  "everything wrong",
			input: RegisterInput{Email: "", Username: "", Password: ""},
			fields: map[string]string{
				"email":    "Invalid value",
				"username": "Invalid value",
				"password": "Password must be at least 5 characters long",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _, _ := setupAuthService(t, testJWTSecret)

			_, err := svc.Register(context.Background(), tt.input)
			require.ErrorIs(t, err, ErrInvalidInput)

			ve, ok := commonerrors.AsValidationError(err)
			require.True(t, ok)
			got := map[string]string{}
			for _, f := range ve.Fields {
				got[f.Field] = f.Message
			}
			assert.Equal(t, tt.fields, got)
			assert.Zero(t, repo.calls.Load(), "store must not be touched")
		})
	}
}

func TestAuthService_Register_DuplicateIdentity(t *testing.T) {
	svc, _, _ := setupIntegration(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "alice@example.com", Username: "alice", Password: "hunter22"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Email: "alice@example.com", Username: "alice2", Password: "hunter22"})
	assert.ErrorIs(t, err, ErrDuplicateIdentity)

	_, err = svc.Register(ctx, RegisterInput{Email: "other@example.com", Username: "alice", Password: "hunter22"})
	assert.ErrorIs(t, err, ErrDuplicateIdentity)

	_, err = svc.Login(ctx, LoginInput{Username: "alice2", Password: "hunter22"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Register_PreCheckSkipsCreate(t *testing.T) {
	svc, repo, _, _ := setupAuthService(t, testJWTSecret)

	repo.existsFunc = func(ctx context.Context, email, username string) (bool, error) {
		return true, nil
	}
	repo.createFunc = func(ctx context.Context, user userdomain.User) error {
		t.Fatal("create must not be called when identity exists")
		return nil
	}

	_, err := svc.Register(context.Background(), RegisterInput{Email: "alice@example.com", Username: "alice", Password: "hunter22"})
	assert.ErrorIs(t, err, ErrDuplicateIdentity)
}

func TestAuthService_Register_ConcurrentInsertConflict(t *testing.T) {
	svc, repo, _, _ := setupAuthService(t, testJWTSecret)

	creates := 0
	repo.createFunc = func(ctx context.Context, user userdomain.User) error {
		creates++
		return userrepo.ErrIdentityExists
	}

	_, err := svc.Register(context.Background(), RegisterInput{Email: "alice@example.com", Username: "alice", Password: "hunter22"})
	assert.ErrorIs(t, err, ErrDuplicateIdentity)
	assert.Equal(t, 1, creates)
}

func TestAuthService_Register_MissingSecret(t *testing.T) {
	svc, repo, _, _ := setupAuthService(t, "")

	_, err := svc.Register(context.Background(), RegisterInput{Email: "alice@example.com", Username: "alice", Password: "hunter22"})
	require.ErrorIs(t, err, ErrConfiguration)
	assert.Zero(t, repo.calls.Load(), "no user record may be created without a signing key")

	de, ok := commonerrors.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "CONFIGURATION_ERROR", de.Code())
	assert.Equal(t, 500, de.HTTPStatus())
}

func TestAuthService_Register_StoreFailure(t *testing.T) {
	svc, repo, _, _ := setupAuthService(t, testJWTSecret)

	cause := errors.New("connection reset")
	repo.createFunc = func(ctx context.Context, user userdomain.User) error {
		return cause
	}

	_, err := svc.Register(context.Background(), RegisterInput{Email: "alice@example.com", Username: "alice", Password: "hunter22"})
	assert.ErrorIs(t, err, ErrUnexpected)
	assert.ErrorIs(t, err, cause)

	de, ok := commonerrors.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "Internal server error", de.Message())
}

func TestAuthService_Register_HashFailure(t *testing.T) {
	svc, repo, hasher, _ := setupAuthService(t, testJWTSecret)

	hasher.hashFunc = func(password string) (string, error) {
		return "", errors.New("entropy exhausted")
	}
	repo.createFunc = func(ctx context.Context, user userdomain.User) error {
		t.Fatal("create must not be called after hash failure")
		return nil
	}

	_, err := svc.Register(context.Background(), RegisterInput{Email: "alice@example.com", Username: "alice", Password: "hunter22"})
	assert.ErrorIs(t, err, ErrUnexpected)
}

func TestAuthService_Login_UnknownUserAndWrongPasswordAreIndistinguishable(t *testing.T) {
	svc, _, _ := setupIntegration(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "alice@example.com", Username: "alice", Password: "hunter22"})
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, LoginInput{Username: "alice", Password: "wrong-pass"})
	_, unknownUser := svc.Login(ctx, LoginInput{Username: "mallory", Password: "hunter22"})

	require.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	require.ErrorIs(t, unknownUser, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())

	a, _ := commonerrors.AsDomainError(wrongPassword)
	b, _ := commonerrors.AsDomainError(unknownUser)
	assert.Equal(t, a.Code(), b.Code())
	assert.Equal(t, a.HTTPStatus(), b.HTTPStatus())
	assert.Equal(t, a.Message(), b.Message())
}

func TestAuthService_Login_UsernameIsCaseSensitive(t *testing.T) {
	svc, _, _ := setupIntegration(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "alice@example.com", Username: "alice", Password: "hunter22"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Username: "Alice", Password: "hunter22"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Login_TrimsInput(t *testing.T) {
	svc, repo, _, _ := setupAuthService(t, testJWTSecret)

	repo.findByUsernameFunc = func(ctx context.Context, username string) (userdomain.User, error) {
		assert.Equal(t, "alice", username)
		return userdomain.User{ID: "user-1", Username: "alice", PasswordHash: "hashed:hunter22"}, nil
	}

	result, err := svc.Login(context.Background(), LoginInput{Username: "  alice ", Password: " hunter22\t"})
	require.NoError(t, err)
	assert.Equal(t, userdomain.ID("user-1"), result.UserID)
}

func TestAuthService_Login_CancelledDuringCompareIsLogged(t *testing.T) {
	var buf bytes.Buffer
	repo := &mockUserRepo{
		findByUsernameFunc: func(ctx context.Context, username string) (userdomain.User, error) {
			return userdomain.User{ID: "user-1", Username: "alice", PasswordHash: "hashed:hunter22"}, nil
		},
	}
	hasher := &mockHasher{
		compareFunc: func(hash, password string) error { return context.Canceled },
	}
	svc := NewAuthService(
		AuthServiceDeps{
			Repo:        repo,
			Hasher:      hasher,
			IDGenerator: &mockIDGenerator{},
			Clock:       clock.NewMockClock(testNow),
			Log:         logger.NewWithWriter(&buf, "test", "INFO"),
		},
		AuthServiceConfig{JWTSecret: testJWTSecret, TokenTTL: 24 * time.Hour},
	)

	_, err := svc.Login(context.Background(), LoginInput{Username: "alice", Password: "hunter22"})
	require.ErrorIs(t, err, ErrUnexpected)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
	assert.Contains(t, buf.String(), "action=login_cancelled")
}

func TestAuthService_Login_ValidationRejectsBeforeStore(t *testing.T) {
	svc, repo, _, _ := setupAuthService(t, testJWTSecret)

	_, err := svc.Login(context.Background(), LoginInput{Username: "al", Password: "abc"})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, repo.calls.Load())
}

func TestAuthService_Login_StoreFailure(t *testing.T) {
	svc, repo, _, _ := setupAuthService(t, testJWTSecret)

	repo.findByUsernameFunc = func(ctx context.Context, username string) (userdomain.User, error) {
		return userdomain.User{}, errors.New("connection refused")
	}

	_, err := svc.Login(context.Background(), LoginInput{Username: "alice", Password: "hunter22"})
	assert.ErrorIs(t, err, ErrUnexpected)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Login_MissingSecret(t *testing.T) {
	svc, repo, _, _ := setupAuthService(t, "")

	repo.findByUsernameFunc = func(ctx context.Context, username string) (userdomain.User, error) {
		return userdomain.User{ID: "user-1", Username: "alice", PasswordHash: "hashed:hunter22"}, nil
	}

	_, err := svc.Login(context.Background(), LoginInput{Username: "alice", Password: "hunter22"})
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestAuthService_VerifyToken_Expiry(t *testing.T) {
	svc, repo, _, mockClock := setupAuthService(t, testJWTSecret)

	repo.findByUsernameFunc = func(ctx context.Context, username string) (userdomain.User, error) {
		return userdomain.User{ID: "user-1", Username: "alice", PasswordHash: "hashed:hunter22"}, nil
	}

	result, err := svc.Login(context.Background(), LoginInput{Username: "alice", Password: "hunter22"})
	require.NoError(t, err)

	mockClock.SetTime(testNow.Add(23*time.Hour + 59*time.Minute))
	claims, err := svc.VerifyToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)

	mockClock.SetTime(testNow.Add(24*time.Hour + time.Minute))
	_, err = svc.VerifyToken(result.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_VerifyToken_ForeignSecret(t *testing.T) {
	svc, repo, _, _ := setupAuthService(t, testJWTSecret)
	other, _, _, _ := setupAuthService(t, "another-secret-another-secret-another")

	repo.findByUsernameFunc = func(ctx context.Context, username string) (userdomain.User, error) {
		return userdomain.User{ID: "user-1", Username: "alice", PasswordHash: "hashed:hunter22"}, nil
	}

	result, err := svc.Login(context.Background(), LoginInput{Username: "alice", Password: "hunter22"})
	require.NoError(t, err)

	_, err = other.VerifyToken(result.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_Me(t *testing.T) {
	svc, _, _ := setupIntegration(t)
	ctx := context.Background()

	result, err := svc.Register(ctx, RegisterInput{Email: "alice@example.com", Username: "alice", Password: "hunter22"})
	require.NoError(t, err)

	profile, err := svc.Me(ctx, result.UserID)
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, "alice@example.com", profile.Email)
	assert.True(t, profile.CreatedAt.Equal(testNow))

	_, err = svc.Me(ctx, "missing")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

package service

import (
	"context"
	"errors"
	"time"

	authdomain "github.com/AlibekovAA/credential-service/internal/auth/domain"
	"github.com/AlibekovAA/credential-service/internal/common/clock"
	commoncrypto "github.com/AlibekovAA/credential-service/internal/common/crypto"
	"github.com/AlibekovAA/credential-service/internal/common/jwtverify"
	"github.com/AlibekovAA/credential-service/internal/common/logger"
	userdomain "github.com/AlibekovAA/credential-service/internal/user/domain"
	userrepo "github.com/AlibekovAA/credential-service/internal/user/repository"
)

type AuthServiceDeps struct {
	Repo        userrepo.Repository
	Hasher      commoncrypto.PasswordHasher
	IDGenerator commoncrypto.IDGenerator
	Clock       clock.Clock
	Log         *logger.Logger
}

type AuthServiceConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type AuthService struct {
	repo        userrepo.Repository
	hasher      commoncrypto.PasswordHasher
	idGenerator commoncrypto.IDGenerator
	tokens      *TokenIssuer
	clock       clock.Clock
	log         *logger.Logger
}

func NewAuthService(deps AuthServiceDeps, cfg AuthServiceConfig) *AuthService {
	clk := deps.Clock
	if clk == nil {
		clk = clock.NewRealClock()
	}

	return &AuthService{
		repo:        deps.Repo,
		hasher:      deps.Hasher,
		idGenerator: deps.IDGenerator,
		tokens:      NewTokenIssuer(cfg.JWTSecret, deps.IDGenerator, cfg.TokenTTL, clk),
		clock:       clk,
		log:         deps.Log,
	}
}

type RegisterInput struct {
	Email    string
	Username string
	Password string
}

type LoginInput struct {
	Username string
	Password string
}

type AuthResult struct {
	Token     string
	UserID    userdomain.ID
	ExpiresAt time.Time
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	s.log.WithFields(ctx, logger.Fields{
		"username": input.Username,
		"action":   "register_attempt",
	}).Info("register attempt")

	normalized, err := validateRegister(input)
	if err != nil {
		recordRegistration(resultInvalidInput)
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "register_validation_failed",
		}).Warnf("register validation failed: %v", err)
		return AuthResult{}, err
	}
	input = normalized

	if !s.tokens.Configured() {
		recordRegistration(resultError)
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "register_signing_key_missing",
		}).Error("register failed: signing key is not configured")
		return AuthResult{}, ErrConfiguration
	}

	exists, err := s.repo.ExistsByEmailOrUsername(ctx, input.Email, input.Username)
	if err != nil {
		recordRegistration(resultError)
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "register_lookup_failed",
		}).Errorf("register failed: identity lookup error: %v", err)
		return AuthResult{}, newUnexpectedError(err)
	}
	if exists {
		recordRegistration(resultDuplicate)
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "register_identity_exists",
		}).Warn("register failed: email or username already exists")
		return AuthResult{}, ErrDuplicateIdentity
	}

	hash, err := s.hasher.Hash(ctx, input.Password)
	if err != nil {
		recordRegistration(resultError)
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "register_hash_failed",
		}).Errorf("register failed: password hash error: %v", err)
		return AuthResult{}, newUnexpectedError(err)
	}

	id, err := s.idGenerator.NewID()
	if err != nil {
		recordRegistration(resultError)
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "register_id_generation_failed",
		}).Errorf("register failed: id generation error: %v", err)
		return AuthResult{}, newUnexpectedError(err)
	}

	user := userdomain.User{
		ID:           userdomain.ID(id),
		Email:        input.Email,
		Username:     input.Username,
		PasswordHash: hash,
		CreatedAt:    s.clock.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, userrepo.ErrIdentityExists) {
			recordRegistration(resultDuplicate)
			s.log.WithFields(ctx, logger.Fields{
				"username": input.Username,
				"action":   "register_identity_conflict",
			}).Warn("register failed: identity taken concurrently")
			return AuthResult{}, ErrDuplicateIdentity
		}
		recordRegistration(resultError)
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "register_create_failed",
		}).Errorf("register failed: %v", err)
		return AuthResult{}, newUnexpectedError(err)
	}

	session, err := s.tokens.Issue(user.ID)
	if err != nil {
		recordRegistration(resultError)
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"user_id":  string(user.ID),
			"action":   "register_token_issue_failed",
		}).Errorf("register failed: token issue error: %v", err)
		return AuthResult{}, err
	}

	recordRegistration(resultSuccess)
	s.log.WithFields(ctx, logger.Fields{
		"username": user.Username,
		"user_id":  string(user.ID),
		"action":   "register_success",
	}).Info("register success")

	return newAuthResult(session), nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	input, err := validateLogin(input)
	if err != nil {
		recordLogin(resultInvalidInput)
		s.log.WithFields(ctx, logger.Fields{
			"action": "login_validation_failed",
		}).Warnf("login validation failed: %v", err)
		return AuthResult{}, err
	}

	s.log.WithFields(ctx, logger.Fields{
		"username": input.Username,
		"action":   "login_attempt",
	}).Info("login attempt")

	user, err := s.repo.FindByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			recordLogin(resultInvalidCredentials)
			s.log.WithFields(ctx, logger.Fields{
				"username": input.Username,
				"action":   "login_user_not_found",
			}).Warn("login failed: not found")
			return AuthResult{}, ErrInvalidCredentials
		}
		recordLogin(resultError)
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "login_fetch_failed",
		}).Errorf("login failed: %v", err)
		return AuthResult{}, newUnexpectedError(err)
	}

	if err := s.hasher.Compare(ctx, user.PasswordHash, input.Password); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			recordLogin(resultError)
			s.log.WithFields(ctx, logger.Fields{
				"username": input.Username,
				"action":   "login_cancelled",
			}).Warnf("login aborted during password check: %v", err)
			return AuthResult{}, newUnexpectedError(err)
		}
		recordLogin(resultInvalidCredentials)
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"action":   "login_invalid_password",
		}).Warn("login failed: invalid password")
		return AuthResult{}, ErrInvalidCredentials
	}

	session, err := s.tokens.Issue(user.ID)
	if err != nil {
		recordLogin(resultError)
		s.log.WithFields(ctx, logger.Fields{
			"username": input.Username,
			"user_id":  string(user.ID),
			"action":   "login_token_issue_failed",
		}).Errorf("login failed: token issue error: %v", err)
		return AuthResult{}, err
	}

	recordLogin(resultSuccess)
	s.log.WithFields(ctx, logger.Fields{
		"username": user.Username,
		"user_id":  string(user.ID),
		"action":   "login_success",
	}).Info("login success")

	return newAuthResult(session), nil
}

// VerifyToken checks signature and expiry of a session token.
func (s *AuthService) VerifyToken(tokenString string) (jwtverify.Claims, error) {
	claims, err := s.tokens.Verify(tokenString)
	recordTokenValidation(err == nil)
	return claims, err
}

func (s *AuthService) Me(ctx context.Context, userID userdomain.ID) (userdomain.Profile, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			s.log.WithFields(ctx, logger.Fields{
				"user_id": string(userID),
				"action":  "me_user_not_found",
			}).Warn("token subject no longer exists")
			return userdomain.Profile{}, ErrInvalidToken
		}
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(userID),
			"action":  "me_fetch_failed",
		}).Errorf("me failed: %v", err)
		return userdomain.Profile{}, newUnexpectedError(err)
	}
	return user.Profile(), nil
}

func newAuthResult(session authdomain.Session) AuthResult {
	return AuthResult{
		Token:     session.Token,
		UserID:    session.UserID,
		ExpiresAt: session.ExpiresAt,
	}
}

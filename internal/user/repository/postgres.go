package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/AlibekovAA/credential-service/internal/common/constants"
	"github.com/AlibekovAA/credential-service/internal/common/db"
	"github.com/AlibekovAA/credential-service/internal/common/logger"
	"github.com/AlibekovAA/credential-service/internal/user/domain"
)

const pgUniqueViolation = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

func NewPgRepository(pool *pgxpool.Pool, log *logger.Logger) *PgRepository {
	return &PgRepository{pool: pool, log: log}
}

func (r *PgRepository) Create(ctx context.Context, user domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DBQueryTimeout)
	defer cancel()

	start := time.Now()
	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO users (id, email, username, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`,
		string(user.ID),
		user.Email,
		user.Username,
		user.PasswordHash,
		user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			db.MeasureQueryDuration(db.DriverPostgres, "create user", start)
			return ErrIdentityExists
		}
	}
	return db.HandleExecError(db.DriverPostgres, err, "create user", start)
}

func (r *PgRepository) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.findOne(ctx, "find user by username",
		`SELECT id, email, username, password_hash, created_at FROM users WHERE username = $1`,
		username,
	)
}

func (r *PgRepository) FindByID(ctx context.Context, id domain.ID) (domain.User, error) {
	return r.findOne(ctx, "find user by id",
		`SELECT id, email, username, password_hash, created_at FROM users WHERE id = $1`,
		string(id),
	)
}

func (r *PgRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DBQueryTimeout)
	defer cancel()

	var exists bool
	err := db.RetryWithBackoff(ctx, r.log, db.DefaultRetryConfig, func() error {
		start := time.Now()
		err := r.pool.QueryRow(
			ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 OR username = $2)`,
			email,
			username,
		).Scan(&exists)
		return db.HandleQueryError(db.DriverPostgres, err, ErrUserNotFound, "check identity", start)
	})
	return exists, err
}

func (r *PgRepository) Close() error {
	r.pool.Close()
	return nil
}

func (r *PgRepository) findOne(ctx context.Context, operation, query string, arg interface{}) (domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DBQueryTimeout)
	defer cancel()

	var user domain.User
	err := db.RetryWithBackoff(ctx, r.log, db.DefaultRetryConfig, func() error {
		start := time.Now()
		err := r.pool.QueryRow(ctx, query, arg).Scan(
			&user.ID,
			&user.Email,
			&user.Username,
			&user.PasswordHash,
			&user.CreatedAt,
		)
		return db.HandleQueryError(db.DriverPostgres, err, ErrUserNotFound, operation, start)
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

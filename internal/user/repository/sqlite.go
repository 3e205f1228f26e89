package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/AlibekovAA/credential-service/internal/common/constants"
	"github.com/AlibekovAA/credential-service/internal/common/db"
	"github.com/AlibekovAA/credential-service/internal/common/logger"
	"github.com/AlibekovAA/credential-service/internal/user/domain"
)

type SQLiteRepository struct {
	db  *sql.DB
	log *logger.Logger
}

func NewSQLiteRepository(sqlDB *sql.DB, log *logger.Logger) *SQLiteRepository {
	return &SQLiteRepository{db: sqlDB, log: log}
}

func (r *SQLiteRepository) Create(ctx context.Context, user domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DBQueryTimeout)
	defer cancel()

	start := time.Now()
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO users (id, email, username, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		string(user.ID),
		user.Email,
		user.Username,
		user.PasswordHash,
		user.CreatedAt.UTC(),
	)
	if isSQLiteUniqueViolation(err) {
		db.MeasureQueryDuration(db.DriverSQLite, "create user", start)
		return ErrIdentityExists
	}
	return db.HandleExecError(db.DriverSQLite, err, "create user", start)
}

func (r *SQLiteRepository) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.findOne(ctx, "find user by username",
		`SELECT id, email, username, password_hash, created_at FROM users WHERE username = ?`,
		username,
	)
}

func (r *SQLiteRepository) FindByID(ctx context.Context, id domain.ID) (domain.User, error) {
	return r.findOne(ctx, "find user by id",
		`SELECT id, email, username, password_hash, created_at FROM users WHERE id = ?`,
		string(id),
	)
}

func (r *SQLiteRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DBQueryTimeout)
	defer cancel()

	var exists bool
	err := db.RetryWithBackoff(ctx, r.log, db.DefaultRetryConfig, func() error {
		start := time.Now()
		err := r.db.QueryRowContext(
			ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE email = ? OR username = ?)`,
			email,
			username,
		).Scan(&exists)
		return db.HandleQueryError(db.DriverSQLite, err, ErrUserNotFound, "check identity", start)
	})
	return exists, err
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) findOne(ctx context.Context, operation, query string, arg interface{}) (domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DBQueryTimeout)
	defer cancel()

	var user domain.User
	err := db.RetryWithBackoff(ctx, r.log, db.DefaultRetryConfig, func() error {
		start := time.Now()
		err := r.db.QueryRowContext(ctx, query, arg).Scan(
			&user.ID,
			&user.Email,
			&user.Username,
			&user.PasswordHash,
			&user.CreatedAt,
		)
		return db.HandleQueryError(db.DriverSQLite, err, ErrUserNotFound, operation, start)
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func isSQLiteUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

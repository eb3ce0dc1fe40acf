package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"session-todos/internal/database"
	"session-todos/internal/models"
	"session-todos/pkg/logger"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already exists")
)

// UserRepository stores local accounts.
type UserRepository struct {
	db *database.DB
}

// NewUserRepository returns a repository bound to db.
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts u and sets its ID. A taken username yields ErrDuplicateUsername.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	const q = `INSERT INTO users (username, hashed_password) VALUES (?, ?)`

	var err error
	if r.db.Dialect.Returning {
		err = r.db.QueryRowContext(ctx, r.db.Rebind(q+` RETURNING id`), u.Username, u.HashedPassword).Scan(&u.ID)
	} else {
		var res sql.Result
		if res, err = r.db.ExecContext(ctx, r.db.Rebind(q), u.Username, u.HashedPassword); err == nil {
			u.ID, err = res.LastInsertId()
		}
	}
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUsername
		}
		logger.Error(ctx, "Repository CreateUser failed", "error", err)
		return err
	}
	return nil
}

// FindByUsername returns the account named username or ErrUserNotFound.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx,
		r.db.Rebind(`SELECT id, username, hashed_password FROM users WHERE username = ?`), username).
		Scan(&u.ID, &u.Username, &u.HashedPassword)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		logger.Error(ctx, "Repository FindByUsername failed", "error", err)
		return nil, err
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			strings.Contains(liteErr.Error(), "UNIQUE constraint failed")
	}
	return false
}

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"session-todos/pkg/logger"
)

// DB is a connection pool together with the dialect it speaks.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Open parses databaseURL, opens the pool and pings it.
func Open(ctx context.Context, databaseURL string, poolSize int) (*DB, error) {
	dialect, dsn, err := ParseURL(databaseURL)
	if err != nil {
		return nil, err
	}
	if dialect.Name == SQLite.Name {
		if dsn, err = prepareSQLite(dsn); err != nil {
			return nil, err
		}
	}

	pool, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect.Name, err)
	}
	if poolSize <= 0 {
		poolSize = 1
	}
	pool.SetMaxOpenConns(poolSize)
	pool.SetMaxIdleConns(max(poolSize/2, 1))
	pool.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping %s database: %w", dialect.Name, err)
	}
	logger.Info(ctx, "Database pool initialized", "dialect", dialect.Name, "max_open", poolSize)
	return &DB{DB: pool, Dialect: dialect}, nil
}

// prepareSQLite creates the parent directory of a file database and adds the
// pragmas every connection needs.
func prepareSQLite(dsn string) (string, error) {
	path, _, _ := strings.Cut(dsn, "?")
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", fmt.Errorf("create sqlite directory: %w", err)
		}
	}
	if strings.Contains(dsn, "_pragma=") {
		return dsn, nil
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", nil
}

// Rebind rewrites ? placeholders for the pool's dialect.
func (db *DB) Rebind(query string) string {
	return db.Dialect.Rebind(query)
}

// MigrateOrCreateSchema creates the todos and users tables if they are missing.
func (db *DB) MigrateOrCreateSchema(ctx context.Context) error {
	for _, stmt := range schema(db.Dialect) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	logger.Info(ctx, "Schema ready", "dialect", db.Dialect.Name)
	return nil
}

func schema(d Dialect) []string {
	todos := `CREATE TABLE IF NOT EXISTS todos (
    id ` + d.autoID + `,
    owner_id VARCHAR(255) NOT NULL,
    title TEXT NOT NULL,
    completed BOOLEAN NULL`
	users := `CREATE TABLE IF NOT EXISTS users (
    id ` + d.autoID + `,
    username VARCHAR(255) NOT NULL UNIQUE,
    hashed_password VARCHAR(255) NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`
	if d.Name == MySQL.Name {
		// MySQL has no CREATE INDEX IF NOT EXISTS.
		return []string{todos + ",\n    INDEX todos_owner_id_idx (owner_id)\n)", users}
	}
	return []string{
		todos + "\n)",
		`CREATE INDEX IF NOT EXISTS todos_owner_id_idx ON todos (owner_id)`,
		users,
	}
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"gstdash/internal/log"
)

// SQLiteRepository stores per-session key/value pairs. Rows older than the
// configured TTL are invisible to reads and removed by CleanExpired.
type SQLiteRepository struct {
	db     *sql.DB
	ttl    time.Duration
	now    func() time.Time
	logger *log.Logger
}

// NewSQLiteRepository opens dbPath, creating its directory, and migrates
// the schema. A zero ttl keeps values until they are deleted.
func NewSQLiteRepository(dbPath string, ttl time.Duration) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serializes writers anyway; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:     db,
		ttl:    ttl,
		now:    time.Now,
		logger: log.New(log.Config{Handler: slog.Default().Handler()}).WithComponent(log.ComponentStorage),
	}, nil
}

// WithLogger replaces the repository's logger.
func (r *SQLiteRepository) WithLogger(l *log.Logger) *SQLiteRepository {
	r.logger = l.WithComponent(log.ComponentStorage)
	return r
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable, for readiness checks.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Get returns the live value stored under (sid, key).
func (r *SQLiteRepository) Get(ctx context.Context, sid, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM session_values
		 WHERE session_id = ? AND key = ? AND (expires_at = 0 OR expires_at > ?)`,
		sid, key, r.now().UnixNano(),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get session value: %w", err)
	}
	return value, true, nil
}

// Set upserts (sid, key) and refreshes its expiry.
func (r *SQLiteRepository) Set(ctx context.Context, sid, key, value string) error {
	now := r.now()
	var expires int64
	if r.ttl > 0 {
		expires = now.Add(r.ttl).UnixNano()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO session_values (session_id, key, value, updated_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (session_id, key) DO UPDATE SET
		   value = excluded.value,
		   updated_at = excluded.updated_at,
		   expires_at = excluded.expires_at`,
		sid, key, value, now.UnixNano(), expires,
	)
	if err != nil {
		return fmt.Errorf("set session value: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, sid, key string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM session_values WHERE session_id = ? AND key = ?`, sid, key,
	); err != nil {
		return fmt.Errorf("delete session value: %w", err)
	}
	return nil
}

// CleanExpired removes expired rows and returns how many were removed.
// It lets the repository be swept by the cache manager.
func (r *SQLiteRepository) CleanExpired() int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM session_values WHERE expires_at != 0 AND expires_at <= ?`, r.now().UnixNano())
	if err != nil {
		r.logger.WarnContext(ctx, "Failed to clean expired session values",
			log.FieldError, err, log.FieldErrorType, log.ErrorTypeDatabase)
		return 0
	}
	n, _ := res.RowsAffected()
	return int(n)
}

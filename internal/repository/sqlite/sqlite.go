// Package sqlite is the embedded SQLite implementation of the URL store.
// Timestamps are stored as unix nanoseconds so range predicates compare
// numerically.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	msqlite "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"

	"github.com/atinyakov/shortlink/internal/models"
	"github.com/atinyakov/shortlink/internal/storage"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS shortened_urls (
		id TEXT PRIMARY KEY,
		original_url TEXT NOT NULL,
		code TEXT NOT NULL UNIQUE,
		short_url TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		expiration_date INTEGER,
		is_active INTEGER NOT NULL DEFAULT 1,
		click_count INTEGER NOT NULL DEFAULT 0,
		owner_id TEXT NOT NULL DEFAULT ''
	);`,
	`CREATE INDEX IF NOT EXISTS idx_shortened_urls_owner ON shortened_urls(owner_id);`,
	`CREATE TABLE IF NOT EXISTS click_events (
		id TEXT PRIMARY KEY,
		shortened_url_id TEXT NOT NULL REFERENCES shortened_urls(id) ON DELETE CASCADE,
		timestamp INTEGER NOT NULL,
		user_agent TEXT NOT NULL DEFAULT '',
		ip_address TEXT NOT NULL DEFAULT '',
		referrer TEXT NOT NULL DEFAULT ''
	);`,
	`CREATE INDEX IF NOT EXISTS idx_click_events_url ON click_events(shortened_url_id, timestamp);`,
}

const urlColumns = `id, original_url, code, short_url, created_at, expiration_date, is_active, click_count, owner_id`

// Repository stores shortened urls in a SQLite file.
type Repository struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (or creates) the database at path and applies migrations.
// ":memory:" gives a private in-memory database.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one connection: SQLite has a single writer, and :memory: lives per connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply migration: %w", err)
		}
	}

	logger.Info("sqlite store ready", zap.String("path", path))
	return &Repository{db: db, logger: logger}, nil
}

// Close releases the database.
func (r *Repository) Close() error {
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func toNanos(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func scanURL(row scanner) (*models.ShortenedURL, error) {
	var (
		u          models.ShortenedURL
		created    int64
		expiration sql.NullInt64
	)
	if err := row.Scan(&u.ID, &u.OriginalURL, &u.Code, &u.ShortURL, &created, &expiration, &u.IsActive, &u.ClickCount, &u.OwnerID); err != nil {
		return nil, err
	}

	u.CreatedAt = fromNanos(created)
	if expiration.Valid {
		t := fromNanos(expiration.Int64)
		u.ExpirationDate = &t
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlitelib.SQLITE_CONSTRAINT_UNIQUE ||
			sqliteErr.Code() == sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

func (r *Repository) FindByCode(ctx context.Context, code string, withClicks bool) (*models.ShortenedURL, error) {
	u, err := scanURL(r.db.QueryRowContext(ctx, `SELECT `+urlColumns+` FROM shortened_urls WHERE code = ? LIMIT 1;`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !withClicks {
		return u, nil
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, timestamp, user_agent, ip_address, referrer, shortened_url_id
FROM click_events
WHERE shortened_url_id = ?
ORDER BY timestamp;`, u.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	u.ClickEvents = make([]models.ClickEvent, 0)
	for rows.Next() {
		var (
			ev models.ClickEvent
			ts int64
		)
		if err := rows.Scan(&ev.ID, &ts, &ev.UserAgent, &ev.IPAddress, &ev.Referrer, &ev.ShortenedURLID); err != nil {
			return nil, err
		}
		ev.Timestamp = fromNanos(ts)
		u.ClickEvents = append(u.ClickEvents, ev)
	}
	return u, rows.Err()
}

func (r *Repository) FindExistingCodes(ctx context.Context, codes []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	if len(codes) == 0 {
		return existing, nil
	}

	args := make([]any, len(codes))
	for i, c := range codes {
		args[i] = c
	}
	q := `SELECT code FROM shortened_urls WHERE code IN (?` + strings.Repeat(", ?", len(codes)-1) + `);`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		existing[code] = struct{}{}
	}
	return existing, rows.Err()
}

func (r *Repository) Insert(ctx context.Context, u *models.ShortenedURL) error {
	var expiration any
	if u.ExpirationDate != nil {
		expiration = toNanos(*u.ExpirationDate)
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO shortened_urls(`+urlColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		u.ID, u.OriginalURL, u.Code, u.ShortURL, toNanos(u.CreatedAt), expiration, u.IsActive, u.ClickCount, u.OwnerID)
	if isUniqueViolation(err) {
		return storage.ErrConflict
	}
	return err
}

func (r *Repository) Update(ctx context.Context, u *models.ShortenedURL) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE shortened_urls
SET is_active = (is_active AND ?), click_count = MAX(click_count, ?)
WHERE code = ?;`, u.IsActive, u.ClickCount, u.Code)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *Repository) RecordClick(ctx context.Context, code string, ev models.ClickEvent, maxClicks int) (*models.ShortenedURL, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	u, err := scanURL(tx.QueryRowContext(ctx, `
UPDATE shortened_urls
SET click_count = click_count + 1, is_active = (click_count + 1 <= ?)
WHERE code = ? AND is_active AND (expiration_date IS NULL OR expiration_date > ?)
RETURNING `+urlColumns+`;`, maxClicks, code, toNanos(ev.Timestamp)))
	if errors.Is(err, sql.ErrNoRows) {
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM shortened_urls WHERE code = ?;`, code).Scan(&n); err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, storage.ErrNotFound
		}
		return nil, storage.ErrInactive
	}
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO click_events(id, shortened_url_id, timestamp, user_agent, ip_address, referrer)
VALUES (?, ?, ?, ?, ?, ?);`, ev.ID, u.ID, toNanos(ev.Timestamp), ev.UserAgent, ev.IPAddress, ev.Referrer)
	if err != nil {
		return nil, err
	}

	return u, tx.Commit()
}

func (r *Repository) ListByOwner(ctx context.Context, ownerID string, now time.Time) ([]models.ShortenedURL, error) {
	q := `SELECT ` + urlColumns + ` FROM shortened_urls
WHERE is_active AND (expiration_date IS NULL OR expiration_date > ?)`
	args := []any{toNanos(now)}
	if ownerID != "" {
		q += ` AND owner_id = ?`
		args = append(args, ownerID)
	}
	q += ` ORDER BY created_at DESC;`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	urls := make([]models.ShortenedURL, 0)
	for rows.Next() {
		u, err := scanURL(rows)
		if err != nil {
			return nil, err
		}
		urls = append(urls, *u)
	}
	return urls, rows.Err()
}

// Delete removes the row and its click events in one transaction.
func (r *Repository) Delete(ctx context.Context, code string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
DELETE FROM click_events
WHERE shortened_url_id IN (SELECT id FROM shortened_urls WHERE code = ?);`, code); err != nil {
		return false, err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM shortened_urls WHERE code = ?;`, code)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, tx.Commit()
}

func (r *Repository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE shortened_urls SET is_active = 0
WHERE is_active AND expiration_date IS NOT NULL AND expiration_date <= ?;`, toNanos(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *Repository) PingContext(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

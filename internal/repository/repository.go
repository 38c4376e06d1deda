// Package repository is the Postgres implementation of the URL store.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/atinyakov/shortlink/internal/models"
	"github.com/atinyakov/shortlink/internal/storage"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS shortened_urls (
		id UUID PRIMARY KEY,
		original_url VARCHAR(2048) NOT NULL,
		code TEXT NOT NULL UNIQUE,
		short_url TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		expiration_date TIMESTAMPTZ,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		click_count INTEGER NOT NULL DEFAULT 0,
		owner_id TEXT
	);`,
	`CREATE INDEX IF NOT EXISTS shortened_urls_owner_idx ON shortened_urls (owner_id);`,
	`CREATE TABLE IF NOT EXISTS click_events (
		id UUID PRIMARY KEY,
		shortened_url_id UUID NOT NULL REFERENCES shortened_urls(id) ON DELETE CASCADE,
		timestamp TIMESTAMPTZ NOT NULL,
		user_agent TEXT,
		ip_address TEXT,
		referrer TEXT
	);`,
	`CREATE INDEX IF NOT EXISTS click_events_url_idx ON click_events (shortened_url_id, timestamp);`,
}

const urlColumns = `id, original_url, code, short_url, created_at, expiration_date, is_active, click_count, owner_id`

// InitDB connects to Postgres and creates the schema.
func InitDB(ctx context.Context, ps string, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", ps)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	logger.Info("Database connected and tables ready")
	return db, nil
}

// URLRepository stores shortened urls and click events in Postgres.
type URLRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func CreateURLRepository(db *sql.DB, logger *zap.Logger) *URLRepository {
	return &URLRepository{
		db:     db,
		logger: logger,
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanURL(row scanner) (*models.ShortenedURL, error) {
	var (
		u          models.ShortenedURL
		expiration sql.NullTime
		owner      sql.NullString
	)

	err := row.Scan(&u.ID, &u.OriginalURL, &u.Code, &u.ShortURL, &u.CreatedAt, &expiration, &u.IsActive, &u.ClickCount, &owner)
	if err != nil {
		return nil, err
	}

	u.CreatedAt = u.CreatedAt.UTC()
	if expiration.Valid {
		t := expiration.Time.UTC()
		u.ExpirationDate = &t
	}
	u.OwnerID = owner.String
	return &u, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *URLRepository) FindByCode(ctx context.Context, code string, withClicks bool) (*models.ShortenedURL, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+urlColumns+" FROM shortened_urls WHERE code = $1;", code)

	u, err := scanURL(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if withClicks {
		if u.ClickEvents, err = r.clickEvents(ctx, u.ID); err != nil {
			return nil, err
		}
	}
	return u, nil
}

func (r *URLRepository) clickEvents(ctx context.Context, urlID string) ([]models.ClickEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, timestamp, user_agent, ip_address, referrer, shortened_url_id
		FROM click_events WHERE shortened_url_id = $1 ORDER BY timestamp;`, urlID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]models.ClickEvent, 0)
	for rows.Next() {
		var (
			ev               models.ClickEvent
			ua, ip, referrer sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ev.Timestamp, &ua, &ip, &referrer, &ev.ShortenedURLID); err != nil {
			return nil, err
		}
		ev.Timestamp = ev.Timestamp.UTC()
		ev.UserAgent, ev.IPAddress, ev.Referrer = ua.String, ip.String, referrer.String
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (r *URLRepository) FindExistingCodes(ctx context.Context, codes []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	if len(codes) == 0 {
		return existing, nil
	}

	placeholders := make([]string, len(codes))
	args := make([]any, len(codes))
	for i, c := range codes {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = c
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT code FROM shortened_urls WHERE code IN ("+strings.Join(placeholders, ", ")+");", args...)
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

func (r *URLRepository) Insert(ctx context.Context, u *models.ShortenedURL) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO shortened_urls (`+urlColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`,
		u.ID, u.OriginalURL, u.Code, u.ShortURL, u.CreatedAt, u.ExpirationDate, u.IsActive, u.ClickCount, nullable(u.OwnerID),
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return storage.ErrConflict
	}
	return err
}

// Update never reactivates a row and never lowers click_count.
func (r *URLRepository) Update(ctx context.Context, u *models.ShortenedURL) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE shortened_urls
		SET is_active = is_active AND $2, click_count = GREATEST(click_count, $3)
		WHERE code = $1;`,
		u.Code, u.IsActive, u.ClickCount,
	)
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

// RecordClick increments the counter and appends the event in one
// transaction. The conditional UPDATE takes the row lock, so concurrent
// clicks are serialized by Postgres.
func (r *URLRepository) RecordClick(ctx context.Context, code string, ev models.ClickEvent, maxClicks int) (*models.ShortenedURL, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`UPDATE shortened_urls
		SET click_count = click_count + 1, is_active = (click_count + 1 <= $2)
		WHERE code = $1 AND is_active AND (expiration_date IS NULL OR expiration_date > $3)
		RETURNING `+urlColumns+`;`,
		code, maxClicks, ev.Timestamp,
	)

	u, err := scanURL(row)
	if errors.Is(err, sql.ErrNoRows) {
		var one int
		err = tx.QueryRowContext(ctx, "SELECT 1 FROM shortened_urls WHERE code = $1;", code).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		return nil, storage.ErrInactive
	}
	if err != nil {
		return nil, err
	}

	ev.ShortenedURLID = u.ID
	_, err = tx.ExecContext(ctx,
		`INSERT INTO click_events (id, shortened_url_id, timestamp, user_agent, ip_address, referrer)
		VALUES ($1, $2, $3, $4, $5, $6);`,
		ev.ID, ev.ShortenedURLID, ev.Timestamp, nullable(ev.UserAgent), nullable(ev.IPAddress), nullable(ev.Referrer),
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *URLRepository) ListByOwner(ctx context.Context, ownerID string, now time.Time) ([]models.ShortenedURL, error) {
	query := "SELECT " + urlColumns + ` FROM shortened_urls
		WHERE is_active AND (expiration_date IS NULL OR expiration_date > $1)`
	args := []any{now}
	if ownerID != "" {
		query += " AND owner_id = $2"
		args = append(args, ownerID)
	}
	query += " ORDER BY created_at DESC;"

	rows, err := r.db.QueryContext(ctx, query, args...)
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

// Delete removes the row; click events go with it through ON DELETE CASCADE.
func (r *URLRepository) Delete(ctx context.Context, code string) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM shortened_urls WHERE code = $1;", code)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *URLRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE shortened_urls SET is_active = FALSE
		WHERE is_active AND expiration_date IS NOT NULL AND expiration_date <= $1;`, now)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.logger.Debug("expired urls deactivated", zap.Int64("count", n))
	}
	return n, nil
}

func (r *URLRepository) PingContext(c context.Context) error {
	return r.db.PingContext(c)
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atinyakov/shortlink/internal/models"
	"github.com/atinyakov/shortlink/internal/storage"
)

var columns = []string{"id", "original_url", "code", "short_url", "created_at", "expiration_date", "is_active", "click_count", "owner_id"}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *URLRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db, mock, CreateURLRepository(db, zap.NewNop())
}

func TestInsert(t *testing.T) {
	_, mock, repo := setupMockDB(t)
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	u := &models.ShortenedURL{
		ID:          "11111111-1111-1111-1111-111111111111",
		OriginalURL: "https://example.com",
		Code:        "abc1234",
		ShortURL:    "http://localhost:8080/abc1234",
		CreatedAt:   created,
		IsActive:    true,
		OwnerID:     "owner-1",
	}

	mock.ExpectExec(`INSERT INTO shortened_urls`).
		WithArgs(u.ID, u.OriginalURL, u.Code, u.ShortURL, created, nil, true, 0, "owner-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Insert(context.Background(), u))

	mock.ExpectExec(`INSERT INTO shortened_urls`).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

	err := repo.Insert(context.Background(), u)
	assert.ErrorIs(t, err, storage.ErrConflict)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByCode(t *testing.T) {
	_, mock, repo := setupMockDB(t)
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	clicked := created.Add(time.Hour)

	mock.ExpectQuery(`SELECT .* FROM shortened_urls WHERE code = \$1;`).
		WithArgs("abc1234").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("id-1", "https://example.com", "abc1234", "http://s/abc1234", created, nil, true, 1, nil))
	mock.ExpectQuery(`SELECT id, timestamp, user_agent, ip_address, referrer, shortened_url_id\s+FROM click_events`).
		WithArgs("id-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "timestamp", "user_agent", "ip_address", "referrer", "shortened_url_id"}).
			AddRow("ev-1", clicked, "curl/8", "10.0.0.1", nil, "id-1"))

	u, err := repo.FindByCode(context.Background(), "abc1234", true)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", u.OriginalURL)
	assert.Nil(t, u.ExpirationDate)
	assert.Empty(t, u.OwnerID)
	require.Len(t, u.ClickEvents, 1)
	assert.Equal(t, "10.0.0.1", u.ClickEvents[0].IPAddress)
	assert.Empty(t, u.ClickEvents[0].Referrer)

	mock.ExpectQuery(`SELECT .* FROM shortened_urls WHERE code = \$1;`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(columns))

	_, err = repo.FindByCode(context.Background(), "missing", false)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindExistingCodes(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	mock.ExpectQuery(`SELECT code FROM shortened_urls WHERE code IN \(\$1, \$2, \$3\);`).
		WithArgs("aaa", "bbb", "ccc").
		WillReturnRows(sqlmock.NewRows([]string{"code"}).AddRow("bbb"))

	existing, err := repo.FindExistingCodes(context.Background(), []string{"aaa", "bbb", "ccc"})
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"bbb": {}}, existing)

	empty, err := repo.FindExistingCodes(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	mock.ExpectExec(`UPDATE shortened_urls\s+SET is_active = is_active AND \$2, click_count = GREATEST\(click_count, \$3\)`).
		WithArgs("abc", false, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Update(context.Background(), &models.ShortenedURL{Code: "abc", IsActive: false, ClickCount: 7}))

	mock.ExpectExec(`UPDATE shortened_urls`).
		WithArgs("nope", true, 0).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Update(context.Background(), &models.ShortenedURL{Code: "nope", IsActive: true})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordClick(t *testing.T) {
	_, mock, repo := setupMockDB(t)
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	ev := models.ClickEvent{ID: "ev-1", Timestamp: now, UserAgent: "curl/8"}

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE shortened_urls\s+SET click_count = click_count \+ 1`).
		WithArgs("abc", 1000, now).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("id-1", "https://example.com", "abc", "http://s/abc", now, nil, true, 5, "owner"))
	mock.ExpectExec(`INSERT INTO click_events`).
		WithArgs("ev-1", "id-1", now, "curl/8", nil, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	u, err := repo.RecordClick(context.Background(), "abc", ev, 1000)
	require.NoError(t, err)
	assert.Equal(t, 5, u.ClickCount)
	assert.Equal(t, "owner", u.OwnerID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordClick_NotResolvable(t *testing.T) {
	_, mock, repo := setupMockDB(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE shortened_urls`).WillReturnRows(sqlmock.NewRows(columns))
	mock.ExpectQuery(`SELECT 1 FROM shortened_urls WHERE code = \$1;`).
		WithArgs("old").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectRollback()

	_, err := repo.RecordClick(context.Background(), "old", models.ClickEvent{ID: "e", Timestamp: now}, 1000)
	assert.ErrorIs(t, err, storage.ErrInactive)

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE shortened_urls`).WillReturnRows(sqlmock.NewRows(columns))
	mock.ExpectQuery(`SELECT 1 FROM shortened_urls`).
		WithArgs("gone").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))
	mock.ExpectRollback()

	_, err = repo.RecordClick(context.Background(), "gone", models.ClickEvent{ID: "e", Timestamp: now}, 1000)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordClick_InsertFailureRollsBack(t *testing.T) {
	_, mock, repo := setupMockDB(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE shortened_urls`).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("id-1", "https://example.com", "abc", "http://s/abc", now, nil, true, 1, nil))
	mock.ExpectExec(`INSERT INTO click_events`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := repo.RecordClick(context.Background(), "abc", models.ClickEvent{ID: "e", Timestamp: now}, 1000)
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByOwner(t *testing.T) {
	_, mock, repo := setupMockDB(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .* FROM shortened_urls\s+WHERE is_active .* AND owner_id = \$2 ORDER BY created_at DESC;`).
		WithArgs(now, "owner").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("id-2", "https://b.com", "bbb", "http://s/bbb", now, nil, true, 0, "owner").
			AddRow("id-1", "https://a.com", "aaa", "http://s/aaa", now.Add(-time.Hour), now.Add(time.Hour), true, 3, "owner"))

	urls, err := repo.ListByOwner(context.Background(), "owner", now)
	require.NoError(t, err)
	require.Len(t, urls, 2)
	assert.Equal(t, "bbb", urls[0].Code)
	require.NotNil(t, urls[1].ExpirationDate)

	mock.ExpectQuery(`SELECT .* FROM shortened_urls\s+WHERE is_active .* ORDER BY created_at DESC;`).
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows(columns))

	urls, err = repo.ListByOwner(context.Background(), "", now)
	require.NoError(t, err)
	assert.Empty(t, urls)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAndDeactivate(t *testing.T) {
	_, mock, repo := setupMockDB(t)
	now := time.Now().UTC()

	mock.ExpectExec(`DELETE FROM shortened_urls WHERE code = \$1;`).
		WithArgs("abc").
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.Delete(context.Background(), "abc")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectExec(`UPDATE shortened_urls SET is_active = FALSE`).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 4))
	n, err := repo.DeactivateExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPingContext(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	repo := CreateURLRepository(db, zap.NewNop())
	mock.ExpectPing()

	assert.NoError(t, repo.PingContext(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

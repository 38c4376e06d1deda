package storage_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/shortlink/internal/models"
	"github.com/atinyakov/shortlink/internal/storage"
)

func newURL(code string, expires *time.Time) *models.ShortenedURL {
	return &models.ShortenedURL{
		ID:             "id-" + code,
		OriginalURL:    "https://example.com/" + code,
		Code:           code,
		ShortURL:       "http://localhost:8080/" + code,
		CreatedAt:      time.Now().UTC(),
		ExpirationDate: expires,
		IsActive:       true,
		OwnerID:        "owner-1",
	}
}

func TestMemoryStorage_InsertAndFind(t *testing.T) {
	ctx := context.Background()
	mem, _ := storage.CreateMemoryStorage()

	require.NoError(t, mem.Insert(ctx, newURL("abc1234", nil)))

	err := mem.Insert(ctx, newURL("abc1234", nil))
	assert.ErrorIs(t, err, storage.ErrConflict)

	found, err := mem.FindByCode(ctx, "abc1234", false)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/abc1234", found.OriginalURL)

	_, err = mem.FindByCode(ctx, "missing", false)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMemoryStorage_FindExistingCodes(t *testing.T) {
	ctx := context.Background()
	mem, _ := storage.CreateMemoryStorage()

	require.NoError(t, mem.Insert(ctx, newURL("aaaaaaa", nil)))
	require.NoError(t, mem.Insert(ctx, newURL("bbbbbbb", nil)))

	existing, err := mem.FindExistingCodes(ctx, []string{"aaaaaaa", "ccccccc", "bbbbbbb"})
	require.NoError(t, err)
	assert.Len(t, existing, 2)
	assert.Contains(t, existing, "aaaaaaa")
	assert.Contains(t, existing, "bbbbbbb")
}

func TestMemoryStorage_UpdateIsMonotonic(t *testing.T) {
	ctx := context.Background()
	mem, _ := storage.CreateMemoryStorage()

	u := newURL("mono123", nil)
	u.ClickCount = 5
	require.NoError(t, mem.Insert(ctx, u))

	u.IsActive = false
	u.ClickCount = 2
	require.NoError(t, mem.Update(ctx, u))

	u.IsActive = true
	require.NoError(t, mem.Update(ctx, u))

	found, err := mem.FindByCode(ctx, "mono123", false)
	require.NoError(t, err)
	assert.False(t, found.IsActive)
	assert.Equal(t, 5, found.ClickCount)
}

func TestMemoryStorage_RecordClick(t *testing.T) {
	ctx := context.Background()
	mem, _ := storage.CreateMemoryStorage()
	require.NoError(t, mem.Insert(ctx, newURL("click12", nil)))

	for i := 0; i < 3; i++ {
		u, err := mem.RecordClick(ctx, "click12", models.ClickEvent{ID: fmt.Sprint(i), Timestamp: time.Now()}, 2)
		require.NoError(t, err)
		assert.Equal(t, i+1, u.ClickCount)
	}

	found, err := mem.FindByCode(ctx, "click12", true)
	require.NoError(t, err)
	assert.False(t, found.IsActive)
	assert.Len(t, found.ClickEvents, 3)
	assert.Equal(t, "id-click12", found.ClickEvents[0].ShortenedURLID)

	_, err = mem.RecordClick(ctx, "click12", models.ClickEvent{Timestamp: time.Now()}, 2)
	assert.ErrorIs(t, err, storage.ErrInactive)

	_, err = mem.RecordClick(ctx, "nothere", models.ClickEvent{Timestamp: time.Now()}, 2)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMemoryStorage_RecordClickConcurrent(t *testing.T) {
	ctx := context.Background()
	mem, _ := storage.CreateMemoryStorage()
	require.NoError(t, mem.Insert(ctx, newURL("hot1234", nil)))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := mem.RecordClick(ctx, "hot1234", models.ClickEvent{Timestamp: time.Now()}, 1000)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	found, err := mem.FindByCode(ctx, "hot1234", true)
	require.NoError(t, err)
	assert.Equal(t, 50, found.ClickCount)
	assert.Len(t, found.ClickEvents, 50)
}

func TestMemoryStorage_ListByOwner(t *testing.T) {
	ctx := context.Background()
	mem, _ := storage.CreateMemoryStorage()
	past := time.Now().Add(-time.Hour)

	require.NoError(t, mem.Insert(ctx, newURL("live123", nil)))
	require.NoError(t, mem.Insert(ctx, newURL("dead123", &past)))
	other := newURL("other12", nil)
	other.OwnerID = "owner-2"
	require.NoError(t, mem.Insert(ctx, other))

	list, err := mem.ListByOwner(ctx, "owner-1", time.Now())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "live123", list[0].Code)

	all, err := mem.ListByOwner(ctx, "", time.Now())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMemoryStorage_DeleteAndDeactivate(t *testing.T) {
	ctx := context.Background()
	mem, _ := storage.CreateMemoryStorage()
	past := time.Now().Add(-time.Minute)

	require.NoError(t, mem.Insert(ctx, newURL("gone123", &past)))
	require.NoError(t, mem.Insert(ctx, newURL("keep123", nil)))

	n, err := mem.DeactivateExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	found, err := mem.FindByCode(ctx, "gone123", false)
	require.NoError(t, err)
	assert.False(t, found.IsActive)

	ok, err := mem.Delete(ctx, "keep123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = mem.Delete(ctx, "keep123")
	require.NoError(t, err)
	assert.False(t, ok)
}

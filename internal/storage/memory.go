package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/atinyakov/shortlink/internal/models"
)

// MemoryStorage keeps shortened URLs and their click events in process
// memory. A single RWMutex serializes writers, which makes RecordClick atomic.
type MemoryStorage struct {
	mu     sync.RWMutex
	byCode map[string]*models.ShortenedURL
	clicks map[string][]models.ClickEvent
}

// CreateMemoryStorage returns an empty store.
func CreateMemoryStorage() (*MemoryStorage, error) {
	return &MemoryStorage{
		byCode: make(map[string]*models.ShortenedURL),
		clicks: make(map[string][]models.ClickEvent),
	}, nil
}

func (m *MemoryStorage) FindByCode(_ context.Context, code string, withClicks bool) (*models.ShortenedURL, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.byCode[code]
	if !ok {
		return nil, ErrNotFound
	}

	res := clone(u)
	if withClicks {
		res.ClickEvents = append([]models.ClickEvent(nil), m.clicks[code]...)
	}
	return res, nil
}

func (m *MemoryStorage) FindExistingCodes(_ context.Context, codes []string) (map[string]struct{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	existing := make(map[string]struct{})
	for _, c := range codes {
		if _, ok := m.byCode[c]; ok {
			existing[c] = struct{}{}
		}
	}
	return existing, nil
}

func (m *MemoryStorage) Insert(_ context.Context, u *models.ShortenedURL) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.insertLocked(u)
}

func (m *MemoryStorage) insertLocked(u *models.ShortenedURL) error {
	if _, ok := m.byCode[u.Code]; ok {
		return ErrConflict
	}
	m.byCode[u.Code] = clone(u)
	return nil
}

// Update persists the lifecycle fields. is_active only moves to false and
// click_count never decreases, whatever the caller passes.
func (m *MemoryStorage) Update(_ context.Context, u *models.ShortenedURL) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, err := m.updateLocked(u)
	return err
}

func (m *MemoryStorage) updateLocked(u *models.ShortenedURL) (*models.ShortenedURL, error) {
	stored, ok := m.byCode[u.Code]
	if !ok {
		return nil, ErrNotFound
	}

	next := merged(stored, u)
	m.byCode[u.Code] = next
	return clone(next), nil
}

// merged returns stored with the lifecycle fields of u applied monotonically.
func merged(stored, u *models.ShortenedURL) *models.ShortenedURL {
	next := clone(stored)
	next.IsActive = stored.IsActive && u.IsActive
	if u.ClickCount > next.ClickCount {
		next.ClickCount = u.ClickCount
	}
	return next
}

func (m *MemoryStorage) RecordClick(_ context.Context, code string, ev models.ClickEvent, maxClicks int) (*models.ShortenedURL, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.recordClickLocked(code, ev, maxClicks)
}

func (m *MemoryStorage) recordClickLocked(code string, ev models.ClickEvent, maxClicks int) (*models.ShortenedURL, error) {
	next, ev, err := m.prepareClickLocked(code, ev, maxClicks)
	if err != nil {
		return nil, err
	}
	m.commitClickLocked(next, ev)
	return clone(next), nil
}

// prepareClickLocked computes the row after one more click without storing it.
func (m *MemoryStorage) prepareClickLocked(code string, ev models.ClickEvent, maxClicks int) (*models.ShortenedURL, models.ClickEvent, error) {
	stored, ok := m.byCode[code]
	if !ok {
		return nil, ev, ErrNotFound
	}
	if !stored.IsResolvable(ev.Timestamp) {
		return nil, ev, ErrInactive
	}

	next := clone(stored)
	next.ClickCount++
	if next.ClickCount > maxClicks {
		next.IsActive = false
	}
	ev.ShortenedURLID = next.ID
	return next, ev, nil
}

func (m *MemoryStorage) commitClickLocked(next *models.ShortenedURL, ev models.ClickEvent) {
	m.byCode[next.Code] = next
	m.clicks[next.Code] = append(m.clicks[next.Code], ev)
}

func (m *MemoryStorage) ListByOwner(_ context.Context, ownerID string, now time.Time) ([]models.ShortenedURL, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	res := make([]models.ShortenedURL, 0)
	for _, u := range m.byCode {
		if ownerID != "" && u.OwnerID != ownerID {
			continue
		}
		if !u.IsResolvable(now) {
			continue
		}
		res = append(res, *clone(u))
	}

	sort.Slice(res, func(i, j int) bool {
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res, nil
}

func (m *MemoryStorage) Delete(_ context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.deleteLocked(code), nil
}

func (m *MemoryStorage) deleteLocked(code string) bool {
	if _, ok := m.byCode[code]; !ok {
		return false
	}
	delete(m.byCode, code)
	delete(m.clicks, code)
	return true
}

func (m *MemoryStorage) DeactivateExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return int64(len(m.deactivateExpiredLocked(now))), nil
}

func (m *MemoryStorage) deactivateExpiredLocked(now time.Time) []*models.ShortenedURL {
	changed := m.expiredLocked(now)
	for _, u := range changed {
		m.byCode[u.Code] = clone(u)
	}
	return changed
}

// expiredLocked returns deactivated copies of the active rows expired at now.
func (m *MemoryStorage) expiredLocked(now time.Time) []*models.ShortenedURL {
	var changed []*models.ShortenedURL
	for _, u := range m.byCode {
		if u.IsActive && u.IsExpired(now) {
			c := clone(u)
			c.IsActive = false
			changed = append(changed, c)
		}
	}
	return changed
}

func (m *MemoryStorage) PingContext(context.Context) error {
	return nil
}

func clone(u *models.ShortenedURL) *models.ShortenedURL {
	c := *u
	c.ClickEvents = nil
	if u.ExpirationDate != nil {
		t := *u.ExpirationDate
		c.ExpirationDate = &t
	}
	return &c
}

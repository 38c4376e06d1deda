package service

import (
	"context"
	"time"

	"github.com/atinyakov/shortlink/internal/models"
)

// Storage is the durable store behind the URL lifecycle.
type Storage interface {
	FindByCode(ctx context.Context, code string, withClicks bool) (*models.ShortenedURL, error)
	FindExistingCodes(ctx context.Context, codes []string) (map[string]struct{}, error)
	Insert(ctx context.Context, u *models.ShortenedURL) error
	Update(ctx context.Context, u *models.ShortenedURL) error
	RecordClick(ctx context.Context, code string, ev models.ClickEvent, maxClicks int) (*models.ShortenedURL, error)
	ListByOwner(ctx context.Context, ownerID string, now time.Time) ([]models.ShortenedURL, error)
	Delete(ctx context.Context, code string) (bool, error)
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
	PingContext(ctx context.Context) error
}

// CodeSource hands out codes that were free when they were produced.
type CodeSource interface {
	TakeCode(ctx context.Context) (string, error)
}

// URLServiceIface is what the transports need from URLService.
type URLServiceIface interface {
	Create(ctx context.Context, req models.CreateRequest, ownerID string) (*models.ShortenedURL, error)
	CreateBatch(ctx context.Context, rows []models.BatchRequest, ownerID string) ([]models.BatchResult, error)
	ResolveAndRecordClick(ctx context.Context, code string, meta models.ClickMeta) (*models.ShortenedURL, error)
	GetAnalytics(ctx context.Context, code string) (*models.ShortenedURL, error)
	SuggestCodes(ctx context.Context, count int, originalURL, prefix string) ([]string, error)
	ListForOwner(ctx context.Context, ownerID string) ([]models.ShortenedURL, error)
	Delete(ctx context.Context, code string) (bool, error)
	PingContext(ctx context.Context) error
}

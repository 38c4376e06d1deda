package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atinyakov/shortlink/internal/models"
	"github.com/atinyakov/shortlink/internal/storage"
)

const (
	// MaxURLLength bounds OriginalURL.
	MaxURLLength = 2048

	// MaxRequestedCodeLength bounds custom codes.
	MaxRequestedCodeLength = 32

	// MaxBatchSize bounds CreateBatch.
	MaxBatchSize = 1000

	insertAttempts = 3
)

// Policy is the lifecycle configuration of URLService.
type Policy struct {
	BaseURL               string
	DefaultExpirationDays int
	MaxExpirationDays     int
	MaxClickCount         int
}

// DefaultPolicy returns the stock lifecycle policy for baseURL.
func DefaultPolicy(baseURL string) Policy {
	return Policy{
		BaseURL:               baseURL,
		DefaultExpirationDays: 30,
		MaxExpirationDays:     365,
		MaxClickCount:         1000,
	}
}

// URLService creates, resolves and retires shortened URLs. It keeps no state
// of its own beyond its collaborators.
type URLService struct {
	repository Storage
	gen        *Generator
	codes      CodeSource
	suggester  *Suggester
	logger     *zap.Logger
	policy     Policy
	now        func() time.Time
}

// NewURL wires a URLService. codes is normally a *CodePool.
func NewURL(repo Storage, gen *Generator, codes CodeSource, logger *zap.Logger, policy Policy) (*URLService, error) {
	switch {
	case gen == nil || codes == nil:
		return nil, fmt.Errorf("%w: url service needs a generator and a code source", ErrConfiguration)
	case policy.DefaultExpirationDays <= 0:
		return nil, fmt.Errorf("%w: default expiration must be positive", ErrConfiguration)
	case policy.MaxExpirationDays < policy.DefaultExpirationDays:
		return nil, fmt.Errorf("%w: max expiration %d is below default %d", ErrConfiguration, policy.MaxExpirationDays, policy.DefaultExpirationDays)
	case policy.MaxClickCount <= 0:
		return nil, fmt.Errorf("%w: max click count must be positive", ErrConfiguration)
	}

	return &URLService{
		repository: repo,
		gen:        gen,
		codes:      codes,
		suggester:  NewSuggester(gen, repo, codes),
		logger:     logger,
		policy:     policy,
		now:        time.Now,
	}, nil
}

func (s *URLService) PingContext(ctx context.Context) error {
	return s.repository.PingContext(ctx)
}

// Create validates req and persists a new shortened URL owned by ownerID.
func (s *URLService) Create(ctx context.Context, req models.CreateRequest, ownerID string) (*models.ShortenedURL, error) {
	original, err := validateURL(req.OriginalURL)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	expiration, err := s.expiration(req.ExpirationDate, now)
	if err != nil {
		return nil, err
	}

	u := &models.ShortenedURL{
		ID:             uuid.NewString(),
		OriginalURL:    original,
		CreatedAt:      now,
		ExpirationDate: &expiration,
		IsActive:       true,
		OwnerID:        ownerID,
	}

	requested := strings.TrimSpace(req.RequestedCode)
	if requested != "" {
		err = s.insertRequested(ctx, u, requested)
	} else {
		err = s.insertGenerated(ctx, u)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("short url created",
		zap.String("code", u.Code),
		zap.String("owner", ownerID),
		zap.Bool("custom", requested != ""),
	)
	return u, nil
}

func (s *URLService) insertRequested(ctx context.Context, u *models.ShortenedURL, code string) error {
	if n := utf8.RuneCountInString(code); n > MaxRequestedCodeLength {
		return invalidArgument("requested code is %d characters, at most %d allowed", n, MaxRequestedCodeLength)
	}
	if !s.gen.Valid(code) {
		return invalidArgument("requested code %q has characters outside the alphabet", code)
	}

	// Codes are never recycled: any row, active or not, blocks reuse.
	_, err := s.repository.FindByCode(ctx, code, false)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s", ErrCodeConflict, code)
	case !errors.Is(err, storage.ErrNotFound):
		return storeError(err)
	}

	s.assignCode(u, code)
	if err := s.repository.Insert(ctx, u); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return fmt.Errorf("%w: %s", ErrCodeConflict, code)
		}
		return storeError(err)
	}
	return nil
}

func (s *URLService) insertGenerated(ctx context.Context, u *models.ShortenedURL) error {
	for attempt := 0; attempt < insertAttempts; attempt++ {
		code, err := s.codes.TakeCode(ctx)
		if err != nil {
			return err
		}

		s.assignCode(u, code)
		err = s.repository.Insert(ctx, u)
		if err == nil {
			return nil
		}
		if !errors.Is(err, storage.ErrConflict) {
			return storeError(err)
		}
		s.logger.Warn("generated code collided on insert", zap.String("code", code), zap.Int("attempt", attempt+1))
	}
	return fmt.Errorf("%w: %d inserts collided", ErrCodeSpaceExhausted, insertAttempts)
}

func (s *URLService) assignCode(u *models.ShortenedURL, code string) {
	u.Code = code
	u.ShortURL = strings.TrimRight(s.policy.BaseURL, "/") + "/" + code
}

func (s *URLService) expiration(requested *time.Time, now time.Time) (time.Time, error) {
	if requested == nil {
		return now.AddDate(0, 0, s.policy.DefaultExpirationDays), nil
	}

	e := requested.UTC()
	if !e.After(now) {
		return time.Time{}, invalidArgument("expiration date must be in the future")
	}
	if e.After(now.AddDate(0, 0, s.policy.MaxExpirationDays)) {
		return time.Time{}, invalidArgument("expiration date is more than %d days ahead", s.policy.MaxExpirationDays)
	}
	return e, nil
}

func validateURL(raw string) (string, error) {
	original := strings.TrimSpace(raw)
	if original == "" {
		return "", invalidArgument("original url is empty")
	}
	if len(original) > MaxURLLength {
		return "", invalidArgument("original url exceeds %d characters", MaxURLLength)
	}

	parsed, err := url.Parse(original)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", invalidArgument("original url %q is not an absolute http(s) url", original)
	}
	return original, nil
}

// CreateBatch creates every row independently. Row failures are reported in
// the result; a store failure aborts the batch.
func (s *URLService) CreateBatch(ctx context.Context, rows []models.BatchRequest, ownerID string) ([]models.BatchResult, error) {
	if len(rows) == 0 {
		return nil, invalidArgument("batch is empty")
	}
	if len(rows) > MaxBatchSize {
		return nil, invalidArgument("batch has %d rows, at most %d allowed", len(rows), MaxBatchSize)
	}

	results := make([]models.BatchResult, 0, len(rows))
	for i, row := range rows {
		res := models.BatchResult{
			Row:           i + 1,
			CorrelationID: row.CorrelationID,
			OriginalURL:   row.OriginalURL,
		}

		u, err := s.Create(ctx, models.CreateRequest{
			OriginalURL:    row.OriginalURL,
			ExpirationDate: row.ExpirationDate,
			RequestedCode:  row.RequestedCode,
		}, ownerID)
		if err != nil {
			if errors.Is(err, ErrStoreUnavailable) {
				return results, err
			}
			res.Status = models.BatchStatusError
			res.Error = err.Error()
		} else {
			res.Status = models.BatchStatusSuccess
			res.Code = u.Code
			res.ShortURL = u.ShortURL
		}
		results = append(results, res)
	}

	return results, nil
}

// ResolveAndRecordClick returns the url behind code and records one click.
// The click that crosses the click limit still resolves; later ones get ErrGone.
func (s *URLService) ResolveAndRecordClick(ctx context.Context, code string, meta models.ClickMeta) (*models.ShortenedURL, error) {
	u, err := s.repository.FindByCode(ctx, code, false)
	if err != nil {
		return nil, lookupError(err)
	}

	now := s.now().UTC()
	if err := s.ensureResolvable(ctx, u, now); err != nil {
		return nil, err
	}

	ev := models.ClickEvent{
		ID:        uuid.NewString(),
		Timestamp: now,
		UserAgent: meta.UserAgent,
		IPAddress: meta.IPAddress,
		Referrer:  meta.Referrer,
	}

	updated, err := s.repository.RecordClick(ctx, code, ev, s.policy.MaxClickCount)
	switch {
	case errors.Is(err, storage.ErrInactive):
		return nil, s.settleInactive(ctx, code)
	case err != nil:
		return nil, lookupError(err)
	}

	if !updated.IsActive {
		s.logger.Info("click limit reached, url deactivated",
			zap.String("code", code),
			zap.Int("count", updated.ClickCount),
		)
	}
	return updated, nil
}

// settleInactive handles a row that stopped being resolvable between the
// lookup and the click. It re-reads the row so that one which expired in
// between is persisted inactive.
func (s *URLService) settleInactive(ctx context.Context, code string) error {
	u, err := s.repository.FindByCode(ctx, code, false)
	if err != nil {
		return lookupError(err)
	}
	if err := s.ensureResolvable(ctx, u, s.now().UTC()); err != nil {
		return err
	}
	return ErrGone
}

// GetAnalytics returns the url with its click events without recording a click.
func (s *URLService) GetAnalytics(ctx context.Context, code string) (*models.ShortenedURL, error) {
	u, err := s.repository.FindByCode(ctx, code, true)
	if err != nil {
		return nil, lookupError(err)
	}

	if err := s.ensureResolvable(ctx, u, s.now().UTC()); err != nil {
		return nil, err
	}
	return u, nil
}

// ensureResolvable returns ErrGone for inactive or expired urls, persisting
// the deactivation of a url that expired while still marked active.
func (s *URLService) ensureResolvable(ctx context.Context, u *models.ShortenedURL, now time.Time) error {
	if !u.IsActive {
		return ErrGone
	}
	if !u.IsExpired(now) {
		return nil
	}

	u.IsActive = false
	if err := s.repository.Update(ctx, u); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return storeError(err)
	}
	s.logger.Info("expired url deactivated", zap.String("code", u.Code))
	return ErrGone
}

func (s *URLService) SuggestCodes(ctx context.Context, count int, originalURL, prefix string) ([]string, error) {
	return s.suggester.Suggest(ctx, count, originalURL, prefix)
}

// ListForOwner lists resolvable urls of ownerID, newest first. An empty
// ownerID lists every resolvable url.
func (s *URLService) ListForOwner(ctx context.Context, ownerID string) ([]models.ShortenedURL, error) {
	urls, err := s.repository.ListByOwner(ctx, ownerID, s.now().UTC())
	if err != nil {
		return nil, storeError(err)
	}
	return urls, nil
}

// Delete removes the url and its click events. It reports whether a row existed.
func (s *URLService) Delete(ctx context.Context, code string) (bool, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return false, invalidArgument("code is empty")
	}

	ok, err := s.repository.Delete(ctx, code)
	if err != nil {
		return false, storeError(err)
	}
	if ok {
		s.logger.Info("short url deleted", zap.String("code", code))
	}
	return ok, nil
}

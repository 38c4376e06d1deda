package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/shortlink/internal/analytics"
	"github.com/atinyakov/shortlink/internal/app/service"
	"github.com/atinyakov/shortlink/internal/middleware"
	"github.com/atinyakov/shortlink/internal/models"
)

type GetHandler struct {
	service service.URLServiceIface
	logger  *zap.Logger
	now     func() time.Time
}

func NewGet(s service.URLServiceIface, l *zap.Logger) *GetHandler {
	return &GetHandler{
		service: s,
		logger:  l,
		now:     time.Now,
	}
}

// Redirect resolves {code}, records the click and answers 307. Unknown codes
// get 404, expired or deactivated ones 410.
func (h *GetHandler) Redirect(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	code := chi.URLParam(req, "code")

	u, err := h.service.ResolveAndRecordClick(ctx, code, models.ClickMeta{
		UserAgent: req.UserAgent(),
		IPAddress: clientIP(req),
		Referrer:  req.Referer(),
	})
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("unable to resolve short url", zap.String("code", code), zap.Error(err))
		}
		http.Error(res, http.StatusText(status), status)
		return
	}

	res.Header().Set("Cache-Control", "no-store")
	http.Redirect(res, req, u.OriginalURL, http.StatusTemporaryRedirect)
}

// Analytics serves the click summary of {code}. Reading it records no click.
func (h *GetHandler) Analytics(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	u, err := h.service.GetAnalytics(ctx, chi.URLParam(req, "code"))
	if err != nil {
		writeError(res, err, h.logger)
		return
	}

	writeJSON(res, http.StatusOK, analytics.Summarize(u, h.now()), h.logger)
}

// ByOwner lists the resolvable urls created by the caller.
func (h *GetHandler) ByOwner(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	userID := middleware.UserIDFromContext(req.Context())
	if userID == "" {
		http.Error(res, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	urls, err := h.service.ListForOwner(ctx, userID)
	if err != nil {
		writeError(res, err, h.logger)
		return
	}

	if len(urls) == 0 {
		res.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]models.ByOwnerResponse, 0, len(urls))
	for _, u := range urls {
		resp = append(resp, models.ByOwnerResponse{
			Code:           u.Code,
			OriginalURL:    u.OriginalURL,
			ShortURL:       u.ShortURL,
			ExpirationDate: u.ExpirationDate,
			ClickCount:     u.ClickCount,
		})
	}

	writeJSON(res, http.StatusOK, resp, h.logger)
}

func (h *GetHandler) Ping(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	if err := h.service.PingContext(ctx); err != nil {
		h.logger.Error("store ping failed", zap.Error(err))
		http.Error(res, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}

	res.WriteHeader(http.StatusOK)
}

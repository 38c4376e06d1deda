package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/shortlink/internal/app/service"
)

type DeleteHandler struct {
	service service.URLServiceIface
	logger  *zap.Logger
}

func NewDelete(s service.URLServiceIface, l *zap.Logger) *DeleteHandler {
	return &DeleteHandler{
		service: s,
		logger:  l,
	}
}

// Delete removes {code} together with its click events.
func (h *DeleteHandler) Delete(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	deleted, err := h.service.Delete(ctx, chi.URLParam(req, "code"))
	if err != nil {
		writeError(res, err, h.logger)
		return
	}
	if !deleted {
		writeError(res, service.ErrNotFound, h.logger)
		return
	}

	res.WriteHeader(http.StatusNoContent)
}

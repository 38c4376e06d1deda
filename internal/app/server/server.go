// Package server assembles the chi router of the shortener.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/shortlink/internal/app/handler"
	"github.com/atinyakov/shortlink/internal/app/service"
	"github.com/atinyakov/shortlink/internal/middleware"
)

// Options tunes the router.
type Options struct {
	// TrustedSubnet is the CIDR allowed to delete urls. Empty forbids deletion.
	TrustedSubnet string

	// RateLimiter throttles every route when set.
	RateLimiter *middleware.RateLimiter
}

// Init wires handlers and middleware:
//
//	POST   /                        plain text create
//	POST   /api/shorten             JSON create
//	POST   /api/shorten/batch       JSON batch create
//	POST   /api/shorten/upload      CSV batch create
//	POST   /api/suggest             code suggestions
//	GET    /api/user/urls           urls of the caller
//	GET    /api/analytics/{code}    click summary
//	DELETE /api/urls/{code}         delete, trusted subnet only
//	GET    /ping                    store health
//	GET    /{code}                  redirect
func Init(svc service.URLServiceIface, auth service.AuthIface, opts Options, logger *zap.Logger) *chi.Mux {
	post := handler.NewPost(svc, logger)
	get := handler.NewGet(svc, logger)
	del := handler.NewDelete(svc, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chimw.Recoverer)
	r.Use(opts.RateLimiter.Handler)
	r.Use(middleware.WithGzip)

	r.Get("/ping", get.Ping)
	r.Get("/{code}", get.Redirect)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Short URL is required", http.StatusBadRequest)
	})

	r.With(middleware.WithJWT(auth)).Post("/", post.PlainBody)

	r.Route("/api", func(r chi.Router) {
		r.With(middleware.WithSubnet(opts.TrustedSubnet)).Delete("/urls/{code}", del.Delete)

		r.Group(func(r chi.Router) {
			r.Use(middleware.WithJWT(auth))

			r.Post("/shorten", post.Shorten)
			r.Post("/shorten/batch", post.Batch)
			r.Post("/shorten/upload", post.Upload)
			r.Post("/suggest", post.Suggest)
			r.Get("/user/urls", get.ByOwner)
			r.Get("/analytics/{code}", get.Analytics)
		})
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Route not found", http.StatusNotFound)
	})

	return r
}

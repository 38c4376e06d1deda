package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/atinyakov/shortlink/internal/app/service"
)

// ContextKey is the type of the context keys set by this package.
type ContextKey string

// UserIDKey holds the owner id of the request.
const UserIDKey ContextKey = "userID"

// TokenCookie is the name of the owner token cookie.
const TokenCookie = "token"

// InjectUserID returns req with userID stored in its context.
func InjectUserID(req *http.Request, userID string) *http.Request {
	ctx := context.WithValue(req.Context(), UserIDKey, userID)
	return req.WithContext(ctx)
}

// UserIDFromContext returns the owner id stored by WithJWT, or "".
func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// WithJWT resolves the owner of the request from an "Authorization: Bearer"
// header or the token cookie. A missing or invalid token gets a freshly
// issued one, sent back as a cookie.
func WithJWT(auth service.AuthIface) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, ok := ownerFromRequest(auth, r); ok {
				next.ServeHTTP(w, InjectUserID(r, userID))
				return
			}

			tokenString, userID, err := auth.BuildJWTString()
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}

			http.SetCookie(w, &http.Cookie{
				Name:     TokenCookie,
				Value:    tokenString,
				Expires:  time.Now().Add(service.TokenExp),
				HttpOnly: true,
				Path:     "/",
			})

			next.ServeHTTP(w, InjectUserID(r, userID))
		})
	}
}

func ownerFromRequest(auth service.AuthIface, r *http.Request) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found {
			return "", false
		}
		claims, err := auth.ParseRawJWT(strings.TrimSpace(raw))
		if err != nil {
			return "", false
		}
		return claims.UserID, true
	}

	cookie, err := r.Cookie(TokenCookie)
	if err != nil {
		return "", false
	}
	claims, err := auth.ParseClaims(cookie)
	if err != nil {
		return "", false
	}
	return claims.UserID, true
}

package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// AuthIface issues and verifies owner tokens for the transports.
type AuthIface interface {
	BuildJWTString() (string, string, error)
	ParseClaims(c *http.Cookie) (*Claims, error)
	ParseRawJWT(tokenString string) (*Claims, error)
}

// Claims are the JWT claims carried by the owner cookie.
type Claims struct {
	jwt.RegisteredClaims
	// UserID identifies the owner of created urls.
	UserID string `json:"user_id"`
}

// TokenExp is the lifetime of an owner token (1 year).
const TokenExp = time.Hour * 24 * 365

// DefaultSecret signs tokens when no JWT_SECRET is configured.
const DefaultSecret = "supersecretkey"

const ownerIDAttempts = 5

// ErrInvalidToken is returned for tokens that fail verification.
var ErrInvalidToken = errors.New("invalid token or claims")

// Auth builds and parses owner tokens. New owner ids are checked against
// the url service so that a fresh id never inherits someone's urls.
type Auth struct {
	s      URLServiceIface
	secret []byte
}

// NewAuth returns an Auth signing with secret, or DefaultSecret when empty.
func NewAuth(s URLServiceIface, secret string) *Auth {
	if secret == "" {
		secret = DefaultSecret
	}
	return &Auth{
		s:      s,
		secret: []byte(secret),
	}
}

// BuildJWTString creates a new owner id and returns the signed token and the id.
func (a *Auth) BuildJWTString() (string, string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	userID, err := a.newOwnerID(ctx)
	if err != nil {
		return "", "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenExp)),
		},
		UserID: userID,
	})

	tokenString, err := token.SignedString(a.secret)
	if err != nil {
		return "", "", err
	}

	return tokenString, userID, nil
}

func (a *Auth) newOwnerID(ctx context.Context) (string, error) {
	for i := 0; i < ownerIDAttempts; i++ {
		id := uuid.NewString()
		if a.s == nil {
			return id, nil
		}

		owned, err := a.s.ListForOwner(ctx, id)
		if err != nil {
			return "", fmt.Errorf("check owner id: %w", err)
		}
		if len(owned) == 0 {
			return id, nil
		}
	}
	return "", errors.New("could not allocate an unused owner id")
}

// ParseClaims verifies the token stored in the cookie.
func (a *Auth) ParseClaims(c *http.Cookie) (*Claims, error) {
	return a.ParseRawJWT(c.Value)
}

// ParseRawJWT verifies tokenString and returns its claims.
func (a *Auth) ParseRawJWT(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

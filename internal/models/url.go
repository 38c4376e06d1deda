// Package models defines the shortened URL entity, its click events and the
// request/response shapes exchanged with the service.
package models

import "time"

// ShortenedURL is a short code mapped to its redirect target together with
// its lifecycle state.
type ShortenedURL struct {
	ID             string       `json:"id"`
	OriginalURL    string       `json:"original_url"`
	Code           string       `json:"code"`
	ShortURL       string       `json:"short_url"`
	CreatedAt      time.Time    `json:"created_at"`
	ExpirationDate *time.Time   `json:"expiration_date,omitempty"`
	IsActive       bool         `json:"is_active"`
	ClickCount     int          `json:"click_count"`
	OwnerID        string       `json:"owner_id,omitempty"`
	ClickEvents    []ClickEvent `json:"click_events,omitempty"`
}

// IsExpired reports whether the expiration date is set and not after now.
func (u *ShortenedURL) IsExpired(now time.Time) bool {
	return u.ExpirationDate != nil && !u.ExpirationDate.After(now)
}

// IsResolvable reports whether the URL may serve a redirect at now.
func (u *ShortenedURL) IsResolvable(now time.Time) bool {
	return u.IsActive && !u.IsExpired(now)
}

// ClickEvent is one recorded access to a shortened URL. Metadata is stored
// raw, as received.
type ClickEvent struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	UserAgent      string    `json:"user_agent,omitempty"`
	IPAddress      string    `json:"ip_address,omitempty"`
	Referrer       string    `json:"referrer,omitempty"`
	ShortenedURLID string    `json:"shortened_url_id"`
}

// ClickMeta is the request metadata captured when a click is recorded.
type ClickMeta struct {
	UserAgent string
	IPAddress string
	Referrer  string
}

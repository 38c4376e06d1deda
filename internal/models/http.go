package models

import "time"

// Request is the short form of a shorten request: {"url": "..."}.
type Request struct {
	URL string `json:"url,omitempty"`
}

// Response carries the short URL produced by a shorten request.
type Response struct {
	Result         string     `json:"result"`
	Code           string     `json:"code"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

// CreateRequest describes a new shortened URL.
type CreateRequest struct {
	// OriginalURL is the redirect target.
	OriginalURL string `json:"original_url"`

	// ExpirationDate is optional; the service default applies when nil.
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`

	// RequestedCode is an optional custom code.
	RequestedCode string `json:"requested_code,omitempty"`
}

// BatchRequest is one row of a batch create.
type BatchRequest struct {
	CorrelationID  string     `json:"correlation_id"`
	OriginalURL    string     `json:"original_url"`
	RequestedCode  string     `json:"requested_code,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

// Batch row statuses.
const (
	BatchStatusSuccess = "success"
	BatchStatusError   = "error"
)

// BatchResult reports the outcome of a single BatchRequest row.
type BatchResult struct {
	Row           int    `json:"row"`
	CorrelationID string `json:"correlation_id,omitempty"`
	OriginalURL   string `json:"original_url"`
	ShortURL      string `json:"short_url,omitempty"`
	Code          string `json:"code,omitempty"`
	Status        string `json:"status"`
	Error         string `json:"error,omitempty"`
}

// SuggestRequest asks for candidate codes for a URL.
type SuggestRequest struct {
	Count       int    `json:"count"`
	OriginalURL string `json:"original_url"`
	Prefix      string `json:"prefix,omitempty"`
}

// SuggestResponse lists advisory codes; none of them are reserved.
type SuggestResponse struct {
	SuggestedCodes []string `json:"suggested_codes"`
}

// CountItem is a labelled counter used by analytics groupings.
type CountItem struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// ClickView is a click event prepared for display.
type ClickView struct {
	Timestamp       time.Time `json:"timestamp"`
	Browser         string    `json:"browser"`
	Referrer        string    `json:"referrer,omitempty"`
	MaskedIPAddress string    `json:"masked_ip_address,omitempty"`
}

// AnalyticsResponse is the read model served by the analytics endpoint.
type AnalyticsResponse struct {
	Code           string      `json:"code"`
	OriginalURL    string      `json:"original_url"`
	ShortURL       string      `json:"short_url"`
	IsActive       bool        `json:"is_active"`
	CreatedAt      time.Time   `json:"created_at"`
	ExpirationDate *time.Time  `json:"expiration_date,omitempty"`
	ClickCount     int         `json:"click_count"`
	ClicksByDay    []CountItem `json:"clicks_by_day"`
	TopReferrers   []CountItem `json:"top_referrers"`
	BrowserStats   []CountItem `json:"browser_stats"`
	RecentClicks   []ClickView `json:"recent_clicks"`
}

// ByOwnerResponse is one entry of the owner listing.
type ByOwnerResponse struct {
	Code           string     `json:"code"`
	OriginalURL    string     `json:"original_url"`
	ShortURL       string     `json:"short_url"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	ClickCount     int        `json:"click_count"`
}

// Package analytics turns the raw click events of a shortened URL into the
// grouped read model served by the analytics endpoints.
package analytics

import (
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mssola/useragent"

	"github.com/atinyakov/shortlink/internal/models"
)

const (
	// RecentClicksLimit is the number of clicks listed in RecentClicks.
	RecentClicksLimit = 10

	// TopReferrersLimit bounds TopReferrers.
	TopReferrersLimit = 10

	directReferrer = "direct"
	dayLayout      = "2006-01-02"
)

// Browser families.
const (
	BrowserEdge    = "Edge"
	BrowserOpera   = "Opera"
	BrowserChrome  = "Chrome"
	BrowserFirefox = "Firefox"
	BrowserSafari  = "Safari"
	BrowserBot     = "Bot"
	BrowserOther   = "Other"
)

// Summarize groups the click events of u. u.IsActive is reported as the
// resolvability of u at now.
func Summarize(u *models.ShortenedURL, now time.Time) models.AnalyticsResponse {
	res := models.AnalyticsResponse{
		Code:           u.Code,
		OriginalURL:    u.OriginalURL,
		ShortURL:       u.ShortURL,
		IsActive:       u.IsResolvable(now),
		CreatedAt:      u.CreatedAt,
		ExpirationDate: u.ExpirationDate,
		ClickCount:     u.ClickCount,
	}

	events := append([]models.ClickEvent(nil), u.ClickEvents...)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})

	days := newCounter()
	referrers := newCounter()
	browsers := newCounter()
	for _, ev := range events {
		days.add(ev.Timestamp.UTC().Format(dayLayout))
		referrers.add(ReferrerHost(ev.Referrer))
		browsers.add(BrowserFamily(ev.UserAgent))
	}

	res.ClicksByDay = days.byLabel()
	res.TopReferrers = top(referrers.byCount(), TopReferrersLimit)
	res.BrowserStats = browsers.byCount()

	res.RecentClicks = make([]models.ClickView, 0, RecentClicksLimit)
	for i := len(events) - 1; i >= 0 && len(res.RecentClicks) < RecentClicksLimit; i-- {
		ev := events[i]
		res.RecentClicks = append(res.RecentClicks, models.ClickView{
			Timestamp:       ev.Timestamp,
			Browser:         BrowserFamily(ev.UserAgent),
			Referrer:        ev.Referrer,
			MaskedIPAddress: MaskIP(ev.IPAddress),
		})
	}

	return res
}

// BrowserFamily classifies a User-Agent header into one of the Browser*
// families.
func BrowserFamily(ua string) string {
	if strings.TrimSpace(ua) == "" {
		return BrowserOther
	}

	parsed := useragent.New(ua)
	if parsed.Bot() {
		return BrowserBot
	}

	name, _ := parsed.Browser()
	switch name {
	case "Edge":
		return BrowserEdge
	case "Opera", "Opera Mini":
		return BrowserOpera
	case "Chrome", "Chromium":
		return BrowserChrome
	case "Firefox":
		return BrowserFirefox
	case "Safari":
		return BrowserSafari
	default:
		return BrowserOther
	}
}

// ReferrerHost reduces a Referer header to its host, "direct" when absent.
func ReferrerHost(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return directReferrer
	}
	if u, err := url.Parse(ref); err == nil && u.Host != "" {
		return strings.ToLower(u.Hostname())
	}
	return ref
}

// MaskIP hides the host part of an address: the last IPv4 octet becomes
// "xxx", an IPv6 address keeps its first three groups.
func MaskIP(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}

	ip := net.ParseIP(addr)
	if ip == nil {
		return "unknown"
	}

	if v4 := ip.To4(); v4 != nil {
		parts := strings.Split(v4.String(), ".")
		parts[3] = "xxx"
		return strings.Join(parts, ".")
	}

	groups := strings.Split(expandIPv6(ip), ":")
	return strings.Join(groups[:3], ":") + ":xxxx:xxxx:xxxx:xxxx:xxxx"
}

func expandIPv6(ip net.IP) string {
	ip = ip.To16()
	groups := make([]string, 8)
	for i := 0; i < 8; i++ {
		groups[i] = strconv.FormatUint(uint64(ip[2*i])<<8|uint64(ip[2*i+1]), 16)
	}
	return strings.Join(groups, ":")
}

type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(label string) {
	if _, ok := c.counts[label]; !ok {
		c.order = append(c.order, label)
	}
	c.counts[label]++
}

func (c *counter) items() []models.CountItem {
	res := make([]models.CountItem, 0, len(c.order))
	for _, label := range c.order {
		res = append(res, models.CountItem{Label: label, Count: c.counts[label]})
	}
	return res
}

// byLabel sorts ascending by label.
func (c *counter) byLabel() []models.CountItem {
	res := c.items()
	sort.Slice(res, func(i, j int) bool { return res[i].Label < res[j].Label })
	return res
}

// byCount sorts descending by count, first seen wins ties.
func (c *counter) byCount() []models.CountItem {
	res := c.items()
	sort.SliceStable(res, func(i, j int) bool { return res[i].Count > res[j].Count })
	return res
}

func top(items []models.CountItem, n int) []models.CountItem {
	if len(items) > n {
		return items[:n]
	}
	return items
}

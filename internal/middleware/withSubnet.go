package middleware

import (
	"net"
	"net/http"
	"strings"
)

// ParseSubnet parses a CIDR such as "192.168.0.0/24". An empty string yields
// a nil network, which trusts nobody.
func ParseSubnet(cidr string) (*net.IPNet, error) {
	cidr = strings.TrimSpace(cidr)
	if cidr == "" {
		return nil, nil
	}
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, err
	}
	return network, nil
}

// InSubnet reports whether ip belongs to network.
func InSubnet(network *net.IPNet, ip string) bool {
	if network == nil {
		return false
	}
	parsed := net.ParseIP(strings.TrimSpace(ip))
	return parsed != nil && network.Contains(parsed)
}

// WithSubnet lets through only requests whose X-Real-IP header falls inside
// the trusted CIDR. Everything else, including a misconfigured subnet, gets 403.
func WithSubnet(subnet string) func(next http.Handler) http.Handler {
	network, err := ParseSubnet(subnet)
	if err != nil {
		network = nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !InSubnet(network, r.Header.Get("X-Real-IP")) {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

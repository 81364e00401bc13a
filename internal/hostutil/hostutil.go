// Package hostutil normalizes API base URLs typed by users.
package hostutil

import (
	"net"
	"strings"
)

// BaseURL trims whitespace and trailing slashes and supplies a scheme when
// raw has none: http for loopback hosts, https for everything else.
// Values with an explicit scheme keep it, even an unsupported one.
func BaseURL(raw string) string {
	u := strings.TrimRight(strings.TrimSpace(raw), "/")
	if u == "" || strings.Contains(u, "://") {
		return u
	}
	host, _, _ := strings.Cut(u, "/")
	if IsLoopback(host) {
		return "http://" + u
	}
	return "https://" + u
}

// IsLoopback reports whether host (with optional port) names this machine:
// localhost, a .localhost subdomain, or a loopback IP.
func IsLoopback(host string) bool {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(strings.ToLower(host), "[]")
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

package httputil

import (
	"net"
	"net/http"
	"strings"
)

// GetClientIP returns the address of the caller for logs and span attributes.
// Proxy headers are consulted in order Forwarded, X-Forwarded-For, X-Real-IP;
// a header value that is not an IP address is ignored. Falls back to the
// host part of RemoteAddr, or RemoteAddr itself when it has no port.
func GetClientIP(r *http.Request) string {
	if ip := forwardedFor(r.Header.Get("Forwarded")); ip != "" {
		return ip
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := parseIP(first); ip != "" {
			return ip
		}
	}

	if ip := parseIP(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// forwardedFor extracts the first for= node of an RFC 7239 Forwarded header
func forwardedFor(header string) string {
	if header == "" {
		return ""
	}
	first, _, _ := strings.Cut(header, ",")
	for _, pair := range strings.Split(first, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || !strings.EqualFold(key, "for") {
			continue
		}
		value = strings.Trim(value, `"`)
		if host, _, err := net.SplitHostPort(value); err == nil {
			value = host
		}
		return parseIP(strings.Trim(value, "[]"))
	}
	return ""
}

func parseIP(s string) string {
	s = strings.TrimSpace(s)
	if ip := net.ParseIP(s); ip != nil {
		return ip.String()
	}
	return ""
}

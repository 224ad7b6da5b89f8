package middleware

import (
	"net"
	"net/http"
	"regexp"
	"strings"
)

// docker bridge gateways, seen when the service runs in compose locally
var dockerGatewayRegex = regexp.MustCompile(`^172\.\d{1,3}\.0\.1$`)

const localClient = "localhost"

// clientIP picks the caller address, preferring what the reverse proxy
// reports. Unparseable addresses come back as "unknown".
func clientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.Header.Get("X-Real-Ip"))
	if addr == "" {
		// client, proxy1, proxy2
		first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
		addr = strings.TrimSpace(first)
	}
	if addr == "" {
		addr = r.RemoteAddr
	}

	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}

	ip := net.ParseIP(addr)
	if ip == nil {
		return "unknown"
	}
	if ip.IsLoopback() || dockerGatewayRegex.MatchString(addr) {
		return localClient
	}
	return ip.String()
}

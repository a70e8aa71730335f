package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/classroster/internal/core"
)

// WithRequestMetadata adds the client IP to ctx for archive records.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithClientIP(ctx, clientIP(r))
}

// clientIP strips the port from RemoteAddr, which TrustedRealIP has already
// rewritten for trusted proxies.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
)

var clientIPContextKey = contextKey("client_ip")

// NewClientIPMiddleware はクライアントIPを解決してコンテキストに注入するミドルウェアを返す。
// trustProxyHeadersがtrueの場合はX-Forwarded-Forの先頭を採用する。
// リバースプロキシの背後でない環境では偽装可能なため有効にしない。
func NewClientIPMiddleware(trustProxyHeaders bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ResolveClientIP(r, trustProxyHeaders)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientIPContextKey, ip)))
		})
	}
}

// ResolveClientIP はリクエストからクライアントIPを求める。
func ResolveClientIP(r *http.Request, trustProxyHeaders bool) string {
	if trustProxyHeaders {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ClientIPFromContext はコンテキストからクライアントIPを取得する。
// ミドルウェアを通過していない場合は"unknown"を返す。
func ClientIPFromContext(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPContextKey).(string); ok && ip != "" {
		return ip
	}
	return "unknown"
}

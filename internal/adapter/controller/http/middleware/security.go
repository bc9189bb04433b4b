package middleware

import (
	"net/http"
)

// SecurityHeaders adds security-related HTTP headers to all responses
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Clickjacking protection - deny framing
		w.Header().Set("X-Frame-Options", "DENY")

		// Referrer policy - don't leak referrer info
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// Content Security Policy. connect-src allows the live message socket.
		w.Header().Set("Content-Security-Policy",
			"default-src 'self'; "+
				"script-src 'self' 'unsafe-inline'; "+
				"style-src 'self' 'unsafe-inline'; "+
				"img-src 'self' data: https:; "+
				"connect-src 'self' wss: ws:; "+
				"frame-ancestors 'none';")

		// Strict Transport Security (only if HTTPS)
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

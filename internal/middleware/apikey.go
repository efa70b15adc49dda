package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/ashureev/scam-honeypot/internal/identity"
)

// APIKey rejects requests whose x-api-key header does not match key.
// Browsers cannot set headers on WebSocket upgrades, so the same key is also
// accepted from the api_key query parameter.
func APIKey(key string) func(http.Handler) http.Handler {
	want := []byte(key)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(identity.APIKeyHeader)
			if got == "" {
				got = r.URL.Query().Get("api_key")
			}
			if len(want) == 0 || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				slog.Warn("Rejected request with invalid API key", "path", r.URL.Path, "ip", identity.IPFromRequest(r))
				writeError(w, http.StatusUnauthorized, "invalid or missing API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"status":"error","error":"` + msg + `"}`))
}

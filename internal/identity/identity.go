// Package identity normalises the keys that identify sessions and clients.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"regexp"
	"strings"
)

// DefaultSessionID is used when a request carries no session id.
const DefaultSessionID = "default"

// APIKeyHeader carries the shared secret on protected routes.
const APIKeyHeader = "x-api-key"

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// SessionKey returns a storage-safe key for a caller-supplied session id.
// Blank ids map to DefaultSessionID. Ids outside the safe alphabet are hashed
// so distinct callers still get distinct sessions.
func SessionKey(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return DefaultSessionID
	}
	if sessionIDPattern.MatchString(id) && strings.Trim(id, ".") != "" {
		return id
	}
	sum := sha256.Sum256([]byte(id))
	return "h_" + hex.EncodeToString(sum[:16])
}

// IPFromRequest returns a normalized remote IP for rate limiting and tracing.
func IPFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

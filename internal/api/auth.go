package api

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync/atomic"
)

// ControlTokenHeader carries the token for clients that cannot set
// Authorization (browser websockets pass it as ?token= instead).
const ControlTokenHeader = "X-Control-Token"

// ControlAuth guards the routes that change the match: input, actions and
// resets. With no token configured every request is let through.
type ControlAuth struct {
	key    []byte
	digest []byte // HMAC of the configured token; nil when disabled

	rejected atomic.Uint64
}

// NewControlAuth creates the guard for token. An empty token disables it.
func NewControlAuth(token string) *ControlAuth {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Printf("⚠️ Failed to generate auth key, using fallback")
		key = []byte("fight-core-control-auth-key-0032")
	}

	a := &ControlAuth{key: key}
	if token != "" {
		a.digest = a.sign(token)
		log.Println("🔐 Control routes require a token")
	}
	return a
}

// Enabled reports whether a token is required.
func (a *ControlAuth) Enabled() bool {
	return a != nil && a.digest != nil
}

// sign hashes both sides so the comparison runs in constant time
// regardless of token length.
func (a *ControlAuth) sign(token string) []byte {
	mac := hmac.New(sha256.New, a.key)
	mac.Write([]byte(token))
	return mac.Sum(nil)
}

// Check reports whether r carries the configured token.
func (a *ControlAuth) Check(r *http.Request) bool {
	if !a.Enabled() {
		return true
	}
	token := requestToken(r)
	if token == "" {
		return false
	}
	return hmac.Equal(a.sign(token), a.digest)
}

// requestToken reads a bearer token, the control header or ?token=.
func requestToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if h := r.Header.Get(ControlTokenHeader); h != "" {
		return strings.TrimSpace(h)
	}
	return r.URL.Query().Get("token")
}

// Rejected returns how many requests failed the check.
func (a *ControlAuth) Rejected() uint64 {
	if a == nil {
		return 0
	}
	return a.rejected.Load()
}

// Middleware rejects requests without the token with 401
func (a *ControlAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Check(r) {
			a.rejected.Add(1)
			RecordConnectionRejected("auth")
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("WWW-Authenticate", `Bearer realm="control"`)
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":   "unauthorized",
				"message": "Control token required",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AuthStatus is returned by GET /api/auth
type AuthStatus struct {
	Required      bool `json:"required"`
	Authenticated bool `json:"authenticated"`
}

// HandleAuthStatus reports whether the caller's token would be accepted
func (a *ControlAuth) HandleAuthStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, AuthStatus{
		Required:      a.Enabled(),
		Authenticated: a.Check(r),
	})
}

package middleware

import (
	"crypto/subtle"
	"net/http"
	"sync"
)

// AuthConfig holds Basic auth credentials. It may be updated while the
// server runs.
type AuthConfig struct {
	mu       sync.RWMutex
	enabled  bool
	user     string
	password string
}

// NewAuthConfig creates an AuthConfig.
func NewAuthConfig(enabled bool, user, password string) *AuthConfig {
	return &AuthConfig{enabled: enabled, user: user, password: password}
}

// Update replaces the credentials.
func (c *AuthConfig) Update(enabled bool, user, password string) {
	c.mu.Lock()
	c.enabled = enabled
	c.user = user
	c.password = password
	c.mu.Unlock()
}

// Enabled reports whether authentication is required.
func (c *AuthConfig) Enabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

func (c *AuthConfig) get() (enabled bool, user, password string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled, c.user, c.password
}

// Auth requires Basic auth on every path except the listed ones.
func Auth(config *AuthConfig, excludePaths ...string) Middleware {
	excluded := make(map[string]bool, len(excludePaths))
	for _, p := range excludePaths {
		excluded[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			enabled, wantUser, wantPass := config.get()
			if !enabled || excluded[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			user, pass, ok := r.BasicAuth()
			if !ok {
				unauthorized(w)
				return
			}

			// Both comparisons run so timing does not reveal which one failed.
			userOK := subtle.ConstantTimeCompare([]byte(user), []byte(wantUser)) == 1
			passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(wantPass)) == 1
			if !userOK || !passOK {
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="planfox"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

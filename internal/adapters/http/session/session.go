// Package session binds browser clients to dashboard sessions with a cookie.
package session

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// DefaultCookie is the cookie name used when none is configured.
const DefaultCookie = "snnv_session"

// maxAge keeps the cookie for a day; the server side may evict sooner.
const maxAge = 24 * 60 * 60

// Cookies issues and reads the session cookie.
type Cookies struct {
	name string
}

// New returns a Cookies using name, or DefaultCookie when name is blank.
func New(name string) *Cookies {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultCookie
	}
	return &Cookies{name: name}
}

// Name returns the cookie name.
func (c *Cookies) Name() string { return c.name }

// Resolve returns the session id carried by r. When r has no valid id a
// fresh one is minted and the cookie to set is returned alongside it.
func (c *Cookies) Resolve(r *http.Request) (string, *http.Cookie) {
	if ck, err := r.Cookie(c.name); err == nil {
		if id, err := uuid.Parse(ck.Value); err == nil {
			return id.String(), nil
		}
	}
	id := uuid.NewString()
	return id, &http.Cookie{
		Name:     c.name,
		Value:    id,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// ID returns the session id for r, setting the cookie on w when a new one
// was minted.
func (c *Cookies) ID(w http.ResponseWriter, r *http.Request) string {
	id, ck := c.Resolve(r)
	if ck != nil {
		http.SetCookie(w, ck)
	}
	return id
}

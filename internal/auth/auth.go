// Package auth checks the bearer digest carried by every method request.
//
// Regular callers present sha512(account + login + salt). The admin login
// presents sha512(YYYYMMDDHH + adminSalt), a credential that is only valid
// during the current wall-clock hour.
package auth

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"time"
)

const (
	DefaultSalt       = "Otus"
	DefaultAdminLogin = "admin"
	DefaultAdminSalt  = "42"

	// hourLayout renders the admin digest time component, e.g. 2024031517.
	hourLayout = "2006010215"
)

// Context is the identity part of a validated method request. Null values
// are represented as "".
type Context struct {
	Account string
	Login   string
	Token   string
}

// Gate computes and compares request digests.
type Gate struct {
	Salt       string
	AdminLogin string
	AdminSalt  string

	// Now is the clock used for the admin digest. Nil means time.Now.
	Now func() time.Time
}

// NewGate returns a Gate with the given secrets and the system clock.
func NewGate(salt, adminLogin, adminSalt string) *Gate {
	return &Gate{Salt: salt, AdminLogin: adminLogin, AdminSalt: adminSalt}
}

func (g *Gate) IsAdmin(login string) bool {
	return login == g.AdminLogin
}

// Digest returns the hex-encoded SHA-512 digest the caller is expected to
// present.
func (g *Gate) Digest(c Context) string {
	var payload string
	if g.IsAdmin(c.Login) {
		payload = g.now().Format(hourLayout) + g.AdminSalt
	} else {
		payload = c.Account + c.Login + g.Salt
	}
	sum := sha512.Sum512([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// IsAuthenticated reports whether c.Token equals the expected digest.
// The comparison is exact and case-sensitive.
//
// Only the login and the outcome are logged. The user digest never
// changes, so a logged one would be a permanent credential.
func (g *Gate) IsAuthenticated(c Context) bool {
	expected := g.Digest(c)
	ok := subtle.ConstantTimeCompare([]byte(expected), []byte(c.Token)) == 1
	slog.Debug("auth checked", slog.String("login", c.Login), slog.Bool("ok", ok))
	return ok
}

func (g *Gate) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

package server

import (
	"crypto/sha256"
	"crypto/subtle"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/hkdf"
)

// SessionData is the whole session. It lives only in the cookie.
type SessionData struct {
	Authenticated bool `json:"authenticated"`
}

// SessionManager signs and encrypts the session cookie. A cookie older than
// the TTL fails to decode and counts as logged out.
type SessionManager struct {
	sc     *securecookie.SecureCookie
	name   string
	ttl    time.Duration
	secure bool
}

func NewSessionManager(secret, cookieName string, ttl time.Duration, secure bool) *SessionManager {
	sc := securecookie.New(deriveKey(secret, "hash", 64), deriveKey(secret, "block", 32))
	sc.MaxAge(int(ttl.Seconds()))
	sc.SetSerializer(securecookie.JSONEncoder{})

	return &SessionManager{
		sc:     sc,
		name:   cookieName,
		ttl:    ttl,
		secure: secure,
	}
}

func deriveKey(secret, purpose string, size int) []byte {
	key := make([]byte, size)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte("linkleopard session "+purpose))
	if _, err := io.ReadFull(r, key); err != nil {
		panic("failed to derive session key: " + err.Error())
	}
	return key
}

// Load returns the zero session for a missing, tampered or expired cookie.
func (m *SessionManager) Load(r *http.Request) SessionData {
	var data SessionData
	cookie, err := r.Cookie(m.name)
	if err != nil {
		return data
	}
	if err := m.sc.Decode(m.name, cookie.Value, &data); err != nil {
		return SessionData{}
	}
	return data
}

func (m *SessionManager) Save(w http.ResponseWriter, data SessionData) error {
	encoded, err := m.sc.Encode(m.name, data)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.name,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		MaxAge:   int(m.ttl.Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (m *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		MaxAge:   -1,
		SameSite: http.SameSiteLaxMode,
	})
}

// CheckPassword compares a submitted password against the configured one,
// which may be stored either in plain text or as a bcrypt hash.
func CheckPassword(configured, submitted string) bool {
	if configured == "" {
		return false
	}
	if isBcryptHash(configured) {
		return bcrypt.CompareHashAndPassword([]byte(configured), []byte(submitted)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(submitted)) == 1
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}

func (s *Server) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.sessions.Load(r).Authenticated {
			http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

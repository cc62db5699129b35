// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/kerjasama/internal/app/system/jsonresp"
	"github.com/dalemusser/kerjasama/internal/domain/models"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	isAuthKey = "is_authenticated"
	userIDKey = "user_id"
)

// SessionUser is the acting identity for one request. Handlers treat Role as
// an opaque authenticated input.
type SessionUser struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	LoginID string      `json:"loginId"`
	Role    models.Role `json:"role"`
	UnitID  string      `json:"unitId,omitempty"`
}

// UserFetcher loads the current state of a signed-in user. It returns nil
// when the user no longer exists or is disabled.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *SessionUser
}

// SessionManager owns the cookie store and the middleware that turns a
// session cookie into a SessionUser.
type SessionManager struct {
	store   *sessions.CookieStore
	name    string
	fetcher UserFetcher
	log     *zap.Logger
}

// NewSessionManager builds a cookie store keyed by sessionKey. An empty key
// is only accepted outside production; a random key is generated so
// sessions simply do not survive a restart.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	key := []byte(sessionKey)
	switch {
	case len(key) == 0 && secure:
		return nil, errors.New("session key is empty; provide 32+ random chars")
	case len(key) == 0:
		key = securecookie.GenerateRandomKey(32)
		logger.Warn("session key not set; using an ephemeral key")
	case len(key) < 32:
		logger.Warn("session key is short; 32+ chars recommended", zap.Int("length", len(key)))
	}
	if name == "" {
		name = "kerjasama-session"
	}

	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionManager{store: store, name: name, log: logger}, nil
}

// SetUserFetcher makes LoadSessionUser re-read the user on every request so
// role changes and disabled accounts take effect immediately.
func (m *SessionManager) SetUserFetcher(f UserFetcher) { m.fetcher = f }

// Store exposes the underlying cookie store.
func (m *SessionManager) Store() *sessions.CookieStore { return m.store }

// GetSession returns the named session for r. A cookie that fails to decode
// yields a fresh session.
func (m *SessionManager) GetSession(r *http.Request) (*sessions.Session, error) {
	return m.store.Get(r, m.name)
}

// SignIn records userID in the session cookie.
func (m *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, userID string) error {
	sess, _ := m.GetSession(r)
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = userID
	return sess.Save(r, w)
}

// SignOut expires the session cookie.
func (m *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := m.GetSession(r)
	delete(sess.Values, isAuthKey)
	delete(sess.Values, userIDKey)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user loaded by LoadSessionUser.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// WithTestUser injects u into the request context, bypassing the session.
// It exists for handler tests.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

// LoadSessionUser injects the signed-in user into the request context. It
// never rejects a request; pair it with RequireSignedIn or RequireRole.
func (m *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.GetSession(r)
		if err != nil {
			m.log.Debug("session decode failed", zap.Error(err))
		}
		isAuth, _ := sess.Values[isAuthKey].(bool)
		uid, _ := sess.Values[userIDKey].(string)
		if !isAuth || uid == "" || m.fetcher == nil {
			next.ServeHTTP(w, r)
			return
		}
		if u := m.fetcher.FetchUser(r.Context(), uid); u != nil {
			r = withUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn answers 401 when no user is in context.
func (m *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			jsonresp.Error(w, http.StatusUnauthorized, jsonresp.CodeUnauthenticated, "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole answers 401 without a user and 403 when the user's role is
// not one of allowed.
func (m *SessionManager) RequireRole(allowed ...models.Role) func(http.Handler) http.Handler {
	set := make(map[models.Role]struct{}, len(allowed))
	for _, r := range allowed {
		set[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				jsonresp.Error(w, http.StatusUnauthorized, jsonresp.CodeUnauthenticated, "sign in required")
				return
			}
			if _, has := set[u.Role]; !has {
				jsonresp.Error(w, http.StatusForbidden, jsonresp.CodeForbidden, "your role cannot access this resource")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

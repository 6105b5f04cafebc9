package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/chatassist/internal/common"
	"github.com/dmitrijs2005/chatassist/internal/server/models"
)

type ctxKey string

const identityKey ctxKey = "identity"

// Identity is what a verified session token says about the caller.
type Identity struct {
	UserID string
	Email  string
}

func withIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity the session gate stored.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

func (s *HTTPServer) protected(path string) bool {
	for _, p := range s.opts.ProtectedPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// sessionGate rejects requests to protected prefixes that carry no valid
// session cookie and puts the caller's identity into the context otherwise.
func (s *HTTPServer) sessionGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.protected(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		c, err := r.Cookie(common.SessionCookieName)
		if err != nil || c.Value == "" {
			writeErrorMessage(w, http.StatusUnauthorized, msgNotAuthenticated)
			return
		}

		claims, err := s.auth.Verify(c.Value)
		if err != nil {
			writeErrorMessage(w, http.StatusUnauthorized, msgInvalidToken)
			return
		}

		ctx := withIdentity(r.Context(), Identity{UserID: claims.UserID, Email: claims.Email})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentUser resolves the full, active user behind the request. Routes
// outside the gate fall back to reading the cookie themselves.
func (s *HTTPServer) currentUser(r *http.Request) (*models.User, error) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		c, err := r.Cookie(common.SessionCookieName)
		if err != nil {
			return nil, common.ErrorUnauthenticated
		}
		claims, err := s.auth.Verify(c.Value)
		if err != nil {
			return nil, err
		}
		id = Identity{UserID: claims.UserID, Email: claims.Email}
	}
	return s.auth.CurrentUser(r.Context(), id.UserID)
}

// requireUser writes 401 and returns false when there is no active user.
func (s *HTTPServer) requireUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	u, err := s.currentUser(r)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return u, true
}

func (s *HTTPServer) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.auth.TokenTTL().Seconds()),
		HttpOnly: true,
		Secure:   s.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *HTTPServer) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

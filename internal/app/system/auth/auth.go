package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/commonroom/internal/app/system/respond"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session identity                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is the identity carried in the token and injected into
// r.Context(). ID is the hex ObjectID of the user record.
type SessionUser struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Bio      string `json:"bio"`
	Username string `json:"username"`
}

// DefaultCookieName is used when NewSessionManager gets an empty name.
const DefaultCookieName = "token"

const (
	claimEmail    = "email"
	claimName     = "name"
	claimBio      = "bio"
	claimUsername = "username"
)

// ErrNoSecret is returned by NewSessionManager when the signing secret is empty.
var ErrNoSecret = errors.New("auth: token secret is empty")

// SessionManager signs and verifies session tokens and owns the cookie
// that carries them.
type SessionManager struct {
	secret     []byte
	cookieName string
	domain     string
	ttl        time.Duration
	secure     bool
	log        *zap.Logger
	now        func() time.Time
}

// NewSessionManager builds a SessionManager.
//
// In production (secure=true) the cookie is Secure + SameSite=None so it is
// sent on cross-site fetches over HTTPS. In local dev over http://localhost,
// use secure=false and the cookie is SameSite=Lax.
func NewSessionManager(secret, cookieName, domain string, ttl time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(secret) < 32 {
		logger.Warn("token secret is short; 32+ chars recommended",
			zap.Int("length", len(secret)))
	}
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}

	logger.Info("session manager initialized",
		zap.String("cookie", cookieName),
		zap.Bool("secure", secure),
		zap.String("domain", domain),
		zap.Duration("ttl", ttl))

	return &SessionManager{
		secret:     []byte(secret),
		cookieName: cookieName,
		domain:     domain,
		ttl:        ttl,
		secure:     secure,
		log:        logger,
		now:        time.Now,
	}, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Token issue / verify                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// Issue signs a token for u that expires after the configured TTL.
func (sm *SessionManager) Issue(u SessionUser) (string, error) {
	if u.ID == "" {
		return "", errors.New("auth: cannot issue token without subject")
	}
	now := sm.now()
	claims := jwt.MapClaims{
		"sub":         u.ID,
		claimEmail:    u.Email,
		claimName:     u.Name,
		claimBio:      u.Bio,
		claimUsername: u.Username,
		"iat":         now.Unix(),
		"exp":         now.Add(sm.ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(sm.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a raw token string.
func (sm *SessionManager) Verify(raw string) (*SessionUser, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return sm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(sm.now),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return nil, errors.New("invalid token claims")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, errors.New("token has no subject")
	}

	return &SessionUser{
		ID:       sub,
		Email:    stringClaim(claims, claimEmail),
		Name:     stringClaim(claims, claimName),
		Bio:      stringClaim(claims, claimBio),
		Username: stringClaim(claims, claimUsername),
	}, nil
}

// Resolve returns the identity carried by the request's session cookie.
// A missing cookie, or any verification failure, yields no user.
func (sm *SessionManager) Resolve(r *http.Request) (*SessionUser, bool) {
	c, err := r.Cookie(sm.cookieName)
	if err != nil || c.Value == "" {
		return nil, false
	}
	u, err := sm.Verify(c.Value)
	if err != nil {
		sm.log.Debug("session token rejected",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		return nil, false
	}
	return u, true
}

/*─────────────────────────────────────────────────────────────────────────────*
| Cookie                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// SetCookie writes the session cookie carrying token.
func (sm *SessionManager) SetCookie(w http.ResponseWriter, token string) {
	c := sm.baseCookie()
	c.Value = token
	c.MaxAge = int(sm.ttl / time.Second)
	c.Expires = sm.now().Add(sm.ttl)
	http.SetCookie(w, c)
}

// ClearCookie expires the session cookie.
func (sm *SessionManager) ClearCookie(w http.ResponseWriter) {
	c := sm.baseCookie()
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	http.SetCookie(w, c)
}

func (sm *SessionManager) baseCookie() *http.Cookie {
	c := &http.Cookie{
		Name:     sm.cookieName,
		Domain:   sm.domain,
		Path:     "/",
		Secure:   sm.secure,
		HttpOnly: true,
	}
	if sm.secure {
		c.SameSite = http.SameSiteNoneMode
	} else {
		c.SameSite = http.SameSiteLaxMode
	}
	return c
}

/*─────────────────────────────────────────────────────────────────────────────*
| Middleware & context helpers                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil
}

// LoadSessionUser injects the user into context if the token resolves.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, ok := sm.Resolve(r); ok {
			r = withUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn rejects requests without a user in context (set by
// LoadSessionUser) with 401 {"error":"unauthorized"}.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
	})
}

// WithTestUser returns r carrying u as the current user.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func stringClaim(c jwt.MapClaims, key string) string {
	v, _ := c[key].(string)
	return v""
}

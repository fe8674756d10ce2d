package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/commonroom/internal/app/system/auth"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const testSecret = "test-token-secret-must-be-32-chars-long"

func newTestSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(testSecret, "token", "", 24*time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm
}

func requestWithToken(token string) *http.Request {
	req := httptest.NewRequest("GET", "/api/auth/me", nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
	}
	return req
}

func sign(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestNewSessionManager_EmptySecret(t *testing.T) {
	_, err := auth.NewSessionManager("", "token", "", time.Hour, false, zap.NewNop())
	if err != auth.ErrNoSecret {
		t.Fatalf("expected ErrNoSecret, got %v", err)
	}
}

func TestResolve_IssuedTokenRoundTrips(t *testing.T) {
	sm := newTestSessionManager(t)
	want := auth.SessionUser{
		ID:       "65a1b2c3d4e5f60718293a4b",
		Email:    "ada@example.com",
		Name:     "Ada",
		Bio:      "engines",
		Username: "ada",
	}

	tok, err := sm.Issue(want)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	got, ok := sm.Resolve(requestWithToken(tok))
	if !ok {
		t.Fatal("expected token to resolve")
	}
	if *got != want {
		t.Errorf("resolved %+v, want %+v", *got, want)
	}
}

func TestResolve_ExternallySignedToken(t *testing.T) {
	sm := newTestSessionManager(t)
	tok := sign(t, testSecret, jwt.MapClaims{
		"sub":   "u1",
		"email": "grace@example.com",
		"name":  "Grace",
		"bio":   "",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	got, ok := sm.Resolve(requestWithToken(tok))
	if !ok {
		t.Fatal("expected token to resolve")
	}
	if got.ID != "u1" || got.Email != "grace@example.com" || got.Name != "Grace" {
		t.Errorf("unexpected identity %+v", *got)
	}
}

func TestResolve_TokenWithoutExpiry(t *testing.T) {
	sm := newTestSessionManager(t)
	tok := sign(t, testSecret, jwt.MapClaims{"sub": "u1", "name": "Grace"})

	got, ok := sm.Resolve(requestWithToken(tok))
	if !ok {
		t.Fatal("expected a signed token without exp to resolve")
	}
	if got.ID != "u1" || got.Name != "Grace" {
		t.Errorf("unexpected identity %+v", *got)
	}
}

func TestResolve_ClaimsReturnedVerbatim(t *testing.T) {
	sm := newTestSessionManager(t)
	tok := sign(t, testSecret, jwt.MapClaims{
		"sub":  "u1",
		"name": " Grace Hopper ",
		"bio":  "  hi  ",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	got, ok := sm.Resolve(requestWithToken(tok))
	if !ok {
		t.Fatal("expected token to resolve")
	}
	if got.Bio != "  hi  " || got.Name != " Grace Hopper " {
		t.Errorf("claims altered: name=%q bio=%q", got.Name, got.Bio)
	}
}

func TestResolve_Rejections(t *testing.T) {
	sm := newTestSessionManager(t)
	future := time.Now().Add(time.Hour).Unix()

	noneTok, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u1", "exp": future}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	cases := map[string]string{
		"no cookie":    "",
		"garbage":      "not-a-jwt",
		"wrong secret": sign(t, "some-other-secret-that-is-long-enough", jwt.MapClaims{"sub": "u1", "exp": future}),
		"expired":      sign(t, testSecret, jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(-time.Minute).Unix()}),
		"no subject":   sign(t, testSecret, jwt.MapClaims{"email": "x@example.com", "exp": future}),
		"alg none":     noneTok,
	}

	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			if u, ok := sm.Resolve(requestWithToken(tok)); ok {
				t.Errorf("expected no identity, got %+v", *u)
			}
		})
	}
}

func TestRequireSignedIn_NoUser_Returns401JSON(t *testing.T) {
	sm := newTestSessionManager(t)

	handler := sm.LoadSessionUser(sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithToken("bogus"))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "unauthorized" {
		t.Errorf("error = %q, want unauthorized", body["error"])
	}
}

func TestRequireSignedIn_WithUser_Passes(t *testing.T) {
	sm := newTestSessionManager(t)
	tok, err := sm.Issue(auth.SessionUser{ID: "u1", Email: "a@example.com"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	var seen *auth.SessionUser
	handler := sm.LoadSessionUser(sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.CurrentUser(r)
		w.WriteHeader(http.StatusOK)
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithToken(tok))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if seen == nil || seen.ID != "u1" {
		t.Errorf("expected current user u1, got %+v", seen)
	}
}

func TestWithTestUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if _, ok := auth.CurrentUser(req); ok {
		t.Fatal("expected no user on bare request")
	}
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "u9"})
	u, ok := auth.CurrentUser(req)
	if !ok || u.ID != "u9" {
		t.Errorf("expected u9, got %+v", u)
	}
}

func TestSetCookie_Attributes(t *testing.T) {
	sm := newTestSessionManager(t)
	rec := httptest.NewRecorder()
	sm.SetCookie(rec, "abc")

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != "token" || c.Value != "abc" {
		t.Errorf("cookie = %s=%s", c.Name, c.Value)
	}
	if !c.HttpOnly {
		t.Error("expected HttpOnly")
	}
	if c.Path != "/" {
		t.Errorf("path = %q", c.Path)
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax in dev", c.SameSite)
	}
}

func TestClearCookie(t *testing.T) {
	sm := newTestSessionManager(t)
	rec := httptest.NewRecorder()
	sm.ClearCookie(rec)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	if cookies[0].MaxAge >= 0 {
		t.Errorf("expected negative MaxAge, got %d", cookies[0].MaxAge)
	}
}

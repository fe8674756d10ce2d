package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/commonroom/internal/app/system/auth"
	"github.com/dalemusser/commonroom/internal/domain/models"
	"go.uber.org/zap"
)

// TokenSecret signs tokens issued by NewSessionManager.
const TokenSecret = "test-token-secret-must-be-32-chars-long"

// NewSessionManager returns a dev-mode session manager using the "token" cookie.
func NewSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(TokenSecret, auth.DefaultCookieName, "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return sm
}

// ResponseCookie returns the named cookie set on rec, or nil.
func ResponseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// SessionFor builds the session identity for a fixture user.
func SessionFor(u models.User) *auth.SessionUser {
	return &auth.SessionUser{
		ID:       u.ID.Hex(),
		Email:    u.Email,
		Name:     u.Username,
		Username: u.Username,
	}
}

// WithUser adds a user to the request context for testing authenticated handlers.
// This bypasses the session middleware and injects the user directly.
func WithUser(r *http.Request, u models.User) *http.Request {
	return auth.WithTestUser(r, SessionFor(u))
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewJSONRequest creates a request whose body is v encoded as JSON.
func NewJSONRequest(t *testing.T, method, target string, v any) *http.Request {
	t.Helper()
	var body io.Reader = http.NoBody
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("encode request body: %v", err)
		}
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DecodeJSON decodes the recorder body into a value of type T.
func DecodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

// AssertStatus checks the response status code.
func AssertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Errorf("status code: got %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

// ErrorMessage returns the "error" field of a JSON error envelope.
func ErrorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return DecodeJSON[map[string]string](t, rec)["error"]
}

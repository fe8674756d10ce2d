package login_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	uierrors "github.com/dalemusser/commonroom/internal/app/features/errors"
	"github.com/dalemusser/commonroom/internal/app/features/login"
	"github.com/dalemusser/commonroom/internal/app/system/auth"
	"github.com/dalemusser/commonroom/internal/app/system/dbconn"
	"github.com/dalemusser/commonroom/internal/app/system/ratelimit"
	"github.com/dalemusser/commonroom/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestHandler(t *testing.T) (*login.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	errLog := uierrors.NewErrorLogger(logger)
	sessionMgr := testutil.NewSessionManager(t)

	handler := login.NewHandler(dbconn.Static(db), sessionMgr, errLog, nil, logger)
	handler.HashCost = bcrypt.MinCost
	return handler, testutil.NewFixtures(t, db)
}

type userBody struct {
	User auth.SessionUser `json:"user"`
}

func TestHandleRegister_Success(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	req := testutil.NewJSONRequest(t, "POST", "/api/auth/register", map[string]string{
		"email":    "Ada@Example.com",
		"username": "Ada_L",
		"password": "difference engine",
		"name":     "  Ada   Lovelace ",
	})
	rec := httptest.NewRecorder()
	handler.HandleRegister(rec, req)

	testutil.AssertStatus(t, rec, http.StatusOK)
	body := testutil.DecodeJSON[userBody](t, rec)
	if body.User.Email != "ada@example.com" {
		t.Errorf("email: got %q", body.User.Email)
	}
	if body.User.Name != "Ada Lovelace" {
		t.Errorf("name: got %q", body.User.Name)
	}
	if body.User.Username != "Ada_L" {
		t.Errorf("username: got %q", body.User.Username)
	}

	cookie := testutil.ResponseCookie(rec, auth.DefaultCookieName)
	if cookie == nil || cookie.Value == "" {
		t.Fatal("expected token cookie to be set")
	}
	su, err := handler.SessionMgr.Verify(cookie.Value)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if su.ID != body.User.ID {
		t.Errorf("token sub %q != user id %q", su.ID, body.User.ID)
	}

	db := fixtures.DB()
	if n, _ := db.Collection("profiles").CountDocuments(ctx, bson.M{"username": "ada_l"}); n != 1 {
		t.Errorf("expected 1 profile, got %d", n)
	}
	if n, _ := db.Collection("activity").CountDocuments(ctx, bson.M{"type": "signed_up"}); n != 1 {
		t.Errorf("expected 1 signed_up event, got %d", n)
	}
}

func TestHandleRegister_Validation(t *testing.T) {
	handler, _ := newTestHandler(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"bad email", map[string]string{"email": "nope", "username": "ada", "password": "longenough"}},
		{"bad username", map[string]string{"email": "a@example.com", "username": "a d", "password": "longenough"}},
		{"short password", map[string]string{"email": "a@example.com", "username": "ada", "password": "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.HandleRegister(rec, testutil.NewJSONRequest(t, "POST", "/api/auth/register", tt.body))
			testutil.AssertStatus(t, rec, http.StatusBadRequest)
			if testutil.ResponseCookie(rec, auth.DefaultCookieName) != nil {
				t.Error("no cookie expected on failure")
			}
		})
	}
}

func TestHandleRegister_Duplicates(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateUser(ctx, "grace", "grace@example.com")

	tests := []struct {
		name, email, username, wantMsg string
	}{
		{"email", "grace@example.com", "grace2", "a user with this email already exists"},
		{"username case-insensitive", "other@example.com", "GRACE", "this username is already taken"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.HandleRegister(rec, testutil.NewJSONRequest(t, "POST", "/api/auth/register", map[string]string{
				"email": tt.email, "username": tt.username, "password": "longenough",
			}))
			testutil.AssertStatus(t, rec, http.StatusBadRequest)
			if got := testutil.ErrorMessage(t, rec); got != tt.wantMsg {
				t.Errorf("error: got %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestHandleLogin_Success(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "linus", "linus@example.com")

	rec := httptest.NewRecorder()
	handler.HandleLogin(rec, testutil.NewJSONRequest(t, "POST", "/api/auth/login", map[string]string{
		"email":    " LINUS@example.com ",
		"password": testutil.TestPassword,
	}))

	testutil.AssertStatus(t, rec, http.StatusOK)
	body := testutil.DecodeJSON[userBody](t, rec)
	if body.User.ID != u.ID.Hex() {
		t.Errorf("user id: got %q, want %q", body.User.ID, u.ID.Hex())
	}
	if testutil.ResponseCookie(rec, auth.DefaultCookieName) == nil {
		t.Error("expected token cookie")
	}
}

func TestHandleLogin_BadCredentials(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateUser(ctx, "linus", "linus@example.com")

	tests := []struct {
		name, email, password string
	}{
		{"wrong password", "linus@example.com", "not the password"},
		{"unknown email", "nobody@example.com", testutil.TestPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.HandleLogin(rec, testutil.NewJSONRequest(t, "POST", "/api/auth/login", map[string]string{
				"email": tt.email, "password": tt.password,
			}))
			testutil.AssertStatus(t, rec, http.StatusUnauthorized)
			if got := testutil.ErrorMessage(t, rec); got != "invalid email or password" {
				t.Errorf("error: got %q", got)
			}
		})
	}
}

func TestHandleLogin_MissingFields(t *testing.T) {
	handler, _ := newTestHandler(t)
	rec := httptest.NewRecorder()
	handler.HandleLogin(rec, testutil.NewJSONRequest(t, "POST", "/api/auth/login", map[string]string{"email": "a@example.com"}))
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
}

func TestHandleLogin_RateLimited(t *testing.T) {
	handler, _ := newTestHandler(t)
	handler.Limiter = ratelimit.NewAuthLimiterWithConfig(100, time.Minute, 2, time.Minute)
	t.Cleanup(handler.Limiter.Stop)

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		handler.HandleLogin(last, testutil.NewJSONRequest(t, "POST", "/api/auth/login", map[string]string{
			"email": "victim@example.com", "password": "guess",
		}))
	}
	testutil.AssertStatus(t, last, http.StatusTooManyRequests)
	if last.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

package profile_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	uierrors "github.com/dalemusser/commonroom/internal/app/features/errors"
	"github.com/dalemusser/commonroom/internal/app/features/profile"
	"github.com/dalemusser/commonroom/internal/app/system/auth"
	"github.com/dalemusser/commonroom/internal/app/system/cache"
	"github.com/dalemusser/commonroom/internal/app/system/dbconn"
	"github.com/dalemusser/commonroom/internal/domain/models"
	"github.com/dalemusser/commonroom/internal/testutil"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type env struct {
	handler  *profile.Handler
	fixtures *testutil.Fixtures
	redis    *miniredis.Miniredis
}

func newEnv(t *testing.T) env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	mr := miniredis.RunT(t)
	c := cache.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:", time.Minute, logger)
	return env{
		handler:  profile.NewHandler(dbconn.Static(db), c, testutil.NewSessionManager(t), uierrors.NewErrorLogger(logger), logger),
		fixtures: testutil.NewFixtures(t, db),
		redis:    mr,
	}
}

type profileBody struct {
	Profile models.Profile   `json:"profile"`
	User    auth.SessionUser `json:"user"`
}

func TestServePublic(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := e.fixtures.CreateUser(ctx, "Ada", "ada@example.com")

	tests := []struct {
		name, username string
		want           int
	}{
		{"exact", "ada", http.StatusOK},
		{"case-insensitive", " ADA ", http.StatusOK},
		{"unknown", "grace", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.WithChiURLParam(httptest.NewRequest("GET", "/", nil), "username", tt.username)
			rec := httptest.NewRecorder()
			e.handler.ServePublic(rec, req)
			testutil.AssertStatus(t, rec, tt.want)
			if tt.want == http.StatusOK {
				if got := testutil.DecodeJSON[profileBody](t, rec).Profile.UserID; got != u.ID {
					t.Errorf("user_id: got %s", got.Hex())
				}
			}
		})
	}

	if !e.redis.Exists("test:profile:ada") {
		t.Error("expected profile to be cached")
	}
	if e.redis.Exists("test:profile:grace") {
		t.Error("misses must not be cached")
	}
}

func TestServeOwn(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := e.fixtures.CreateUser(ctx, "ada", "ada@example.com")

	rec := httptest.NewRecorder()
	e.handler.ServeOwn(rec, testutil.WithUser(httptest.NewRequest("GET", "/api/profile", nil), u))
	testutil.AssertStatus(t, rec, http.StatusOK)
	if got := testutil.DecodeJSON[profileBody](t, rec).Profile.Username; got != "ada" {
		t.Errorf("username: got %q", got)
	}

	rec = httptest.NewRecorder()
	e.handler.ServeOwn(rec, httptest.NewRequest("GET", "/api/profile", nil))
	testutil.AssertStatus(t, rec, http.StatusUnauthorized)
}

func TestHandleUpdate_Success(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := e.fixtures.CreateUser(ctx, "ada", "ada@example.com")
	e.redis.Set("test:profile:ada", `{"username":"ada","name":"stale"}`)

	req := testutil.NewJSONRequest(t, "PATCH", "/api/profile", map[string]string{
		"name":    "  Ada   Lovelace ",
		"bio":     "<b>Analyst</b> of engines",
		"website": "https://example.com/ada",
		"avatar":  "https://example.com/ada.png",
	})
	rec := httptest.NewRecorder()
	e.handler.HandleUpdate(rec, testutil.WithUser(req, u))

	testutil.AssertStatus(t, rec, http.StatusOK)
	body := testutil.DecodeJSON[profileBody](t, rec)
	if body.Profile.Name != "Ada Lovelace" || body.Profile.Bio != "Analyst of engines" {
		t.Errorf("unexpected profile: %+v", body.Profile)
	}
	if body.User.Name != "Ada Lovelace" || body.User.Bio != "Analyst of engines" {
		t.Errorf("unexpected user: %+v", body.User)
	}

	cookie := testutil.ResponseCookie(rec, auth.DefaultCookieName)
	if cookie == nil {
		t.Fatal("expected refreshed token cookie")
	}
	su, err := e.handler.SessionMgr.Verify(cookie.Value)
	if err != nil {
		t.Fatalf("refreshed token: %v", err)
	}
	if su.Name != "Ada Lovelace" || su.Email != "ada@example.com" {
		t.Errorf("claims not refreshed: %+v", su)
	}

	if e.redis.Exists("test:profile:ada") {
		t.Error("expected cached profile to be invalidated")
	}

	var stored models.User
	if err := e.fixtures.DB().Collection("users").FindOne(ctx, bson.M{"_id": u.ID}).Decode(&stored); err != nil {
		t.Fatalf("load user: %v", err)
	}
	if stored.Avatar != "https://example.com/ada.png" {
		t.Errorf("user avatar: got %q", stored.Avatar)
	}
}

func TestHandleUpdate_Validation(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := e.fixtures.CreateUser(ctx, "ada", "ada@example.com")

	tests := []struct {
		name string
		body map[string]any
	}{
		{"empty", map[string]any{}},
		{"blank name", map[string]any{"name": "   "}},
		{"bad website", map[string]any{"website": "javascript:alert(1)"}},
		{"bad avatar", map[string]any{"avatar": "ftp://example.com/a.png"}},
		{"unknown field", map[string]any{"email": "new@example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := testutil.NewJSONRequest(t, "PATCH", "/api/profile", tt.body)
			e.handler.HandleUpdate(rec, testutil.WithUser(req, u))
			testutil.AssertStatus(t, rec, http.StatusBadRequest)
		})
	}
}

func TestHandleUpdate_ClearsOptionalField(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := e.fixtures.CreateUser(ctx, "ada", "ada@example.com")

	for _, site := range []string{"https://example.com", ""} {
		rec := httptest.NewRecorder()
		req := testutil.NewJSONRequest(t, "PATCH", "/api/profile", map[string]string{"website": site})
		e.handler.HandleUpdate(rec, testutil.WithUser(req, u))
		testutil.AssertStatus(t, rec, http.StatusOK)
		if got := testutil.DecodeJSON[profileBody](t, rec).Profile.Website; got != site {
			t.Errorf("website: got %q, want %q", got, site)
		}
	}
}

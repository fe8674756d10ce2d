package logout_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/commonroom/internal/app/features/logout"
	"github.com/dalemusser/commonroom/internal/app/system/auth"
	"github.com/dalemusser/commonroom/internal/testutil"
	"go.uber.org/zap"
)

func TestHandleLogout_ClearsCookie(t *testing.T) {
	handler := logout.NewHandler(testutil.NewSessionManager(t), zap.NewNop())

	tests := []struct {
		name     string
		signedIn bool
	}{
		{"signed in", true},
		{"anonymous", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/auth/logout", nil)
			if tt.signedIn {
				req = auth.WithTestUser(req, &auth.SessionUser{ID: "507f1f77bcf86cd799439011", Username: "ada"})
			}
			rec := httptest.NewRecorder()
			handler.HandleLogout(rec, req)

			testutil.AssertStatus(t, rec, http.StatusOK)
			body := testutil.DecodeJSON[map[string]bool](t, rec)
			if !body["ok"] {
				t.Errorf("expected ok:true, got %s", rec.Body.String())
			}
			c := testutil.ResponseCookie(rec, auth.DefaultCookieName)
			if c == nil {
				t.Fatal("expected a clearing cookie")
			}
			if c.MaxAge >= 0 || c.Value != "" {
				t.Errorf("cookie not cleared: %+v", c)
			}
		})
	}
}

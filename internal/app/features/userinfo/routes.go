// internal/app/features/userinfo/routes.go
package userinfo

import (
	"github.com/dalemusser/commonroom/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers GET /me on the /api/auth router.
func MountRoutes(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.With(sm.RequireSignedIn).Get("/me", h.ServeMe)
}

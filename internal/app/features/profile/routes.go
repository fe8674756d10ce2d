// internal/app/features/profile/routes.go
package profile

import (
	"github.com/dalemusser/commonroom/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the profile endpoints on the /api router.
func MountRoutes(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.Get("/profiles/{username}", h.ServePublic)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/profile", h.ServeOwn)
		pr.Patch("/profile", h.HandleUpdate)
	})
}

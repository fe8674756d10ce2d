// internal/app/features/members/routes.go
package members

import (
	"github.com/dalemusser/commonroom/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers membership endpoints on the /api/communities router.
func MountRoutes(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.Get("/{slug}/members", h.ServeList)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Post("/{slug}/join", h.HandleJoin)
		pr.Post("/{slug}/leave", h.HandleLeave)
	})
}

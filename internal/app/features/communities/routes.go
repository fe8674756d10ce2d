// internal/app/features/communities/routes.go
package communities

import (
	"github.com/dalemusser/commonroom/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the community endpoints on the /api/communities router.
func MountRoutes(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.Get("/", h.ServeList)
	r.Get("/{slug}", h.ServeShow)
	r.With(sm.RequireSignedIn).Post("/", h.HandleCreate)
}

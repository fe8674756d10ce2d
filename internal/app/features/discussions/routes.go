// internal/app/features/discussions/routes.go
package discussions

import (
	"github.com/dalemusser/commonroom/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountCommunityRoutes registers the per-community discussion endpoints on
// the /api/communities router.
func MountCommunityRoutes(r chi.Router, h *Handler, sm *auth.SessionManager) {
	r.Get("/{slug}/discussions", h.ServeList)
	r.Get("/{slug}/discussions/{dslug}", h.ServeShowBySlug)
	r.With(sm.RequireSignedIn).Post("/{slug}/discussions", h.HandleCreate)
}

// Routes serves discussions addressed by id.
// Typically: r.Mount("/api/discussions", discussions.Routes(h, sm))
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Get("/{id}", h.ServeShow)
	r.Get("/{id}/replies", h.ServeReplies)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Post("/{id}/replies", h.HandleReply)
	})

	return r
}

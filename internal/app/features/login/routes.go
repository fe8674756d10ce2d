// internal/app/features/login/routes.go
package login

import "github.com/go-chi/chi/v5"

// MountRoutes registers the credential endpoints on r, which is expected to
// be the /api/auth router.
func MountRoutes(r chi.Router, h *Handler) {
	r.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)
}

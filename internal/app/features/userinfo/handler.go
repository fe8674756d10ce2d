// internal/app/features/userinfo/handler.go
package userinfo

import (
	"net/http"

	"github.com/dalemusser/commonroom/internal/app/system/auth"
	"github.com/dalemusser/commonroom/internal/app/system/respond"
)

// Handler serves the identity of the current session.
type Handler struct{}

// NewHandler creates a new userinfo handler.
func NewHandler() *Handler {
	return &Handler{}
}

// ServeMe handles GET /api/auth/me.
//
// Response format:
//
//	{ "user": { "id": "...", "email": "...", "name": "...", "bio": "...", "username": "..." } }
//
// The identity comes straight from the token claims; no database read.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]*auth.SessionUser{"user": user})
}

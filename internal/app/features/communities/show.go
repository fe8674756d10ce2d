// internal/app/features/communities/show.go
package communities

import (
	"context"
	"net/http"

	"github.com/dalemusser/commonroom/internal/app/features/shared"
	"github.com/dalemusser/commonroom/internal/app/system/respond"
	"github.com/dalemusser/commonroom/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

// ServeShow handles GET /api/communities/{slug}.
// The slug is matched after trimming and lowercasing.
func (h *Handler) ServeShow(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	db, err := h.DB.Database(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "show community: database unavailable", err, "A database error occurred.")
		return
	}

	c, err := shared.CommunityBySlug(ctx, db, h.Cache, chi.URLParam(r, "slug"))
	if err != nil {
		h.ErrLog.LogStoreError(w, r, "show community: lookup failed", err, "community not found")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{"community": c})
}

// internal/app/features/discussions/show.go
package discussions

import (
	"context"
	"net/http"

	"github.com/dalemusser/commonroom/internal/app/features/shared"
	discussionstore "github.com/dalemusser/commonroom/internal/app/store/discussions"
	"github.com/dalemusser/commonroom/internal/app/system/respond"
	"github.com/dalemusser/commonroom/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

// ServeShowBySlug handles GET /api/communities/{slug}/discussions/{dslug}.
// Both slugs are matched after trimming and lowercasing.
func (h *Handler) ServeShowBySlug(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	db, err := h.DB.Database(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "show discussion: database unavailable", err, "A database error occurred.")
		return
	}

	c, err := shared.CommunityBySlug(ctx, db, h.Cache, chi.URLParam(r, "slug"))
	if err != nil {
		h.ErrLog.LogStoreError(w, r, "show discussion: community lookup failed", err, "community not found")
		return
	}

	d, err := discussionstore.New(db).GetBySlug(ctx, c.ID, chi.URLParam(r, "dslug"))
	if err != nil {
		h.ErrLog.LogStoreError(w, r, "show discussion: lookup failed", err, "discussion not found")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{"discussion": d})
}

// ServeShow handles GET /api/discussions/{id}. A malformed id is 400.
func (h *Handler) ServeShow(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	db, err := h.DB.Database(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "show discussion: database unavailable", err, "A database error occurred.")
		return
	}

	d, ok := h.discussionFromURL(ctx, w, r, db)
	if !ok {
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{"discussion": d})
}

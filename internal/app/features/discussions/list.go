// internal/app/features/discussions/list.go
package discussions

import (
	"context"
	"net/http"

	"github.com/dalemusser/commonroom/internal/app/features/shared"
	discussionstore "github.com/dalemusser/commonroom/internal/app/store/discussions"
	"github.com/dalemusser/commonroom/internal/app/system/limits"
	"github.com/dalemusser/commonroom/internal/app/system/respond"
	"github.com/dalemusser/commonroom/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

// ServeList handles GET /api/communities/{slug}/discussions.
//
//	{ "discussions": [ ... ] }   // newest first, bodies omitted
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	db, err := h.DB.Database(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list discussions: database unavailable", err, "A database error occurred.")
		return
	}

	c, err := shared.CommunityBySlug(ctx, db, h.Cache, chi.URLParam(r, "slug"))
	if err != nil {
		h.ErrLog.LogStoreError(w, r, "list discussions: community lookup failed", err, "community not found")
		return
	}

	list, err := discussionstore.New(db).ListByCommunity(ctx, c.ID, limits.MaxList)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list discussions failed", err, "A database error occurred.")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{"discussions": list})
}

// internal/app/features/communities/list.go
package communities

import (
	"context"
	"net/http"

	communitystore "github.com/dalemusser/commonroom/internal/app/store/communities"
	"github.com/dalemusser/commonroom/internal/app/system/limits"
	"github.com/dalemusser/commonroom/internal/app/system/normalize"
	"github.com/dalemusser/commonroom/internal/app/system/respond"
	"github.com/dalemusser/commonroom/internal/app/system/timeouts"
)

// ServeList handles GET /api/communities[?topic=...].
//
//	{ "communities": [ ... ] }
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	db, err := h.DB.Database(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list communities: database unavailable", err, "A database error occurred.")
		return
	}

	list, err := communitystore.New(db).List(ctx, communitystore.ListFilter{
		Topic: normalize.QueryParam(r.URL.Query().Get("topic")),
		Limit: limits.MaxList,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list communities failed", err, "A database error occurred.")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{"communities": list})
}

// internal/app/features/members/join.go
package members

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/commonroom/internal/app/features/shared"
	activitystore "github.com/dalemusser/commonroom/internal/app/store/activity"
	communitystore "github.com/dalemusser/commonroom/internal/app/store/communities"
	memberstore "github.com/dalemusser/commonroom/internal/app/store/members"
	"github.com/dalemusser/commonroom/internal/app/system/auth"
	"github.com/dalemusser/commonroom/internal/app/system/respond"
	"github.com/dalemusser/commonroom/internal/app/system/timeouts"
	"github.com/dalemusser/commonroom/internal/app/system/txn"
	"github.com/dalemusser/commonroom/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// HandleJoin handles POST /api/communities/{slug}/join.
//
// Adds the caller as a member and bumps member_count. Joining twice is 400.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	su, userID, ok := auth.CurrentUserID(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r, "join: no user", "unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	db, err := h.DB.Database(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "join: database unavailable", err, "A database error occurred.")
		return
	}

	c, err := shared.CommunityBySlug(ctx, db, h.Cache, chi.URLParam(r, "slug"))
	if err != nil {
		h.ErrLog.LogStoreError(w, r, "join: community lookup failed", err, "community not found")
		return
	}

	var m models.Member
	err = txn.Run(ctx, db, h.Log, func(ctx context.Context) error {
		var err error
		m, err = memberstore.New(db).Add(ctx, models.Member{
			CommunityID: c.ID,
			UserID:      userID,
			Username:    su.Username,
			Role:        models.RoleMember,
		})
		if err != nil {
			return err
		}
		if err := communitystore.New(db).IncMemberCount(ctx, c.ID, 1); err != nil {
			return err
		}
		return activitystore.New(db).Record(ctx, userID, models.ActivityCommunityJoined, map[string]any{
			"community_id":   c.ID,
			"community_slug": c.Slug,
		})
	})
	switch {
	case errors.Is(err, memberstore.ErrDuplicateMember):
		h.ErrLog.LogBadRequest(w, r, "join: already a member", err, err.Error())
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "join failed", err, "Unable to join community.")
		return
	}
	shared.InvalidateCommunity(ctx, h.Cache, c.Slug)

	h.Log.Info("community joined", zap.String("community_id", c.ID.Hex()), zap.String("user_id", su.ID))
	respond.JSON(w, http.StatusOK, map[string]any{"member": m})
}

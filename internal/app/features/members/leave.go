// internal/app/features/members/leave.go
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
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var errNotMember = errors.New("you are not a member of this community")

// HandleLeave handles POST /api/communities/{slug}/leave.
//
// Owners cannot leave; the community would be left without one.
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	su, userID, ok := auth.CurrentUserID(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r, "leave: no user", "unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	db, err := h.DB.Database(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "leave: database unavailable", err, "A database error occurred.")
		return
	}

	c, err := shared.CommunityBySlug(ctx, db, h.Cache, chi.URLParam(r, "slug"))
	if err != nil {
		h.ErrLog.LogStoreError(w, r, "leave: community lookup failed", err, "community not found")
		return
	}

	members := memberstore.New(db)
	m, err := members.Get(ctx, c.ID, userID)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		h.ErrLog.LogBadRequest(w, r, "leave: not a member", nil, errNotMember.Error())
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "leave: member lookup failed", err, "A database error occurred.")
		return
	case m.Role == models.RoleOwner:
		h.ErrLog.LogForbidden(w, r, "leave: owner tried to leave", "owners cannot leave their community")
		return
	}

	err = txn.Run(ctx, db, h.Log, func(ctx context.Context) error {
		n, err := members.Remove(ctx, c.ID, userID)
		if err != nil {
			return err
		}
		if n == 0 {
			return errNotMember
		}
		if err := communitystore.New(db).IncMemberCount(ctx, c.ID, -1); err != nil {
			return err
		}
		return activitystore.New(db).Record(ctx, userID, models.ActivityCommunityLeft, map[string]any{
			"community_id":   c.ID,
			"community_slug": c.Slug,
		})
	})
	switch {
	case errors.Is(err, errNotMember):
		h.ErrLog.LogBadRequest(w, r, "leave: membership vanished", nil, errNotMember.Error())
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "leave failed", err, "Unable to leave community.")
		return
	}
	shared.InvalidateCommunity(ctx, h.Cache, c.Slug)

	h.Log.Info("community left", zap.String("community_id", c.ID.Hex()), zap.String("user_id", su.ID))
	respond.OK(w)
}

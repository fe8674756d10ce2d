// internal/app/features/communities/create.go
package communities

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	activitystore "github.com/dalemusser/commonroom/internal/app/store/activity"
	communitystore "github.com/dalemusser/commonroom/internal/app/store/communities"
	memberstore "github.com/dalemusser/commonroom/internal/app/store/members"
	"github.com/dalemusser/commonroom/internal/app/system/auth"
	"github.com/dalemusser/commonroom/internal/app/system/formutil"
	"github.com/dalemusser/commonroom/internal/app/system/htmlsanitize"
	"github.com/dalemusser/commonroom/internal/app/system/inputval"
	"github.com/dalemusser/commonroom/internal/app/system/limits"
	"github.com/dalemusser/commonroom/internal/app/system/normalize"
	"github.com/dalemusser/commonroom/internal/app/system/respond"
	"github.com/dalemusser/commonroom/internal/app/system/slug"
	"github.com/dalemusser/commonroom/internal/app/system/timeouts"
	"github.com/dalemusser/commonroom/internal/app/system/txn"
	"github.com/dalemusser/commonroom/internal/domain/models"
	"go.uber.org/zap"
)

type createRequest struct {
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	Topics      []string `json:"topics"`
}

func (req createRequest) validate() string {
	switch {
	case normalize.Name(req.Name) == "":
		return "name is required"
	case !inputval.MaxLen(req.Name, limits.MaxName):
		return fmt.Sprintf("name must be at most %d characters", limits.MaxName)
	case !inputval.MaxLen(req.Description, limits.MaxDescription):
		return fmt.Sprintf("description must be at most %d characters", limits.MaxDescription)
	case len(req.Topics) > limits.MaxTopics:
		return fmt.Sprintf("at most %d topics are allowed", limits.MaxTopics)
	}
	return ""
}

// HandleCreate handles POST /api/communities.
//
// The caller becomes the owner and first member. The slug is taken from the
// request when given, otherwise derived from the name.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	su, userID, ok := auth.CurrentUserID(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r, "create community: no user", "unauthorized")
		return
	}

	var req createRequest
	if err := formutil.DecodeJSON(w, r, &req, limits.MaxJSONBody); err != nil {
		h.ErrLog.LogDecodeError(w, r, err)
		return
	}
	if msg := req.validate(); msg != "" {
		h.ErrLog.LogBadRequest(w, r, "create community: invalid input", nil, msg)
		return
	}
	s, err := slug.FromInput(req.Slug, req.Name)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, slug.ErrEmpty) {
			msg = "name must contain at least one letter or digit"
		}
		h.ErrLog.LogBadRequest(w, r, "create community: bad slug", err, msg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	db, err := h.DB.Database(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create community: database unavailable", err, "A database error occurred.")
		return
	}

	var created models.Community
	err = txn.Run(ctx, db, h.Log, func(ctx context.Context) error {
		var err error
		created, err = communitystore.New(db).Create(ctx, models.Community{
			Name:        req.Name,
			Slug:        s,
			Description: htmlsanitize.Sanitize(req.Description),
			Topics:      req.Topics,
			OwnerID:     userID,
			MemberCount: 1,
		})
		if err != nil {
			return err
		}
		if _, err := memberstore.New(db).Add(ctx, models.Member{
			CommunityID: created.ID,
			UserID:      userID,
			Username:    su.Username,
			Role:        models.RoleOwner,
		}); err != nil {
			return err
		}
		return activitystore.New(db).Record(ctx, userID, models.ActivityCommunityCreated, map[string]any{
			"community_id":   created.ID,
			"community_slug": created.Slug,
		})
	})
	switch {
	case communitystore.IsValidationErr(err):
		h.ErrLog.LogBadRequest(w, r, "create community: rejected", err, err.Error())
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "create community failed", err, "Unable to create community.")
		return
	}

	h.Log.Info("community created",
		zap.String("community_id", created.ID.Hex()),
		zap.String("slug", created.Slug),
		zap.String("owner_id", su.ID))

	respond.JSON(w, http.StatusOK, map[string]any{"community": created})
}

// internal/app/features/profile/update.go
package profile

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	activitystore "github.com/dalemusser/commonroom/internal/app/store/activity"
	profilestore "github.com/dalemusser/commonroom/internal/app/store/profiles"
	userstore "github.com/dalemusser/commonroom/internal/app/store/users"
	"github.com/dalemusser/commonroom/internal/app/system/auth"
	"github.com/dalemusser/commonroom/internal/app/system/formutil"
	"github.com/dalemusser/commonroom/internal/app/system/htmlsanitize"
	"github.com/dalemusser/commonroom/internal/app/system/inputval"
	"github.com/dalemusser/commonroom/internal/app/system/limits"
	"github.com/dalemusser/commonroom/internal/app/system/normalize"
	"github.com/dalemusser/commonroom/internal/app/system/respond"
	"github.com/dalemusser/commonroom/internal/app/system/timeouts"
	"github.com/dalemusser/commonroom/internal/app/system/txn"
	"github.com/dalemusser/commonroom/internal/domain/models"
	"go.uber.org/zap"
)

// updateRequest mirrors profilestore.Update; absent fields are untouched
// and "" clears an optional field.
type updateRequest struct {
	Name     *string `json:"name"`
	Bio      *string `json:"bio"`
	Avatar   *string `json:"avatar"`
	Location *string `json:"location"`
	Website  *string `json:"website"`
}

// toUpdate cleans the request and returns a client-facing message when a
// field is invalid.
func (req updateRequest) toUpdate() (profilestore.Update, string) {
	var upd profilestore.Update

	if req.Name != nil {
		name := normalize.Name(*req.Name)
		switch {
		case name == "":
			return upd, "name cannot be empty"
		case !inputval.MaxLen(name, limits.MaxName):
			return upd, fmt.Sprintf("name must be at most %d characters", limits.MaxName)
		}
		upd.Name = &name
	}
	if req.Bio != nil {
		bio := htmlsanitize.StripTags(*req.Bio)
		if !inputval.MaxLen(bio, limits.MaxBio) {
			return upd, fmt.Sprintf("bio must be at most %d characters", limits.MaxBio)
		}
		upd.Bio = &bio
	}
	if req.Location != nil {
		loc := htmlsanitize.StripTags(*req.Location)
		if !inputval.MaxLen(loc, limits.MaxName) {
			return upd, fmt.Sprintf("location must be at most %d characters", limits.MaxName)
		}
		upd.Location = &loc
	}
	if req.Website != nil {
		site := strings.TrimSpace(*req.Website)
		if site != "" && !inputval.IsValidHTTPURL(site) {
			return upd, "website must be an http or https URL"
		}
		upd.Website = &site
	}
	if req.Avatar != nil {
		avatar := strings.TrimSpace(*req.Avatar)
		if avatar != "" && !inputval.IsValidHTTPURL(avatar) {
			return upd, "avatar must be an http or https URL"
		}
		upd.Avatar = &avatar
	}
	if upd.Empty() {
		return upd, "no fields to update"
	}
	return upd, ""
}

// HandleUpdate handles PATCH /api/profile.
//
// After the write a new token is issued so the name and bio claims match
// the stored profile.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	su, userID, ok := auth.CurrentUserID(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r, "update profile: no user", "unauthorized")
		return
	}

	var req updateRequest
	if err := formutil.DecodeJSON(w, r, &req, limits.MaxJSONBody); err != nil {
		h.ErrLog.LogDecodeError(w, r, err)
		return
	}
	upd, msg := req.toUpdate()
	if msg != "" {
		h.ErrLog.LogBadRequest(w, r, "update profile: invalid input", nil, msg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	db, err := h.DB.Database(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "update profile: database unavailable", err, "A database error occurred.")
		return
	}

	var p *models.Profile
	err = txn.Run(ctx, db, h.Log, func(ctx context.Context) error {
		var err error
		p, err = profilestore.New(db).Update(ctx, userID, upd)
		if err != nil {
			return err
		}
		if upd.Avatar != nil {
			if err := userstore.New(db).SetAvatar(ctx, userID, *upd.Avatar); err != nil {
				return err
			}
		}
		return activitystore.New(db).Record(ctx, userID, models.ActivityProfileUpdated, nil)
	})
	if err != nil {
		h.ErrLog.LogStoreError(w, r, "update profile failed", err, "profile not found")
		return
	}
	h.Cache.Delete(ctx, h.cacheKey(p.Username))

	fresh := *su
	fresh.Name = p.Name
	fresh.Bio = p.Bio
	token, err := h.SessionMgr.Issue(fresh)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "update profile: issue token failed", err, "Unable to refresh session.")
		return
	}
	h.SessionMgr.SetCookie(w, token)

	h.Log.Info("profile updated", zap.String("user_id", su.ID))
	respond.JSON(w, http.StatusOK, map[string]any{"profile": p, "user": fresh})
}

// internal/app/features/discussions/create.go
package discussions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dalemusser/commonroom/internal/app/features/shared"
	activitystore "github.com/dalemusser/commonroom/internal/app/store/activity"
	discussionstore "github.com/dalemusser/commonroom/internal/app/store/discussions"
	memberstore "github.com/dalemusser/commonroom/internal/app/store/members"
	"github.com/dalemusser/commonroom/internal/app/system/auth"
	"github.com/dalemusser/commonroom/internal/app/system/formutil"
	"github.com/dalemusser/commonroom/internal/app/system/htmlsanitize"
	"github.com/dalemusser/commonroom/internal/app/system/inputval"
	"github.com/dalemusser/commonroom/internal/app/system/limits"
	"github.com/dalemusser/commonroom/internal/app/system/respond"
	"github.com/dalemusser/commonroom/internal/app/system/slug"
	"github.com/dalemusser/commonroom/internal/app/system/timeouts"
	"github.com/dalemusser/commonroom/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type createRequest struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
	Body  string `json:"body"`
}

func (req createRequest) validate() string {
	switch {
	case strings.TrimSpace(req.Title) == "":
		return "title is required"
	case !inputval.MaxLen(req.Title, limits.MaxTitle):
		return fmt.Sprintf("title must be at most %d characters", limits.MaxTitle)
	case strings.TrimSpace(req.Body) == "":
		return "body is required"
	}
	return ""
}

// HandleCreate handles POST /api/communities/{slug}/discussions.
//
// Only members of the community may post. Plain-text bodies are wrapped in
// paragraphs; HTML bodies are sanitized.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	su, userID, ok := auth.CurrentUserID(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r, "create discussion: no user", "unauthorized")
		return
	}

	var req createRequest
	if err := formutil.DecodeJSON(w, r, &req, limits.MaxPostBody); err != nil {
		h.ErrLog.LogDecodeError(w, r, err)
		return
	}
	if msg := req.validate(); msg != "" {
		h.ErrLog.LogBadRequest(w, r, "create discussion: invalid input", nil, msg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	db, err := h.DB.Database(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create discussion: database unavailable", err, "A database error occurred.")
		return
	}

	c, err := shared.CommunityBySlug(ctx, db, h.Cache, chi.URLParam(r, "slug"))
	if err != nil {
		h.ErrLog.LogStoreError(w, r, "create discussion: community lookup failed", err, "community not found")
		return
	}

	isMember, err := memberstore.New(db).IsMember(ctx, c.ID, userID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create discussion: member check failed", err, "A database error occurred.")
		return
	}
	if !isMember {
		h.ErrLog.LogForbidden(w, r, "create discussion: not a member", "you must be a member of this community to post")
		return
	}

	s, err := slug.FromInput(req.Slug, req.Title)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, slug.ErrEmpty) {
			msg = "title must contain at least one letter or digit"
		}
		h.ErrLog.LogBadRequest(w, r, "create discussion: bad slug", err, msg)
		return
	}

	d, err := discussionstore.New(db).Create(ctx, models.Discussion{
		CommunityID:    c.ID,
		CommunitySlug:  c.Slug,
		AuthorID:       userID,
		AuthorUsername: su.Username,
		Title:          req.Title,
		Slug:           s,
		Body:           htmlsanitize.Body(req.Body),
	})
	switch {
	case discussionstore.IsValidationErr(err):
		h.ErrLog.LogBadRequest(w, r, "create discussion: rejected", err, err.Error())
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "create discussion failed", err, "Unable to create discussion.")
		return
	}

	if err := activitystore.New(db).Record(ctx, userID, models.ActivityDiscussionCreated, map[string]any{
		"discussion_id":   d.ID,
		"community_slug":  c.Slug,
		"discussion_slug": d.Slug,
	}); err != nil {
		h.Log.Warn("create discussion: record activity failed", zap.Error(err))
	}

	h.Log.Info("discussion created",
		zap.String("discussion_id", d.ID.Hex()),
		zap.String("community_id", c.ID.Hex()),
		zap.String("author_id", su.ID))

	respond.JSON(w, http.StatusOK, map[string]any{"discussion": d})
}

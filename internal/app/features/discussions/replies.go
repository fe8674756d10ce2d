// internal/app/features/discussions/replies.go
package discussions

import (
	"context"
	"net/http"

	activitystore "github.com/dalemusser/commonroom/internal/app/store/activity"
	discussionstore "github.com/dalemusser/commonroom/internal/app/store/discussions"
	"github.com/dalemusser/commonroom/internal/app/system/auth"
	"github.com/dalemusser/commonroom/internal/app/system/formutil"
	"github.com/dalemusser/commonroom/internal/app/system/htmlsanitize"
	"github.com/dalemusser/commonroom/internal/app/system/limits"
	"github.com/dalemusser/commonroom/internal/app/system/respond"
	"github.com/dalemusser/commonroom/internal/app/system/timeouts"
	"github.com/dalemusser/commonroom/internal/app/system/txn"
	"github.com/dalemusser/commonroom/internal/domain/models"
	"go.uber.org/zap"
)

// ServeReplies handles GET /api/discussions/{id}/replies.
//
//	{ "replies": [ ... ] }   // oldest first
func (h *Handler) ServeReplies(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	db, err := h.DB.Database(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list replies: database unavailable", err, "A database error occurred.")
		return
	}

	d, ok := h.discussionFromURL(ctx, w, r, db)
	if !ok {
		return
	}

	list, err := discussionstore.New(db).ListReplies(ctx, d.ID, limits.MaxList)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list replies failed", err, "A database error occurred.")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{"replies": list})
}

type replyRequest struct {
	Body string `json:"body"`
}

// HandleReply handles POST /api/discussions/{id}/replies.
// The reply and the reply_count bump are written together.
func (h *Handler) HandleReply(w http.ResponseWriter, r *http.Request) {
	su, userID, ok := auth.CurrentUserID(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r, "reply: no user", "unauthorized")
		return
	}

	var req replyRequest
	if err := formutil.DecodeJSON(w, r, &req, limits.MaxPostBody); err != nil {
		h.ErrLog.LogDecodeError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	db, err := h.DB.Database(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "reply: database unavailable", err, "A database error occurred.")
		return
	}

	d, ok := h.discussionFromURL(ctx, w, r, db)
	if !ok {
		return
	}

	store := discussionstore.New(db)
	var reply models.Reply
	err = txn.Run(ctx, db, h.Log, func(ctx context.Context) error {
		var err error
		reply, err = store.CreateReply(ctx, models.Reply{
			DiscussionID:   d.ID,
			AuthorID:       userID,
			AuthorUsername: su.Username,
			Body:           htmlsanitize.Body(req.Body),
		})
		if err != nil {
			return err
		}
		if err := store.IncReplyCount(ctx, d.ID, 1); err != nil {
			return err
		}
		return activitystore.New(db).Record(ctx, userID, models.ActivityReplyCreated, map[string]any{
			"discussion_id": d.ID,
			"reply_id":      reply.ID,
		})
	})
	switch {
	case discussionstore.IsValidationErr(err):
		h.ErrLog.LogBadRequest(w, r, "reply: rejected", err, err.Error())
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "reply failed", err, "Unable to post reply.")
		return
	}

	h.Log.Info("reply created",
		zap.String("discussion_id", d.ID.Hex()),
		zap.String("reply_id", reply.ID.Hex()),
		zap.String("author_id", su.ID))

	respond.JSON(w, http.StatusOK, map[string]any{"reply": reply})
}

// internal/app/features/discussions/handler.go
package discussions

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/commonroom/internal/app/features/errors"
	discussionstore "github.com/dalemusser/commonroom/internal/app/store/discussions"
	"github.com/dalemusser/commonroom/internal/app/system/cache"
	"github.com/dalemusser/commonroom/internal/app/system/dbconn"
	"github.com/dalemusser/commonroom/internal/app/system/inputval"
	"github.com/dalemusser/commonroom/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves discussions and their replies.
type Handler struct {
	DB     dbconn.Source
	Cache  *cache.Cache
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

func NewHandler(db dbconn.Source, c *cache.Cache, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Cache:  c,
		Log:    logger,
		ErrLog: errLog,
	}
}

// discussionFromURL loads the discussion named by the {id} URL param and
// writes the error response itself. ok is false when a response was sent.
func (h *Handler) discussionFromURL(ctx context.Context, w http.ResponseWriter, r *http.Request, db *mongo.Database) (*models.Discussion, bool) {
	id, err := inputval.ParseObjectID(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "discussion: malformed id", err, "invalid discussion id")
		return nil, false
	}
	d, err := discussionstore.New(db).GetByID(ctx, id)
	if err != nil {
		h.ErrLog.LogStoreError(w, r, "discussion: lookup failed", err, "discussion not found")
		return nil, false
	}
	return d, true
}

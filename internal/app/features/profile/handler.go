// internal/app/features/profile/handler.go
package profile

import (
	uierrors "github.com/dalemusser/commonroom/internal/app/features/errors"
	"github.com/dalemusser/commonroom/internal/app/system/auth"
	"github.com/dalemusser/commonroom/internal/app/system/cache"
	"github.com/dalemusser/commonroom/internal/app/system/dbconn"
	"github.com/dalemusser/commonroom/internal/app/system/normalize"
	"go.uber.org/zap"
)

// Handler owns the public and self-service profile endpoints.
type Handler struct {
	DB         dbconn.Source
	Cache      *cache.Cache
	SessionMgr *auth.SessionManager
	Log        *zap.Logger
	ErrLog     *uierrors.ErrorLogger
}

// NewHandler constructs a profile Handler.
func NewHandler(db dbconn.Source, c *cache.Cache, sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Cache:      c,
		SessionMgr: sessionMgr,
		Log:        logger,
		ErrLog:     errLog,
	}
}

// cacheKey is the read-through key for the public profile of username.
func (h *Handler) cacheKey(username string) string {
	return h.Cache.Key("profile", normalize.Username(username))
}

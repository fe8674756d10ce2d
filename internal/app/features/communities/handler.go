// internal/app/features/communities/handler.go
package communities

import (
	uierrors "github.com/dalemusser/commonroom/internal/app/features/errors"
	"github.com/dalemusser/commonroom/internal/app/system/cache"
	"github.com/dalemusser/commonroom/internal/app/system/dbconn"
	"go.uber.org/zap"
)

// Handler serves community listing, lookup and creation.
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

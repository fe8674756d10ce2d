// internal/app/features/login/handler.go
package login

import (
	uierrors "github.com/dalemusser/commonroom/internal/app/features/errors"
	"github.com/dalemusser/commonroom/internal/app/system/auth"
	"github.com/dalemusser/commonroom/internal/app/system/dbconn"
	"github.com/dalemusser/commonroom/internal/app/system/ratelimit"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Handler serves registration and password sign-in.
type Handler struct {
	DB         dbconn.Source
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	Limiter    *ratelimit.AuthLimiter

	// HashCost is the bcrypt cost for new passwords.
	HashCost int
}

func NewHandler(db dbconn.Source, sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger, limiter *ratelimit.AuthLimiter, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Log:        logger,
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		Limiter:    limiter,
		HashCost:   bcrypt.DefaultCost,
	}
}

type userResponse struct {
	User auth.SessionUser `json:"user"`
}

// signIn issues the token cookie for su.
func (h *Handler) signIn(su auth.SessionUser) (string, error) {
	return h.SessionMgr.Issue(su)
}

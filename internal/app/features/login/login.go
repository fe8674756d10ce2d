// internal/app/features/login/login.go
package login

import (
	"context"
	"errors"
	"net/http"

	profilestore "github.com/dalemusser/commonroom/internal/app/store/profiles"
	userstore "github.com/dalemusser/commonroom/internal/app/store/users"
	"github.com/dalemusser/commonroom/internal/app/system/auth"
	"github.com/dalemusser/commonroom/internal/app/system/formutil"
	"github.com/dalemusser/commonroom/internal/app/system/limits"
	"github.com/dalemusser/commonroom/internal/app/system/normalize"
	"github.com/dalemusser/commonroom/internal/app/system/ratelimit"
	"github.com/dalemusser/commonroom/internal/app/system/respond"
	"github.com/dalemusser/commonroom/internal/app/system/timeouts"
	"github.com/dalemusser/commonroom/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const msgBadCredentials = "invalid email or password"

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin handles POST /api/auth/login.
//
// Unknown email and wrong password both answer 401 with the same message.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := formutil.DecodeJSON(w, r, &req, limits.MaxJSONBody); err != nil {
		h.ErrLog.LogDecodeError(w, r, err)
		return
	}
	email := normalize.Email(req.Email)
	if email == "" || req.Password == "" {
		h.ErrLog.LogBadRequest(w, r, "login: missing credentials", nil, "email and password are required")
		return
	}

	if ok, reason, retry := h.Limiter.Check(r, email); !ok {
		w.Header().Set("Retry-After", ratelimit.RetryAfterHeader(retry))
		h.ErrLog.LogTooManyRequests(w, r, "login: rate limited", reason)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	db, err := h.DB.Database(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "login: database unavailable", err, "A database error occurred.")
		return
	}

	user, err := userstore.New(db).GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.LogUnauthorized(w, r, "login: unknown email", msgBadCredentials)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "login: user lookup failed", err, "A database error occurred.")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		h.ErrLog.LogUnauthorized(w, r, "login: wrong password", msgBadCredentials)
		return
	}

	var profile *models.Profile
	p, err := profilestore.New(db).GetByUserID(ctx, user.ID)
	switch {
	case err == nil:
		profile = p
	case errors.Is(err, mongo.ErrNoDocuments):
		h.Log.Warn("login: user has no profile", zap.String("user_id", user.ID.Hex()))
	default:
		h.ErrLog.LogServerError(w, r, "login: profile lookup failed", err, "A database error occurred.")
		return
	}

	su := auth.Identity(*user, profile)
	token, err := h.signIn(su)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "login: issue token failed", err, "Unable to sign in.")
		return
	}
	h.SessionMgr.SetCookie(w, token)
	h.Limiter.ResetEmail(email)

	h.Log.Info("user signed in", zap.String("user_id", su.ID))
	respond.JSON(w, http.StatusOK, userResponse{User: su})
}

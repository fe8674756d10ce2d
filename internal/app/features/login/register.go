// internal/app/features/login/register.go
package login

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	activitystore "github.com/dalemusser/commonroom/internal/app/store/activity"
	profilestore "github.com/dalemusser/commonroom/internal/app/store/profiles"
	userstore "github.com/dalemusser/commonroom/internal/app/store/users"
	"github.com/dalemusser/commonroom/internal/app/system/auth"
	"github.com/dalemusser/commonroom/internal/app/system/formutil"
	"github.com/dalemusser/commonroom/internal/app/system/inputval"
	"github.com/dalemusser/commonroom/internal/app/system/limits"
	"github.com/dalemusser/commonroom/internal/app/system/normalize"
	"github.com/dalemusser/commonroom/internal/app/system/ratelimit"
	"github.com/dalemusser/commonroom/internal/app/system/respond"
	"github.com/dalemusser/commonroom/internal/app/system/timeouts"
	"github.com/dalemusser/commonroom/internal/app/system/txn"
	"github.com/dalemusser/commonroom/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (req registerRequest) validate() string {
	switch {
	case !inputval.IsValidEmail(req.Email):
		return "a valid email is required"
	case !inputval.IsValidUsername(req.Username):
		return "username must be 3-30 letters, digits or underscores"
	case !inputval.IsValidPassword(req.Password):
		return fmt.Sprintf("password must be at least %d characters", inputval.MinPasswordLen)
	case !inputval.MaxLen(req.Name, limits.MaxName):
		return fmt.Sprintf("name must be at most %d characters", limits.MaxName)
	}
	return ""
}

// HandleRegister handles POST /api/auth/register.
//
// Creates the user and its profile together, signs the new user in and
// responds {"user": {...}}.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := formutil.DecodeJSON(w, r, &req, limits.MaxJSONBody); err != nil {
		h.ErrLog.LogDecodeError(w, r, err)
		return
	}
	if msg := req.validate(); msg != "" {
		h.ErrLog.LogBadRequest(w, r, "register: invalid input", nil, msg)
		return
	}

	if ok, reason, retry := h.Limiter.Check(r, req.Email); !ok {
		w.Header().Set("Retry-After", ratelimit.RetryAfterHeader(retry))
		h.ErrLog.LogTooManyRequests(w, r, "register: rate limited", reason)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.HashCost)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "register: hash password failed", err, "Unable to create account.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	db, err := h.DB.Database(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "register: database unavailable", err, "A database error occurred.")
		return
	}

	name := normalize.Name(req.Name)
	if name == "" {
		name = normalize.Name(req.Username)
	}

	var (
		user    models.User
		profile models.Profile
	)
	err = txn.Run(ctx, db, h.Log, func(ctx context.Context) error {
		var err error
		user, err = userstore.New(db).Create(ctx, models.User{
			Email:        req.Email,
			Username:     req.Username,
			PasswordHash: string(hash),
		})
		if err != nil {
			return err
		}
		profile, err = profilestore.New(db).Create(ctx, models.Profile{
			UserID:   user.ID,
			Username: user.Username,
			Name:     name,
		})
		if err != nil {
			return err
		}
		return activitystore.New(db).Record(ctx, user.ID, models.ActivitySignedUp, nil)
	})
	switch {
	case errors.Is(err, profilestore.ErrDuplicateUsername):
		h.ErrLog.LogBadRequest(w, r, "register: duplicate profile", err, userstore.ErrDuplicateUsername.Error())
		return
	case userstore.IsValidationErr(err):
		h.ErrLog.LogBadRequest(w, r, "register: rejected", err, err.Error())
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "register: create user failed", err, "Unable to create account.")
		return
	}

	su := auth.Identity(user, &profile)
	token, err := h.signIn(su)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "register: issue token failed", err, "Unable to sign in.")
		return
	}
	h.SessionMgr.SetCookie(w, token)

	h.Log.Info("user registered",
		zap.String("user_id", su.ID),
		zap.String("username", su.Username))

	respond.JSON(w, http.StatusOK, userResponse{User: su})
}

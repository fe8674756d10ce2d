// internal/app/features/activity/handler.go
package activity

import (
	"context"
	"net/http"
	"strconv"

	uierrors "github.com/dalemusser/commonroom/internal/app/features/errors"
	activitystore "github.com/dalemusser/commonroom/internal/app/store/activity"
	"github.com/dalemusser/commonroom/internal/app/system/auth"
	"github.com/dalemusser/commonroom/internal/app/system/dbconn"
	"github.com/dalemusser/commonroom/internal/app/system/respond"
	"github.com/dalemusser/commonroom/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DefaultLimit is how many events GET /api/activity returns when the
// caller does not ask for fewer.
const DefaultLimit = 50

// Handler serves the signed-in user's activity feed.
type Handler struct {
	DB     dbconn.Source
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

func NewHandler(db dbconn.Source, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Log:    logger,
		ErrLog: errLog,
	}
}

// ServeRecent handles GET /api/activity[?limit=n].
//
//	{ "activity": [ ... ] }   // newest first, at most DefaultLimit
func (h *Handler) ServeRecent(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := auth.CurrentUserID(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r, "activity: no user", "unauthorized")
		return
	}

	limit := int64(DefaultLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 {
			h.ErrLog.LogBadRequest(w, r, "activity: bad limit", err, "limit must be a positive integer")
			return
		}
		if n < limit {
			limit = n
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	db, err := h.DB.Database(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "activity: database unavailable", err, "A database error occurred.")
		return
	}

	events, err := activitystore.New(db).Recent(ctx, userID, limit)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "activity: query failed", err, "A database error occurred.")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{"activity": events})
}

// Routes serves the activity feed. All routes require sign-in.
// Typically: r.Mount("/api/activity", activity.Routes(h, sm))
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeRecent)
	return r
}

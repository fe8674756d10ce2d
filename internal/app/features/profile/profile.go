// internal/app/features/profile/profile.go
package profile

import (
	"context"
	"net/http"

	profilestore "github.com/dalemusser/commonroom/internal/app/store/profiles"
	"github.com/dalemusser/commonroom/internal/app/system/auth"
	"github.com/dalemusser/commonroom/internal/app/system/cache"
	"github.com/dalemusser/commonroom/internal/app/system/respond"
	"github.com/dalemusser/commonroom/internal/app/system/timeouts"
	"github.com/dalemusser/commonroom/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// ServePublic handles GET /api/profiles/{username}.
// The username is matched case-insensitively.
func (h *Handler) ServePublic(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	db, err := h.DB.Database(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "profile: database unavailable", err, "A database error occurred.")
		return
	}

	username := chi.URLParam(r, "username")
	p, err := cache.Fetch(ctx, h.Cache, h.cacheKey(username), func(ctx context.Context) (models.Profile, error) {
		p, err := profilestore.New(db).GetByUsername(ctx, username)
		if err != nil {
			return models.Profile{}, err
		}
		return *p, nil
	})
	if err != nil {
		h.ErrLog.LogStoreError(w, r, "profile: lookup failed", err, "profile not found")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{"profile": p})
}

// ServeOwn handles GET /api/profile for the signed-in user.
func (h *Handler) ServeOwn(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := auth.CurrentUserID(r)
	if !ok {
		h.ErrLog.LogUnauthorized(w, r, "own profile: no user", "unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	db, err := h.DB.Database(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "own profile: database unavailable", err, "A database error occurred.")
		return
	}

	p, err := profilestore.New(db).GetByUserID(ctx, userID)
	if err != nil {
		h.ErrLog.LogStoreError(w, r, "own profile: lookup failed", err, "profile not found")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{"profile": p})
}

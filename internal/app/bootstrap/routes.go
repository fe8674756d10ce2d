// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	activityfeature "github.com/dalemusser/commonroom/internal/app/features/activity"
	communitiesfeature "github.com/dalemusser/commonroom/internal/app/features/communities"
	discussionsfeature "github.com/dalemusser/commonroom/internal/app/features/discussions"
	errorsfeature "github.com/dalemusser/commonroom/internal/app/features/errors"
	healthfeature "github.com/dalemusser/commonroom/internal/app/features/health"
	loginfeature "github.com/dalemusser/commonroom/internal/app/features/login"
	logoutfeature "github.com/dalemusser/commonroom/internal/app/features/logout"
	membersfeature "github.com/dalemusser/commonroom/internal/app/features/members"
	profilefeature "github.com/dalemusser/commonroom/internal/app/features/profile"
	userinfofeature "github.com/dalemusser/commonroom/internal/app/features/userinfo"
	"github.com/dalemusser/commonroom/internal/app/system/auth"
	"github.com/dalemusser/commonroom/internal/app/system/cache"
	"github.com/dalemusser/commonroom/internal/app/system/dbconn"
	"github.com/dalemusser/commonroom/internal/app/system/ratelimit"
	"github.com/dalemusser/commonroom/internal/app/system/requestlog"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// Cookies are Secure outside dev so browsers send them on cross-site
// requests from the client at app_url.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.TokenSecret, appCfg.TokenCookie, appCfg.CookieDomain, appCfg.TokenTTL, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	if authLimiter == nil {
		authLimiter = ratelimit.NewAuthLimiter()
	}

	var src dbconn.Source = deps.Mongo
	c := cache.New(deps.Redis, "commonroom", appCfg.CacheTTL, logger)
	return newRouter(src, c, sessionMgr, authLimiter, logger), nil
}

// newRouter mounts every feature. Split out so tests can build the full
// router against a fixed database.
func newRouter(src dbconn.Source, c *cache.Cache, sessionMgr *auth.SessionManager, limiter *ratelimit.AuthLimiter, logger *zap.Logger) http.Handler {
	errLog := errorsfeature.NewErrorLogger(logger)
	fallback := errorsfeature.NewHandler()

	r := chi.NewRouter()
	r.Use(requestlog.Middleware(logger))

	// Global auth middleware: loads SessionUser into context if a valid
	// token is present. Routes that require one add RequireSignedIn.
	r.Use(sessionMgr.LoadSessionUser)

	r.NotFound(fallback.NotFound)
	r.MethodNotAllowed(fallback.MethodNotAllowed)

	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(src, logger)))

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(ar chi.Router) {
			loginfeature.MountRoutes(ar, loginfeature.NewHandler(src, sessionMgr, errLog, limiter, logger))
			logoutfeature.MountRoutes(ar, logoutfeature.NewHandler(sessionMgr, logger))
			userinfofeature.MountRoutes(ar, userinfofeature.NewHandler(), sessionMgr)
		})

		discussionsHandler := discussionsfeature.NewHandler(src, c, errLog, logger)

		api.Route("/communities", func(cr chi.Router) {
			communitiesfeature.MountRoutes(cr, communitiesfeature.NewHandler(src, c, errLog, logger), sessionMgr)
			membersfeature.MountRoutes(cr, membersfeature.NewHandler(src, c, errLog, logger), sessionMgr)
			discussionsfeature.MountCommunityRoutes(cr, discussionsHandler, sessionMgr)
		})

		api.Mount("/discussions", discussionsfeature.Routes(discussionsHandler, sessionMgr))
		api.Mount("/activity", activityfeature.Routes(activityfeature.NewHandler(src, errLog, logger), sessionMgr))

		profilefeature.MountRoutes(api, profilefeature.NewHandler(src, c, sessionMgr, errLog, logger), sessionMgr)
	})

	return r
}

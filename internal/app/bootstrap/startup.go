// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/commonroom/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// authLimiter guards register and login. Startup creates it, BuildHandler
// hands it to the login feature and Shutdown stops its sweeper.
var authLimiter *ratelimit.AuthLimiter

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	proxies, err := ratelimit.ParseTrustedProxies(appCfg.TrustedProxies)
	if err != nil {
		return err
	}
	authLimiter = ratelimit.NewAuthLimiter()
	authLimiter.TrustProxies(proxies)

	logger.Info("commonroom starting",
		zap.String("env", coreCfg.Env),
		zap.String("app_url", appCfg.AppURL),
		zap.String("database", appCfg.MongoDatabase),
		zap.Bool("cache", deps.Redis != nil),
		zap.Int("trusted_proxies", len(proxies)),
		zap.Duration("token_ttl", appCfg.TokenTTL),
	)
	return nil
}

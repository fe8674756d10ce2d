// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"
	"errors"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown cleanly tears down DB connections and other resources.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	authLimiter.Stop()

	var errs []error
	if deps.Redis != nil {
		logger.Info("closing redis client")
		if err := deps.Redis.Close(); err != nil {
			logger.Error("redis close failed", zap.Error(err))
			errs = append(errs, err)
		}
	}
	if deps.Mongo != nil {
		logger.Info("disconnecting MongoDB client")
		if err := deps.Mongo.Close(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

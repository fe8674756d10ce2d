// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/commonroom/internal/app/system/cache"
	"github.com/dalemusser/commonroom/internal/app/system/dbconn"
	"github.com/dalemusser/commonroom/internal/app/system/indexes"
	"github.com/dalemusser/commonroom/internal/app/system/timeouts"
	"github.com/dalemusser/commonroom/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// ConnectDB builds the backend clients.
//
// The Mongo client is dialed lazily by dbconn on first use; EnsureSchema is
// normally that first use. Redis is optional: an unreachable Redis is
// logged and the app runs uncached.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	mongoCache := dbconn.New(appCfg.MongoURI, appCfg.MongoDatabase, dbconn.Options{
		MaxPoolSize:    appCfg.MongoMaxPoolSize,
		MinPoolSize:    appCfg.MongoMinPoolSize,
		ConnectTimeout: timeouts.Medium(),
	}, logger)

	deps := DBDeps{Mongo: mongoCache}

	if appCfg.RedisAddr == "" {
		logger.Info("redis_addr not set; cache disabled")
		return deps, nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	rdb, err := cache.Dial(pingCtx, appCfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable; cache disabled", zap.String("addr", appCfg.RedisAddr), zap.Error(err))
		return deps, nil
	}
	logger.Info("connected to redis", zap.String("addr", appCfg.RedisAddr))
	deps.Redis = rdb
	return deps, nil
}

// EnsureSchema applies collection validators and indexes. Both are
// idempotent, so this runs on every start.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	db, err := deps.Mongo.Database(ctx)
	if err != nil {
		return fmt.Errorf("connect for schema setup: %w", err)
	}
	if err := validators.EnsureAll(ctx, db); err != nil {
		return fmt.Errorf("ensure validators: %w", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	logger.Info("schema ready", zap.String("database", db.Name()))
	return nil
}

// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/commonroom/internal/app/system/dbconn"
	"github.com/redis/go-redis/v9"
)

// DBDeps holds database/back-end dependencies for the app.
//
// Mongo is the lazily dialed, process-wide client. Redis is nil when no
// redis_addr is configured.
type DBDeps struct {
	Mongo *dbconn.Cache
	Redis *redis.Client
}

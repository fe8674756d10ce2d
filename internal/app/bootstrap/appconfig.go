// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig covers ports, TLS, log level and other framework
// settings. Everything below is CommonRoom's own.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (required)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Bearer token configuration
	TokenSecret  string        // HMAC key for signing tokens (required)
	TokenCookie  string        // Cookie name the token is also carried in
	TokenTTL     time.Duration // Lifetime of an issued token
	CookieDomain string        // Cookie domain (blank means current host)

	// Public URL of the client application (required, absolute)
	AppURL string

	// Comma-separated CIDRs of reverse proxies whose X-Forwarded-For is
	// believed when rate limiting. Blank trusts only the socket peer.
	TrustedProxies string

	// Redis read-through cache. Empty RedisAddr disables caching.
	RedisAddr string
	CacheTTL  time.Duration
}

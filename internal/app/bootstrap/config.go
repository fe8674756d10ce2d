// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/commonroom/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for CommonRoom.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, token_secret, etc.
//   - Environment variables: COMMONROOM_MONGO_URI, COMMONROOM_TOKEN_SECRET, etc.
//   - Command-line flags: --mongo_uri, --token_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "", Desc: "MongoDB connection URI (required)"},
	{Name: "mongo_database", Default: "commonroom", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size (default: 5)"},

	// Bearer tokens
	{Name: "token_secret", Default: "", Desc: "HMAC key used to sign bearer tokens (required)"},
	{Name: "token_cookie", Default: "token", Desc: "Cookie name carrying the bearer token"},
	{Name: "token_ttl", Default: "168h", Desc: "Token lifetime (e.g., 168h, 24h)"},
	{Name: "cookie_domain", Default: "", Desc: "Cookie domain (blank means current host)"},

	{Name: "app_url", Default: "", Desc: "Public URL of the client application (required)"},
	{Name: "trusted_proxies", Default: "", Desc: "Comma-separated proxy CIDRs whose X-Forwarded-For is trusted"},

	// Cache
	{Name: "redis_addr", Default: "", Desc: "Redis address for the read-through cache (blank disables it)"},
	{Name: "cache_ttl", Default: "5m", Desc: "Cache entry lifetime"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// COMMONROOM_* environment variables and flags, in that order of
// increasing precedence.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "COMMONROOM", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         strings.TrimSpace(appValues.String("mongo_uri")),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		TokenSecret:  appValues.String("token_secret"),
		TokenCookie:  appValues.String("token_cookie"),
		TokenTTL:     appValues.Duration("token_ttl", 7*24*time.Hour),
		CookieDomain: appValues.String("cookie_domain"),

		AppURL:         strings.TrimSpace(appValues.String("app_url")),
		TrustedProxies: appValues.String("trusted_proxies"),

		RedisAddr: strings.TrimSpace(appValues.String("redis_addr")),
		CacheTTL:  appValues.Duration("cache_ttl", 5*time.Minute),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// A missing Mongo URI, token secret or client URL aborts startup here
// rather than on the first request that needs them.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := validateAppConfig(appCfg); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return err
	}
	return nil
}

func validateAppConfig(appCfg AppConfig) error {
	if appCfg.MongoURI == "" {
		return errors.New("mongo_uri is required")
	}
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return errors.New("mongo_database must not be empty")
	}
	if appCfg.MongoMinPoolSize > appCfg.MongoMaxPoolSize {
		return fmt.Errorf("mongo_min_pool_size (%d) exceeds mongo_max_pool_size (%d)",
			appCfg.MongoMinPoolSize, appCfg.MongoMaxPoolSize)
	}
	if appCfg.TokenSecret == "" {
		return errors.New("token_secret is required")
	}
	if appCfg.TokenTTL <= 0 {
		return errors.New("token_ttl must be positive")
	}
	if appCfg.AppURL == "" {
		return errors.New("app_url is required")
	}
	u, err := url.Parse(appCfg.AppURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("app_url %q must be an absolute URL", appCfg.AppURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("app_url %q must use http or https", appCfg.AppURL)
	}
	if _, err := ratelimit.ParseTrustedProxies(appCfg.TrustedProxies); err != nil {
		return err
	}
	return nil
}

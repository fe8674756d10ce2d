// Package dbconn owns the process-wide MongoDB client.
//
// The client is created lazily on first use and then reused for the life of
// the process. Concurrent first callers share a single dial attempt, so a
// burst of cold requests opens one connection pool, not one per request.
package dbconn

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Source hands out the application database. Handlers depend on this
// rather than on *Cache so tests can pass a fixed database.
type Source interface {
	Database(ctx context.Context) (*mongo.Database, error)
}

// DialFunc opens and verifies a new client.
type DialFunc func(ctx context.Context) (*mongo.Client, error)

// Options tunes the pool created by the default dialer.
type Options struct {
	MaxPoolSize    uint64
	MinPoolSize    uint64
	ConnectTimeout time.Duration
}

// ErrClosed is returned by Connect after Close.
var ErrClosed = errors.New("dbconn: cache closed")

// Cache memoizes one *mongo.Client.
type Cache struct {
	dial           DialFunc
	dbName         string
	connectTimeout time.Duration
	log            *zap.Logger

	group singleflight.Group

	mu     sync.RWMutex
	client *mongo.Client
	closed bool
}

// New returns a Cache that dials uri on first use.
func New(uri, database string, opts Options, logger *zap.Logger) *Cache {
	return NewWithDialer(mongoDialer(uri, opts), database, opts.ConnectTimeout, logger)
}

// NewWithDialer returns a Cache that uses dial to create the client.
// A zero connectTimeout means the dial is bounded only by dial itself.
func NewWithDialer(dial DialFunc, database string, connectTimeout time.Duration, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		dial:           dial,
		dbName:         database,
		connectTimeout: connectTimeout,
		log:            logger,
	}
}

// Connect returns the memoized client, dialing it on the first call.
//
// A failed dial is returned to every caller waiting on it and is not
// remembered; the next call dials again. There is no retry inside Connect.
func (c *Cache) Connect(ctx context.Context) (*mongo.Client, error) {
	if cl, err := c.current(); cl != nil || err != nil {
		return cl, err
	}

	v, err, shared := c.group.Do("connect", func() (any, error) {
		// Another caller may have finished between current() and Do.
		if cl, err := c.current(); cl != nil || err != nil {
			return cl, err
		}

		// The dial outlives the caller that happened to trigger it.
		dctx := context.WithoutCancel(ctx)
		if c.connectTimeout > 0 {
			var cancel context.CancelFunc
			dctx, cancel = context.WithTimeout(dctx, c.connectTimeout)
			defer cancel()
		}

		start := time.Now()
		cl, err := c.dial(dctx)
		if err != nil {
			c.log.Error("mongo connect failed", zap.Error(err))
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed {
			_ = cl.Disconnect(dctx)
			return nil, ErrClosed
		}
		c.client = cl
		c.log.Info("mongo connected",
			zap.String("database", c.dbName),
			zap.Duration("took", time.Since(start)))
		return cl, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.log.Debug("mongo connect shared with concurrent caller")
	}
	return v.(*mongo.Client), nil
}

// Database returns the configured database on the memoized client.
func (c *Cache) Database(ctx context.Context) (*mongo.Database, error) {
	cl, err := c.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return cl.Database(c.dbName), nil
}

// Client returns the memoized client without dialing. Nil until the first
// successful Connect.
func (c *Cache) Client() *mongo.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

// Close disconnects the client. Later Connect calls return ErrClosed.
func (c *Cache) Close(ctx context.Context) error {
	c.mu.Lock()
	cl := c.client
	c.client = nil
	c.closed = true
	c.mu.Unlock()

	if cl == nil {
		return nil
	}
	return cl.Disconnect(ctx)
}

func (c *Cache) current() (*mongo.Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, ErrClosed
	}
	return c.client, nil
}

func mongoDialer(uri string, opts Options) DialFunc {
	return func(ctx context.Context) (*mongo.Client, error) {
		co := options.Client().ApplyURI(uri)
		if opts.MaxPoolSize > 0 {
			co.SetMaxPoolSize(opts.MaxPoolSize)
		}
		if opts.MinPoolSize > 0 {
			co.SetMinPoolSize(opts.MinPoolSize)
		}
		if opts.ConnectTimeout > 0 {
			co.SetConnectTimeout(opts.ConnectTimeout)
			co.SetServerSelectionTimeout(opts.ConnectTimeout)
		}

		cl, err := mongo.Connect(ctx, co)
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		if err := cl.Ping(ctx, readpref.Primary()); err != nil {
			_ = cl.Disconnect(context.WithoutCancel(ctx))
			return nil, fmt.Errorf("mongo ping: %w", err)
		}
		return cl, nil
	}
}

// Static wraps an already-open database as a Source.
func Static(db *mongo.Database) Source {
	return staticSource{db: db}
}

type staticSource struct {
	db *mongo.Database
}

func (s staticSource) Database(context.Context) (*mongo.Database, error) {
	return s.db, nil
}

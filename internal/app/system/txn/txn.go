// Package txn runs multi-document writes in a transaction when the server
// supports it, and falls back to plain sequential writes when it does not
// (standalone mongod, some DocumentDB tiers).
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Run calls fn inside a transaction on db's client. If transactions are not
// supported, fn is called again with the plain ctx. fn must be safe to
// re-run from the start.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		if log != nil {
			log.Debug("transactions unsupported; running without", zap.Error(err))
		}
		return fn(ctx)
	}
	return err
}

// IsNotSupported reports whether err means the deployment cannot run
// multi-document transactions.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263: // IllegalOperation, TransactionNumbers on standalone, OperationNotSupportedInTransaction
			return true
		}
	}

	s := strings.ToLower(err.Error())
	has := func(sub string) bool { return strings.Contains(s, sub) }
	switch {
	case has("illegal operation"):
		return true
	case has("transaction") && (has("replica set") || has("session")):
		return true
	case has("session") && has("not supported"):
		return true
	}
	return false
}

// Package txn runs MongoDB multi-document transactions.
//
// Run falls back to executing the callback without a transaction when the
// server does not support them (standalone mongod in development). RunStrict
// never falls back; callers whose correctness depends on atomicity use it.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
	"go.uber.org/zap"
)

// ErrNotSupported is returned by RunStrict when the deployment cannot run
// transactions.
var ErrNotSupported = errors.New("txn: transactions not supported by this deployment")

func txnOptions() *options.TransactionOptions {
	return options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
}

// Run executes fn inside a transaction. If the deployment does not support
// transactions, fn is executed once more without one and a warning is logged.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	err := runInSession(ctx, db, fn)
	if err == nil || !IsNotSupported(err) {
		return err
	}
	if log != nil {
		log.Warn("transactions not supported; running without transaction", zap.Error(err))
	}
	return fn(ctx)
}

// RunStrict executes fn inside a transaction and fails with ErrNotSupported
// rather than running fn unprotected.
func RunStrict(ctx context.Context, db *mongo.Database, fn func(ctx context.Context) error) error {
	err := runInSession(ctx, db, fn)
	if err != nil && IsNotSupported(err) {
		return errors.Join(ErrNotSupported, err)
	}
	return err
}

func runInSession(ctx context.Context, db *mongo.Database, fn func(ctx context.Context) error) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	}, txnOptions())
	return err
}

// IsNotSupported reports whether err indicates the server cannot run
// transactions (standalone server, unsupported operation in a transaction).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263:
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	hits := 0
	for _, kw := range []string{"transaction", "replica set", "session", "not supported", "illegal operation"} {
		if strings.Contains(msg, kw) {
			hits++
		}
	}
	return hits >= 2
}

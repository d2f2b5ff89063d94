package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/salescrm/internal/app/system/txn"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// RequireTransactions skips the test when db is served by a standalone
// mongod that cannot run multi-document transactions.
func RequireTransactions(t *testing.T, db *mongo.Database) {
	t.Helper()
	ctx, cancel := TestContext()
	defer cancel()
	err := txn.RunStrict(ctx, db, func(ctx context.Context) error {
		_, err := db.Collection("txn_probe").InsertOne(ctx, bson.M{"probe": true})
		return err
	})
	if errors.Is(err, txn.ErrNotSupported) {
		t.Skip("skipping: MongoDB deployment does not support transactions")
	}
	if err != nil {
		t.Fatalf("transaction probe failed: %v", err)
	}
}

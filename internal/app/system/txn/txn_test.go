package txn_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/salescrm/internal/app/system/txn"
	"github.com/dalemusser/salescrm/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func TestIsNotSupported(t *testing.T) {
	for _, tt := range []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unrelated", errors.New("duplicate key"), false},
		{"not a replica set member", mongo.CommandError{Code: 20}, true},
		{"illegal operation", mongo.CommandError{Code: 51}, true},
		{"operation not allowed in transaction", mongo.CommandError{Code: 263}, true},
		{"other code", mongo.CommandError{Code: 11000, Message: "E11000 duplicate key"}, false},
		{"keywords", errors.New("Transaction numbers are only allowed on a Replica Set member"), true},
		{"single keyword", errors.New("transaction aborted"), false},
		{"wrapped", errors.Join(errors.New("convert lead"), mongo.CommandError{Code: 20}), true},
	} {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, txn.IsNotSupported(tt.err))
		})
	}
}

func TestRun_ReturnsCallbackError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	errStop := errors.New("stop")
	err := txn.Run(ctx, db, zap.NewNop(), func(context.Context) error { return errStop })
	require.ErrorIs(t, err, errStop)
}

func TestRunStrict_RollsBackOnError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.RequireTransactions(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	coll := db.Collection("deals")
	errStop := errors.New("stop")
	err := txn.RunStrict(ctx, db, func(ctx context.Context) error {
		if _, err := coll.InsertOne(ctx, bson.M{"name": "rolled back"}); err != nil {
			return err
		}
		return errStop
	})
	require.ErrorIs(t, err, errStop)

	n, err := coll.CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	require.Zero(t, n)

	err = txn.RunStrict(ctx, db, func(ctx context.Context) error {
		_, err := coll.InsertOne(ctx, bson.M{"name": "kept"})
		return err
	})
	require.NoError(t, err)

	n, err = coll.CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

package dealstore_test

import (
	"strings"
	"testing"
	"time"

	dealstore "github.com/dalemusser/salescrm/internal/app/store/deals"
	"github.com/dalemusser/salescrm/internal/domain/models"
	"github.com/dalemusser/salescrm/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create_AssignsNumberAndProbability(t *testing.T) {
	db := testutil.SetupTestDB(t)
	require.NoError(t, testutil.EnsureIndexes(db))
	store := dealstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	acct := primitive.NewObjectID()
	first, err := store.Create(ctx, models.Deal{Name: "Big one", AccountID: acct, Stage: "proposal", Currency: "PHP", CloseDate: time.Now()})
	require.NoError(t, err)
	second, err := store.Create(ctx, models.Deal{Name: "Small one", AccountID: acct})
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(first.Number, "D"))
	require.True(t, strings.HasSuffix(first.Number, "-00001"), first.Number)
	require.True(t, strings.HasSuffix(second.Number, "-00002"), second.Number)
	require.Equal(t, 60, first.Probability)
	require.Equal(t, models.StageProspecting, second.Stage)
	require.Equal(t, 10, second.Probability)
}

func TestStore_Update_RecomputesProbability(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := dealstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	d, err := store.Create(ctx, models.Deal{Name: "Renewal", AccountID: primitive.NewObjectID()})
	require.NoError(t, err)

	d.Stage = models.StageClosedWon
	d.Probability = 5
	require.NoError(t, store.Update(ctx, d.ID, d))

	got, err := store.GetByID(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, 100, got.Probability)
	require.Equal(t, d.Number, got.Number)

	d.Stage = "WON_MAYBE"
	require.Error(t, store.Update(ctx, d.ID, d))
	_, err = store.Create(ctx, models.Deal{Name: "No account"})
	require.Error(t, err)
}

func TestStore_Update_MovesQuotesWithAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := dealstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	from, to := primitive.NewObjectID(), primitive.NewObjectID()
	d, err := store.Create(ctx, models.Deal{Name: "Renewal", AccountID: from})
	require.NoError(t, err)
	other, err := store.Create(ctx, models.Deal{Name: "Other", AccountID: from})
	require.NoError(t, err)

	quotes := db.Collection("quotes")
	insert := func(dealID primitive.ObjectID) primitive.ObjectID {
		id := primitive.NewObjectID()
		_, err := quotes.InsertOne(ctx, models.Quote{ID: id, Number: id.Hex(), DealID: dealID, AccountID: &from, Status: models.QuoteDraft})
		require.NoError(t, err)
		return id
	}
	moved := insert(d.ID)
	stays := insert(other.ID)

	d.AccountID = to
	require.NoError(t, store.Update(ctx, d.ID, d))

	accountOf := func(id primitive.ObjectID) primitive.ObjectID {
		var q models.Quote
		require.NoError(t, quotes.FindOne(ctx, bson.M{"_id": id}).Decode(&q))
		require.NotNil(t, q.AccountID)
		return *q.AccountID
	}
	require.Equal(t, to, accountOf(moved))
	require.Equal(t, from, accountOf(stays))

	require.ErrorIs(t, store.Update(ctx, primitive.NewObjectID(), d), mongo.ErrNoDocuments)
}

package leadstore_test

import (
	"testing"

	leadstore "github.com/dalemusser/salescrm/internal/app/store/leads"
	"github.com/dalemusser/salescrm/internal/domain/models"
	"github.com/dalemusser/salescrm/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create_Defaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := leadstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	l, err := store.Create(ctx, models.Lead{FirstName: "Grace", LastName: "Hopper"})
	require.NoError(t, err)
	require.Equal(t, models.LeadNew, l.Status)
	require.Equal(t, "grace hopper", l.NameCI)

	_, err = store.Create(ctx, models.Lead{LastName: "X", Status: "converted"})
	require.ErrorIs(t, err, leadstore.ErrConvertViaWorkflow)

	_, err = store.Create(ctx, models.Lead{LastName: "X", Status: "MAYBE"})
	require.Error(t, err)
}

func TestStore_MarkConverted_OnlyFromQualified(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := leadstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	qualified := fx.CreateLead(ctx, "Q", "Lead", "Q Co", models.LeadQualified, nil, owner)
	contacted := fx.CreateLead(ctx, "C", "Lead", "C Co", models.LeadContacted, nil, owner)

	ok, err := store.MarkConverted(ctx, contacted.ID)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = store.MarkConverted(ctx, qualified.ID)
	require.NoError(t, err)
	require.True(t, ok)

	// Second flip loses.
	ok, err = store.MarkConverted(ctx, qualified.ID)
	require.NoError(t, err)
	require.False(t, ok)

	got, err := store.GetByID(ctx, qualified.ID)
	require.NoError(t, err)
	require.Equal(t, models.LeadConverted, got.Status)
}

func TestStore_Update_ConvertedIsFrozen(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := leadstore.New(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	done := fx.CreateLead(ctx, "D", "Done", "", models.LeadConverted, nil, owner)
	done.Status = models.LeadQualified
	require.ErrorIs(t, store.Update(ctx, done.ID, done), leadstore.ErrConverted)

	require.ErrorIs(t, store.Update(ctx, primitive.NewObjectID(), models.Lead{LastName: "Ghost"}), mongo.ErrNoDocuments)

	open := fx.CreateLead(ctx, "O", "Open", "", models.LeadNew, nil, owner)
	open.Status = models.LeadContacted
	open.CompanyName = "Open Inc"
	require.NoError(t, store.Update(ctx, open.ID, open))

	var seen []string
	err := store.Stream(ctx, bson.M{"status": models.LeadContacted}, nil, func(l models.Lead) error {
		seen = append(seen, l.CompanyName)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"Open Inc"}, seen)
}

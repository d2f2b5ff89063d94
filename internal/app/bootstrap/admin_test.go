package bootstrap

import (
	"testing"

	userstore "github.com/dalemusser/salescrm/internal/app/store/users"
	"github.com/dalemusser/salescrm/internal/domain/models"
	"github.com/dalemusser/salescrm/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func TestEnsureAdmin_CreatesNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoDatabase: db}
	require.NoError(t, ensureAdmin(ctx, deps, " Admin@Example.com ", "s3cret-passw0rd", zap.NewNop()))

	u, err := userstore.New(db).GetByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, u.Role)
	require.Equal(t, models.UserActive, u.Status)
	require.True(t, userstore.CheckPassword(u, "s3cret-passw0rd"))

	// Running again is a no-op.
	require.NoError(t, ensureAdmin(ctx, deps, "admin@example.com", "other", zap.NewNop()))
	n, err := db.Collection("users").CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	u, err = userstore.New(db).GetByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	require.True(t, userstore.CheckPassword(u, "s3cret-passw0rd"), "existing password is kept")
}

func TestEnsureAdmin_PromotesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	north := fx.CreateTerritory(ctx, "North", nil)
	rep := fx.CreateSales(ctx, "Sam Sales", "sam@example.com", north.ID)
	_, err := db.Collection("users").UpdateByID(ctx, rep.ID, bson.M{"$set": bson.M{"status": models.UserDisabled}})
	require.NoError(t, err)

	require.NoError(t, ensureAdmin(ctx, DBDeps{MongoDatabase: db}, "sam@example.com", "", zap.NewNop()))

	u, err := userstore.New(db).GetByID(ctx, rep.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, u.Role)
	require.Equal(t, models.UserActive, u.Status)
	require.Equal(t, "Sam Sales", u.FullName)
	require.Equal(t, north.ID, *u.TerritoryID)
}

func TestEnsureAdmin_SkipsWithoutPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoDatabase: db}
	require.NoError(t, ensureAdmin(ctx, deps, "", "", zap.NewNop()))
	require.NoError(t, ensureAdmin(ctx, deps, "nobody@example.com", "", zap.NewNop()))

	n, err := db.Collection("users").CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestValidateApp(t *testing.T) {
	good := AppConfig{
		SessionKey:    "0123456789abcdef0123456789abcdef",
		DealCloseDays: 30,
	}
	require.NoError(t, validateApp("prod", good))

	short := good
	short.SessionKey = "too-short"
	require.Error(t, validateApp("prod", short))
	require.NoError(t, validateApp("dev", short))

	noWindow := good
	noWindow.DealCloseDays = 0
	require.Error(t, validateApp("dev", noWindow))

	orphanPassword := good
	orphanPassword.BootstrapAdminPassword = "x"
	require.Error(t, validateApp("dev", orphanPassword))
}

package deals_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/dalemusser/salescrm/internal/app/features/deals"
	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/features/shared/respond"
	"github.com/dalemusser/salescrm/internal/app/policy/recordpolicy"
	"github.com/dalemusser/salescrm/internal/app/store/queries/teamscope"
	"github.com/dalemusser/salescrm/internal/domain/models"
	"github.com/dalemusser/salescrm/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newHandler(db *mongo.Database) *deals.Handler {
	policy := recordpolicy.New(teamscope.New(db), zap.NewNop())
	return deals.NewHandler(db, policy, deals.Defaults{Currency: "USD"},
		uierrors.NewErrorLogger(zap.NewNop()), nil, zap.NewNop())
}

func post(target string, form url.Values, user testutil.TestUser) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return testutil.WithUser(req, user)
}

func TestHandleCreate_ProbabilityFollowsStage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	acct := fx.CreateAccount(ctx, "Acme", nil, owner)
	h := newHandler(db)

	rec := testutil.NewRecorder()
	h.HandleCreate(rec, post("/deals", url.Values{
		"name":       {"Acme renewal"},
		"account_id": {acct.ID.Hex()},
		"stage":      {"proposal"},
		"amount":     {"1,250.5"},
		"close_date": {"2030-03-31"},
	}, testutil.AsUser(owner, "SALES")))
	rec.AssertStatus(t, http.StatusCreated)

	var got models.Deal
	rec.DecodeJSON(t, &got)
	require.Equal(t, models.StageProposal, got.Stage)
	require.Equal(t, 60, got.Probability)
	require.EqualValues(t, 125050, got.AmountCents)
	require.Equal(t, "USD", got.Currency)
	require.Equal(t, "2030-03-31", got.CloseDate.Format("2006-01-02"))
	require.NotEmpty(t, got.Number)
	require.Equal(t, owner, *got.AssignedTo)

	req := post("/deals/"+got.ID.Hex()+"/edit", url.Values{
		"name":       {"Acme renewal"},
		"account_id": {acct.ID.Hex()},
		"stage":      {"closed_won"},
	}, testutil.AsUser(owner, "SALES"))
	rec = testutil.NewRecorder()
	h.HandleEdit(rec, testutil.WithChiURLParam(req, "id", got.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)

	var edited models.Deal
	rec.DecodeJSON(t, &edited)
	require.Equal(t, 100, edited.Probability)
	require.Equal(t, got.Number, edited.Number)
	require.True(t, got.CloseDate.Equal(edited.CloseDate), "close date is kept when the form leaves it empty")
}

func TestHandleCreate_RejectsForeignAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	acct := fx.CreateAccount(ctx, "Acme", nil, primitive.NewObjectID())
	h := newHandler(db)

	rec := testutil.NewRecorder()
	h.HandleCreate(rec, post("/deals", url.Values{
		"name":       {"Sneaky"},
		"account_id": {acct.ID.Hex()},
	}, testutil.AsUser(primitive.NewObjectID(), "SALES")))
	rec.AssertStatus(t, http.StatusBadRequest)

	n, err := db.Collection("deals").CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestHandleCreate_BadInput(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)

	for name, form := range map[string]url.Values{
		"missing account": {"name": {"X"}},
		"bad amount":      {"name": {"X"}, "account_id": {primitive.NewObjectID().Hex()}, "amount": {"12.345"}},
		"bad date":        {"name": {"X"}, "account_id": {primitive.NewObjectID().Hex()}, "close_date": {"31/03/2030"}},
	} {
		t.Run(name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.HandleCreate(rec, post("/deals", form, testutil.AdminUser()))
			rec.AssertStatus(t, http.StatusBadRequest)
		})
	}
}

func TestServeList_OpenPipelineAndNumberSearch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	acct := fx.CreateAccount(ctx, "Acme", nil, owner)
	openDeal := fx.CreateDeal(ctx, "Open deal", acct.ID, owner)
	won := fx.CreateDeal(ctx, "Won deal", acct.ID, owner)
	_, err := db.Collection("deals").UpdateByID(ctx, won.ID, bson.M{"$set": bson.M{"stage": models.StageClosedWon}})
	require.NoError(t, err)

	h := newHandler(db)

	rec := testutil.NewRecorder()
	h.ServeList(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/deals?stage=open", testutil.AsUser(owner, "SALES")))
	rec.AssertStatus(t, http.StatusOK)
	var body respond.List[models.Deal]
	rec.DecodeJSON(t, &body)
	require.Len(t, body.Items, 1)
	require.Equal(t, openDeal.ID, body.Items[0].ID)

	prefix := strings.ToLower(won.Number[:8])
	rec = testutil.NewRecorder()
	h.ServeList(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/deals?q="+prefix, testutil.AsUser(owner, "SALES")))
	rec.AssertStatus(t, http.StatusOK)
	body = respond.List[models.Deal]{}
	rec.DecodeJSON(t, &body)
	require.NotEmpty(t, body.Items)
}

func TestHandleDelete_OutOfScopeIsNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	acct := fx.CreateAccount(ctx, "Acme", nil, owner)
	d := fx.CreateDeal(ctx, "Big one", acct.ID, owner)
	h := newHandler(db)

	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/deals/"+d.ID.Hex()+"/delete", testutil.AsUser(primitive.NewObjectID(), "MANAGER"))
	rec := testutil.NewRecorder()
	h.HandleDelete(rec, testutil.WithChiURLParam(req, "id", d.ID.Hex()))
	rec.AssertStatus(t, http.StatusNotFound)

	req = testutil.NewAuthenticatedRequest(http.MethodPost, "/deals/"+d.ID.Hex()+"/delete", testutil.AsUser(owner, "SALES"))
	rec = testutil.NewRecorder()
	h.HandleDelete(rec, testutil.WithChiURLParam(req, "id", d.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"deleted":1`)
}

func TestServeExportCSV_ScopedAndEscaped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m := fx.CreateManager(ctx, "Mara", "mara@example.com")
	north := fx.CreateTerritory(ctx, "North", &m.ID)
	south := fx.CreateTerritory(ctx, "South", nil)
	bob := fx.CreateSales(ctx, "Bob", "bob@example.com", south.ID)
	northAcct := fx.CreateAccount(ctx, "Northwind", &north.ID, bob.ID)
	southAcct := fx.CreateAccount(ctx, "Southbay", &south.ID, bob.ID)

	mine := fx.CreateDeal(ctx, "=cmd renewal", northAcct.ID, bob.ID)
	_, err := db.Collection("deals").UpdateByID(ctx, mine.ID, bson.M{"$set": bson.M{"amount_cents": 125050}})
	require.NoError(t, err)
	fx.CreateDeal(ctx, "Southbay expansion", southAcct.ID, bob.ID)

	h := newHandler(db)
	rec := testutil.NewRecorder()
	h.ServeExportCSV(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/deals/export.csv", testutil.AsUser(m.ID, "MANAGER")))
	rec.AssertStatus(t, http.StatusOK)

	require.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	require.True(t, strings.HasPrefix(body, "\ufeffdeal_number,name,stage,amount,"))
	require.Contains(t, body, "'=cmd renewal,PROSPECTING,1250.50,USD")
	require.NotContains(t, body, "Southbay expansion")
}

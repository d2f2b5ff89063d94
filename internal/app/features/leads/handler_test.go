package leads_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/features/leads"
	"github.com/dalemusser/salescrm/internal/app/features/shared/respond"
	"github.com/dalemusser/salescrm/internal/app/policy/recordpolicy"
	"github.com/dalemusser/salescrm/internal/app/store/audit"
	conversionstore "github.com/dalemusser/salescrm/internal/app/store/conversion"
	"github.com/dalemusser/salescrm/internal/app/store/queries/teamscope"
	"github.com/dalemusser/salescrm/internal/app/system/auditlog"
	"github.com/dalemusser/salescrm/internal/app/system/leadconvert"
	"github.com/dalemusser/salescrm/internal/domain/models"
	"github.com/dalemusser/salescrm/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newHandler(t *testing.T, db *mongo.Database) *leads.Handler {
	t.Helper()
	policy := recordpolicy.New(teamscope.New(db), zap.NewNop())
	conv := leadconvert.New(conversionstore.New(db), policy, leadconvert.Config{}, zap.NewNop())
	audits := auditlog.New(audit.New(db), zap.NewNop(), auditlog.Config{Auth: "db", Admin: "db"})
	return leads.NewHandler(db, policy, conv, nil, uierrors.NewErrorLogger(zap.NewNop()), audits, zap.NewNop())
}

func formRequest(target string, form url.Values, user testutil.TestUser) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	return testutil.WithUser(req, user)
}

// team is one manager running North with a sales user in each territory.
type team struct {
	manager, alice, bob models.User
	north, south        models.Territory
}

func newTeam(t *testing.T, fx *testutil.Fixtures) team {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	var tm team
	tm.manager = fx.CreateManager(ctx, "Mara Manager", "mara@example.com")
	tm.north = fx.CreateTerritory(ctx, "North", &tm.manager.ID)
	tm.south = fx.CreateTerritory(ctx, "South", nil)
	tm.alice = fx.CreateSales(ctx, "Alice Sales", "alice@example.com", tm.north.ID)
	tm.bob = fx.CreateSales(ctx, "Bob Sales", "bob@example.com", tm.south.ID)
	return tm
}

func listNames(t *testing.T, rec *testutil.ResponseRecorder) []string {
	t.Helper()
	var body respond.List[models.Lead]
	rec.DecodeJSON(t, &body)
	out := make([]string, 0, len(body.Items))
	for _, l := range body.Items {
		out = append(out, l.FullName())
	}
	return out
}

func TestServeList_ScopedPerRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	tm := newTeam(t, fx)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateLead(ctx, "Ann", "North", "Acme", models.LeadNew, &tm.north.ID, tm.alice.ID)
	fx.CreateLead(ctx, "Ben", "South", "Globex", models.LeadNew, &tm.south.ID, tm.bob.ID)
	fx.CreateLead(ctx, "Cal", "Done", "Initech", models.LeadConverted, &tm.north.ID, tm.alice.ID)

	h := newHandler(t, db)

	cases := []struct {
		name string
		user testutil.TestUser
		want []string
	}{
		{"admin sees all but converted", testutil.AdminUser(), []string{"Ann North", "Ben South"}},
		{"manager sees North", testutil.AsUser(tm.manager.ID, "MANAGER"), []string{"Ann North"}},
		{"sales sees own", testutil.AsUser(tm.bob.ID, "SALES"), []string{"Ben South"}},
		{"unknown role sees nothing", testutil.AsUser(tm.alice.ID, "GUEST"), []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.ServeList(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/leads", tc.user))
			rec.AssertStatus(t, http.StatusOK)
			require.ElementsMatch(t, tc.want, listNames(t, rec))
		})
	}
}

func TestServeList_Unauthenticated(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db)

	rec := testutil.NewRecorder()
	h.ServeList(rec, testutil.NewRequest(http.MethodGet, "/leads"))
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestServeAutocomplete_SkipsLostAndForeign(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	tm := newTeam(t, fx)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateLead(ctx, "Juan", "Cruz", "Acme", models.LeadQualified, &tm.north.ID, tm.alice.ID)
	fx.CreateLead(ctx, "Juana", "Lost", "", models.LeadLost, &tm.north.ID, tm.alice.ID)
	fx.CreateLead(ctx, "Juanito", "Bob", "", models.LeadNew, &tm.south.ID, tm.bob.ID)

	h := newHandler(t, db)
	rec := testutil.NewRecorder()
	h.ServeAutocomplete(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/leads/autocomplete?q=juan", testutil.AsUser(tm.alice.ID, "SALES")))
	rec.AssertStatus(t, http.StatusOK)

	var opts []respond.Option
	rec.DecodeJSON(t, &opts)
	require.Len(t, opts, 1)
	require.Equal(t, "Juan Cruz (Acme)", opts[0].Label)
}

func TestHandleCreate_DefaultsOwnership(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	tm := newTeam(t, fx)

	h := newHandler(t, db)
	user := testutil.SalesUser(tm.north.ID)
	user.ID = tm.alice.ID.Hex()

	rec := testutil.NewRecorder()
	h.HandleCreate(rec, formRequest("/leads", url.Values{
		"first_name":   {"Rosa"},
		"last_name":    {"Diaz"},
		"company_name": {"Diaz Foods"},
		"notes":        {"<b>met at expo</b>"},
	}, user))
	rec.AssertStatus(t, http.StatusCreated)

	var got models.Lead
	rec.DecodeJSON(t, &got)
	require.Equal(t, tm.alice.ID, *got.CreatedBy)
	require.Equal(t, tm.alice.ID, *got.AssignedTo)
	require.Equal(t, tm.north.ID, *got.TerritoryID)
	require.Equal(t, "met at expo", got.Notes)
}

func TestHandleCreate_RejectsConvertedStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db)

	rec := testutil.NewRecorder()
	h.HandleCreate(rec, formRequest("/leads", url.Values{
		"last_name": {"Diaz"},
		"status":    {"converted"},
	}, testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestHandleDelete_OutOfScopeIsNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	tm := newTeam(t, fx)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	lead := fx.CreateLead(ctx, "Ben", "South", "", models.LeadNew, &tm.south.ID, tm.bob.ID)
	h := newHandler(t, db)

	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/leads/"+lead.ID.Hex()+"/delete", testutil.AsUser(tm.alice.ID, "SALES"))
	rec := testutil.NewRecorder()
	h.HandleDelete(rec, testutil.WithChiURLParam(req, "id", lead.ID.Hex()))
	rec.AssertStatus(t, http.StatusNotFound)

	n, err := db.Collection("leads").CountDocuments(ctx, bson.M{"_id": lead.ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	req = testutil.NewAuthenticatedRequest(http.MethodPost, "/leads/"+lead.ID.Hex()+"/delete", testutil.AsUser(tm.bob.ID, "SALES"))
	rec = testutil.NewRecorder()
	h.HandleDelete(rec, testutil.WithChiURLParam(req, "id", lead.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)

	n, err = db.Collection("leads").CountDocuments(ctx, bson.M{"_id": lead.ID})
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestServeView_OutOfScopeIsForbidden(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	tm := newTeam(t, fx)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	lead := fx.CreateLead(ctx, "Ben", "South", "", models.LeadNew, &tm.south.ID, tm.bob.ID)
	h := newHandler(t, db)

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/leads/"+lead.ID.Hex(), testutil.AsUser(tm.manager.ID, "MANAGER"))
	rec := testutil.NewRecorder()
	h.ServeView(rec, testutil.WithChiURLParam(req, "id", lead.ID.Hex()))
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestServeExportCSV_ScopedAndEscaped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	tm := newTeam(t, fx)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateLead(ctx, "Ann", "North", "=HYPERLINK()", models.LeadNew, &tm.north.ID, tm.alice.ID)
	fx.CreateLead(ctx, "Ben", "South", "Globex", models.LeadNew, &tm.south.ID, tm.bob.ID)
	fx.CreateLead(ctx, "Cal", "Done", "Initech", models.LeadConverted, &tm.north.ID, tm.alice.ID)

	h := newHandler(t, db)
	rec := testutil.NewRecorder()
	h.ServeExportCSV(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/leads/export.csv", testutil.AsUser(tm.manager.ID, "MANAGER")))
	rec.AssertStatus(t, http.StatusOK)

	require.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	require.True(t, strings.HasPrefix(body, "\ufefffirst_name,"))
	require.Contains(t, body, "'=HYPERLINK()")
	require.NotContains(t, body, "Globex")
	require.NotContains(t, body, "Initech")
}

func TestServeExportCSV_EmptyStillHasHeader(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(t, db)

	rec := testutil.NewRecorder()
	h.ServeExportCSV(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/leads/export.csv", testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "first_name,last_name")
}

func TestHandleConvert_Refusals(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	tm := newTeam(t, fx)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	lead := fx.CreateLead(ctx, "Juan", "Cruz", "Acme", models.LeadQualified, &tm.north.ID, tm.alice.ID)
	h := newHandler(t, db)

	convert := func(id string, user testutil.TestUser) *testutil.ResponseRecorder {
		req := testutil.NewJSONRequest(http.MethodPost, "/leads/"+id+"/convert", nil, user)
		rec := testutil.NewRecorder()
		h.HandleConvert(rec, testutil.WithChiURLParam(req, "id", id))
		return rec
	}

	t.Run("missing lead", func(t *testing.T) {
		rec := convert(testutil.AdminUser().ID, testutil.AdminUser())
		rec.AssertStatus(t, http.StatusNotFound)
		rec.AssertContains(t, `"reason":"not_found"`)
	})

	t.Run("out of scope", func(t *testing.T) {
		rec := convert(lead.ID.Hex(), testutil.AsUser(tm.bob.ID, "SALES"))
		rec.AssertStatus(t, http.StatusForbidden)
		rec.AssertContains(t, `"back_url":"/leads/`+lead.ID.Hex()+`"`)
	})

	n, err := audit.New(db).CountByType(ctx, audit.EventLeadConvertRejected)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	accounts, err := db.Collection("accounts").CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	require.Zero(t, accounts)
}

func TestHandleConvert_Success(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.RequireTransactions(t, db)
	fx := testutil.NewFixtures(t, db)
	tm := newTeam(t, fx)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	lead := fx.CreateLead(ctx, "Juan", "Cruz", "Acme Trading", models.LeadQualified, &tm.north.ID, tm.alice.ID)
	h := newHandler(t, db)

	req := testutil.NewJSONRequest(http.MethodPost, "/leads/"+lead.ID.Hex()+"/convert", nil, testutil.AsUser(tm.manager.ID, "MANAGER"))
	rec := testutil.NewRecorder()
	h.HandleConvert(rec, testutil.WithChiURLParam(req, "id", lead.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		AccountID  string `json:"account_id"`
		DealNumber string `json:"deal_number"`
		Redirect   string `json:"redirect"`
	}
	rec.DecodeJSON(t, &body)
	require.Equal(t, "/accounts/"+body.AccountID, body.Redirect)
	require.NotEmpty(t, body.DealNumber)

	// A second attempt is refused and creates nothing.
	req = testutil.NewJSONRequest(http.MethodPost, "/leads/"+lead.ID.Hex()+"/convert", nil, testutil.AsUser(tm.manager.ID, "MANAGER"))
	rec = testutil.NewRecorder()
	h.HandleConvert(rec, testutil.WithChiURLParam(req, "id", lead.ID.Hex()))
	rec.AssertStatus(t, http.StatusConflict)

	accounts, err := db.Collection("accounts").CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	require.EqualValues(t, 1, accounts)
}

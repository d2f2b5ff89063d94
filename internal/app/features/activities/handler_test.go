package activities_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/dalemusser/salescrm/internal/app/features/activities"
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

func newHandler(db *mongo.Database, kind models.ActivityKind) *activities.Handler {
	policy := recordpolicy.New(teamscope.New(db), zap.NewNop())
	return activities.NewHandler(db, kind, policy, uierrors.NewErrorLogger(zap.NewNop()), nil, zap.NewNop())
}

func post(target string, form url.Values, user testutil.TestUser) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return testutil.WithUser(req, user)
}

func TestServeList_KindsAreSeparate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	fx.CreateActivity(ctx, models.ActivityTask, "Send proposal", owner)
	fx.CreateActivity(ctx, models.ActivityCall, "Intro call", owner)
	fx.CreateActivity(ctx, models.ActivityMeeting, "Kickoff", owner)
	fx.CreateActivity(ctx, models.ActivityCall, "Someone else's call", primitive.NewObjectID())

	calls := newHandler(db, models.ActivityCall)
	rec := testutil.NewRecorder()
	calls.ServeList(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/calls", testutil.AsUser(owner, "SALES")))
	rec.AssertStatus(t, http.StatusOK)

	var body respond.List[models.Activity]
	rec.DecodeJSON(t, &body)
	require.Len(t, body.Items, 1)
	require.Equal(t, "Intro call", body.Items[0].Subject)
	require.Equal(t, models.ActivityCall, body.Items[0].Kind)

	rec = testutil.NewRecorder()
	calls.ServeList(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/calls", testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusOK)
	body = respond.List[models.Activity]{}
	rec.DecodeJSON(t, &body)
	require.EqualValues(t, 2, body.Total)
}

func TestHandleCreate_TaskDefaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db, models.ActivityTask)
	owner := primitive.NewObjectID()

	rec := testutil.NewRecorder()
	h.HandleCreate(rec, post("/tasks", url.Values{
		"subject":     {"Follow up"},
		"due_date":    {"2030-02-01"},
		"location":    {"ignored for tasks"},
		"description": {"<b>call</b> back"},
	}, testutil.AsUser(owner, "SALES")))
	rec.AssertStatus(t, http.StatusCreated)

	var got models.Activity
	rec.DecodeJSON(t, &got)
	require.Equal(t, models.ActivityTask, got.Kind)
	require.Equal(t, models.TaskNotStarted, got.Status)
	require.Equal(t, models.PriorityNormal, got.Priority)
	require.Equal(t, "2030-02-01", got.DueDate.Format("2006-01-02"))
	require.Empty(t, got.Location)
	require.Equal(t, "call back", got.Description)
	require.Equal(t, owner, *got.AssignedTo)
}

func TestHandleCreate_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)

	cases := []struct {
		name string
		kind models.ActivityKind
		form url.Values
	}{
		{"missing subject", models.ActivityTask, url.Values{}},
		{"task status on a call", models.ActivityCall, url.Values{"subject": {"x"}, "status": {"completed"}}},
		{"bad priority", models.ActivityTask, url.Values{"subject": {"x"}, "priority": {"urgent"}}},
		{"bad direction", models.ActivityCall, url.Values{"subject": {"x"}, "direction": {"sideways"}}},
		{"meeting ends before it starts", models.ActivityMeeting, url.Values{
			"subject":    {"x"},
			"start_time": {"2030-01-01T10:00"},
			"end_time":   {"2030-01-01T09:00"},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHandler(db, tc.kind)
			rec := testutil.NewRecorder()
			h.HandleCreate(rec, post("/x", tc.form, testutil.AdminUser()))
			rec.AssertStatus(t, http.StatusBadRequest)
		})
	}
}

func TestHandleEdit_CallKeepsStatusAndAssignee(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	a := fx.CreateActivity(ctx, models.ActivityCall, "Intro call", owner)
	h := newHandler(db, models.ActivityCall)

	req := post("/calls/"+a.ID.Hex()+"/edit", url.Values{
		"subject":   {"Intro call (rescheduled)"},
		"direction": {"outgoing"},
	}, testutil.AsUser(owner, "SALES"))
	rec := testutil.NewRecorder()
	h.HandleEdit(rec, testutil.WithChiURLParam(req, "id", a.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)

	var got models.Activity
	rec.DecodeJSON(t, &got)
	require.Equal(t, "Intro call (rescheduled)", got.Subject)
	require.Equal(t, models.CallOutgoing, got.Direction)
	require.Equal(t, models.EventPlanned, got.Status)
	require.Equal(t, owner, *got.AssignedTo)
}

func TestServeView_WrongKindIsNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fx.CreateActivity(ctx, models.ActivityTask, "Send proposal", primitive.NewObjectID())
	h := newHandler(db, models.ActivityMeeting)

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/meetings/"+a.ID.Hex(), testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeView(rec, testutil.WithChiURLParam(req, "id", a.ID.Hex()))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestHandleDelete_OutOfScopeIsNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	a := fx.CreateActivity(ctx, models.ActivityMeeting, "Kickoff", owner)
	h := newHandler(db, models.ActivityMeeting)

	req := testutil.NewAuthenticatedRequest(http.MethodPost, "/meetings/"+a.ID.Hex()+"/delete", testutil.AsUser(primitive.NewObjectID(), "SALES"))
	rec := testutil.NewRecorder()
	h.HandleDelete(rec, testutil.WithChiURLParam(req, "id", a.ID.Hex()))
	rec.AssertStatus(t, http.StatusNotFound)

	req = testutil.NewAuthenticatedRequest(http.MethodPost, "/meetings/"+a.ID.Hex()+"/delete", testutil.AsUser(owner, "SALES"))
	rec = testutil.NewRecorder()
	h.HandleDelete(rec, testutil.WithChiURLParam(req, "id", a.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)

	n, err := db.Collection("activities").CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestServeExportCSV_ScopedAndEscaped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m := fx.CreateManager(ctx, "Mara", "mara@example.com")
	north := fx.CreateTerritory(ctx, "North", &m.ID)
	south := fx.CreateTerritory(ctx, "South", nil)
	alice := fx.CreateSales(ctx, "Alice", "alice@example.com", north.ID)
	bob := fx.CreateSales(ctx, "Bob", "bob@example.com", south.ID)

	fx.CreateActivity(ctx, models.ActivityTask, "=SUM(A1)", alice.ID)
	fx.CreateActivity(ctx, models.ActivityTask, "Bob's follow-up", bob.ID)
	fx.CreateActivity(ctx, models.ActivityCall, "Alice's call", alice.ID)

	tasks := newHandler(db, models.ActivityTask)
	rec := testutil.NewRecorder()
	tasks.ServeExportCSV(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/tasks/export.csv", testutil.AsUser(m.ID, "MANAGER")))
	rec.AssertStatus(t, http.StatusOK)

	require.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), "tasks_")
	body := rec.Body.String()
	require.True(t, strings.HasPrefix(body, "\ufeffsubject,status,priority,due_date,"))
	require.Contains(t, body, "'=SUM(A1),NOT_STARTED")
	require.NotContains(t, body, "Bob's follow-up")
	require.NotContains(t, body, "Alice's call")

	calls := newHandler(db, models.ActivityCall)
	rec = testutil.NewRecorder()
	calls.ServeExportCSV(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/calls/export.csv", testutil.AsUser(m.ID, "MANAGER")))
	rec.AssertStatus(t, http.StatusOK)
	body = rec.Body.String()
	require.True(t, strings.HasPrefix(body, "\ufeffsubject,status,start_time,"))
	require.Contains(t, body, "Alice's call")
}

func TestHandleCreate_RelatedRecordsMustBeVisible(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	bob, alice := primitive.NewObjectID(), primitive.NewObjectID()
	mine := fx.CreateAccount(ctx, "Bobco", nil, bob)
	theirs := fx.CreateAccount(ctx, "Aliceco", nil, alice)
	theirLead := fx.CreateLead(ctx, "Lee", "Lead", "Aliceco", models.LeadNew, nil, alice)
	h := newHandler(db, models.ActivityTask)

	cases := []struct {
		name  string
		form  url.Values
		code  int
		error string
	}{
		{"own account", url.Values{"related_account_id": {mine.ID.Hex()}}, http.StatusCreated, ""},
		{"foreign account", url.Values{"related_account_id": {theirs.ID.Hex()}}, http.StatusBadRequest, "Account not found."},
		{"foreign lead", url.Values{"related_lead_id": {theirLead.ID.Hex()}}, http.StatusBadRequest, "Lead not found."},
		{"missing deal", url.Values{"related_deal_id": {primitive.NewObjectID().Hex()}}, http.StatusBadRequest, "Deal not found."},
		{"missing contact", url.Values{"related_contact_id": {primitive.NewObjectID().Hex()}}, http.StatusBadRequest, "Contact not found."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.form.Set("subject", "Follow up")
			rec := testutil.NewRecorder()
			h.HandleCreate(rec, post("/tasks", tc.form, testutil.AsUser(bob, "SALES")))
			rec.AssertStatus(t, tc.code)
			if tc.error != "" {
				rec.AssertContains(t, tc.error)
			}
		})
	}

	n, err := db.Collection("activities").CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestHandleEdit_UnchangedRelatedRecordIsKept(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	bob, alice := primitive.NewObjectID(), primitive.NewObjectID()
	theirs := fx.CreateAccount(ctx, "Aliceco", nil, alice)
	other := fx.CreateAccount(ctx, "Otherco", nil, alice)
	task := fx.CreateActivity(ctx, models.ActivityTask, "Cover for Alice", bob)
	_, err := db.Collection("activities").UpdateByID(ctx, task.ID, bson.M{"$set": bson.M{"related_account_id": theirs.ID}})
	require.NoError(t, err)
	h := newHandler(db, models.ActivityTask)

	edit := func(account primitive.ObjectID) *testutil.ResponseRecorder {
		req := post("/tasks/"+task.ID.Hex()+"/edit", url.Values{
			"subject":            {"Cover for Alice (week 2)"},
			"related_account_id": {account.Hex()},
		}, testutil.AsUser(bob, "SALES"))
		rec := testutil.NewRecorder()
		h.HandleEdit(rec, testutil.WithChiURLParam(req, "id", task.ID.Hex()))
		return rec
	}

	edit(theirs.ID).AssertStatus(t, http.StatusOK)

	rec := edit(other.ID)
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "Account not found.")
}

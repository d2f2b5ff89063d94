package auditlog_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/salescrm/internal/app/features/auditlog"
	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/store/audit"
	"github.com/dalemusser/salescrm/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type page struct {
	Items []struct {
		EventType string            `json:"event_type"`
		Actor     string            `json:"actor"`
		TargetID  string            `json:"target_id"`
		Details   map[string]string `json:"details"`
	} `json:"items"`
	Total      int64    `json:"total"`
	EventTypes []string `json:"event_types"`
}

func TestServeList_FiltersAndResolvesNames(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateAdmin(ctx, "Ada Admin", "ada@example.com")
	store := audit.New(db)
	deal := primitive.NewObjectID()
	yesterday := time.Now().UTC().Add(-24 * time.Hour)

	require.NoError(t, store.Log(ctx, audit.Event{
		Category: audit.CategorySales, EventType: audit.EventRecordDeleted,
		ActorID: &admin.ID, TargetID: &deal, Success: true,
		Details: map[string]string{"kind": "deals"},
	}))
	require.NoError(t, store.Log(ctx, audit.Event{
		Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess,
		ActorID: &admin.ID, Success: true, Timestamp: yesterday,
	}))

	h := auditlog.NewHandler(db, uierrors.NewErrorLogger(zap.NewNop()), zap.NewNop())

	rec := testutil.NewRecorder()
	h.ServeList(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/audit?category=sales", testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusOK)

	var got page
	rec.DecodeJSON(t, &got)
	require.EqualValues(t, 1, got.Total)
	require.Equal(t, audit.EventRecordDeleted, got.Items[0].EventType)
	require.Equal(t, "Ada Admin", got.Items[0].Actor)
	require.Equal(t, deal.Hex(), got.Items[0].TargetID)
	require.Equal(t, "deals", got.Items[0].Details["kind"])
	require.Contains(t, got.EventTypes, audit.EventLeadConverted)

	today := time.Now().UTC().Format("2006-01-02")
	rec = testutil.NewRecorder()
	h.ServeList(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/audit?start_date="+today, testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusOK)
	got = page{}
	rec.DecodeJSON(t, &got)
	require.EqualValues(t, 1, got.Total)

	rec = testutil.NewRecorder()
	h.ServeList(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/audit?actor="+admin.ID.Hex(), testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusOK)
	got = page{}
	rec.DecodeJSON(t, &got)
	require.EqualValues(t, 2, got.Total)
}

func TestServeList_AdminOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := auditlog.NewHandler(db, uierrors.NewErrorLogger(zap.NewNop()), zap.NewNop())

	rec := testutil.NewRecorder()
	h.ServeList(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/audit", testutil.ManagerUser()))
	rec.AssertStatus(t, http.StatusForbidden)
}

package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/salescrm/internal/app/store/audit"
	"github.com/dalemusser/salescrm/internal/app/system/auditlog"
	"github.com/dalemusser/salescrm/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestLogger_NilLogger(t *testing.T) {
	// nil logger should be a no-op (not panic)
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("GET", "/", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, primitive.NewObjectID(), "a@b.c")
	logger.Logout(ctx, req, primitive.NewObjectID().Hex())
	logger.LeadConverted(ctx, req, primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID())
}

func TestLogger_Log_ConfigOff(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "off", Admin: "off"})

	leadID := primitive.NewObjectID()
	req := httptest.NewRequest("POST", "/leads/x/convert", nil)
	logger.LeadConvertRejected(ctx, req, primitive.NewObjectID(), leadID, "forbidden")

	events, err := store.GetByTarget(ctx, leadID, 10)
	if err != nil {
		t.Fatalf("GetByTarget failed: %v", err)
	}
	if len(events) != 0 {
		t.Error("expected no events when config is 'off'")
	}
}

func TestLogger_LeadConverted_StoresEvent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "all", Admin: "db"})

	actor := primitive.NewObjectID()
	leadID := primitive.NewObjectID()
	accountID := primitive.NewObjectID()
	req := httptest.NewRequest("POST", "/leads/x/convert", nil)
	logger.LeadConverted(ctx, req, actor, leadID, accountID, primitive.NewObjectID(), primitive.NewObjectID())

	events, err := store.GetByTarget(ctx, leadID, 10)
	if err != nil {
		t.Fatalf("GetByTarget failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.EventType != audit.EventLeadConverted || !e.Success {
		t.Errorf("unexpected event %+v", e)
	}
	if e.ActorID == nil || *e.ActorID != actor {
		t.Errorf("expected actor %s", actor.Hex())
	}
	if e.Details["account_id"] != accountID.Hex() {
		t.Errorf("expected account_id detail, got %v", e.Details)
	}
	if e.RequestID == "" {
		t.Error("expected a request id")
	}
}

func TestLogger_AuthSettingIsSeparate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "off", Admin: "all"})
	req := httptest.NewRequest("POST", "/login", nil)
	logger.LoginFailed(ctx, req, audit.EventLoginFailedUserNotFound, primitive.NilObjectID, "x@y.z", "user not found")

	n, err := store.CountByType(ctx, audit.EventLoginFailedUserNotFound)
	if err != nil {
		t.Fatalf("CountByType failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected auth events suppressed, got %d", n)
	}
}

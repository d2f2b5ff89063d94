package authz_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/salescrm/internal/app/system/auth"
	"github.com/dalemusser/salescrm/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// testUserID returns a valid ObjectID hex string for tests.
func testUserID() string {
	return primitive.NewObjectID().Hex()
}

func TestUserCtx_NoUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)

	role, name, id, ok := authz.UserCtx(req)
	if ok {
		t.Fatal("expected ok=false with no user")
	}
	if role != "" || name != "" || !id.IsZero() {
		t.Errorf("expected zero values, got %q %q %v", role, name, id)
	}
}

func TestUserCtx_NormalizesRole(t *testing.T) {
	hex := testUserID()
	req := httptest.NewRequest("GET", "/test", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: hex, Name: "Alice", Role: " manager "})

	role, name, id, ok := authz.UserCtx(req)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if role != "MANAGER" {
		t.Errorf("expected MANAGER, got %q", role)
	}
	if name != "Alice" {
		t.Errorf("expected Alice, got %q", name)
	}
	if id.Hex() != hex {
		t.Errorf("expected %s, got %s", hex, id.Hex())
	}
}

func TestUserCtx_MalformedIDFailsClosed(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "not-an-objectid", Role: "ADMIN"})

	if _, _, _, ok := authz.UserCtx(req); ok {
		t.Error("expected ok=false for malformed ID")
	}
	if authz.IsAdmin(req) {
		t.Error("expected IsAdmin=false for malformed ID")
	}
}

func TestRolePredicates(t *testing.T) {
	tests := []struct {
		role                  string
		admin, manager, sales bool
	}{
		{"ADMIN", true, false, false},
		{"admin", true, false, false},
		{"MANAGER", false, true, false},
		{"SALES", false, false, true},
		{"GUEST", false, false, false},
	}

	for _, tc := range tests {
		t.Run(tc.role, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			req = auth.WithTestUser(req, &auth.SessionUser{ID: testUserID(), Role: tc.role})

			if got := authz.IsAdmin(req); got != tc.admin {
				t.Errorf("IsAdmin = %v, want %v", got, tc.admin)
			}
			if got := authz.IsManager(req); got != tc.manager {
				t.Errorf("IsManager = %v, want %v", got, tc.manager)
			}
			if got := authz.IsSales(req); got != tc.sales {
				t.Errorf("IsSales = %v, want %v", got, tc.sales)
			}
		})
	}
}

func TestHasAnyRole(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	if authz.HasAnyRole(req, "ADMIN", "SALES") {
		t.Error("expected false with no user")
	}

	req = auth.WithTestUser(req, &auth.SessionUser{ID: testUserID(), Role: "sales"})
	if !authz.HasAnyRole(req, "admin", "SALES") {
		t.Error("expected sales to match")
	}
	if authz.HasAnyRole(req, "ADMIN", "MANAGER") {
		t.Error("expected sales not to match admin/manager")
	}

	role, ok := authz.Role(req)
	if !ok || role != "SALES" {
		t.Errorf("Role() = %q, %v", role, ok)
	}
}

func TestUserTerritoryID(t *testing.T) {
	territory := primitive.NewObjectID()
	req := httptest.NewRequest("GET", "/test", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: testUserID(), Role: "SALES", TerritoryID: territory.Hex()})

	if got := authz.UserTerritoryID(req); got != territory {
		t.Errorf("expected %v, got %v", territory, got)
	}

	req = auth.WithTestUser(httptest.NewRequest("GET", "/test", nil), &auth.SessionUser{ID: testUserID(), Role: "SALES"})
	if got := authz.UserTerritoryID(req); !got.IsZero() {
		t.Errorf("expected zero territory, got %v", got)
	}
}

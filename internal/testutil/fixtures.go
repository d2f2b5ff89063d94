package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/salescrm/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) insert(ctx context.Context, coll string, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to insert test %s: %v", coll, err)
	}
}

// CreateTerritory creates a territory, optionally managed by managerID.
func (f *Fixtures) CreateTerritory(ctx context.Context, name string, managerID *primitive.ObjectID) models.Territory {
	f.t.Helper()
	now := time.Now().UTC()
	t := models.Territory{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		ManagerID: managerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "territories", t)
	return t
}

// CreateUser creates an active user with the given role and home territory.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email string, role models.Role, territoryID *primitive.ObjectID) models.User {
	f.t.Helper()
	now := time.Now().UTC()
	u := models.User{
		ID:          primitive.NewObjectID(),
		FullName:    fullName,
		FullNameCI:  text.Fold(fullName),
		Email:       email,
		Role:        role,
		Status:      models.UserActive,
		TerritoryID: territoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.insert(ctx, "users", u)
	return u
}

// CreateAdmin creates an admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleAdmin, nil)
}

// CreateManager creates a manager user. Territories are linked separately
// through territories.manager_id.
func (f *Fixtures) CreateManager(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleManager, nil)
}

// CreateSales creates a sales user in territoryID.
func (f *Fixtures) CreateSales(ctx context.Context, fullName, email string, territoryID primitive.ObjectID) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, models.RoleSales, &territoryID)
}

// CreateAccount creates an account owned and created by owner.
func (f *Fixtures) CreateAccount(ctx context.Context, name string, territoryID *primitive.ObjectID, owner primitive.ObjectID) models.Account {
	f.t.Helper()
	now := time.Now().UTC()
	a := models.Account{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		Status:      models.AccountActive,
		TerritoryID: territoryID,
		Ownership:   models.Ownership{AssignedTo: models.Ptr(owner), CreatedBy: models.Ptr(owner)},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.insert(ctx, "accounts", a)
	return a
}

// CreateLead creates a lead with the given status, owned and created by owner.
func (f *Fixtures) CreateLead(ctx context.Context, first, last, company string, status models.LeadStatus, territoryID *primitive.ObjectID, owner primitive.ObjectID) models.Lead {
	f.t.Helper()
	now := time.Now().UTC()
	l := models.Lead{
		ID:          primitive.NewObjectID(),
		FirstName:   first,
		LastName:    last,
		NameCI:      text.Fold(first + " " + last),
		CompanyName: company,
		Status:      status,
		TerritoryID: territoryID,
		Ownership:   models.Ownership{AssignedTo: models.Ptr(owner), CreatedBy: models.Ptr(owner)},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.insert(ctx, "leads", l)
	return l
}

// CreateContact creates a contact, optionally at accountID, owned and
// created by owner.
func (f *Fixtures) CreateContact(ctx context.Context, first, last string, accountID *primitive.ObjectID, owner primitive.ObjectID) models.Contact {
	f.t.Helper()
	now := time.Now().UTC()
	c := models.Contact{
		ID:        primitive.NewObjectID(),
		AccountID: accountID,
		FirstName: first,
		LastName:  last,
		NameCI:    text.Fold(first + " " + last),
		Ownership: models.Ownership{AssignedTo: models.Ptr(owner), CreatedBy: models.Ptr(owner)},
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "contacts", c)
	return c
}

// CreateDeal creates a prospecting deal against accountID, owned and
// created by owner. The number is random; tests that need sequential
// numbers go through the deal store.
func (f *Fixtures) CreateDeal(ctx context.Context, name string, accountID, owner primitive.ObjectID) models.Deal {
	f.t.Helper()
	now := time.Now().UTC()
	d := models.Deal{
		ID:          primitive.NewObjectID(),
		Number:      "T-" + primitive.NewObjectID().Hex(),
		Name:        name,
		NameCI:      text.Fold(name),
		AccountID:   accountID,
		Stage:       models.StageProspecting,
		Probability: models.StageProspecting.Probability(),
		Currency:    "USD",
		CloseDate:   now.AddDate(0, 0, 30),
		Ownership:   models.Ownership{AssignedTo: models.Ptr(owner), CreatedBy: models.Ptr(owner)},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.insert(ctx, "deals", d)
	return d
}

// CreateActivity creates an activity of kind with a status the kind
// accepts, owned and created by owner.
func (f *Fixtures) CreateActivity(ctx context.Context, kind models.ActivityKind, subject string, owner primitive.ObjectID) models.Activity {
	f.t.Helper()
	now := time.Now().UTC()
	a := models.Activity{
		ID:        primitive.NewObjectID(),
		Kind:      kind,
		Subject:   subject,
		SubjectCI: text.Fold(subject),
		Status:    models.EventPlanned,
		Ownership: models.Ownership{AssignedTo: models.Ptr(owner), CreatedBy: models.Ptr(owner)},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if kind == models.ActivityTask {
		a.Status = models.TaskNotStarted
	} else {
		a.StartTime = &now
	}
	f.insert(ctx, "activities", a)
	return a
}

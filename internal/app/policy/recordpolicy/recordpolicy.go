// internal/app/policy/recordpolicy/recordpolicy.go
package recordpolicy

import (
	"context"
	"net/http"

	"github.com/dalemusser/salescrm/internal/app/system/authz"
	"github.com/dalemusser/salescrm/internal/app/system/metrics"
	"github.com/dalemusser/salescrm/internal/app/system/scope"
	"github.com/dalemusser/salescrm/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// TerritorySignal says how (or whether) a record type is tied to a territory.
type TerritorySignal int

const (
	NoTerritory      TerritorySignal = iota // activities
	DirectTerritory                         // territory_id on the record
	AccountTerritory                        // territory of the linked account
)

// Kind identifies an ownable record type for scoping.
type Kind struct {
	Name      string
	Territory TerritorySignal
}

var (
	Accounts = Kind{Name: "accounts", Territory: DirectTerritory}
	Leads    = Kind{Name: "leads", Territory: DirectTerritory}
	Contacts = Kind{Name: "contacts", Territory: AccountTerritory}
	Deals    = Kind{Name: "deals", Territory: AccountTerritory}
	Quotes   = Kind{Name: "quotes", Territory: AccountTerritory}
	Tasks    = Kind{Name: "tasks", Territory: NoTerritory}
	Calls    = Kind{Name: "calls", Territory: NoTerritory}
	Meetings = Kind{Name: "meetings", Territory: NoTerritory}
)

// Actor is the authenticated user a scope is computed for.
type Actor struct {
	ID   primitive.ObjectID
	Role models.Role
}

// ActorFromRequest builds the Actor for the signed-in user. ok is false for
// anonymous requests.
func ActorFromRequest(r *http.Request) (Actor, bool) {
	role, _, uid, ok := authz.UserCtx(r)
	if !ok {
		return Actor{}, false
	}
	return Actor{ID: uid, Role: models.Role(role)}, true
}

// Directory answers the territory and team questions the manager branch
// needs. Implementations must read current state on every call.
type Directory interface {
	// ManagedTerritoryIDs returns the territories whose manager is managerID.
	ManagedTerritoryIDs(ctx context.Context, managerID primitive.ObjectID) ([]primitive.ObjectID, error)
	// SalesTeamIDs returns SALES users assigned to any of the territories,
	// excluding the given user.
	SalesTeamIDs(ctx context.Context, territoryIDs []primitive.ObjectID, exclude primitive.ObjectID) ([]primitive.ObjectID, error)
	// AccountIDsInTerritories returns accounts assigned to any of the territories.
	AccountIDsInTerritories(ctx context.Context, territoryIDs []primitive.ObjectID) ([]primitive.ObjectID, error)
}

// Policy computes which records an actor may list, view, and edit.
type Policy struct {
	dir Directory
	log *zap.Logger
}

// New returns a Policy backed by dir.
func New(dir Directory, logger *zap.Logger) *Policy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Policy{dir: dir, log: logger}
}

// Scope returns the visibility predicate for actor on records of kind k.
//
//   - ADMIN sees everything
//   - MANAGER sees own records plus records owned or created by the SALES
//     team of the territories they manage, plus (for territory-bearing kinds)
//     records in those territories
//   - SALES sees records assigned to or created by themself
//   - anything else sees nothing
//
// Scope never returns an error. If a manager's team lookup fails the result
// narrows to self-only visibility and the failure is logged and counted.
func (p *Policy) Scope(ctx context.Context, a Actor, k Kind) scope.Predicate {
	switch a.Role {
	case models.RoleAdmin:
		return scope.All()
	case models.RoleManager:
		pred, err := p.managerScope(ctx, a, k)
		if err != nil {
			p.log.Warn("manager scope lookup failed; falling back to self-only",
				zap.String("actor_id", a.ID.Hex()),
				zap.String("kind", k.Name),
				zap.Error(err))
			metrics.RecordScopeDegraded(k.Name)
			return selfOnly(a)
		}
		return pred
	case models.RoleSales:
		return selfOnly(a)
	default:
		return scope.None()
	}
}

// CanAccess reports whether rec falls inside actor's scope for kind k.
func (p *Policy) CanAccess(ctx context.Context, a Actor, k Kind, rec scope.Record) bool {
	return p.Scope(ctx, a, k).Match(rec)
}

func selfOnly(a Actor) scope.Predicate {
	return scope.Or(
		scope.Eq(models.FieldAssignedTo, a.ID),
		scope.Eq(models.FieldCreatedBy, a.ID),
	)
}

func (p *Policy) managerScope(ctx context.Context, a Actor, k Kind) (scope.Predicate, error) {
	if p.dir == nil {
		return nil, errNoDirectory
	}
	territories, err := p.dir.ManagedTerritoryIDs(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	if len(territories) == 0 {
		return selfOnly(a), nil
	}

	team, err := p.dir.SalesTeamIDs(ctx, territories, a.ID)
	if err != nil {
		return nil, err
	}

	terms := []scope.Predicate{
		scope.Eq(models.FieldAssignedTo, a.ID),
		scope.Eq(models.FieldCreatedBy, a.ID),
		scope.In(models.FieldAssignedTo, team),
		scope.In(models.FieldCreatedBy, team),
	}

	switch k.Territory {
	case DirectTerritory:
		terms = append(terms, scope.In(models.FieldTerritory, territories))
	case AccountTerritory:
		accounts, err := p.dir.AccountIDsInTerritories(ctx, territories)
		if err != nil {
			return nil, err
		}
		terms = append(terms, scope.In(models.FieldAccount, accounts))
	}

	return scope.Or(terms...), nil
}

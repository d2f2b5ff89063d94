// internal/app/features/accounts/view.go
package accounts

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/features/shared/respond"
	"github.com/dalemusser/salescrm/internal/app/policy/recordpolicy"
	"github.com/dalemusser/salescrm/internal/app/system/paging"
	"github.com/dalemusser/salescrm/internal/app/system/scope"
	"github.com/dalemusser/salescrm/internal/app/system/timeouts"
	"github.com/dalemusser/salescrm/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type accountView struct {
	models.Account
	Contacts []models.Contact `json:"contacts"`
	Deals    []models.Deal    `json:"deals"`
}

// load fetches an account and checks the actor's scope. On failure it has
// already answered and returns false.
func (h *Handler) load(ctx context.Context, w http.ResponseWriter, r *http.Request, actor recordpolicy.Actor, id primitive.ObjectID) (models.Account, bool) {
	a, err := h.Accounts.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		uierrors.RenderNotFound(w, r, "Account not found.", "/accounts")
		return a, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load account failed", err, "A database error occurred.", "/accounts")
		return a, false
	}
	if !h.Policy.CanAccess(ctx, actor, recordpolicy.Accounts, a) {
		uierrors.RenderForbidden(w, r, "You do not have permission to access this account.", "/accounts")
		return a, false
	}
	return a, true
}

// ServeView handles GET /accounts/{id}. The related contacts and deals are
// filtered by the actor's own scope for those kinds.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	actor, ok := recordpolicy.ActorFromRequest(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	id, ok := respond.ObjectIDParam(w, r, "id", "/accounts")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	a, ok := h.load(ctx, w, r, actor, id)
	if !ok {
		return
	}

	related := bson.M{"account_id": id}
	limit := paging.FindOptions(1, "name_ci").SetLimit(paging.PageSize)

	contacts, err := h.Contacts.Find(ctx,
		scope.Restrict(h.Policy.Scope(ctx, actor, recordpolicy.Contacts), related), limit)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load account contacts failed", err, "A database error occurred.", "/accounts")
		return
	}
	deals, err := h.Deals.Find(ctx,
		scope.Restrict(h.Policy.Scope(ctx, actor, recordpolicy.Deals), related), limit)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load account deals failed", err, "A database error occurred.", "/accounts")
		return
	}
	if contacts == nil {
		contacts = []models.Contact{}
	}
	if deals == nil {
		deals = []models.Deal{}
	}

	respond.JSON(w, http.StatusOK, accountView{Account: a, Contacts: contacts, Deals: deals})
}

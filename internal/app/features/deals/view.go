// internal/app/features/deals/view.go
package deals

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

type dealView struct {
	models.Deal
	Quotes []models.Quote `json:"quotes"`
}

func (h *Handler) load(ctx context.Context, w http.ResponseWriter, r *http.Request, actor recordpolicy.Actor, id primitive.ObjectID) (models.Deal, bool) {
	d, err := h.Deals.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		uierrors.RenderNotFound(w, r, "Deal not found.", "/deals")
		return d, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load deal failed", err, "A database error occurred.", "/deals")
		return d, false
	}
	if !h.Policy.CanAccess(ctx, actor, recordpolicy.Deals, d) {
		uierrors.RenderForbidden(w, r, "You do not have permission to access this deal.", "/deals")
		return d, false
	}
	return d, true
}

// ServeView handles GET /deals/{id} with the deal's quotes that the actor
// may see.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	actor, ok := recordpolicy.ActorFromRequest(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	id, ok := respond.ObjectIDParam(w, r, "id", "/deals")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	d, ok := h.load(ctx, w, r, actor, id)
	if !ok {
		return
	}

	pred := h.Policy.Scope(ctx, actor, recordpolicy.Quotes)
	quotes, err := h.Quotes.Find(ctx, scope.Restrict(pred, bson.M{"deal_id": id}),
		paging.FindOptions(1, "quote_number").SetLimit(paging.PageSize))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load deal quotes failed", err, "A database error occurred.", "/deals")
		return
	}
	if quotes == nil {
		quotes = []models.Quote{}
	}
	respond.JSON(w, http.StatusOK, dealView{Deal: d, Quotes: quotes})
}

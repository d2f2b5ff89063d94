// internal/app/features/deals/delete.go
package deals

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/features/shared/respond"
	"github.com/dalemusser/salescrm/internal/app/policy/recordpolicy"
	"github.com/dalemusser/salescrm/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
)

// HandleDelete handles POST /deals/{id}/delete. Quotes and related
// activities go with the deal.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := recordpolicy.ActorFromRequest(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	id, ok := respond.ObjectIDParam(w, r, "id", "/deals")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	d, err := h.Deals.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments || (err == nil && !h.Policy.CanAccess(ctx, actor, recordpolicy.Deals, d)) {
		uierrors.RenderNotFound(w, r, "Deal not found.", "/deals")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load deal failed", err, "A database error occurred.", "/deals")
		return
	}

	n, err := h.Cascade.Deal(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete deal failed", err, "A database error occurred.", "/deals")
		return
	}
	h.AuditLog.RecordDeleted(ctx, r, actor.ID, id, recordpolicy.Deals.Name)
	respond.JSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

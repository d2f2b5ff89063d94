// internal/app/features/leads/delete.go
package leads

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/features/shared/respond"
	"github.com/dalemusser/salescrm/internal/app/policy/recordpolicy"
	"github.com/dalemusser/salescrm/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
)

type deleted struct {
	Deleted int64 `json:"deleted"`
}

// HandleDelete handles POST /leads/{id}/delete. A lead outside the actor's
// scope answers 404 so its existence is not confirmed.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := recordpolicy.ActorFromRequest(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	id, ok := respond.ObjectIDParam(w, r, "id", "/leads")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	l, err := h.Leads.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments || (err == nil && !h.Policy.CanAccess(ctx, actor, recordpolicy.Leads, l)) {
		uierrors.RenderNotFound(w, r, "Lead not found.", "/leads")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load lead failed", err, "A database error occurred.", "/leads")
		return
	}

	n, err := h.Cascade.Lead(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete lead failed", err, "A database error occurred.", "/leads")
		return
	}
	h.AuditLog.RecordDeleted(ctx, r, actor.ID, id, recordpolicy.Leads.Name)
	respond.JSON(w, http.StatusOK, deleted{Deleted: n})
}

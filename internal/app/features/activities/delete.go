// internal/app/features/activities/delete.go
package activities

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/features/shared/respond"
	"github.com/dalemusser/salescrm/internal/app/policy/recordpolicy"
	"github.com/dalemusser/salescrm/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
)

// HandleDelete handles POST {base}/{id}/delete.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := recordpolicy.ActorFromRequest(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	id, ok := respond.ObjectIDParam(w, r, "id", h.Base)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	a, err := h.Activities.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments || (err == nil && !h.Policy.CanAccess(ctx, actor, h.Kind, a)) {
		uierrors.RenderNotFound(w, r, "Activity not found.", h.Base)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load activity failed", err, "A database error occurred.", h.Base)
		return
	}

	n, err := h.Activities.Delete(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete activity failed", err, "A database error occurred.", h.Base)
		return
	}
	h.AuditLog.RecordDeleted(ctx, r, actor.ID, id, h.Kind.Name)
	respond.JSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

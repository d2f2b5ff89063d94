// internal/app/features/quotes/delete.go
package quotes

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/features/shared/respond"
	"github.com/dalemusser/salescrm/internal/app/policy/recordpolicy"
	"github.com/dalemusser/salescrm/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
)

// HandleDelete handles POST /quotes/{id}/delete. Nothing hangs off a
// quote, so it is a single delete.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := recordpolicy.ActorFromRequest(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	id, ok := respond.ObjectIDParam(w, r, "id", "/quotes")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	q, err := h.Quotes.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments || (err == nil && !h.Policy.CanAccess(ctx, actor, recordpolicy.Quotes, q)) {
		uierrors.RenderNotFound(w, r, "Quote not found.", "/quotes")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load quote failed", err, "A database error occurred.", "/quotes")
		return
	}

	n, err := h.Quotes.Delete(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete quote failed", err, "A database error occurred.", "/quotes")
		return
	}
	h.AuditLog.RecordDeleted(ctx, r, actor.ID, id, recordpolicy.Quotes.Name)
	respond.JSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

// internal/app/features/contacts/delete.go
package contacts

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/features/shared/respond"
	"github.com/dalemusser/salescrm/internal/app/policy/recordpolicy"
	"github.com/dalemusser/salescrm/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
)

// HandleDelete handles POST /contacts/{id}/delete. Deals and quotes that
// named the contact keep existing with the reference cleared.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := recordpolicy.ActorFromRequest(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	id, ok := respond.ObjectIDParam(w, r, "id", "/contacts")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	c, err := h.Contacts.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments || (err == nil && !h.Policy.CanAccess(ctx, actor, recordpolicy.Contacts, c)) {
		uierrors.RenderNotFound(w, r, "Contact not found.", "/contacts")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load contact failed", err, "A database error occurred.", "/contacts")
		return
	}

	n, err := h.Cascade.Contact(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete contact failed", err, "A database error occurred.", "/contacts")
		return
	}
	h.AuditLog.RecordDeleted(ctx, r, actor.ID, id, recordpolicy.Contacts.Name)
	respond.JSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

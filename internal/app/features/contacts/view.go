// internal/app/features/contacts/view.go
package contacts

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/features/shared/respond"
	"github.com/dalemusser/salescrm/internal/app/policy/recordpolicy"
	"github.com/dalemusser/salescrm/internal/app/system/timeouts"
	"github.com/dalemusser/salescrm/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func (h *Handler) load(ctx context.Context, w http.ResponseWriter, r *http.Request, actor recordpolicy.Actor, id primitive.ObjectID) (models.Contact, bool) {
	c, err := h.Contacts.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		uierrors.RenderNotFound(w, r, "Contact not found.", "/contacts")
		return c, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load contact failed", err, "A database error occurred.", "/contacts")
		return c, false
	}
	if !h.Policy.CanAccess(ctx, actor, recordpolicy.Contacts, c) {
		uierrors.RenderForbidden(w, r, "You do not have permission to access this contact.", "/contacts")
		return c, false
	}
	return c, true
}

// ServeView handles GET /contacts/{id}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	actor, ok := recordpolicy.ActorFromRequest(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	id, ok := respond.ObjectIDParam(w, r, "id", "/contacts")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, ok := h.load(ctx, w, r, actor, id)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, c)
}

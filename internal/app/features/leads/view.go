// internal/app/features/leads/view.go
package leads

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

// load fetches a lead and checks the actor's scope. On failure it has
// already answered and returns false. Out-of-scope leads answer 403.
func (h *Handler) load(ctx context.Context, w http.ResponseWriter, r *http.Request, actor recordpolicy.Actor, id primitive.ObjectID) (models.Lead, bool) {
	l, err := h.Leads.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		uierrors.RenderNotFound(w, r, "Lead not found.", "/leads")
		return l, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load lead failed", err, "A database error occurred.", "/leads")
		return l, false
	}
	if !h.Policy.CanAccess(ctx, actor, recordpolicy.Leads, l) {
		uierrors.RenderForbidden(w, r, "You do not have permission to access this lead.", "/leads")
		return l, false
	}
	return l, true
}

// ServeView handles GET /leads/{id}. Converted leads stay viewable.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	actor, ok := recordpolicy.ActorFromRequest(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	id, ok := respond.ObjectIDParam(w, r, "id", "/leads")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	l, ok := h.load(ctx, w, r, actor, id)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, l)
}

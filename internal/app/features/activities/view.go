// internal/app/features/activities/view.go
package activities

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

func (h *Handler) load(ctx context.Context, w http.ResponseWriter, r *http.Request, actor recordpolicy.Actor, id primitive.ObjectID) (models.Activity, bool) {
	a, err := h.Activities.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		uierrors.RenderNotFound(w, r, "Activity not found.", h.Base)
		return a, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load activity failed", err, "A database error occurred.", h.Base)
		return a, false
	}
	if !h.Policy.CanAccess(ctx, actor, h.Kind, a) {
		uierrors.RenderForbidden(w, r, "You do not have permission to access this activity.", h.Base)
		return a, false
	}
	return a, true
}

// ServeView handles GET {base}/{id}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	actor, ok := recordpolicy.ActorFromRequest(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	id, ok := respond.ObjectIDParam(w, r, "id", h.Base)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, ok := h.load(ctx, w, r, actor, id)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, a)
}

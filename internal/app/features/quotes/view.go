// internal/app/features/quotes/view.go
package quotes

import (
	"context"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/features/shared/respond"
	"github.com/dalemusser/salescrm/internal/app/policy/recordpolicy"
	"github.com/dalemusser/salescrm/internal/app/system/timeouts"
	"github.com/dalemusser/salescrm/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type quoteView struct {
	models.Quote
	ExpiryDate *time.Time `json:"expiry_date,omitempty"`
}

func (h *Handler) load(ctx context.Context, w http.ResponseWriter, r *http.Request, actor recordpolicy.Actor, id primitive.ObjectID) (models.Quote, bool) {
	q, err := h.Quotes.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		uierrors.RenderNotFound(w, r, "Quote not found.", "/quotes")
		return q, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load quote failed", err, "A database error occurred.", "/quotes")
		return q, false
	}
	if !h.Policy.CanAccess(ctx, actor, recordpolicy.Quotes, q) {
		uierrors.RenderForbidden(w, r, "You do not have permission to access this quote.", "/quotes")
		return q, false
	}
	return q, true
}

// ServeView handles GET /quotes/{id}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	actor, ok := recordpolicy.ActorFromRequest(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	id, ok := respond.ObjectIDParam(w, r, "id", "/quotes")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	q, ok := h.load(ctx, w, r, actor, id)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, quoteView{Quote: q, ExpiryDate: q.ExpiryDate()})
}

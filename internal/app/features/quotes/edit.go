// internal/app/features/quotes/edit.go
package quotes

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/features/shared/respond"
	"github.com/dalemusser/salescrm/internal/app/policy/recordpolicy"
	quotestore "github.com/dalemusser/salescrm/internal/app/store/quotes"
	"github.com/dalemusser/salescrm/internal/app/system/timeouts"
	"github.com/dalemusser/salescrm/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const dealMissing = "Deal not found."

// HandleCreate handles POST /quotes. The quote number is assigned by the
// store and the account is copied from the deal.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := recordpolicy.ActorFromRequest(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/quotes")
		return
	}

	q, msg := quoteFromForm(r)
	if msg != "" {
		uierrors.RenderBadRequest(w, r, msg, "/quotes")
		return
	}
	q.CreatedBy = models.Ptr(actor.ID)
	if q.AssignedTo == nil {
		q.AssignedTo = models.Ptr(actor.ID)
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	visible, err := h.dealVisible(ctx, actor, q.DealID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load deal failed", err, "A database error occurred.", "/quotes")
		return
	}
	if !visible {
		uierrors.RenderBadRequest(w, r, dealMissing, "/quotes")
		return
	}

	created, err := h.Quotes.Create(ctx, q)
	if errors.Is(err, quotestore.ErrDealNotFound) {
		uierrors.RenderBadRequest(w, r, dealMissing, "/quotes")
		return
	}
	if err != nil {
		if respond.Invalid(w, r, err, "/quotes") {
			return
		}
		h.ErrLog.LogServerError(w, r, "create quote failed", err, "A database error occurred.", "/quotes")
		return
	}

	h.Log.Info("quote created",
		zap.String("quote_id", created.ID.Hex()),
		zap.String("quote_number", created.Number),
		zap.String("actor_id", actor.ID.Hex()))
	respond.JSON(w, http.StatusCreated, quoteView{Quote: created, ExpiryDate: created.ExpiryDate()})
}

// HandleEdit handles POST /quotes/{id}/edit.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	actor, ok := recordpolicy.ActorFromRequest(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	id, ok := respond.ObjectIDParam(w, r, "id", "/quotes")
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/quotes/"+id.Hex())
		return
	}
	back := "/quotes/" + id.Hex()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	existing, ok := h.load(ctx, w, r, actor, id)
	if !ok {
		return
	}

	q, msg := quoteFromForm(r)
	if msg != "" {
		uierrors.RenderBadRequest(w, r, msg, back)
		return
	}
	if q.AssignedTo == nil {
		q.AssignedTo = existing.AssignedTo
	}
	if q.Status == "" {
		q.Status = existing.Status
	}
	if q.ValidityDays == 0 {
		q.ValidityDays = existing.ValidityDays
	}

	if q.DealID != existing.DealID {
		visible, err := h.dealVisible(ctx, actor, q.DealID)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "load deal failed", err, "A database error occurred.", back)
			return
		}
		if !visible {
			uierrors.RenderBadRequest(w, r, dealMissing, back)
			return
		}
	}

	err := h.Quotes.Update(ctx, id, q)
	switch {
	case err == nil:
	case errors.Is(err, quotestore.ErrDealNotFound):
		uierrors.RenderBadRequest(w, r, dealMissing, back)
		return
	case errors.Is(err, mongo.ErrNoDocuments):
		uierrors.RenderNotFound(w, r, "Quote not found.", "/quotes")
		return
	default:
		if respond.Invalid(w, r, err, back) {
			return
		}
		h.ErrLog.LogServerError(w, r, "update quote failed", err, "A database error occurred.", back)
		return
	}

	updated, err := h.Quotes.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "reload quote failed", err, "A database error occurred.", back)
		return
	}
	respond.JSON(w, http.StatusOK, quoteView{Quote: updated, ExpiryDate: updated.ExpiryDate()})
}

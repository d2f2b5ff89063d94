// internal/app/features/deals/edit.go
package deals

import (
	"context"
	"errors"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/features/shared/respond"
	"github.com/dalemusser/salescrm/internal/app/policy/recordpolicy"
	dealstore "github.com/dalemusser/salescrm/internal/app/store/deals"
	"github.com/dalemusser/salescrm/internal/app/system/timeouts"
	"github.com/dalemusser/salescrm/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// HandleCreate handles POST /deals. The deal number is assigned by the
// store; probability always follows the stage.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := recordpolicy.ActorFromRequest(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/deals")
		return
	}

	f, msg := dealFromForm(r)
	if msg != "" {
		uierrors.RenderBadRequest(w, r, msg, "/deals")
		return
	}
	d := f.Deal
	d.CreatedBy = models.Ptr(actor.ID)
	if d.AssignedTo == nil {
		d.AssignedTo = models.Ptr(actor.ID)
	}
	if d.Currency == "" {
		d.Currency = h.Defaults.Currency
	}
	if f.CloseDate != nil {
		d.CloseDate = *f.CloseDate
	} else {
		d.CloseDate = time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, h.Defaults.CloseDays)
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	visible, err := h.accountVisible(ctx, actor, d.AccountID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load account failed", err, "A database error occurred.", "/deals")
		return
	}
	if !visible {
		uierrors.RenderBadRequest(w, r, "Account not found.", "/deals")
		return
	}

	created, err := h.Deals.Create(ctx, d)
	if err != nil {
		if respond.Invalid(w, r, err, "/deals") {
			return
		}
		h.ErrLog.LogServerError(w, r, "create deal failed", err, "A database error occurred.", "/deals")
		return
	}

	h.Log.Info("deal created",
		zap.String("deal_id", created.ID.Hex()),
		zap.String("deal_number", created.Number),
		zap.String("actor_id", actor.ID.Hex()))
	respond.JSON(w, http.StatusCreated, created)
}

// HandleEdit handles POST /deals/{id}/edit.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	actor, ok := recordpolicy.ActorFromRequest(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	id, ok := respond.ObjectIDParam(w, r, "id", "/deals")
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/deals/"+id.Hex())
		return
	}
	back := "/deals/" + id.Hex()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	existing, ok := h.load(ctx, w, r, actor, id)
	if !ok {
		return
	}

	f, msg := dealFromForm(r)
	if msg != "" {
		uierrors.RenderBadRequest(w, r, msg, back)
		return
	}
	d := f.Deal
	if d.AssignedTo == nil {
		d.AssignedTo = existing.AssignedTo
	}
	if d.Currency == "" {
		d.Currency = existing.Currency
	}
	d.CloseDate = existing.CloseDate
	if f.CloseDate != nil {
		d.CloseDate = *f.CloseDate
	}

	if d.AccountID != existing.AccountID {
		visible, err := h.accountVisible(ctx, actor, d.AccountID)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "load account failed", err, "A database error occurred.", back)
			return
		}
		if !visible {
			uierrors.RenderBadRequest(w, r, "Account not found.", back)
			return
		}
	}

	err := h.Deals.Update(ctx, id, d)
	switch {
	case err == nil:
	case errors.Is(err, mongo.ErrNoDocuments):
		uierrors.RenderNotFound(w, r, "Deal not found.", "/deals")
		return
	case errors.Is(err, dealstore.ErrDuplicateNumber):
		uierrors.RenderConflict(w, r, err.Error(), back)
		return
	default:
		if respond.Invalid(w, r, err, back) {
			return
		}
		h.ErrLog.LogServerError(w, r, "update deal failed", err, "A database error occurred.", back)
		return
	}

	updated, err := h.Deals.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "reload deal failed", err, "A database error occurred.", back)
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

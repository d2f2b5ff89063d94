// internal/app/features/contacts/edit.go
package contacts

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/features/shared/respond"
	"github.com/dalemusser/salescrm/internal/app/policy/recordpolicy"
	"github.com/dalemusser/salescrm/internal/app/system/timeouts"
	"github.com/dalemusser/salescrm/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// HandleCreate handles POST /contacts.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := recordpolicy.ActorFromRequest(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/contacts")
		return
	}

	c, msg := contactFromForm(r)
	if msg != "" {
		uierrors.RenderBadRequest(w, r, msg, "/contacts")
		return
	}
	c.CreatedBy = models.Ptr(actor.ID)
	if c.AssignedTo == nil {
		c.AssignedTo = models.Ptr(actor.ID)
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	found, err := h.accountVisible(ctx, actor, c.AccountID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load account failed", err, "A database error occurred.", "/contacts")
		return
	}
	if !found {
		uierrors.RenderBadRequest(w, r, "Account not found.", "/contacts")
		return
	}

	created, err := h.Contacts.Create(ctx, c)
	if err != nil {
		if respond.Invalid(w, r, err, "/contacts") {
			return
		}
		h.ErrLog.LogServerError(w, r, "create contact failed", err, "A database error occurred.", "/contacts")
		return
	}

	h.Log.Info("contact created", zap.String("contact_id", created.ID.Hex()), zap.String("actor_id", actor.ID.Hex()))
	respond.JSON(w, http.StatusCreated, created)
}

// HandleEdit handles POST /contacts/{id}/edit.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	actor, ok := recordpolicy.ActorFromRequest(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	id, ok := respond.ObjectIDParam(w, r, "id", "/contacts")
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/contacts/"+id.Hex())
		return
	}
	back := "/contacts/" + id.Hex()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	existing, ok := h.load(ctx, w, r, actor, id)
	if !ok {
		return
	}

	c, msg := contactFromForm(r)
	if msg != "" {
		uierrors.RenderBadRequest(w, r, msg, back)
		return
	}
	if c.AssignedTo == nil {
		c.AssignedTo = existing.AssignedTo
	}

	// Keeping the current account needs no check; moving to another does.
	found := true
	var err error
	if !models.SameID(c.AccountID, existing.AccountID) {
		found, err = h.accountVisible(ctx, actor, c.AccountID)
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load account failed", err, "A database error occurred.", back)
		return
	}
	if !found {
		uierrors.RenderBadRequest(w, r, "Account not found.", back)
		return
	}

	err = h.Contacts.Update(ctx, id, c)
	if err == mongo.ErrNoDocuments {
		uierrors.RenderNotFound(w, r, "Contact not found.", "/contacts")
		return
	}
	if err != nil {
		if respond.Invalid(w, r, err, back) {
			return
		}
		h.ErrLog.LogServerError(w, r, "update contact failed", err, "A database error occurred.", back)
		return
	}

	updated, err := h.Contacts.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "reload contact failed", err, "A database error occurred.", back)
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

// internal/app/features/leads/edit.go
package leads

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/features/shared/respond"
	"github.com/dalemusser/salescrm/internal/app/policy/recordpolicy"
	leadstore "github.com/dalemusser/salescrm/internal/app/store/leads"
	"github.com/dalemusser/salescrm/internal/app/system/authz"
	"github.com/dalemusser/salescrm/internal/app/system/timeouts"
	"github.com/dalemusser/salescrm/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// HandleCreate handles POST /leads. The creator is the actor; the assignee
// defaults to the actor and the territory to the actor's own.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := recordpolicy.ActorFromRequest(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/leads")
		return
	}

	l, msg := leadFromForm(r)
	if msg != "" {
		uierrors.RenderBadRequest(w, r, msg, "/leads")
		return
	}
	if l.Status == models.LeadConverted {
		uierrors.RenderBadRequest(w, r, "Leads are converted with the convert action.", "/leads")
		return
	}
	l.CreatedBy = models.Ptr(actor.ID)
	if l.AssignedTo == nil {
		l.AssignedTo = models.Ptr(actor.ID)
	}
	if l.TerritoryID == nil {
		l.TerritoryID = models.Ptr(authz.UserTerritoryID(r))
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	created, err := h.Leads.Create(ctx, l)
	if err != nil {
		if respond.Invalid(w, r, err, "/leads") {
			return
		}
		h.ErrLog.LogServerError(w, r, "create lead failed", err, "A database error occurred.", "/leads")
		return
	}

	h.Log.Info("lead created", zap.String("lead_id", created.ID.Hex()), zap.String("actor_id", actor.ID.Hex()))
	respond.JSON(w, http.StatusCreated, created)
}

// HandleEdit handles POST /leads/{id}/edit. Converted leads are frozen.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	actor, ok := recordpolicy.ActorFromRequest(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	id, ok := respond.ObjectIDParam(w, r, "id", "/leads")
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/leads/"+id.Hex())
		return
	}
	back := "/leads/" + id.Hex()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	existing, ok := h.load(ctx, w, r, actor, id)
	if !ok {
		return
	}
	if existing.Status == models.LeadConverted {
		uierrors.RenderConflict(w, r, "This lead has been converted and can no longer be edited.", back)
		return
	}

	l, msg := leadFromForm(r)
	if msg != "" {
		uierrors.RenderBadRequest(w, r, msg, back)
		return
	}
	if l.AssignedTo == nil {
		l.AssignedTo = existing.AssignedTo
	}

	err := h.Leads.Update(ctx, id, l)
	switch {
	case err == nil:
	case errors.Is(err, leadstore.ErrConverted):
		uierrors.RenderConflict(w, r, "This lead has been converted and can no longer be edited.", back)
		return
	case errors.Is(err, leadstore.ErrConvertViaWorkflow):
		uierrors.RenderBadRequest(w, r, "Leads are converted with the convert action.", back)
		return
	case errors.Is(err, mongo.ErrNoDocuments):
		uierrors.RenderNotFound(w, r, "Lead not found.", "/leads")
		return
	default:
		if respond.Invalid(w, r, err, back) {
			return
		}
		h.ErrLog.LogServerError(w, r, "update lead failed", err, "A database error occurred.", back)
		return
	}

	updated, err := h.Leads.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "reload lead failed", err, "A database error occurred.", back)
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

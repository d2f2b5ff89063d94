// internal/app/features/activities/edit.go
package activities

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

// HandleCreate handles POST {base}.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := recordpolicy.ActorFromRequest(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", h.Base)
		return
	}

	a, msg := h.activityFromForm(r)
	if msg != "" {
		uierrors.RenderBadRequest(w, r, msg, h.Base)
		return
	}
	a.CreatedBy = models.Ptr(actor.ID)
	if a.AssignedTo == nil {
		a.AssignedTo = models.Ptr(actor.ID)
	}
	if h.isTask() && a.Priority == "" {
		a.Priority = models.PriorityNormal
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	msg, err := h.checkRelated(ctx, actor, a, nil)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load related record failed", err, "A database error occurred.", h.Base)
		return
	}
	if msg != "" {
		uierrors.RenderBadRequest(w, r, msg, h.Base)
		return
	}

	created, err := h.Activities.Create(ctx, a)
	if err != nil {
		if respond.Invalid(w, r, err, h.Base) {
			return
		}
		h.ErrLog.LogServerError(w, r, "create activity failed", err, "A database error occurred.", h.Base)
		return
	}

	h.Log.Info("activity created", zap.String("activity_id", created.ID.Hex()), zap.String("actor_id", actor.ID.Hex()))
	respond.JSON(w, http.StatusCreated, created)
}

// HandleEdit handles POST {base}/{id}/edit.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	actor, ok := recordpolicy.ActorFromRequest(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	id, ok := respond.ObjectIDParam(w, r, "id", h.Base)
	if !ok {
		return
	}
	back := h.Base + "/" + id.Hex()
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", back)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	existing, ok := h.load(ctx, w, r, actor, id)
	if !ok {
		return
	}

	a, msg := h.activityFromForm(r)
	if msg != "" {
		uierrors.RenderBadRequest(w, r, msg, back)
		return
	}
	if a.AssignedTo == nil {
		a.AssignedTo = existing.AssignedTo
	}
	if a.Status == "" {
		a.Status = existing.Status
	}
	if h.isTask() && a.Priority == "" {
		a.Priority = existing.Priority
	}

	msg, err := h.checkRelated(ctx, actor, a, &existing)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load related record failed", err, "A database error occurred.", back)
		return
	}
	if msg != "" {
		uierrors.RenderBadRequest(w, r, msg, back)
		return
	}

	err = h.Activities.Update(ctx, id, a)
	if err == mongo.ErrNoDocuments {
		uierrors.RenderNotFound(w, r, "Activity not found.", h.Base)
		return
	}
	if err != nil {
		if respond.Invalid(w, r, err, back) {
			return
		}
		h.ErrLog.LogServerError(w, r, "update activity failed", err, "A database error occurred.", back)
		return
	}

	updated, err := h.Activities.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "reload activity failed", err, "A database error occurred.", back)
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

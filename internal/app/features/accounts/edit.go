// internal/app/features/accounts/edit.go
package accounts

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/features/shared/respond"
	"github.com/dalemusser/salescrm/internal/app/policy/recordpolicy"
	accountstore "github.com/dalemusser/salescrm/internal/app/store/accounts"
	"github.com/dalemusser/salescrm/internal/app/system/authz"
	"github.com/dalemusser/salescrm/internal/app/system/timeouts"
	"github.com/dalemusser/salescrm/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const duplicateName = "An account with this name already exists."

// HandleCreate handles POST /accounts.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := recordpolicy.ActorFromRequest(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/accounts")
		return
	}

	a, msg := accountFromForm(r)
	if msg != "" {
		uierrors.RenderBadRequest(w, r, msg, "/accounts")
		return
	}
	a.CreatedBy = models.Ptr(actor.ID)
	if a.AssignedTo == nil {
		a.AssignedTo = models.Ptr(actor.ID)
	}
	if a.TerritoryID == nil {
		a.TerritoryID = models.Ptr(authz.UserTerritoryID(r))
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	created, err := h.Accounts.Create(ctx, a)
	if errors.Is(err, accountstore.ErrDuplicateAccount) {
		uierrors.RenderConflict(w, r, duplicateName, "/accounts")
		return
	}
	if err != nil {
		if respond.Invalid(w, r, err, "/accounts") {
			return
		}
		h.ErrLog.LogServerError(w, r, "create account failed", err, "A database error occurred.", "/accounts")
		return
	}

	h.Log.Info("account created", zap.String("account_id", created.ID.Hex()), zap.String("actor_id", actor.ID.Hex()))
	respond.JSON(w, http.StatusCreated, created)
}

// HandleEdit handles POST /accounts/{id}/edit.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	actor, ok := recordpolicy.ActorFromRequest(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	id, ok := respond.ObjectIDParam(w, r, "id", "/accounts")
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/accounts/"+id.Hex())
		return
	}
	back := "/accounts/" + id.Hex()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	existing, ok := h.load(ctx, w, r, actor, id)
	if !ok {
		return
	}

	a, msg := accountFromForm(r)
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

	err := h.Accounts.Update(ctx, id, a)
	switch {
	case err == nil:
	case errors.Is(err, accountstore.ErrDuplicateAccount):
		uierrors.RenderConflict(w, r, duplicateName, back)
		return
	case errors.Is(err, mongo.ErrNoDocuments):
		uierrors.RenderNotFound(w, r, "Account not found.", "/accounts")
		return
	default:
		if respond.Invalid(w, r, err, back) {
			return
		}
		h.ErrLog.LogServerError(w, r, "update account failed", err, "A database error occurred.", back)
		return
	}

	updated, err := h.Accounts.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "reload account failed", err, "A database error occurred.", back)
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

// internal/app/features/accounts/delete.go
package accounts

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/features/shared/respond"
	"github.com/dalemusser/salescrm/internal/app/policy/recordpolicy"
	"github.com/dalemusser/salescrm/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type deleted struct {
	Deleted int64 `json:"deleted"`
}

// HandleDelete handles POST /accounts/{id}/delete. Everything attached to
// the account is deleted with it.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := recordpolicy.ActorFromRequest(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	id, ok := respond.ObjectIDParam(w, r, "id", "/accounts")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	a, err := h.Accounts.GetByID(ctx, id)
	if err == mongo.ErrNoDocuments || (err == nil && !h.Policy.CanAccess(ctx, actor, recordpolicy.Accounts, a)) {
		uierrors.RenderNotFound(w, r, "Account not found.", "/accounts")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load account failed", err, "A database error occurred.", "/accounts")
		return
	}

	n, err := h.Cascade.Account(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete account failed", err, "A database error occurred.", "/accounts")
		return
	}
	h.AuditLog.RecordDeleted(ctx, r, actor.ID, id, recordpolicy.Accounts.Name)
	h.Log.Info("account deleted", zap.String("account_id", id.Hex()), zap.String("actor_id", actor.ID.Hex()))
	respond.JSON(w, http.StatusOK, deleted{Deleted: n})
}

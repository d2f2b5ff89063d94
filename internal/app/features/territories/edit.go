// internal/app/features/territories/edit.go
package territories

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/features/shared/respond"
	"github.com/dalemusser/salescrm/internal/app/store/audit"
	territorystore "github.com/dalemusser/salescrm/internal/app/store/territories"
	"github.com/dalemusser/salescrm/internal/app/system/authz"
	"github.com/dalemusser/salescrm/internal/app/system/formutil"
	"github.com/dalemusser/salescrm/internal/app/system/timeouts"
	"github.com/dalemusser/salescrm/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var errNotManager = errors.New("manager must be an active user with the MANAGER role")

// territoryFromForm reads name, description and manager_id. The manager,
// when given, must be an active MANAGER.
func (h *Handler) territoryFromForm(ctx context.Context, r *http.Request) (models.Territory, error) {
	t := models.Territory{
		Name:        formutil.Text(r, "name"),
		Description: formutil.Text(r, "description"),
	}
	mgr, err := formutil.OptionalID(r, "manager_id")
	if err != nil {
		return t, errNotManager
	}
	if mgr != nil {
		u, err := h.Users.GetByID(ctx, *mgr)
		if err == mongo.ErrNoDocuments {
			return t, errNotManager
		}
		if err != nil {
			return t, err
		}
		if u.Role != models.RoleManager || u.Status != models.UserActive {
			return t, errNotManager
		}
	}
	t.ManagerID = mgr
	return t, nil
}

// HandleCreate handles POST /territories.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_, _, actorID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	if !authz.IsAdmin(r) {
		uierrors.RenderForbidden(w, r, "Only administrators can manage territories.", "/")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/territories")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	t, err := h.territoryFromForm(ctx, r)
	if err == nil {
		t, err = h.Territories.Create(ctx, t)
	}
	if err != nil {
		h.writeErr(w, r, "create territory failed", err, "/territories")
		return
	}

	h.AuditLog.TerritoryChanged(ctx, r, audit.EventTerritoryCreated, actorID, t.ID, t.ManagerID)
	h.Log.Info("territory created", zap.String("territory_id", t.ID.Hex()), zap.String("actor_id", actorID.Hex()))
	respond.JSON(w, http.StatusCreated, t)
}

// HandleEdit handles POST /territories/{id}/edit. An empty manager_id
// leaves the territory unmanaged.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	_, _, actorID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	if !authz.IsAdmin(r) {
		uierrors.RenderForbidden(w, r, "Only administrators can manage territories.", "/")
		return
	}
	id, ok := respond.ObjectIDParam(w, r, "id", "/territories")
	if !ok {
		return
	}
	back := "/territories/" + id.Hex()
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", back)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	t, err := h.territoryFromForm(ctx, r)
	if err == nil {
		err = h.Territories.Update(ctx, id, t)
	}
	if err != nil {
		h.writeErr(w, r, "update territory failed", err, back)
		return
	}

	updated, err := h.Territories.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "reload territory failed", err, "A database error occurred.", back)
		return
	}
	h.AuditLog.TerritoryChanged(ctx, r, audit.EventTerritoryUpdated, actorID, id, updated.ManagerID)
	respond.JSON(w, http.StatusOK, updated)
}

func (h *Handler) writeErr(w http.ResponseWriter, r *http.Request, msg string, err error, back string) {
	switch {
	case errors.Is(err, errNotManager):
		uierrors.RenderBadRequest(w, r, "Manager must be an active user with the manager role.", back)
	case errors.Is(err, territorystore.ErrDuplicateTerritory):
		uierrors.RenderConflict(w, r, "A territory with this name already exists.", back)
	case err == mongo.ErrNoDocuments:
		uierrors.RenderNotFound(w, r, "Territory not found.", "/territories")
	default:
		if respond.Invalid(w, r, err, back) {
			return
		}
		h.ErrLog.LogServerError(w, r, msg, err, "A database error occurred.", back)
	}
}

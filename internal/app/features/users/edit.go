// internal/app/features/users/edit.go
package users

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/features/shared/respond"
	userstore "github.com/dalemusser/salescrm/internal/app/store/users"
	"github.com/dalemusser/salescrm/internal/app/system/authz"
	"github.com/dalemusser/salescrm/internal/app/system/timeouts"
	"github.com/dalemusser/salescrm/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// HandleCreate handles POST /users. A password is required so the new user
// can sign in.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_, _, actorID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	if !authz.IsAdmin(r) {
		uierrors.RenderForbidden(w, r, "Only administrators can manage users.", "/")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/users")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	f, msg, err := h.readForm(ctx, r)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load territory failed", err, "A database error occurred.", "/users")
		return
	}
	if msg == "" && f.Password == "" {
		msg = "Password is required."
	}
	if msg != "" {
		uierrors.RenderBadRequest(w, r, msg, "/users")
		return
	}

	u, err := h.Users.Create(ctx, models.User{
		FullName:    f.FullName,
		Email:       f.Email,
		Phone:       f.Phone,
		Role:        f.Role,
		Status:      f.Status,
		TerritoryID: f.TerritoryID,
	}, f.Password)
	if err != nil {
		h.writeErr(w, r, "create user failed", err, "/users")
		return
	}

	h.AuditLog.UserCreated(ctx, r, actorID, u.ID, string(u.Role))
	h.Log.Info("user created", zap.String("user_id", u.ID.Hex()), zap.String("role", string(u.Role)))
	respond.JSON(w, http.StatusCreated, u)
}

// HandleEdit handles POST /users/{id}/edit. A non-empty password replaces
// the current one. Admins cannot demote or disable themselves.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	_, _, actorID, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	if !authz.IsAdmin(r) {
		uierrors.RenderForbidden(w, r, "Only administrators can manage users.", "/")
		return
	}
	id, ok := respond.ObjectIDParam(w, r, "id", "/users")
	if !ok {
		return
	}
	back := "/users/" + id.Hex()
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", back)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	existing, err := h.Users.GetByID(ctx, id)
	if err != nil {
		h.writeErr(w, r, "load user failed", err, back)
		return
	}

	f, msg, err := h.readForm(ctx, r)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load territory failed", err, "A database error occurred.", back)
		return
	}
	if f.Status == "" {
		f.Status = existing.Status
	}
	if msg == "" && id == actorID && (f.Role != models.RoleAdmin || f.Status != models.UserActive) {
		msg = "You cannot remove your own admin access."
	}
	if msg != "" {
		uierrors.RenderBadRequest(w, r, msg, back)
		return
	}

	err = h.Users.Update(ctx, id, userstore.Update{
		FullName:    f.FullName,
		Email:       f.Email,
		Phone:       f.Phone,
		Role:        f.Role,
		Status:      f.Status,
		TerritoryID: f.TerritoryID,
	})
	if err == nil && f.Password != "" {
		err = h.Users.SetPassword(ctx, id, f.Password)
	}
	if err != nil {
		h.writeErr(w, r, "update user failed", err, back)
		return
	}

	h.AuditLog.UserUpdated(ctx, r, actorID, id, changedFields(*existing, f))

	updated, err := h.Users.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "reload user failed", err, "A database error occurred.", back)
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

// changedFields names the audited fields that differ, comma-separated.
func changedFields(old models.User, f userForm) string {
	var out []string
	if old.FullName != f.FullName {
		out = append(out, "full_name")
	}
	if old.Email != f.Email {
		out = append(out, "email")
	}
	if old.Role != f.Role {
		out = append(out, "role")
	}
	if old.Status != f.Status {
		out = append(out, "status")
	}
	if !models.SameID(old.TerritoryID, f.TerritoryID) {
		out = append(out, "territory_id")
	}
	if f.Password != "" {
		out = append(out, "password")
	}
	return strings.Join(out, ",")
}

func (h *Handler) writeErr(w http.ResponseWriter, r *http.Request, msg string, err error, back string) {
	switch {
	case errors.Is(err, userstore.ErrDuplicateEmail):
		uierrors.RenderConflict(w, r, "A user with this email already exists.", back)
	case err == mongo.ErrNoDocuments:
		uierrors.RenderNotFound(w, r, "User not found.", "/users")
	default:
		if respond.Invalid(w, r, err, back) {
			return
		}
		h.ErrLog.LogServerError(w, r, msg, err, "A database error occurred.", back)
	}
}

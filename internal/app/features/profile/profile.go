// internal/app/features/profile/profile.go
package profile

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/salescrm/internal/app/features/errors"
	"github.com/dalemusser/salescrm/internal/app/features/shared/respond"
	userstore "github.com/dalemusser/salescrm/internal/app/store/users"
	"github.com/dalemusser/salescrm/internal/app/system/authz"
	"github.com/dalemusser/salescrm/internal/app/system/timeouts"
	"github.com/dalemusser/salescrm/internal/domain/models"
	"go.uber.org/zap"
)

type profileData struct {
	User *models.User `json:"user"`
}

// ServeProfile handles GET /profile: the signed-in user's own record.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		uierrors.RenderNotFound(w, r, "User not found.", "/")
		return
	}
	respond.JSON(w, http.StatusOK, profileData{User: user})
}

// HandleChangePassword handles POST /profile/password with
// current_password, new_password and confirm_password.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/profile")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		uierrors.RenderNotFound(w, r, "User not found.", "/")
		return
	}

	currentPassword := r.PostFormValue("current_password")
	newPassword := r.PostFormValue("new_password")
	confirmPassword := r.PostFormValue("confirm_password")

	if !userstore.CheckPassword(user, currentPassword) {
		uierrors.RenderBadRequest(w, r, "Current password is incorrect.", "/profile")
		return
	}
	if len(newPassword) < userstore.MinPasswordLen {
		uierrors.RenderBadRequest(w, r, "New password is too short.", "/profile")
		return
	}
	if newPassword != confirmPassword {
		uierrors.RenderBadRequest(w, r, "New passwords do not match.", "/profile")
		return
	}
	// Don't allow reusing the current password
	if userstore.CheckPassword(user, newPassword) {
		uierrors.RenderBadRequest(w, r, "New password cannot be the same as your current password.", "/profile")
		return
	}

	if err := h.Users.SetPassword(ctx, uid, newPassword); err != nil {
		h.ErrLog.LogServerError(w, r, "update password failed", err, "Failed to update password.", "/profile")
		return
	}

	h.AuditLog.PasswordChanged(ctx, r, uid)
	h.Log.Info("password changed", zap.String("user_id", uid.Hex()))
	respond.JSON(w, http.StatusOK, map[string]string{"status": "password_changed"})
}

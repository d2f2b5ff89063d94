// internal/app/features/users/form.go
package users

import (
	"context"
	"net/http"
	"net/mail"

	userstore "github.com/dalemusser/salescrm/internal/app/store/users"
	"github.com/dalemusser/salescrm/internal/app/system/formutil"
	"github.com/dalemusser/salescrm/internal/app/system/normalize"
	"github.com/dalemusser/salescrm/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type userForm struct {
	FullName    string
	Email       string
	Role        models.Role
	Status      string
	Phone       string
	Password    string
	TerritoryID *primitive.ObjectID
}

// validEmail accepts a bare address only; display-name forms are rejected.
func validEmail(s string) bool {
	a, err := mail.ParseAddress(s)
	return err == nil && a.Address == s
}

// readForm parses and checks the user form. The returned message is
// non-empty when the input is unusable.
func (h *Handler) readForm(ctx context.Context, r *http.Request) (userForm, string, error) {
	f := userForm{
		FullName: normalize.Name(formutil.Text(r, "full_name")),
		Email:    normalize.Email(formutil.Text(r, "email")),
		Role:     models.Role(normalize.Role(formutil.Text(r, "role"))),
		Status:   formutil.Text(r, "status"),
		Phone:    formutil.Text(r, "phone"),
		Password: r.PostFormValue("password"),
	}
	if f.FullName == "" {
		return f, "Full name is required.", nil
	}
	if !validEmail(f.Email) {
		return f, "A valid email address is required.", nil
	}
	if !f.Role.Valid() {
		return f, "Role must be admin, manager, or sales.", nil
	}
	if f.Status != "" && f.Status != models.UserActive && f.Status != models.UserDisabled {
		return f, "Status must be active or disabled.", nil
	}
	if f.Password != "" && len(f.Password) < userstore.MinPasswordLen {
		return f, "Password is too short.", nil
	}

	tid, err := formutil.OptionalID(r, "territory_id")
	if err != nil {
		return f, "Unknown territory.", nil
	}
	if tid != nil {
		if _, err := h.Territories.GetByID(ctx, *tid); err == mongo.ErrNoDocuments {
			return f, "Unknown territory.", nil
		} else if err != nil {
			return f, "", err
		}
	}
	f.TerritoryID = tid
	return f, "", nil
}

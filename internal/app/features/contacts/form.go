// internal/app/features/contacts/form.go
package contacts

import (
	"net/http"

	"github.com/dalemusser/salescrm/internal/app/system/formutil"
	"github.com/dalemusser/salescrm/internal/app/system/htmlsanitize"
	"github.com/dalemusser/salescrm/internal/domain/models"
)

func contactFromForm(r *http.Request) (models.Contact, string) {
	c := models.Contact{
		FirstName:    formutil.Text(r, "first_name"),
		LastName:     formutil.Text(r, "last_name"),
		Title:        formutil.Text(r, "title"),
		Department:   formutil.Text(r, "department"),
		Email:        formutil.Text(r, "email"),
		WorkPhone:    formutil.Text(r, "work_phone"),
		MobilePhone1: formutil.Text(r, "mobile_phone_1"),
		MobilePhone2: formutil.Text(r, "mobile_phone_2"),
		Notes:        htmlsanitize.StripTags(formutil.Text(r, "notes")),
	}

	acct, err := formutil.OptionalID(r, "account_id")
	if err != nil {
		return c, "Invalid account."
	}
	c.AccountID = acct

	assignee, err := formutil.OptionalID(r, "assigned_to")
	if err != nil {
		return c, "Invalid assignee."
	}
	c.AssignedTo = assignee
	return c, ""
}

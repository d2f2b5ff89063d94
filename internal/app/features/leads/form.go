// internal/app/features/leads/form.go
package leads

import (
	"net/http"

	"github.com/dalemusser/salescrm/internal/app/system/formutil"
	"github.com/dalemusser/salescrm/internal/app/system/htmlsanitize"
	"github.com/dalemusser/salescrm/internal/app/system/normalize"
	"github.com/dalemusser/salescrm/internal/domain/models"
)

// leadFromForm reads the editable lead fields. The returned message is
// non-empty when a field is malformed.
func leadFromForm(r *http.Request) (models.Lead, string) {
	l := models.Lead{
		FirstName:    formutil.Text(r, "first_name"),
		LastName:     formutil.Text(r, "last_name"),
		CompanyName:  formutil.Text(r, "company_name"),
		Title:        formutil.Text(r, "title"),
		Department:   formutil.Text(r, "department"),
		Email:        formutil.Text(r, "email"),
		WorkPhone:    formutil.Text(r, "work_phone"),
		MobilePhone1: formutil.Text(r, "mobile_phone_1"),
		MobilePhone2: formutil.Text(r, "mobile_phone_2"),
		Address:      formutil.Text(r, "address"),
		Notes:        htmlsanitize.StripTags(formutil.Text(r, "notes")),
		Status:       models.LeadStatus(normalize.Status(formutil.Text(r, "status"))),
		Source:       normalize.Status(formutil.Text(r, "source")),
	}

	territory, err := formutil.OptionalID(r, "territory_id")
	if err != nil {
		return l, "Invalid territory."
	}
	l.TerritoryID = territory

	assignee, err := formutil.OptionalID(r, "assigned_to")
	if err != nil {
		return l, "Invalid assignee."
	}
	l.AssignedTo = assignee
	return l, ""
}

// internal/app/features/accounts/form.go
package accounts

import (
	"net/http"

	"github.com/dalemusser/salescrm/internal/app/system/formutil"
	"github.com/dalemusser/salescrm/internal/app/system/normalize"
	"github.com/dalemusser/salescrm/internal/domain/models"
)

func validStatus(s string) bool {
	switch s {
	case models.AccountActive, models.AccountInactive, models.AccountProspect,
		models.AccountCustomer, models.AccountPartner, models.AccountFormer:
		return true
	}
	return false
}

// accountFromForm reads the editable account fields. The returned message
// is non-empty when a field is malformed.
func accountFromForm(r *http.Request) (models.Account, string) {
	a := models.Account{
		Name:            formutil.Text(r, "name"),
		Website:         formutil.Text(r, "website"),
		Phone:           formutil.Text(r, "phone"),
		BillingAddress:  formutil.Text(r, "billing_address"),
		ShippingAddress: formutil.Text(r, "shipping_address"),
		Industry:        formutil.Text(r, "industry"),
		Status:          normalize.Status(formutil.Text(r, "status")),
	}
	if a.Status != "" && !validStatus(a.Status) {
		return a, "Unknown account status."
	}

	territory, err := formutil.OptionalID(r, "territory_id")
	if err != nil {
		return a, "Invalid territory."
	}
	a.TerritoryID = territory

	assignee, err := formutil.OptionalID(r, "assigned_to")
	if err != nil {
		return a, "Invalid assignee."
	}
	a.AssignedTo = assignee
	return a, ""
}
